package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Store — общее in-memory состояние каталога, адресов и заказов для
// локальной разработки и тестов. Все репозитории пакета работают поверх
// одного Store и одного мьютекса: это позволяет TxManager держать
// эксклюзивную блокировку на время транзакции.
type Store struct {
	mu sync.RWMutex

	products  map[string]domain.Product
	skuIndex  map[string]string
	addresses map[string]domain.Address
	orders    map[string]domain.Order
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{
		products:  make(map[string]domain.Product),
		skuIndex:  make(map[string]string),
		addresses: make(map[string]domain.Address),
		orders:    make(map[string]domain.Order),
	}
}

// SeedAddress кладёт адрес в хранилище (для тестов и локального запуска).
func (s *Store) SeedAddress(address domain.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[address.ID] = address
}

type txKey struct{}

// inTx сообщает, выполняется ли вызов внутри открытой транзакции.
// Транзакция уже держит эксклюзивную блокировку, повторный захват
// привёл бы к deadlock.
func inTx(ctx context.Context) bool {
	marked, ok := ctx.Value(txKey{}).(bool)
	return ok && marked
}

// lock захватывает блокировку на запись, если вызов не внутри транзакции.
// Возвращает функцию освобождения.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// rlock захватывает блокировку на чтение, если вызов не внутри транзакции.
func (s *Store) rlock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

// storeSnapshot — копия мутируемого состояния для отката транзакции.
type storeSnapshot struct {
	products map[string]domain.Product
	skuIndex map[string]string
	orders   map[string]domain.Order
}

// snapshotLocked копирует мутируемые таблицы. Вызывается под mu.Lock.
func (s *Store) snapshotLocked() storeSnapshot {
	snap := storeSnapshot{
		products: make(map[string]domain.Product, len(s.products)),
		skuIndex: make(map[string]string, len(s.skuIndex)),
		orders:   make(map[string]domain.Order, len(s.orders)),
	}
	for id, product := range s.products {
		snap.products[id] = product
	}
	for sku, id := range s.skuIndex {
		snap.skuIndex[sku] = id
	}
	for id, order := range s.orders {
		snap.orders[id] = order
	}
	return snap
}

// restoreLocked возвращает таблицы к снимку. Вызывается под mu.Lock.
func (s *Store) restoreLocked(snap storeSnapshot) {
	s.products = snap.products
	s.skuIndex = snap.skuIndex
	s.orders = snap.orders
}

// TxManager реализует транзакционную границу поверх Store: на время fn
// удерживается эксклюзивная блокировка, при ошибке состояние
// восстанавливается из снимка.
type TxManager struct {
	store *Store
}

// NewTxManager создаёт транзакционный менеджер для хранилища.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// WithinTx выполняет fn атомарно. Вложенный вызов присоединяется к уже
// открытой транзакции.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snap := m.store.snapshotLocked()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.store.restoreLocked(snap)
		return err
	}
	return nil
}

var _ domain.TxManager = (*TxManager)(nil)
