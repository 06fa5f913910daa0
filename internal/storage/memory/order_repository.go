package memory

import (
	"context"
	"sort"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// orderRepositoryInMemory реализует OrderRepository поверх общего Store.
type orderRepositoryInMemory struct {
	store *Store
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepositoryInMemory{store: store}
}

// Create сохраняет новый заказ вместе со снимками позиций, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(ctx context.Context, order domain.Order) error {
	defer r.store.lock(ctx)()

	if _, exists := r.store.orders[order.ID]; exists {
		return domain.ErrOrderVersionConflict
	}
	// Сохраняем копию с собственным срезом позиций, чтобы избежать
	// непредсказуемых мутаций извне.
	r.store.orders[order.ID] = copyOrder(order)
	return nil
}

// Get возвращает заказ с позициями или ErrOrderNotFound.
func (r *orderRepositoryInMemory) Get(ctx context.Context, id string) (domain.Order, error) {
	defer r.store.rlock(ctx)()

	order, ok := r.store.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return copyOrder(order), nil
}

// ListByCustomer возвращает заказы клиента, свежие первыми,
// ограничивая выборку limit (если >0).
func (r *orderRepositoryInMemory) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Order, error) {
	defer r.store.rlock(ctx)()

	result := make([]domain.Order, 0)
	for _, order := range r.store.orders {
		if order.CustomerID != customerID {
			continue
		}
		result = append(result, copyOrder(order))
	}
	sortOrders(result)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListPage возвращает страницу всех заказов, свежие первыми.
func (r *orderRepositoryInMemory) ListPage(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	defer r.store.rlock(ctx)()
	return pageOf(r.allLocked(nil), limit, offset), nil
}

// CountAll возвращает общее число заказов.
func (r *orderRepositoryInMemory) CountAll(ctx context.Context) (int, error) {
	defer r.store.rlock(ctx)()
	return len(r.store.orders), nil
}

// ListByStatusPage возвращает страницу заказов с данным статусом.
func (r *orderRepositoryInMemory) ListByStatusPage(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]domain.Order, error) {
	defer r.store.rlock(ctx)()
	return pageOf(r.allLocked(&status), limit, offset), nil
}

// CountByStatus возвращает число заказов с данным статусом.
func (r *orderRepositoryInMemory) CountByStatus(ctx context.Context, status domain.OrderStatus) (int, error) {
	defer r.store.rlock(ctx)()

	count := 0
	for _, order := range r.store.orders {
		if order.Status == status {
			count++
		}
	}
	return count, nil
}

// UpdateStatus перезаписывает статус существующего заказа.
func (r *orderRepositoryInMemory) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	defer r.store.lock(ctx)()

	order, ok := r.store.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	order.Version++
	r.store.orders[id] = order
	return nil
}

// allLocked собирает отсортированный срез заказов, опционально фильтруя
// по статусу. Вызывается под блокировкой.
func (r *orderRepositoryInMemory) allLocked(status *domain.OrderStatus) []domain.Order {
	result := make([]domain.Order, 0, len(r.store.orders))
	for _, order := range r.store.orders {
		if status != nil && order.Status != *status {
			continue
		}
		result = append(result, copyOrder(order))
	}
	sortOrders(result)
	return result
}

// sortOrders упорядочивает заказы: свежие первыми, при равенстве — по ID.
func sortOrders(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

// pageOf вырезает страницу из уже отсортированного среза.
func pageOf(orders []domain.Order, limit, offset int) []domain.Order {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(orders) {
		return []domain.Order{}
	}
	orders = orders[offset:]
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders
}

// copyOrder создаёт копию заказа с собственным срезом позиций.
func copyOrder(order domain.Order) domain.Order {
	items := make([]domain.OrderLine, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
