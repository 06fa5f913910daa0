package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
	"github.com/vladislavdragonenkov/shop/internal/storage/postgres"
)

// Dependencies содержит хранилища приложения. Пустой DSN означает
// in-memory режим: удобно для разработки и демо, данные живут до
// перезапуска процесса.
type Dependencies struct {
	Products  domain.ProductStore
	Addresses domain.AddressStore
	Orders    domain.OrderRepository
	Outbox    domain.OutboxRepository
	Timeline  domain.TimelineRepository
	Tx        domain.TxManager
	Logger    *log.Entry

	pg  *postgres.Store
	mem *memory.Store
}

// NewDependencies создаёт хранилища: postgres при заданном DSN, иначе
// in-memory.
func NewDependencies(ctx context.Context, dsn string, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	if dsn == "" {
		store := memory.NewStore()
		logger.Info("postgres dsn is empty, using in-memory storage")
		return &Dependencies{
			Products:  memory.NewProductStore(store),
			Addresses: memory.NewAddressStore(store),
			Orders:    memory.NewOrderRepository(store),
			Outbox:    memory.NewOutboxRepository(),
			Timeline:  memory.NewTimelineRepository(),
			Tx:        memory.NewTxManager(store),
			Logger:    logger,
			mem:       store,
		}, nil
	}

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("postgres storage initialized")

	return &Dependencies{
		Products:  postgres.NewProductStore(store),
		Addresses: postgres.NewAddressStore(store),
		Orders:    postgres.NewOrderRepository(store),
		Outbox:    postgres.NewOutboxRepository(store),
		Timeline:  postgres.NewTimelineRepository(store),
		Tx:        postgres.NewTxManager(store),
		Logger:    logger,
		pg:        store,
	}, nil
}

// InMemory сообщает, работает ли приложение без долговременного хранилища.
func (d *Dependencies) InMemory() bool {
	return d.pg == nil
}

// Ping проверяет доступность хранилища. В in-memory режиме всегда успешен.
func (d *Dependencies) Ping(ctx context.Context) error {
	if d.pg == nil {
		return nil
	}
	return d.pg.Ping(ctx)
}

// Close освобождает ресурсы хранилищ.
func (d *Dependencies) Close() {
	if d.pg != nil {
		if err := d.pg.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}

// SeedDemoCatalog наполняет in-memory хранилище демо-данными, чтобы API
// было с чем пробовать: пара товаров и адрес тестового клиента.
func (d *Dependencies) SeedDemoCatalog(ctx context.Context) {
	if d.mem == nil {
		return
	}

	d.mem.SeedAddress(domain.Address{
		ID:         "addr-demo-1",
		CustomerID: "customer-demo",
		Street:     "Avenida Paulista",
		Number:     "1578",
		District:   "Bela Vista",
		City:       "Sao Paulo",
		State:      "SP",
		PostalCode: "01310200",
	})

	products := []domain.Product{
		{ID: "prod-demo-1", SKU: "DEMO-BOOK", Name: "Clean Architecture", PriceMinor: 8900, Stock: 25},
		{ID: "prod-demo-2", SKU: "DEMO-MUG", Name: "Ceramic Mug", PriceMinor: 2500, Stock: 100},
		{ID: "prod-demo-3", SKU: "DEMO-SHIRT", Name: "T-Shirt", PriceMinor: 4900, Stock: 50},
	}
	for _, p := range products {
		if err := d.Products.Create(ctx, p); err != nil {
			d.Logger.WithError(err).WithField("sku", p.SKU).Warn("failed to seed demo product")
		}
	}
	d.Logger.Info("demo catalog seeded")
}
