package domain

import (
	"context"
	"time"
)

// ProductStore описывает требования движка оформления к каталогу товаров.
// Контекст несёт открытую транзакцию, если вызов происходит внутри WithinTx.
type ProductStore interface {
	// GetByID возвращает товар или ErrProductNotFound.
	GetByID(ctx context.Context, id string) (Product, error)
	// GetBySKU возвращает товар по SKU или ErrProductNotFound.
	GetBySKU(ctx context.Context, sku string) (Product, error)
	// Create сохраняет новый товар.
	Create(ctx context.Context, product Product) error
	// DecrementStock атомарно списывает qty единиц. Предусловие
	// stock >= qty перепроверяется в момент записи; при нехватке —
	// ErrInsufficientStock, при отсутствии товара — ErrProductNotFound.
	DecrementStock(ctx context.Context, id string, qty int32) error
	// SetStock безусловно перезаписывает остаток по SKU.
	SetStock(ctx context.Context, sku string, stock int32) error
}

// AddressStore отдаёт адреса доставки для проверки принадлежности клиенту.
type AddressStore interface {
	// GetByID возвращает адрес или ErrInvalidAddress.
	GetByID(ctx context.Context, id string) (Address, error)
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет шапку заказа вместе со снимками позиций.
	Create(ctx context.Context, order Order) error
	// Get возвращает заказ с позициями или ErrOrderNotFound.
	Get(ctx context.Context, id string) (Order, error)
	// ListByCustomer возвращает заказы клиента, свежие первыми.
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]Order, error)
	// ListPage возвращает страницу всех заказов.
	ListPage(ctx context.Context, limit, offset int) ([]Order, error)
	// CountAll возвращает общее число заказов.
	CountAll(ctx context.Context) (int, error)
	// ListByStatusPage возвращает страницу заказов с данным статусом.
	ListByStatusPage(ctx context.Context, status OrderStatus, limit, offset int) ([]Order, error)
	// CountByStatus возвращает число заказов с данным статусом.
	CountByStatus(ctx context.Context, status OrderStatus) (int, error)
	// UpdateStatus напрямую перезаписывает статус существующего заказа.
	UpdateStatus(ctx context.Context, id string, status OrderStatus) error
}

// TxManager очерчивает транзакционную границу: всё внутри fn либо
// фиксируется целиком, либо откатывается целиком.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}
