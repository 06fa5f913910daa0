package domain

import "time"

// OrderStatus описывает жизненный цикл заказа после оформления.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан и ожидает обработки.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing — заказ взят в обработку.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен клиенту.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderStatuses — допустимое множество статусов. Порядок переходов не
// ограничивается: админ может вернуть любой статус в любой другой.
var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// IsValidOrderStatus проверяет принадлежность статуса допустимому множеству.
func IsValidOrderStatus(status OrderStatus) bool {
	_, ok := orderStatuses[status]
	return ok
}

// OrderLine — снимок позиции заказа на момент оформления. Последующие
// изменения каталога не влияют на исторические заказы.
type OrderLine struct {
	ID string
	// OrderID заполняется после того, как известен идентификатор заказа.
	OrderID   string
	ProductID string
	// ProductName — имя товара на момент покупки.
	ProductName string
	Qty         int32
	// PriceMinor — цена за единицу на момент покупки, в минимальных единицах.
	PriceMinor    int64
	SubtotalMinor int64
	CreatedAt     time.Time
}

// Order агрегирует шапку заказа и снимки позиций. После создания
// неизменяем, кроме статуса.
type Order struct {
	ID         string
	CustomerID string
	Status     OrderStatus
	// TotalMinor = сумма subtotal позиций + FreightMinor; фиксируется при
	// создании и не пересчитывается.
	TotalMinor     int64
	FreightMinor   int64
	FreightEtaDays int
	// DeliveryAddress — развёрнутый адрес доставки одной строкой.
	DeliveryAddress string
	PaymentMethod   string
	Items           []OrderLine
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if !IsValidOrderStatus(o.Status) {
		errs = append(errs, ErrInvalidStatus)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.FreightMinor < 0 {
		errs = append(errs, ErrFreightNegative)
	}

	// Сверяем сумму заказа: subtotal позиций плюс доставка, ровно один раз.
	var lines int64
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if item.SubtotalMinor != int64(item.Qty)*item.PriceMinor {
			errs = append(errs, ErrLineSubtotalMismatch)
		}
		lines += item.SubtotalMinor
	}
	if lines+o.FreightMinor != o.TotalMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
