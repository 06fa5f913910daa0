package domain

import "errors"

var (
	// ErrEmptyCart — попытка оформить заказ с пустой корзиной.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidQuantity — количество в корзине должно быть больше нуля.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrCartItemNotFound — товар отсутствует в корзине.
	ErrCartItemNotFound = errors.New("item not found in cart")
	// ErrInvalidPaymentMethod — неизвестный метод оплаты.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	// ErrInvalidFreightType — неизвестный тип расчёта доставки.
	ErrInvalidFreightType = errors.New("invalid freight type")
	// ErrInvalidAddress — адрес не существует или принадлежит другому клиенту.
	ErrInvalidAddress = errors.New("invalid delivery address")
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock — остатка недостаточно для запрошенного количества.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrPaymentValidation — платёжные данные не прошли валидацию шлюза.
	ErrPaymentValidation = errors.New("payment validation failed")
	// ErrPaymentDeclined — платёж отклонён шлюзом.
	ErrPaymentDeclined = errors.New("payment declined")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidStatus — статус вне допустимого множества.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrStorage оборачивает любую ошибку хранилища или транзакции.
	ErrStorage = errors.New("storage failure")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	// Ошибки инвариантов заказа.
	ErrCustomerRequired     = errors.New("customer_id is required")
	ErrItemsRequired        = errors.New("order must contain at least one item")
	ErrItemQtyInvalid       = errors.New("item qty must be greater than zero")
	ErrItemPriceInvalid     = errors.New("item price must be non-negative")
	ErrLineSubtotalMismatch = errors.New("line subtotal does not match qty * price")
	ErrFreightNegative      = errors.New("freight must be non-negative")
	ErrAmountMismatch       = errors.New("order total does not match lines sum plus freight")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
