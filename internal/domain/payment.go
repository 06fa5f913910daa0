package domain

// Методы оплаты, известные движку оформления.
const (
	// PaymentMethodCard — оплата банковской картой.
	PaymentMethodCard = "card"
	// PaymentMethodTransfer — мгновенный перевод, подтверждается сразу.
	PaymentMethodTransfer = "transfer"
)

// PaymentData — данные платежа, переданные покупателем. Какие поля
// обязательны, решает конкретный платёжный шлюз.
type PaymentData struct {
	// Для карты.
	CardNumber string
	CVV        string
	Expiry     string
	Holder     string
	// Для мгновенного перевода.
	PayerTaxID string
}
