package payment

import (
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Gateway — платёжный шлюз. Validate всегда вызывается до Process;
// Process не мутирует разделяемое состояние — это пограничный вызов, по
// результату которого движок решает фиксировать или откатывать заказ.
type Gateway interface {
	// Validate проверяет полноту и форму платёжных данных.
	Validate(data domain.PaymentData) error
	// Process имитирует списание средств; при отказе возвращает ошибку,
	// оборачивающую ErrPaymentDeclined.
	Process(amountMinor int64, data domain.PaymentData) error
}

// ForMethod возвращает шлюз для метода оплаты.
func ForMethod(method string) (Gateway, error) {
	switch method {
	case domain.PaymentMethodCard:
		return CardGateway{}, nil
	case domain.PaymentMethodTransfer:
		return TransferGateway{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidPaymentMethod, method)
	}
}

// KnownMethod проверяет, что метод оплаты поддерживается.
func KnownMethod(method string) bool {
	_, err := ForMethod(method)
	return err == nil
}

// digitsOnly проверяет, что строка непуста и состоит из одних цифр.
func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// stripFormatting убирает типичные разделители из введённых реквизитов.
func stripFormatting(s string) string {
	return strings.NewReplacer(" ", "", ".", "", "-", "").Replace(s)
}
