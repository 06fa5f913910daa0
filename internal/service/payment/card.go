package payment

import (
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// cardAmountLimitMinor — имитация риск-лимита: суммы выше отклоняются.
const cardAmountLimitMinor = 1000000

// CardGateway — оплата банковской картой (симуляция, без похода во
// внешний процессинг).
type CardGateway struct{}

// Validate проверяет реквизиты карты: номер из 16 цифр, CVV из 3-4 цифр,
// срок действия и имя держателя.
func (CardGateway) Validate(data domain.PaymentData) error {
	number := strings.ReplaceAll(data.CardNumber, " ", "")
	if !digitsOnly(number) || len(number) != 16 {
		return fmt.Errorf("%w: card number must contain 16 digits", domain.ErrPaymentValidation)
	}
	if !digitsOnly(data.CVV) || (len(data.CVV) != 3 && len(data.CVV) != 4) {
		return fmt.Errorf("%w: cvv must contain 3 or 4 digits", domain.ErrPaymentValidation)
	}
	if strings.TrimSpace(data.Expiry) == "" {
		return fmt.Errorf("%w: expiry is required", domain.ErrPaymentValidation)
	}
	if strings.TrimSpace(data.Holder) == "" {
		return fmt.Errorf("%w: holder name is required", domain.ErrPaymentValidation)
	}
	return nil
}

// Process одобряет платёж в пределах лимита.
func (g CardGateway) Process(amountMinor int64, data domain.PaymentData) error {
	if err := g.Validate(data); err != nil {
		return err
	}
	if amountMinor > cardAmountLimitMinor {
		return fmt.Errorf("%w: amount above limit", domain.ErrPaymentDeclined)
	}
	return nil
}

var _ Gateway = CardGateway{}
