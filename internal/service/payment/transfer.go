package payment

import (
	"fmt"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// TransferGateway — мгновенный перевод. Валидный платёж подтверждается
// сразу: модель рельсов с моментальным подтверждением.
type TransferGateway struct{}

// Validate требует налоговый идентификатор плательщика: 11 цифр после
// удаления форматирования.
func (TransferGateway) Validate(data domain.PaymentData) error {
	taxID := stripFormatting(data.PayerTaxID)
	if !digitsOnly(taxID) || len(taxID) != 11 {
		return fmt.Errorf("%w: payer tax id must contain 11 digits", domain.ErrPaymentValidation)
	}
	return nil
}

// Process всегда одобряет валидный перевод.
func (g TransferGateway) Process(amountMinor int64, data domain.PaymentData) error {
	return g.Validate(data)
}

var _ Gateway = TransferGateway{}
