package freight

import (
	"fmt"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Типы расчёта доставки, известные движку оформления.
const (
	TypeFlat   = "flat"
	TypeTiered = "tiered"
)

// FreeShippingThresholdMinor — порог бесплатной доставки по стоимости
// товаров, общий для всех калькуляторов.
const FreeShippingThresholdMinor = 50000

// Quote — результат расчёта: стоимость и срок доставки.
type Quote struct {
	CostMinor int64
	EtaDays   int
}

// Calculator — стратегия расчёта доставки. Реализации — чистые
// детерминированные функции от аргументов: движок вызывает их внутри
// транзакции и не ждёт от них ни I/O, ни состояния.
type Calculator interface {
	// Calculate принимает почтовый индекс назначения, суммарный вес в кг
	// (0 трактуется как посылка до 1 кг) и стоимость товаров.
	Calculate(postalCode string, weightKg float64, goodsMinor int64) Quote
}

// ForType возвращает калькулятор для типа доставки.
func ForType(freightType string) (Calculator, error) {
	switch freightType {
	case TypeFlat:
		return NewFlat(), nil
	case TypeTiered:
		return NewTiered(), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidFreightType, freightType)
	}
}

// KnownType проверяет, что тип доставки поддерживается.
func KnownType(freightType string) bool {
	_, err := ForType(freightType)
	return err == nil
}
