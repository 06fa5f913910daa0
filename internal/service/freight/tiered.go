package freight

import (
	"math"
	"strings"
)

const (
	// Надбавка за вес: за каждый кг сверх первого.
	perExtraKgMinor = 200

	// Консервативный тариф для нераспознанного индекса: оформление заказа
	// не должно падать из-за кривого индекса.
	fallbackCostMinor = 2000
	fallbackEtaDays   = 10
)

// tieredBand — тарифная зона по первой цифре индекса.
type tieredBand struct {
	baseCostMinor int64
	baseEtaDays   int
}

// Зоны: 0-3 — ближняя, 4-6 — средняя, 7-9 — дальняя.
var tieredBands = [3]tieredBand{
	{baseCostMinor: 1500, baseEtaDays: 5},
	{baseCostMinor: 2500, baseEtaDays: 8},
	{baseCostMinor: 3500, baseEtaDays: 12},
}

// Tiered — расчёт по зоне назначения и весу, имитация тарифной сетки
// перевозчика.
type Tiered struct{}

// NewTiered возвращает зонный калькулятор.
func NewTiered() Tiered {
	return Tiered{}
}

// Calculate определяет зону по первой цифре восьмизначного индекса,
// добавляет надбавку за вес сверх 1 кг и применяет порог бесплатной
// доставки. Невалидный индекс даёт резервный тариф как есть, без
// надбавок и без бесплатного порога, а не ошибку.
func (t Tiered) Calculate(postalCode string, weightKg float64, goodsMinor int64) Quote {
	cost, eta, ok := t.baseRate(postalCode)
	if !ok {
		return Quote{CostMinor: cost, EtaDays: eta}
	}

	if weightKg > 1 {
		cost += int64(math.Round((weightKg - 1) * perExtraKgMinor))
	}

	if goodsMinor >= FreeShippingThresholdMinor {
		return Quote{CostMinor: 0, EtaDays: eta}
	}
	return Quote{CostMinor: cost, EtaDays: eta}
}

func (t Tiered) baseRate(postalCode string) (int64, int, bool) {
	code := strings.NewReplacer("-", "", ".", "", " ", "").Replace(postalCode)
	if len(code) != 8 || !allDigits(code) {
		return fallbackCostMinor, fallbackEtaDays, false
	}

	first := int(code[0] - '0')
	switch {
	case first <= 3:
		return tieredBands[0].baseCostMinor, tieredBands[0].baseEtaDays, true
	case first <= 6:
		return tieredBands[1].baseCostMinor, tieredBands[1].baseEtaDays, true
	default:
		return tieredBands[2].baseCostMinor, tieredBands[2].baseEtaDays, true
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

var _ Calculator = Tiered{}
