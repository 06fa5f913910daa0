package freight

const (
	defaultFlatCostMinor = 1500
	defaultFlatEtaDays   = 7
)

// Flat — доставка по фиксированному тарифу, независимо от направления и веса.
type Flat struct {
	CostMinor int64
	EtaDays   int
}

// NewFlat возвращает калькулятор с тарифом по умолчанию.
func NewFlat() Flat {
	return Flat{
		CostMinor: defaultFlatCostMinor,
		EtaDays:   defaultFlatEtaDays,
	}
}

// Calculate возвращает фиксированный тариф. При стоимости товаров от порога
// доставка бесплатна, срок не меняется.
func (f Flat) Calculate(postalCode string, weightKg float64, goodsMinor int64) Quote {
	if goodsMinor >= FreeShippingThresholdMinor {
		return Quote{CostMinor: 0, EtaDays: f.EtaDays}
	}
	return Quote{CostMinor: f.CostMinor, EtaDays: f.EtaDays}
}

var _ Calculator = Flat{}
