package freight

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestFlatCalculate(t *testing.T) {
	flat := NewFlat()

	// Стоимость товаров 100.00 — берём полный тариф.
	q := flat.Calculate("01001000", 0.5, 10000)
	if q.CostMinor != defaultFlatCostMinor || q.EtaDays != defaultFlatEtaDays {
		t.Fatalf("unexpected quote: %+v", q)
	}

	// 600.00 — выше порога, доставка бесплатна, срок прежний.
	q = flat.Calculate("01001000", 0.5, 60000)
	if q.CostMinor != 0 {
		t.Fatalf("expected free shipping, got cost %d", q.CostMinor)
	}
	if q.EtaDays != defaultFlatEtaDays {
		t.Fatalf("eta must not change for free shipping, got %d", q.EtaDays)
	}

	// Ровно на пороге — тоже бесплатно.
	if q := flat.Calculate("01001000", 0.5, FreeShippingThresholdMinor); q.CostMinor != 0 {
		t.Fatalf("threshold value must be free, got cost %d", q.CostMinor)
	}
}

func TestTieredCalculate_Bands(t *testing.T) {
	tiered := NewTiered()

	cases := []struct {
		name     string
		postal   string
		wantCost int64
		wantEta  int
	}{
		{name: "near", postal: "01001000", wantCost: 1500, wantEta: 5},
		{name: "near upper bound", postal: "39999999", wantCost: 1500, wantEta: 5},
		{name: "mid", postal: "40001000", wantCost: 2500, wantEta: 8},
		{name: "mid with dash", postal: "6000-1000", wantCost: 2500, wantEta: 8},
		{name: "far", postal: "70001000", wantCost: 3500, wantEta: 12},
		{name: "far upper bound", postal: "99999999", wantCost: 3500, wantEta: 12},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := tiered.Calculate(tc.postal, 1, 10000)
			if q.CostMinor != tc.wantCost || q.EtaDays != tc.wantEta {
				t.Fatalf("postal %s: got %+v, want cost=%d eta=%d", tc.postal, q, tc.wantCost, tc.wantEta)
			}
		})
	}
}

func TestTieredCalculate_WeightSurcharge(t *testing.T) {
	tiered := NewTiered()

	// Ближняя зона, 3 кг: база 1500 + (3-1)*200.
	q := tiered.Calculate("01001000", 3, 10000)
	if want := int64(1500 + 2*perExtraKgMinor); q.CostMinor != want {
		t.Fatalf("expected cost %d, got %d", want, q.CostMinor)
	}

	// До 1 кг включительно надбавки нет.
	if q := tiered.Calculate("01001000", 1, 10000); q.CostMinor != 1500 {
		t.Fatalf("no surcharge expected up to 1kg, got %d", q.CostMinor)
	}
	// Нулевой вес трактуется как посылка до 1 кг.
	if q := tiered.Calculate("01001000", 0, 10000); q.CostMinor != 1500 {
		t.Fatalf("zero weight must quote base cost, got %d", q.CostMinor)
	}
}

func TestTieredCalculate_InvalidPostalCode(t *testing.T) {
	tiered := NewTiered()

	for _, postal := range []string{"", "abc", "123", "0100100Z", "123456789"} {
		q := tiered.Calculate(postal, 1, 10000)
		if q.CostMinor != fallbackCostMinor || q.EtaDays != fallbackEtaDays {
			t.Fatalf("postal %q: expected fallback quote, got %+v", postal, q)
		}
	}

	// Резервный тариф отдаётся как есть: без весовой надбавки.
	if q := tiered.Calculate("bogus", 3, 10000); q.CostMinor != fallbackCostMinor {
		t.Fatalf("fallback must ignore weight surcharge, got %d", q.CostMinor)
	}
	// И без бесплатного порога.
	q := tiered.Calculate("bogus", 0.5, 60000)
	if q.CostMinor != fallbackCostMinor || q.EtaDays != fallbackEtaDays {
		t.Fatalf("fallback must ignore free shipping threshold, got %+v", q)
	}
}

func TestTieredCalculate_FreeShipping(t *testing.T) {
	tiered := NewTiered()

	q := tiered.Calculate("70001000", 5, 60000)
	if q.CostMinor != 0 {
		t.Fatalf("expected free shipping, got cost %d", q.CostMinor)
	}
	// Срок остаётся зонным даже при бесплатной доставке.
	if q.EtaDays != 12 {
		t.Fatalf("expected far band eta 12, got %d", q.EtaDays)
	}
}

func TestForType(t *testing.T) {
	if _, err := ForType(TypeFlat); err != nil {
		t.Fatalf("flat must resolve: %v", err)
	}
	if _, err := ForType(TypeTiered); err != nil {
		t.Fatalf("tiered must resolve: %v", err)
	}

	_, err := ForType("drone")
	if !errors.Is(err, domain.ErrInvalidFreightType) {
		t.Fatalf("expected ErrInvalidFreightType, got %v", err)
	}
	if KnownType("drone") {
		t.Fatalf("unknown type must not be known")
	}
}
