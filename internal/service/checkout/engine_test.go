package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
	"github.com/vladislavdragonenkov/shop/internal/service/freight"
	"github.com/vladislavdragonenkov/shop/internal/service/payment"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

type engineFixture struct {
	engine   *Engine
	store    *memory.Store
	products domain.ProductStore
	orders   domain.OrderRepository
	outbox   domain.OutboxRepository
	timeline domain.TimelineRepository
	gateway  *payment.MockGateway
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()

	store := memory.NewStore()
	products := memory.NewProductStore(store)
	orders := memory.NewOrderRepository(store)
	outbox := memory.NewOutboxRepository()
	timeline := memory.NewTimelineRepository()

	engine := NewEngineWithoutMetrics(
		products,
		memory.NewAddressStore(store),
		orders,
		outbox,
		timeline,
		memory.NewTxManager(store),
		nil,
	)
	gateway := payment.NewMockGateway()
	engine.gateways = func(method string) (payment.Gateway, error) {
		if method != domain.PaymentMethodCard && method != domain.PaymentMethodTransfer {
			return nil, domain.ErrInvalidPaymentMethod
		}
		return gateway, nil
	}

	store.SeedAddress(domain.Address{
		ID:         "addr-1",
		CustomerID: "customer-1",
		Street:     "Rua das Flores",
		Number:     "100",
		District:   "Centro",
		City:       "Curitiba",
		State:      "PR",
		PostalCode: "80010000",
	})
	if err := products.Create(context.Background(), domain.Product{
		ID:         "p-1",
		SKU:        "SKU-1",
		Name:       "Widget",
		PriceMinor: 5000,
		Stock:      5,
	}); err != nil {
		t.Fatalf("seed product failed: %v", err)
	}

	return &engineFixture{
		engine:   engine,
		store:    store,
		products: products,
		orders:   orders,
		outbox:   outbox,
		timeline: timeline,
		gateway:  gateway,
	}
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerID: "customer-1",
		Lines: []domain.CartLine{
			{ProductID: "p-1", Name: "Widget", PriceMinor: 5000, Qty: 2},
		},
		AddressID:     "addr-1",
		PaymentMethod: domain.PaymentMethodCard,
		FreightType:   freight.TypeFlat,
	}
}

func TestEngine_CreateOrder(t *testing.T) {
	fx := newFixture(t)

	order, err := fx.engine.CreateOrder(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 2 * 5000 товаров + 1500 фиксированной доставки.
	if order.TotalMinor != 11500 {
		t.Fatalf("expected total 11500, got %d", order.TotalMinor)
	}
	if order.FreightMinor != 1500 || order.FreightEtaDays != 7 {
		t.Fatalf("unexpected freight quote: %d / %d days", order.FreightMinor, order.FreightEtaDays)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if order.DeliveryAddress != "Rua das Flores, 100, Centro, Curitiba/PR, CEP: 80010000" {
		t.Fatalf("unexpected address snapshot: %s", order.DeliveryAddress)
	}

	product, _ := fx.products.GetByID(context.Background(), "p-1")
	if product.Stock != 3 {
		t.Fatalf("expected stock 3 after checkout, got %d", product.Stock)
	}

	stored, err := fx.orders.Get(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if len(stored.Items) != 1 || stored.Items[0].SubtotalMinor != 10000 {
		t.Fatalf("unexpected stored items: %v", stored.Items)
	}

	if fx.gateway.LastAmount != 11500 {
		t.Fatalf("gateway charged %d, expected 11500", fx.gateway.LastAmount)
	}
	if fx.gateway.ValidateCalls == 0 || fx.gateway.ProcessCalls != 1 {
		t.Fatalf("unexpected gateway calls: validate=%d process=%d", fx.gateway.ValidateCalls, fx.gateway.ProcessCalls)
	}

	events, _ := fx.timeline.List(order.ID)
	if len(events) != 1 || events[0].Type != "order.created" {
		t.Fatalf("expected order.created timeline event, got %v", events)
	}
	pending, _ := fx.outbox.PullPending(10)
	if len(pending) != 1 || pending[0].EventType != "order.created" {
		t.Fatalf("expected order.created in outbox, got %v", pending)
	}

	// Payload — типизированный конверт, который читает consumer.
	event, err := kafka.ParseOrderEvent(&sarama.ConsumerMessage{Value: pending[0].Payload})
	if err != nil {
		t.Fatalf("outbox payload must parse as order event: %v", err)
	}
	if event.EventType != kafka.EventTypeOrderCreated || event.OrderID != order.ID {
		t.Fatalf("unexpected event envelope: %+v", event)
	}
	if event.CustomerID != "customer-1" || event.Status != string(domain.OrderStatusPending) {
		t.Fatalf("unexpected event envelope: %+v", event)
	}
	if total, ok := event.Metadata["total_minor"].(float64); !ok || int64(total) != 11500 {
		t.Fatalf("expected total_minor 11500 in metadata, got %v", event.Metadata)
	}
}

func TestEngine_CreateOrder_SnapshotsCurrentCatalog(t *testing.T) {
	fx := newFixture(t)

	// Корзина хранит устаревшие имя и цену: заказ должен взять актуальные.
	input := validInput()
	input.Lines[0].Name = "Old Widget"
	input.Lines[0].PriceMinor = 100

	order, err := fx.engine.CreateOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Items[0].ProductName != "Widget" {
		t.Fatalf("expected current name, got %s", order.Items[0].ProductName)
	}
	if order.Items[0].PriceMinor != 5000 {
		t.Fatalf("expected current price 5000, got %d", order.Items[0].PriceMinor)
	}
}

func TestEngine_CreateOrder_EmptyCart(t *testing.T) {
	fx := newFixture(t)

	input := validInput()
	input.Lines = nil

	if _, err := fx.engine.CreateOrder(context.Background(), input); !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestEngine_CreateOrder_UnknownPaymentMethod(t *testing.T) {
	fx := newFixture(t)

	input := validInput()
	input.PaymentMethod = "crypto"

	if _, err := fx.engine.CreateOrder(context.Background(), input); !errors.Is(err, domain.ErrInvalidPaymentMethod) {
		t.Fatalf("expected ErrInvalidPaymentMethod, got %v", err)
	}
}

func TestEngine_CreateOrder_UnknownFreightType(t *testing.T) {
	fx := newFixture(t)

	input := validInput()
	input.FreightType = "teleport"

	if _, err := fx.engine.CreateOrder(context.Background(), input); !errors.Is(err, domain.ErrInvalidFreightType) {
		t.Fatalf("expected ErrInvalidFreightType, got %v", err)
	}
}

func TestEngine_CreateOrder_ForeignAddress(t *testing.T) {
	fx := newFixture(t)
	fx.store.SeedAddress(domain.Address{ID: "addr-2", CustomerID: "customer-2", PostalCode: "01000000"})

	input := validInput()
	input.AddressID = "addr-2"
	if _, err := fx.engine.CreateOrder(context.Background(), input); !errors.Is(err, domain.ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress for foreign address, got %v", err)
	}

	input.AddressID = "missing"
	if _, err := fx.engine.CreateOrder(context.Background(), input); !errors.Is(err, domain.ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress for missing address, got %v", err)
	}
}

func TestEngine_CreateOrder_PaymentValidation(t *testing.T) {
	fx := newFixture(t)
	fx.gateway.ValidateErr = domain.ErrPaymentValidation

	_, err := fx.engine.CreateOrder(context.Background(), validInput())
	if !errors.Is(err, domain.ErrPaymentValidation) {
		t.Fatalf("expected ErrPaymentValidation, got %v", err)
	}

	// Валидация падает до транзакции: остаток не тронут.
	product, _ := fx.products.GetByID(context.Background(), "p-1")
	if product.Stock != 5 {
		t.Fatalf("expected stock untouched at 5, got %d", product.Stock)
	}
}

func TestEngine_CreateOrder_InsufficientStockRollsBack(t *testing.T) {
	fx := newFixture(t)
	if err := fx.products.Create(context.Background(), domain.Product{
		ID: "p-2", SKU: "SKU-2", Name: "Gadget", PriceMinor: 1000, Stock: 1,
	}); err != nil {
		t.Fatalf("seed product failed: %v", err)
	}

	input := validInput()
	input.Lines = append(input.Lines, domain.CartLine{ProductID: "p-2", Name: "Gadget", PriceMinor: 1000, Qty: 3})

	_, err := fx.engine.CreateOrder(context.Background(), input)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Транзакция откатила списание по первой позиции.
	first, _ := fx.products.GetByID(context.Background(), "p-1")
	if first.Stock != 5 {
		t.Fatalf("expected stock restored to 5, got %d", first.Stock)
	}
	count, _ := fx.orders.CountAll(context.Background())
	if count != 0 {
		t.Fatalf("expected no orders persisted, got %d", count)
	}
}

func TestEngine_CreateOrder_MissingProductUsesCartName(t *testing.T) {
	fx := newFixture(t)

	input := validInput()
	input.Lines = []domain.CartLine{{ProductID: "ghost", Name: "Phantom Widget", Qty: 1}}

	_, err := fx.engine.CreateOrder(context.Background(), input)
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	// В ошибке имя из корзины: каталожного имени уже не существует.
	if got := err.Error(); got != "product not found: Phantom Widget" {
		t.Fatalf("unexpected error text: %s", got)
	}
}

func TestEngine_CreateOrder_PaymentDeclinedRollsBack(t *testing.T) {
	fx := newFixture(t)
	fx.gateway.ProcessErr = domain.ErrPaymentDeclined

	_, err := fx.engine.CreateOrder(context.Background(), validInput())
	if !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}

	product, _ := fx.products.GetByID(context.Background(), "p-1")
	if product.Stock != 5 {
		t.Fatalf("expected stock restored to 5, got %d", product.Stock)
	}
	count, _ := fx.orders.CountAll(context.Background())
	if count != 0 {
		t.Fatalf("expected no orders persisted, got %d", count)
	}
	pending, _ := fx.outbox.PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox, got %d messages", len(pending))
	}
}

func TestEngine_CreateOrder_FreeShippingAboveThreshold(t *testing.T) {
	fx := newFixture(t)

	input := validInput()
	// 10 * 5000 = 50000, ровно порог бесплатной доставки.
	input.Lines[0].Qty = 10
	if err := fx.products.SetStock(context.Background(), "SKU-1", 10); err != nil {
		t.Fatalf("set stock failed: %v", err)
	}

	order, err := fx.engine.CreateOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.FreightMinor != 0 {
		t.Fatalf("expected free shipping, got %d", order.FreightMinor)
	}
	if order.TotalMinor != 50000 {
		t.Fatalf("expected total 50000, got %d", order.TotalMinor)
	}
}

func TestEngine_CreateOrder_StockDecrementCountsCommitsOnly(t *testing.T) {
	fx := newFixture(t)
	registry := prometheus.NewRegistry()
	fx.engine.metrics = metrics.NewCheckoutMetricsWithRegisterer(registry)

	// Списание прошло, но платёж отклонён: транзакция откатилась,
	// счётчик зафиксированных списаний остаётся нулевым.
	fx.gateway.ProcessErr = domain.ErrPaymentDeclined
	if _, err := fx.engine.CreateOrder(context.Background(), validInput()); !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}
	if got := counterValue(t, registry, "shop_stock_decrements_total"); got != 0 {
		t.Fatalf("rolled back checkout must not count decrements, got %v", got)
	}

	fx.gateway.ProcessErr = nil
	if _, err := fx.engine.CreateOrder(context.Background(), validInput()); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if got := counterValue(t, registry, "shop_stock_decrements_total"); got != 1 {
		t.Fatalf("expected one committed decrement, got %v", got)
	}
}

func counterValue(t *testing.T, gatherer prometheus.Gatherer, name string) float64 {
	t.Helper()

	families, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, family := range families {
		if family.GetName() == name {
			return family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}
