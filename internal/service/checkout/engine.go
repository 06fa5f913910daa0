package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
	"github.com/vladislavdragonenkov/shop/internal/service/freight"
	"github.com/vladislavdragonenkov/shop/internal/service/payment"
)

// CreateOrderInput — всё, что нужно движку для оформления одного заказа.
type CreateOrderInput struct {
	CustomerID    string
	Lines         []domain.CartLine
	AddressID     string
	PaymentMethod string
	Payment       domain.PaymentData
	FreightType   string
	// WeightKg — суммарный вес корзины; 0 трактуется как посылка до 1 кг.
	WeightKg float64
}

// Engine оформляет заказы. Списание остатков, снятие снимков позиций,
// платёж и запись заказа выполняются внутри одной транзакции: заказ либо
// появляется целиком вместе со списанными остатками, либо не появляется
// вовсе. Очистка корзины — забота вызывающего, движок корзин не трогает.
type Engine struct {
	products  domain.ProductStore
	addresses domain.AddressStore
	orders    domain.OrderRepository
	outbox    domain.OutboxRepository
	timeline  domain.TimelineRepository
	tx        domain.TxManager
	logger    *log.Entry
	metrics   *metrics.CheckoutMetrics

	// gateways подменяется в тестах, в бою — payment.ForMethod.
	gateways func(method string) (payment.Gateway, error)
}

// NewEngine создаёт рабочий движок оформления.
func NewEngine(
	products domain.ProductStore,
	addresses domain.AddressStore,
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	tx domain.TxManager,
	logger *log.Entry,
) *Engine {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	return &Engine{
		products:  products,
		addresses: addresses,
		orders:    orders,
		outbox:    outbox,
		timeline:  timeline,
		tx:        tx,
		logger:    logger,
		metrics:   metrics.NewCheckoutMetrics(),
		gateways:  payment.ForMethod,
	}
}

// NewEngineWithoutMetrics создаёт движок без метрик (для тестов).
func NewEngineWithoutMetrics(
	products domain.ProductStore,
	addresses domain.AddressStore,
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	tx domain.TxManager,
	logger *log.Entry,
) *Engine {
	engine := NewEngine(products, addresses, orders, outbox, timeline, tx, logger)
	engine.metrics = nil
	return engine
}

// CreateOrder проводит оформление: валидирует вход, в транзакции
// перечитывает каталог, списывает остатки, считает доставку, проводит
// платёж и сохраняет заказ. Возвращает созданный заказ.
func (e *Engine) CreateOrder(ctx context.Context, input CreateOrderInput) (domain.Order, error) {
	start := time.Now()
	if e.metrics != nil {
		e.metrics.CheckoutStarted()
		defer func() {
			e.metrics.CheckoutFinished()
			e.metrics.RecordCheckoutDuration(time.Since(start))
		}()
	}

	gateway, calculator, address, err := e.validateInput(ctx, input)
	if err != nil {
		e.recordFailure(input.CustomerID, err)
		return domain.Order{}, err
	}

	var order domain.Order
	err = e.tx.WithinTx(ctx, func(txCtx context.Context) error {
		built, buildErr := e.buildOrder(txCtx, input, calculator, address)
		if buildErr != nil {
			return buildErr
		}
		if payErr := gateway.Process(built.TotalMinor, input.Payment); payErr != nil {
			return payErr
		}
		if createErr := e.orders.Create(txCtx, built); createErr != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorage, createErr)
		}
		order = built
		return nil
	})
	if err != nil {
		e.recordFailure(input.CustomerID, err)
		return domain.Order{}, err
	}

	e.emitCreated(order)
	if e.metrics != nil {
		e.metrics.RecordOrderCreated()
		// Списания считаем только после фиксации транзакции.
		for range order.Items {
			e.metrics.RecordStockDecrement()
		}
	}
	e.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"total_minor": order.TotalMinor,
		"items":       len(order.Items),
	}).Info("order created")
	return order, nil
}

// validateInput проверяет предусловия оформления до открытия транзакции:
// непустая корзина, известные метод оплаты и тип доставки, адрес клиента,
// форма платёжных данных.
func (e *Engine) validateInput(ctx context.Context, input CreateOrderInput) (payment.Gateway, freight.Calculator, domain.Address, error) {
	if len(input.Lines) == 0 {
		return nil, nil, domain.Address{}, domain.ErrEmptyCart
	}
	for _, line := range input.Lines {
		if line.Qty <= 0 {
			return nil, nil, domain.Address{}, fmt.Errorf("%w: %s", domain.ErrInvalidQuantity, line.ProductID)
		}
	}

	gateway, err := e.gateways(input.PaymentMethod)
	if err != nil {
		return nil, nil, domain.Address{}, err
	}
	calculator, err := freight.ForType(input.FreightType)
	if err != nil {
		return nil, nil, domain.Address{}, err
	}

	address, err := e.addresses.GetByID(ctx, input.AddressID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAddress) {
			return nil, nil, domain.Address{}, err
		}
		return nil, nil, domain.Address{}, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	// Чужой адрес неотличим от несуществующего: не раскрываем его наличие.
	if address.CustomerID != input.CustomerID {
		return nil, nil, domain.Address{}, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, input.AddressID)
	}

	if err := gateway.Validate(input.Payment); err != nil {
		return nil, nil, domain.Address{}, err
	}
	return gateway, calculator, address, nil
}

// buildOrder перечитывает каждую позицию из каталога, списывает остатки
// и собирает заказ со снимками актуальных имени и цены. Вызывается только
// внутри транзакции.
func (e *Engine) buildOrder(ctx context.Context, input CreateOrderInput, calculator freight.Calculator, address domain.Address) (domain.Order, error) {
	now := time.Now().UTC()
	orderID := uuid.NewString()

	items := make([]domain.OrderLine, 0, len(input.Lines))
	var goodsMinor int64
	for _, line := range input.Lines {
		product, err := e.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				// Товара уже нет в каталоге — в ошибке имя из корзины.
				return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, line.Name)
			}
			return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}

		if err := e.products.DecrementStock(ctx, product.ID, line.Qty); err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrInsufficientStock, product.Name)
			}
			if errors.Is(err, domain.ErrProductNotFound) {
				return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, line.Name)
			}
			return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}

		subtotal := int64(line.Qty) * product.PriceMinor
		items = append(items, domain.OrderLine{
			ID:            uuid.NewString(),
			OrderID:       orderID,
			ProductID:     product.ID,
			ProductName:   product.Name,
			Qty:           line.Qty,
			PriceMinor:    product.PriceMinor,
			SubtotalMinor: subtotal,
			CreatedAt:     now,
		})
		goodsMinor += subtotal
	}

	quote := calculator.Calculate(address.PostalCode, input.WeightKg, goodsMinor)

	order := domain.Order{
		ID:              orderID,
		CustomerID:      input.CustomerID,
		Status:          domain.OrderStatusPending,
		TotalMinor:      goodsMinor + quote.CostMinor,
		FreightMinor:    quote.CostMinor,
		FreightEtaDays:  quote.EtaDays,
		DeliveryAddress: address.Snapshot(),
		PaymentMethod:   input.PaymentMethod,
		Items:           items,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrStorage, errors.Join(errs...))
	}
	return order, nil
}

// emitCreated пишет событие о созданном заказе в outbox и timeline.
// Заказ уже зафиксирован: ошибки здесь только логируются.
func (e *Engine) emitCreated(order domain.Order) {
	event := kafka.NewOrderEvent(kafka.EventTypeOrderCreated, order.ID, order.CustomerID, string(order.Status), map[string]interface{}{
		"total_minor": order.TotalMinor,
	})
	payload, err := json.Marshal(event)
	if err != nil {
		e.logger.WithError(err).WithField("order_id", order.ID).Error("marshal order.created failed")
		return
	}

	if e.outbox != nil {
		msg := domain.OutboxMessage{
			AggregateType: "order",
			AggregateID:   order.ID,
			EventType:     string(kafka.EventTypeOrderCreated),
			Payload:       payload,
		}
		if _, err := e.outbox.Enqueue(msg); err != nil {
			e.logger.WithError(err).WithField("order_id", order.ID).Error("enqueue order.created failed")
		} else if e.metrics != nil {
			e.metrics.RecordOutboxEvent()
		}
	}

	if e.timeline != nil {
		event := domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     string(kafka.EventTypeOrderCreated),
			Occurred: order.CreatedAt,
		}
		if err := e.timeline.Append(event); err != nil {
			e.logger.WithError(err).WithField("order_id", order.ID).Warn("append timeline event failed")
		} else if e.metrics != nil {
			e.metrics.RecordTimelineEvent()
		}
	}
}

func (e *Engine) recordFailure(customerID string, err error) {
	if e.metrics != nil {
		e.metrics.RecordOrderFailed(failureReason(err))
	}
	e.logger.WithError(err).WithField("customer_id", customerID).Warn("checkout failed")
}

// failureReason сводит ошибку к метке метрики с ограниченной кардинальностью.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrInvalidPaymentMethod):
		return "invalid_payment_method"
	case errors.Is(err, domain.ErrInvalidFreightType):
		return "invalid_freight_type"
	case errors.Is(err, domain.ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrPaymentValidation):
		return "payment_validation"
	case errors.Is(err, domain.ErrPaymentDeclined):
		return "payment_declined"
	default:
		return "storage"
	}
}
