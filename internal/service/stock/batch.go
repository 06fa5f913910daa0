package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
)

// Update — одна позиция пакетного обновления остатков.
type Update struct {
	SKU   string
	Stock int32
}

// ItemError — ошибка по одной позиции пакета.
type ItemError struct {
	SKU string
	Err error
}

// Result — итог применения пакета: сколько позиций применено и какие упали.
type Result struct {
	Applied int
	Errors  []ItemError
}

// BatchUpdater применяет пакетные обновления остатков. Позиции независимы:
// ошибка одной не откатывает остальные.
type BatchUpdater struct {
	products domain.ProductStore
	outbox   domain.OutboxRepository
	logger   *log.Entry
	metrics  *metrics.CheckoutMetrics
}

// NewBatchUpdater создаёт обработчик пакетных обновлений.
func NewBatchUpdater(products domain.ProductStore, logger *log.Entry) *BatchUpdater {
	if logger == nil {
		logger = log.New().WithField("component", "stock-batch")
	}
	return &BatchUpdater{
		products: products,
		logger:   logger,
		metrics:  metrics.NewCheckoutMetrics(),
	}
}

// NewBatchUpdaterWithoutMetrics создаёт обработчик без метрик (для тестов).
func NewBatchUpdaterWithoutMetrics(products domain.ProductStore, logger *log.Entry) *BatchUpdater {
	updater := NewBatchUpdater(products, logger)
	updater.metrics = nil
	return updater
}

// WithOutbox включает публикацию события о применённом пакете.
func (u *BatchUpdater) WithOutbox(outbox domain.OutboxRepository) *BatchUpdater {
	u.outbox = outbox
	return u
}

// Apply применяет пакет позиция за позицией. Невалидные и упавшие позиции
// попадают в Result.Errors, обработка продолжается.
func (u *BatchUpdater) Apply(ctx context.Context, updates []Update) Result {
	var result Result
	for _, update := range updates {
		if err := u.applyOne(ctx, update); err != nil {
			result.Errors = append(result.Errors, ItemError{SKU: update.SKU, Err: err})
			u.logger.WithError(err).WithField("sku", update.SKU).Warn("stock update rejected")
			continue
		}
		result.Applied++
	}

	if u.metrics != nil {
		u.metrics.RecordStockBatchApplied(result.Applied)
		u.metrics.RecordStockBatchErrors(len(result.Errors))
	}
	if len(updates) > 0 {
		u.emitBatchApplied(result)
	}
	u.logger.WithFields(log.Fields{
		"applied": result.Applied,
		"errors":  len(result.Errors),
	}).Info("stock batch applied")
	return result
}

// emitBatchApplied пишет итог пакета в outbox. Остатки уже применены:
// ошибка публикации только логируется.
func (u *BatchUpdater) emitBatchApplied(result Result) {
	if u.outbox == nil {
		return
	}

	payload, err := json.Marshal(kafka.NewStockEvent(result.Applied, len(result.Errors)))
	if err != nil {
		u.logger.WithError(err).Warn("failed to marshal stock batch event")
		return
	}

	if _, err := u.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: "stock",
		EventType:     string(kafka.EventTypeStockBatchApplied),
		Payload:       payload,
	}); err != nil {
		u.logger.WithError(err).Warn("failed to enqueue stock batch event")
	}
}

func (u *BatchUpdater) applyOne(ctx context.Context, update Update) error {
	if update.SKU == "" {
		return errors.New("sku is required")
	}
	if update.Stock < 0 {
		return fmt.Errorf("stock must be non-negative, got %d", update.Stock)
	}
	return u.products.SetStock(ctx, update.SKU, update.Stock)
}
