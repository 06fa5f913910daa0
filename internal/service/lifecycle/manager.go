package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
)

// DefaultPageSize применяется при невалидном или нулевом размере страницы.
const DefaultPageSize = 50

// Page — страница заказов для админских выборок.
type Page struct {
	Orders     []domain.Order
	Total      int
	TotalPages int
}

// Manager обслуживает заказ после оформления: чтение, выборки и смена
// статуса. Переходы не ограничиваются — оператор может выставить любой
// статус из допустимого множества.
type Manager struct {
	orders   domain.OrderRepository
	outbox   domain.OutboxRepository
	timeline domain.TimelineRepository
	logger   *log.Entry
	metrics  *metrics.CheckoutMetrics
}

// NewManager создаёт менеджер жизненного цикла заказов.
func NewManager(
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Manager {
	if logger == nil {
		logger = log.New().WithField("component", "lifecycle")
	}
	return &Manager{
		orders:   orders,
		outbox:   outbox,
		timeline: timeline,
		logger:   logger,
		metrics:  metrics.NewCheckoutMetrics(),
	}
}

// NewManagerWithoutMetrics создаёт менеджер без метрик (для тестов).
func NewManagerWithoutMetrics(
	orders domain.OrderRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Manager {
	manager := NewManager(orders, outbox, timeline, logger)
	manager.metrics = nil
	return manager
}

// Get возвращает заказ с позициями.
func (m *Manager) Get(ctx context.Context, id string) (domain.Order, error) {
	return m.orders.Get(ctx, id)
}

// Timeline возвращает события жизненного цикла заказа.
func (m *Manager) Timeline(ctx context.Context, id string) ([]domain.TimelineEvent, error) {
	if _, err := m.orders.Get(ctx, id); err != nil {
		return nil, err
	}
	return m.timeline.List(id)
}

// ListByCustomer возвращает заказы клиента, свежие первыми.
func (m *Manager) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Order, error) {
	return m.orders.ListByCustomer(ctx, customerID, limit)
}

// ListAll возвращает страницу всех заказов с общим числом страниц.
func (m *Manager) ListAll(ctx context.Context, page, perPage int) (Page, error) {
	page, perPage = normalizePage(page, perPage)

	total, err := m.orders.CountAll(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	orders, err := m.orders.ListPage(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return Page{Orders: orders, Total: total, TotalPages: totalPages(total, perPage)}, nil
}

// FilterByStatus возвращает страницу заказов с данным статусом.
func (m *Manager) FilterByStatus(ctx context.Context, status domain.OrderStatus, page, perPage int) (Page, error) {
	if !domain.IsValidOrderStatus(status) {
		return Page{}, fmt.Errorf("%w: %s", domain.ErrInvalidStatus, status)
	}
	page, perPage = normalizePage(page, perPage)

	total, err := m.orders.CountByStatus(ctx, status)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	orders, err := m.orders.ListByStatusPage(ctx, status, perPage, (page-1)*perPage)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return Page{Orders: orders, Total: total, TotalPages: totalPages(total, perPage)}, nil
}

// UpdateStatus переводит заказ в новый статус и пишет событие в timeline
// и outbox. Статус проверяется на принадлежность допустимому множеству
// до обращения к хранилищу.
func (m *Manager) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	if !domain.IsValidOrderStatus(status) {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrInvalidStatus, status)
	}

	previous, err := m.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if previous.Status == status {
		return previous, nil
	}

	if err := m.orders.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	order, err := m.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	m.emitStatusChanged(order, previous.Status)
	m.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"from":     previous.Status,
		"to":       order.Status,
	}).Info("order status changed")
	return order, nil
}

// emitStatusChanged пишет событие смены статуса; заказ уже сохранён,
// ошибки здесь только логируются.
func (m *Manager) emitStatusChanged(order domain.Order, from domain.OrderStatus) {
	now := time.Now().UTC()
	event := kafka.NewOrderEvent(kafka.EventTypeOrderStatusChanged, order.ID, order.CustomerID, string(order.Status), map[string]interface{}{
		"from": string(from),
	})
	payload, err := json.Marshal(event)
	if err != nil {
		m.logger.WithError(err).WithField("order_id", order.ID).Error("marshal order.status_changed failed")
		return
	}

	if m.outbox != nil {
		msg := domain.OutboxMessage{
			AggregateType: "order",
			AggregateID:   order.ID,
			EventType:     string(kafka.EventTypeOrderStatusChanged),
			Payload:       payload,
		}
		if _, err := m.outbox.Enqueue(msg); err != nil {
			m.logger.WithError(err).WithField("order_id", order.ID).Error("enqueue order.status_changed failed")
		} else if m.metrics != nil {
			m.metrics.RecordOutboxEvent()
		}
	}

	if m.timeline != nil {
		event := domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     string(kafka.EventTypeOrderStatusChanged),
			Reason:   string(from) + " -> " + string(order.Status),
			Occurred: now,
		}
		if err := m.timeline.Append(event); err != nil {
			m.logger.WithError(err).WithField("order_id", order.ID).Warn("append timeline event failed")
		} else if m.metrics != nil {
			m.metrics.RecordTimelineEvent()
		}
	}
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPageSize
	}
	return page, perPage
}

// totalPages считает число страниц с округлением вверх.
func totalPages(total, perPage int) int {
	if total == 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
