package payment

import "github.com/vladislavdragonenkov/shop/internal/domain"

// MockGateway — конфигурируемая заглушка Gateway для тестов.
type MockGateway struct {
	ValidateErr error
	ProcessErr  error

	ValidateCalls int
	ProcessCalls  int
	LastAmount    int64
}

// NewMockGateway возвращает mock с успешным сценарием по умолчанию.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Validate возвращает заранее настроенную ошибку и считает вызовы.
func (m *MockGateway) Validate(data domain.PaymentData) error {
	m.ValidateCalls++
	return m.ValidateErr
}

// Process возвращает настроенный результат, запоминает сумму и считает вызовы.
func (m *MockGateway) Process(amountMinor int64, data domain.PaymentData) error {
	m.ProcessCalls++
	m.LastAmount = amountMinor
	return m.ProcessErr
}

var _ Gateway = (*MockGateway)(nil)
