package domain

import "time"

// TimelineEvent — событие жизненного цикла заказа (создание, смена статуса).
type TimelineEvent struct {
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}
