package domain

import "time"

// Product — товар каталога. Остаток не бывает отрицательным: единственный
// путь списания при оформлении заказа — условный декремент в хранилище.
type Product struct {
	ID          string
	SKU         string
	Name        string
	Description string
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	Stock      int32
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
