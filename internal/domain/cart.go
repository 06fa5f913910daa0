package domain

// CartLine — одна позиция корзины: товар и количество до оформления заказа.
// Имя и цена — кеш на момент добавления; движок оформления перечитывает
// актуальные значения из каталога.
type CartLine struct {
	ProductID string
	Name      string
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	Qty        int32
}

// SubtotalMinor возвращает стоимость позиции.
func (l CartLine) SubtotalMinor() int64 {
	return int64(l.Qty) * l.PriceMinor
}

// Cart — корзина одной сессии. Живёт только в памяти: потеря процесса
// теряет корзину, долговременной записью является заказ.
// Корзина не потокобезопасна — она принадлежит ровно одной сессии.
type Cart struct {
	lines map[string]*CartLine
	// order хранит порядок добавления: оформление заказа обходит позиции
	// в том же порядке, в котором их добавил покупатель.
	order []string
}

// NewCart создаёт пустую корзину.
func NewCart() *Cart {
	return &Cart{lines: make(map[string]*CartLine)}
}

// AddItem добавляет товар в корзину. Повторное добавление того же товара
// суммирует количество — дубликатов позиций не бывает.
func (c *Cart) AddItem(productID, name string, priceMinor int64, qty int32) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	if line, ok := c.lines[productID]; ok {
		line.Qty += qty
		return nil
	}

	c.lines[productID] = &CartLine{
		ProductID:  productID,
		Name:       name,
		PriceMinor: priceMinor,
		Qty:        qty,
	}
	c.order = append(c.order, productID)
	return nil
}

// RemoveItem убирает позицию из корзины.
func (c *Cart) RemoveItem(productID string) error {
	if _, ok := c.lines[productID]; !ok {
		return ErrCartItemNotFound
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// UpdateQuantity заменяет количество у существующей позиции.
func (c *Cart) UpdateQuantity(productID string, qty int32) error {
	line, ok := c.lines[productID]
	if !ok {
		return ErrCartItemNotFound
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	line.Qty = qty
	return nil
}

// Items возвращает копии позиций в порядке добавления.
func (c *Cart) Items() []CartLine {
	result := make([]CartLine, 0, len(c.lines))
	for _, id := range c.order {
		if line, ok := c.lines[id]; ok {
			result = append(result, *line)
		}
	}
	return result
}

// TotalMinor — сумма subtotal всех позиций.
func (c *Cart) TotalMinor() int64 {
	var total int64
	for _, line := range c.lines {
		total += line.SubtotalMinor()
	}
	return total
}

// ItemCount — суммарное количество единиц товара (не число позиций).
func (c *Cart) ItemCount() int32 {
	var count int32
	for _, line := range c.lines {
		count += line.Qty
	}
	return count
}

// Len возвращает число позиций в корзине.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Clear удаляет все позиции.
func (c *Cart) Clear() {
	c.lines = make(map[string]*CartLine)
	c.order = nil
}
