package domain

import "fmt"

// Address — адрес доставки клиента. Заказ хранит не ссылку, а развёрнутый
// снимок строки: последующие правки адреса не меняют историю.
type Address struct {
	ID         string
	CustomerID string
	Street     string
	Number     string
	Complement string
	District   string
	City       string
	State      string
	PostalCode string
}

// Snapshot собирает адрес в одну строку для шапки заказа.
// Complement добавляется только если заполнен.
func (a Address) Snapshot() string {
	if a.Complement != "" {
		return fmt.Sprintf("%s, %s (%s), %s, %s/%s, CEP: %s",
			a.Street, a.Number, a.Complement, a.District, a.City, a.State, a.PostalCode)
	}
	return fmt.Sprintf("%s, %s, %s, %s/%s, CEP: %s",
		a.Street, a.Number, a.District, a.City, a.State, a.PostalCode)
}
