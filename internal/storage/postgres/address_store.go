package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type addressStore struct {
	db *sql.DB
}

// NewAddressStore создаёт PostgreSQL-реализацию AddressStore.
func NewAddressStore(store *Store) domain.AddressStore {
	return &addressStore{db: store.DB()}
}

func (s *addressStore) GetByID(ctx context.Context, id string) (domain.Address, error) {
	var address domain.Address
	err := queryTarget(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, customer_id, street, number, complement, district, city, state, postal_code
		FROM addresses
		WHERE id = $1
	`, id).Scan(
		&address.ID, &address.CustomerID, &address.Street, &address.Number,
		&address.Complement, &address.District, &address.City, &address.State,
		&address.PostalCode,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Address{}, domain.ErrInvalidAddress
		}
		return domain.Address{}, fmt.Errorf("select address: %w", err)
	}
	return address, nil
}

var _ domain.AddressStore = (*addressStore)(nil)
