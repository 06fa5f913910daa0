package memory

import (
	"context"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// addressStoreInMemory реализует AddressStore поверх общего Store.
type addressStoreInMemory struct {
	store *Store
}

// NewAddressStore возвращает in-memory хранилище адресов.
func NewAddressStore(store *Store) domain.AddressStore {
	return &addressStoreInMemory{store: store}
}

// GetByID возвращает адрес или ErrInvalidAddress, если его нет.
func (a *addressStoreInMemory) GetByID(ctx context.Context, id string) (domain.Address, error) {
	defer a.store.rlock(ctx)()

	address, ok := a.store.addresses[id]
	if !ok {
		return domain.Address{}, domain.ErrInvalidAddress
	}
	return address, nil
}

var _ domain.AddressStore = (*addressStoreInMemory)(nil)
