package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// productStoreInMemory реализует ProductStore поверх общего Store.
type productStoreInMemory struct {
	store *Store
}

// NewProductStore возвращает in-memory каталог товаров.
func NewProductStore(store *Store) domain.ProductStore {
	return &productStoreInMemory{store: store}
}

// GetByID возвращает товар или ErrProductNotFound.
func (p *productStoreInMemory) GetByID(ctx context.Context, id string) (domain.Product, error) {
	defer p.store.rlock(ctx)()

	product, ok := p.store.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// GetBySKU возвращает товар по артикулу или ErrProductNotFound.
func (p *productStoreInMemory) GetBySKU(ctx context.Context, sku string) (domain.Product, error) {
	defer p.store.rlock(ctx)()

	id, ok := p.store.skuIndex[sku]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p.store.products[id], nil
}

// Create сохраняет новый товар и индексирует его по SKU.
func (p *productStoreInMemory) Create(ctx context.Context, product domain.Product) error {
	defer p.store.lock(ctx)()

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	p.store.products[product.ID] = product
	if product.SKU != "" {
		p.store.skuIndex[product.SKU] = product.ID
	}
	return nil
}

// DecrementStock списывает qty единиц, перепроверяя остаток в момент
// записи. При нехватке возвращает ErrInsufficientStock, товар не меняется.
func (p *productStoreInMemory) DecrementStock(ctx context.Context, id string, qty int32) error {
	defer p.store.lock(ctx)()

	product, ok := p.store.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if product.Stock < qty {
		return domain.ErrInsufficientStock
	}
	product.Stock -= qty
	product.UpdatedAt = time.Now().UTC()
	p.store.products[id] = product
	return nil
}

// SetStock безусловно перезаписывает остаток по SKU.
func (p *productStoreInMemory) SetStock(ctx context.Context, sku string, stock int32) error {
	defer p.store.lock(ctx)()

	id, ok := p.store.skuIndex[sku]
	if !ok {
		return domain.ErrProductNotFound
	}
	product := p.store.products[id]
	product.Stock = stock
	product.UpdatedAt = time.Now().UTC()
	p.store.products[id] = product
	return nil
}

var _ domain.ProductStore = (*productStoreInMemory)(nil)
