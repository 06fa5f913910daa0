package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const opTimeout = 5 * time.Second

type productStore struct {
	db *sql.DB
}

// NewProductStore создаёт PostgreSQL-реализацию ProductStore.
func NewProductStore(store *Store) domain.ProductStore {
	return &productStore{db: store.DB()}
}

func (s *productStore) GetByID(ctx context.Context, id string) (domain.Product, error) {
	return s.getBy(ctx, `WHERE id = $1`, id)
}

func (s *productStore) GetBySKU(ctx context.Context, sku string) (domain.Product, error) {
	return s.getBy(ctx, `WHERE sku = $1`, sku)
}

func (s *productStore) getBy(ctx context.Context, where, arg string) (domain.Product, error) {
	var product domain.Product
	err := queryTarget(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, sku, name, description, price_minor, stock, created_at, updated_at
		FROM products
	`+where, arg).Scan(
		&product.ID, &product.SKU, &product.Name, &product.Description,
		&product.PriceMinor, &product.Stock, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

func (s *productStore) Create(ctx context.Context, product domain.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}

	_, err := queryTarget(ctx, s.db).ExecContext(ctx, `
		INSERT INTO products (id, sku, name, description, price_minor, stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		product.ID, product.SKU, product.Name, product.Description,
		product.PriceMinor, product.Stock, product.CreatedAt, now,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// DecrementStock списывает qty единиц одним условным UPDATE: предусловие
// stock >= qty перепроверяется самой базой в момент записи.
func (s *productStore) DecrementStock(ctx context.Context, id string, qty int32) error {
	q := queryTarget(ctx, s.db)

	res, err := q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2,
		    updated_at = NOW()
		WHERE id = $1
		  AND stock >= $2
	`, id, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Строка не обновилась: различаем отсутствие товара и нехватку остатка.
	var existing string
	err = q.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1`, id).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("check product exists: %w", err)
	}
	return domain.ErrInsufficientStock
}

func (s *productStore) SetStock(ctx context.Context, sku string, stock int32) error {
	res, err := queryTarget(ctx, s.db).ExecContext(ctx, `
		UPDATE products
		SET stock = $2,
		    updated_at = NOW()
		WHERE sku = $1
	`, sku, stock)
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

var _ domain.ProductStore = (*productStore)(nil)
