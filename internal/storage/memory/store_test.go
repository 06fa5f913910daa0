package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

func seedProduct(t *testing.T, store *memory.Store, id, sku string, stock int32) {
	t.Helper()
	products := memory.NewProductStore(store)
	err := products.Create(context.Background(), domain.Product{
		ID:         id,
		SKU:        sku,
		Name:       "Widget " + id,
		PriceMinor: 2500,
		Stock:      stock,
	})
	if err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
}

func TestProductStore_DecrementStock(t *testing.T) {
	store := memory.NewStore()
	products := memory.NewProductStore(store)
	seedProduct(t, store, "p-1", "SKU-1", 5)

	if err := products.DecrementStock(context.Background(), "p-1", 3); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}

	product, err := products.GetByID(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if product.Stock != 2 {
		t.Fatalf("expected stock 2, got %d", product.Stock)
	}
}

func TestProductStore_DecrementStock_Insufficient(t *testing.T) {
	store := memory.NewStore()
	products := memory.NewProductStore(store)
	seedProduct(t, store, "p-1", "SKU-1", 2)

	err := products.DecrementStock(context.Background(), "p-1", 3)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Остаток не должен измениться при отказе.
	product, _ := products.GetByID(context.Background(), "p-1")
	if product.Stock != 2 {
		t.Fatalf("expected stock unchanged at 2, got %d", product.Stock)
	}
}

func TestProductStore_DecrementStock_NotFound(t *testing.T) {
	store := memory.NewStore()
	products := memory.NewProductStore(store)

	err := products.DecrementStock(context.Background(), "missing", 1)
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductStore_SetStockBySKU(t *testing.T) {
	store := memory.NewStore()
	products := memory.NewProductStore(store)
	seedProduct(t, store, "p-1", "SKU-1", 5)

	if err := products.SetStock(context.Background(), "SKU-1", 42); err != nil {
		t.Fatalf("set stock failed: %v", err)
	}
	product, err := products.GetBySKU(context.Background(), "SKU-1")
	if err != nil {
		t.Fatalf("get by sku failed: %v", err)
	}
	if product.Stock != 42 {
		t.Fatalf("expected stock 42, got %d", product.Stock)
	}

	if err := products.SetStock(context.Background(), "NOPE", 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestTxManager_RollbackRestoresState(t *testing.T) {
	store := memory.NewStore()
	products := memory.NewProductStore(store)
	orders := memory.NewOrderRepository(store)
	tx := memory.NewTxManager(store)
	seedProduct(t, store, "p-1", "SKU-1", 5)

	boom := errors.New("boom")
	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		if err := products.DecrementStock(ctx, "p-1", 4); err != nil {
			t.Fatalf("decrement inside tx failed: %v", err)
		}
		if err := orders.Create(ctx, testOrder("o-1")); err != nil {
			t.Fatalf("create inside tx failed: %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	product, _ := products.GetByID(context.Background(), "p-1")
	if product.Stock != 5 {
		t.Fatalf("expected stock restored to 5, got %d", product.Stock)
	}
	if _, err := orders.Get(context.Background(), "o-1"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected order rolled back, got %v", err)
	}
}

func TestTxManager_CommitKeepsState(t *testing.T) {
	store := memory.NewStore()
	products := memory.NewProductStore(store)
	tx := memory.NewTxManager(store)
	seedProduct(t, store, "p-1", "SKU-1", 5)

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		return products.DecrementStock(ctx, "p-1", 2)
	})
	if err != nil {
		t.Fatalf("tx failed: %v", err)
	}

	product, _ := products.GetByID(context.Background(), "p-1")
	if product.Stock != 3 {
		t.Fatalf("expected stock 3, got %d", product.Stock)
	}
}

func testOrder(id string) domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:         id,
		CustomerID: "customer-1",
		Status:     domain.OrderStatusPending,
		TotalMinor: 2500,
		Items: []domain.OrderLine{
			{ID: id + "-line", OrderID: id, ProductID: "p-1", ProductName: "Widget", Qty: 1, PriceMinor: 2500, SubtotalMinor: 2500, CreatedAt: now},
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
