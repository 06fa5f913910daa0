package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type txCtxKey struct{}

// querier — общее подмножество *sql.DB и *sql.Tx, достаточное репозиториям.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queryTarget возвращает открытую транзакцию из контекста, либо пул.
func queryTarget(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txCtxKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// TxManager открывает транзакцию PostgreSQL и кладёт её в контекст:
// репозитории, вызванные внутри fn, работают через неё.
type TxManager struct {
	db *sql.DB
}

// NewTxManager создаёт транзакционный менеджер для хранилища.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{db: store.DB()}
}

// WithinTx выполняет fn внутри транзакции. Вложенный вызов присоединяется
// к уже открытой.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txCtxKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(context.WithValue(ctx, txCtxKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

var _ domain.TxManager = (*TxManager)(nil)
