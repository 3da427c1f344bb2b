package postgres

import (
	"context"
	"fmt"

	"github.com/cristianortiz/benefitauction/internal/shared/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// TxRunner implements domain.TxRunner on a pgx pool. The commit is
// all-or-nothing: ledger append, lot mutation and state transition either all
// land or the whole tx rolls back, no partial state is ever left visible.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		log.Error("TxRunner: failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// defer handles commit/rollback in every exit path, including panics
	defer func() {
		if p := recover(); p != nil {
			log.Error("TxRunner: recovered from panic during transaction", zap.Any("panic", p))
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			log.Warn("TxRunner: rolling back transaction due to error", zap.Error(err))
			_ = tx.Rollback(ctx)
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			log.Error("TxRunner: failed to commit transaction", zap.Error(commitErr))
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return err
}
