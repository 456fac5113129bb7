package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// TxRunner executes a function inside a single database transaction. Every
// repository call made with the context it passes to fn joins that
// transaction, so a mutation and its audit entry commit or roll back
// together.
type TxRunner interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewTxRunner builds a TxRunner over the given database handle.
func NewTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction bound to ctx when one is active, falling
// back to the base handle otherwise.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
