// Package repository provides MySQL persistence for the seat inventory
// and the hold ledger.
package repository

import (
    "context"
    "database/sql"
)

// dbtx is the subset of *sql.DB and *sql.Tx the repositories use.  Every
// query goes through conn(ctx, db) so that a statement automatically
// joins the transaction carried by the context, if any.
type dbtx interface {
    ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type txKey struct{}

// runInTx executes fn inside a transaction.  The *sql.Tx is stashed in
// the context so that repository calls made from fn join it.  A nested
// call reuses the outer transaction rather than opening a second one.
// Any error from fn rolls the transaction back and is returned as-is.
func runInTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
    if txFromContext(ctx) != nil {
        return fn(ctx)
    }
    tx, err := db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    txCtx := context.WithValue(ctx, txKey{}, tx)
    if err := fn(txCtx); err != nil {
        _ = tx.Rollback()
        return err
    }
    return tx.Commit()
}

func txFromContext(ctx context.Context) *sql.Tx {
    tx, _ := ctx.Value(txKey{}).(*sql.Tx)
    return tx
}

// conn returns the transaction from ctx when present, otherwise the
// plain database handle.
func conn(ctx context.Context, db *sql.DB) dbtx {
    if tx := txFromContext(ctx); tx != nil {
        return tx
    }
    return db
}

// placeholders builds "?, ?, ?" for an IN clause of n values.
func placeholders(n int) string {
    if n <= 0 {
        return ""
    }
    out := make([]byte, 0, n*3)
    for i := 0; i < n; i++ {
        if i > 0 {
            out = append(out, ", "...)
        }
        out = append(out, '?')
    }
    return string(out)
}
