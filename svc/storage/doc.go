// Package storage implements the subscription engine's persistence ports on
// Postgres (pgx/v5), plus a Redis-backed cache in front of the payment ledger.
//
// Every type accepts a DB, satisfied by *pgxpool.Pool and pgx.Tx, so callers
// can compose several stores inside one pg.WithTx call.
package storage
