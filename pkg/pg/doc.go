// Package pg bootstraps the PostgreSQL layer on top of github.com/jackc/pgx/v5.
//
// Connect opens a pgxpool.Pool and retries while the database is still
// starting. Migrate applies goose migrations from an fs.FS, normally an
// embed.FS compiled into the binary, through the same pool. Healthcheck
// adapts the pool to a readiness check and WithTx runs a function inside a
// transaction.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, migrations.FS, log); err != nil {
//		return err
//	}
//
// Error helpers classify driver errors without leaking pgx types into callers.
package pg
