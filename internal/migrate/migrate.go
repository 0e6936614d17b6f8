// Package migrate applies the embedded schema for the Postgres session backend.
package migrate

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/and161185/jobassist/migrations"
)

// VersionTable replaces goose's default goose_db_version: the session database
// may be shared with other goose-managed apps, whose version rows must not mix with ours.
const VersionTable = "jobassist_goose_version"

// Up runs all pending migrations from the embedded filesystem.
func Up(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName(VersionTable)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
