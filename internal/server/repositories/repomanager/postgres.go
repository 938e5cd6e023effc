package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/postbox/internal/dbx"
	"github.com/dmitrijs2005/postbox/internal/server/migrations"
	"github.com/dmitrijs2005/postbox/internal/server/repositories/mails"
	"github.com/dmitrijs2005/postbox/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

var migrationsFS = migrations.Migrations

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Mails(db dbx.DBTX) mails.Repository {
	return mails.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, goose.DialectPostgres, migrations.PostgresDir)
}
