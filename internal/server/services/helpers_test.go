package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/postbox/internal/dbx"
	"github.com/dmitrijs2005/postbox/internal/logging"
	"github.com/dmitrijs2005/postbox/internal/server/models"
	"github.com/dmitrijs2005/postbox/internal/server/repositories/mails"
	"github.com/dmitrijs2005/postbox/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/postbox/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

func newStore(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	ctx := context.Background()

	db, err := dbx.Open(ctx, dbx.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := repomanager.NewSQLiteRepositoryManager()
	require.NoError(t, m.RunMigrations(ctx, db))
	return db, m
}

// brokenManager hands out repositories whose every call fails with err.
type brokenManager struct {
	repomanager.RepositoryManager
	err error
}

func (b *brokenManager) Users(dbx.DBTX) users.Repository { return &brokenUsers{err: b.err} }
func (b *brokenManager) Mails(dbx.DBTX) mails.Repository { return &brokenMails{err: b.err} }

type brokenUsers struct{ err error }

func (b *brokenUsers) Create(context.Context, *models.User) (*models.User, error) { return nil, b.err }
func (b *brokenUsers) GetUserByLogin(context.Context, string) (*models.User, error) {
	return nil, b.err
}
func (b *brokenUsers) Exists(context.Context, string) (bool, error) { return false, b.err }

type brokenMails struct{ err error }

func (b *brokenMails) EnsureMailbox(context.Context, string, time.Time) error { return b.err }
func (b *brokenMails) Insert(context.Context, *models.Mail) error            { return b.err }
func (b *brokenMails) ListByRecipient(context.Context, string) ([]models.MailSummary, error) {
	return nil, b.err
}
