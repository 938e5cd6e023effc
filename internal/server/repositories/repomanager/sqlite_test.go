package repomanager

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/postbox/internal/dbx"
	"github.com/dmitrijs2005/postbox/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRunMigrations_CreatesSchema(t *testing.T) {
	ctx := context.Background()

	db, err := dbx.Open(ctx, dbx.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	m := NewSQLiteRepositoryManager()
	require.NoError(t, m.RunMigrations(ctx, db))
	// applying twice is a no-op
	require.NoError(t, m.RunMigrations(ctx, db))

	u, err := m.Users(db).Create(ctx, &models.User{UserName: "alice", Salt: "aa", PasswordHash: "bb"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	require.NoError(t, m.Mails(db).EnsureMailbox(ctx, "alice", time.Now()))
	require.NoError(t, m.Mails(db).Insert(ctx, &models.Mail{
		ID: "m-1", Recipient: "alice", Sender: "bob", SenderEndpoint: "127.0.0.1:1",
		CreatedAt: time.Now(), Title: "t", Body: "b",
	}))

	list, err := m.Mails(db).ListByRecipient(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0].Sender)
}
