// Package mails persists mailbox records: one row per delivered mail plus a
// per-recipient mailbox marker.
package mails

import (
	"context"
	"time"

	"github.com/dmitrijs2005/postbox/internal/server/models"
)

type Repository interface {
	// EnsureMailbox creates the recipient's mailbox if it does not exist.
	EnsureMailbox(ctx context.Context, username string, createdAt time.Time) error
	// Insert stores one mail. It never replaces an existing record.
	Insert(ctx context.Context, mail *models.Mail) error
	// ListByRecipient returns summaries newest first. Rows that cannot be
	// decoded are skipped.
	ListByRecipient(ctx context.Context, recipient string) ([]models.MailSummary, error)
}
