package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/dbx"
	"github.com/dmitrijs2005/postbox/internal/logging"
	"github.com/dmitrijs2005/postbox/internal/server/models"
	"github.com/dmitrijs2005/postbox/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// MailboxService appends to and lists per-recipient mailboxes.
type MailboxService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewMailboxService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *MailboxService {
	return &MailboxService{db: db, repomanager: m, logger: l.With("module", "mailbox")}
}

// Append stores mail as a new record in the recipient's mailbox, creating the
// mailbox on first delivery. Empty ID and CreatedAt are filled in; the ID is
// a UUIDv7 so records sort in arrival order.
func (s *MailboxService) Append(ctx context.Context, mail *models.Mail) error {
	if mail.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			s.logger.Error(ctx, "mail id generation failed", "error", err)
			return common.ErrorInternal
		}
		mail.ID = id.String()
	}
	if mail.CreatedAt.IsZero() {
		mail.CreatedAt = time.Now()
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Mails(tx)
		if err := repo.EnsureMailbox(ctx, mail.Recipient, mail.CreatedAt); err != nil {
			return err
		}
		return repo.Insert(ctx, mail)
	})
	if err != nil {
		s.logger.Error(ctx, "mail append failed", "recipient", mail.Recipient, "id", mail.ID, "error", err)
		return common.ErrorInternal
	}

	s.logger.Debug(ctx, "mail stored", "recipient", mail.Recipient, "id", mail.ID)
	return nil
}

// List returns the mailbox of username, newest first. An absent mailbox and a
// read failure both yield an empty result.
func (s *MailboxService) List(ctx context.Context, username string) []models.MailSummary {
	list, err := s.repomanager.Mails(s.db).ListByRecipient(ctx, username)
	if err != nil {
		s.logger.Warn(ctx, "mailbox read failed", "user", username, "error", err)
		return nil
	}
	return list
}
