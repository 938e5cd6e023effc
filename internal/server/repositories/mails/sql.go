package mails

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/postbox/internal/dbx"
	"github.com/dmitrijs2005/postbox/internal/server/models"
)

type queries struct {
	ensureMailbox string
	insert        string
	list          string
}

type sqlRepository struct {
	db dbx.DBTX
	q  queries
}

func (r *sqlRepository) EnsureMailbox(ctx context.Context, username string, createdAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, r.q.ensureMailbox, username, createdAt.UnixMilli()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *sqlRepository) Insert(ctx context.Context, m *models.Mail) error {
	_, err := r.db.ExecContext(ctx, r.q.insert,
		m.ID, m.Recipient, m.Sender, m.SenderEndpoint, m.CreatedAt.UnixMilli(), m.Title, m.Body)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *sqlRepository) ListByRecipient(ctx context.Context, recipient string) ([]models.MailSummary, error) {
	rows, err := r.db.QueryContext(ctx, r.q.list, recipient)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.MailSummary
	for rows.Next() {
		var (
			id, sender, title sql.NullString
			createdAt               sql.NullInt64
		)
		if err := rows.Scan(&id, &sender, &title, &createdAt); err != nil {
			continue
		}
		if !id.Valid || id.String == "" || !sender.Valid || !title.Valid || !createdAt.Valid {
			continue
		}
		result = append(result, models.MailSummary{
			ID:        id.String,
			Sender:    sender.String,
			Title:     title.String,
			CreatedAt: time.UnixMilli(createdAt.Int64),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
