package mails

import "github.com/dmitrijs2005/postbox/internal/dbx"

type PostgresRepository struct {
	sqlRepository
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{sqlRepository{db: db, q: queries{
		ensureMailbox: `INSERT INTO mailboxes (username, created_at)
		 VALUES ($1, $2)
		 ON CONFLICT (username) DO NOTHING`,
		insert: `INSERT INTO mails (id, recipient, sender, sender_endpoint, created_at, title, body)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		list: `SELECT id, sender, title, created_at FROM mails
		 WHERE recipient = $1
		 ORDER BY id COLLATE "C" DESC`,
	}}}
}
