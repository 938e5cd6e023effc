package mails

import "github.com/dmitrijs2005/postbox/internal/dbx"

type SQLiteRepository struct {
	sqlRepository
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{sqlRepository{db: db, q: queries{
		ensureMailbox: `INSERT INTO mailboxes (username, created_at)
		 VALUES (?, ?)
		 ON CONFLICT (username) DO NOTHING`,
		insert: `INSERT INTO mails (id, recipient, sender, sender_endpoint, created_at, title, body)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		list: `SELECT id, sender, title, created_at FROM mails
		 WHERE recipient = ?
		 ORDER BY id DESC`,
	}}}
}
