package users

import "github.com/dmitrijs2005/postbox/internal/dbx"

type SQLiteRepository struct {
	sqlRepository
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{sqlRepository{db: db, q: queries{
		create: `INSERT INTO users (id, username, salt, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (username) DO NOTHING`,
		byLogin: `SELECT id, username, salt, password_hash, created_at FROM users
		 WHERE username = ?`,
		exists: `SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)`,
	}}}
}
