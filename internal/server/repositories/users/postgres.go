package users

import "github.com/dmitrijs2005/postbox/internal/dbx"

type PostgresRepository struct {
	sqlRepository
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{sqlRepository{db: db, q: queries{
		create: `INSERT INTO users (id, username, salt, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (username) DO NOTHING`,
		byLogin: `SELECT id, username, salt, password_hash, created_at FROM users
		 WHERE username = $1`,
		exists: `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`,
	}}}
}
