package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/dbx"
	"github.com/dmitrijs2005/postbox/internal/server/models"
	"github.com/google/uuid"
)

type queries struct {
	create  string
	byLogin string
	exists  string
}

type sqlRepository struct {
	db dbx.DBTX
	q  queries
}

func (r *sqlRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	res, err := r.db.ExecContext(ctx, r.q.create,
		user.ID, user.UserName, user.Salt, user.PasswordHash, user.CreatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, common.ErrorAlreadyExists
	}

	return user, nil
}

func (r *sqlRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	user := &models.User{}
	var createdAt int64

	err := r.db.QueryRowContext(ctx, r.q.byLogin, userName).
		Scan(&user.ID, &user.UserName, &user.Salt, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.CreatedAt = time.UnixMilli(createdAt)
	return user, nil
}

func (r *sqlRepository) Exists(ctx context.Context, userName string) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, r.q.exists, userName).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return found, nil
}
