package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/postbox/internal/common"
	"github.com/dmitrijs2005/postbox/internal/cryptox"
	"github.com/dmitrijs2005/postbox/internal/logging"
	"github.com/dmitrijs2005/postbox/internal/server/models"
	"github.com/dmitrijs2005/postbox/internal/server/repositories/repomanager"
)

// CredentialService registers and verifies accounts.
type CredentialService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewCredentialService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *CredentialService {
	return &CredentialService{db: db, repomanager: m, logger: l.With("module", "credentials")}
}

// Exists reports whether username is registered. Read failures count as
// absent.
func (s *CredentialService) Exists(ctx context.Context, username string) bool {
	ok, err := s.repomanager.Users(s.db).Exists(ctx, username)
	if err != nil {
		s.logger.Warn(ctx, "user lookup failed", "user", username, "error", err)
		return false
	}
	return ok
}

// Create registers username with a freshly salted argon2id hash of password.
// It returns common.ErrorAlreadyExists if the name is taken, including when
// a concurrent Create wins the insert.
func (s *CredentialService) Create(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return common.ErrorValidation
	}
	if s.Exists(ctx, username) {
		return common.ErrorAlreadyExists
	}

	salt, hash := cryptox.HashPassword(password)
	user := &models.User{
		UserName:     username,
		Salt:         salt,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if _, err := s.repomanager.Users(s.db).Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "user create failed", "user", username, "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user", username)
	return nil
}

// Verify reports whether password matches the stored hash for username.
// An unknown user still costs one hash derivation.
func (s *CredentialService) Verify(ctx context.Context, username, password string) bool {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "user read failed", "user", username, "error", err)
		}
		cryptox.BurnVerification(password)
		return false
	}

	ok, err := cryptox.VerifyPassword(password, user.Salt, user.PasswordHash)
	if err != nil {
		s.logger.Warn(ctx, "stored password hash is malformed", "user", username, "error", err)
		return false
	}
	return ok
}
