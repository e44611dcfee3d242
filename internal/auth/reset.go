package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hollis/causeconnect/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	ErrPasswordTooShort  = errors.New("password too short")
)

// ResetTokenTTL is how long a reset token stays consumable.
const ResetTokenTTL = time.Hour

// resetTokenBytes gives 256 bits of entropy, rendered as 64 hex chars.
const resetTokenBytes = 32

// ResetIssue is the internal result of a reset request for a known
// email. It is nil for unknown emails; the HTTP layer must respond
// identically either way.
type ResetIssue struct {
	User  *models.User
	Token string
}

func generateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// RequestPasswordReset mints a fresh single-use token for the account
// matching email, invalidating every earlier unused token. The user row
// is locked for the invalidate+insert pair so two racing requests
// cannot both leave a live token behind. Unknown emails return
// (nil, nil) - the caller owes the anti-enumeration contract.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*ResetIssue, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	token, err := generateResetToken()
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked := tx
		// SQLite (tests) has no FOR UPDATE; its writes serialize anyway.
		if tx.Dialector.Name() == "postgres" {
			locked = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := locked.First(&user, user.ID).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.PasswordResetToken{}).
			Where("user_id = ? AND used = ?", user.ID, false).
			Update("used", true).Error; err != nil {
			return err
		}

		return tx.Create(&models.PasswordResetToken{
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: time.Now().Add(ResetTokenTTL),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return &ResetIssue{User: &user, Token: token}, nil
}

// ResetPassword consumes a token and rotates the owning user's
// credential. Wrong, already-used and expired tokens all fail with the
// same error. The password update and the token consumption commit
// together or not at all.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	var reset models.PasswordResetToken
	if err := s.db.WithContext(ctx).
		Where("token = ? AND used = ? AND expires_at > ?", token, false, time.Now()).
		First(&reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", reset.UserID).
			Update("password_hash", hash).Error; err != nil {
			return err
		}

		return tx.Model(&models.PasswordResetToken{}).
			Where("id = ?", reset.ID).
			Update("used", true).Error
	})
}

// AdminResetPassword lets an administrator set a user's password
// directly. Outstanding reset tokens for that user stop working.
func (s *Service) AdminResetPassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password_hash", hash).Error; err != nil {
			return err
		}

		return tx.Model(&models.PasswordResetToken{}).
			Where("user_id = ? AND used = ?", user.ID, false).
			Update("used", true).Error
	})
}
