package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hollis/causeconnect/internal/database/models"
	"github.com/hollis/causeconnect/internal/mailer"
	"gorm.io/gorm"
)

// Sender is the slice of the mailer the worker needs; narrowed for tests.
type Sender interface {
	SendPasswordReset(to, name, link string) error
	SendDonationReceipt(to, name string, amountCents int64, currency string, donatedAt time.Time) error
}

type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	mail   Sender
}

var _ Sender = (*mailer.Mailer)(nil)

func NewHandler(db *gorm.DB, logger *slog.Logger, mail Sender) *Handler {
	return &Handler{db: db, logger: logger, mail: mail}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypePasswordResetEmail, h.HandlePasswordResetEmail)
	mux.HandleFunc(TypeDonationReceipt, h.HandleDonationReceipt)
}

func (h *Handler) HandlePasswordResetEmail(ctx context.Context, t *asynq.Task) error {
	var payload PasswordResetEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := h.mail.SendPasswordReset(payload.Email, payload.Name, payload.ResetLink); err != nil {
		h.logger.Error("failed to send reset email", "email", payload.Email, "error", err)
		return err
	}

	h.logger.Info("sent password reset email", "email", payload.Email)
	return nil
}

func (h *Handler) HandleDonationReceipt(ctx context.Context, t *asynq.Task) error {
	var payload DonationReceiptPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	var donation models.Donation
	if err := h.db.WithContext(ctx).
		Preload("Person").
		First(&donation, payload.DonationID).Error; err != nil {
		return fmt.Errorf("loading donation: %w", err)
	}

	if donation.ReceiptSent {
		h.logger.Info("receipt already sent", "donation_id", donation.ID)
		return nil
	}

	if donation.Person == nil || donation.Person.Email == "" {
		// Nothing to deliver to; company gifts are acknowledged offline.
		h.logger.Info("donation has no donor email, skipping receipt", "donation_id", donation.ID)
		return nil
	}

	donorName := donation.Person.FirstName + " " + donation.Person.LastName
	if err := h.mail.SendDonationReceipt(
		donation.Person.Email,
		donorName,
		donation.AmountCents,
		donation.Currency,
		donation.DonatedAt,
	); err != nil {
		h.logger.Error("failed to send donation receipt", "donation_id", donation.ID, "error", err)
		return err
	}

	if err := h.db.WithContext(ctx).Model(&donation).Update("receipt_sent", true).Error; err != nil {
		return fmt.Errorf("marking receipt sent: %w", err)
	}

	h.logger.Info("sent donation receipt", "donation_id", donation.ID)
	return nil
}
