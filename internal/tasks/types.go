package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/hollis/causeconnect/pkg/queue"
)

// Task type names
const (
	TypePasswordResetEmail = "email:password_reset"
	TypeDonationReceipt    = "email:donation_receipt"
)

// PasswordResetEmailPayload carries everything the worker needs to
// deliver a reset link without touching the tokens table.
type PasswordResetEmailPayload struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	ResetLink string `json:"reset_link"`
}

func NewPasswordResetEmailTask(payload PasswordResetEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePasswordResetEmail, data, asynq.Queue(queue.QueueCritical)), nil
}

// DonationReceiptPayload identifies the donation to acknowledge; the
// worker resolves the donor's address at delivery time.
type DonationReceiptPayload struct {
	DonationID uuid.UUID `json:"donation_id"`
}

func NewDonationReceiptTask(payload DonationReceiptPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDonationReceipt, data, asynq.Queue(queue.QueueLow)), nil
}
