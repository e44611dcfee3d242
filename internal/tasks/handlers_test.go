package tasks_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hollis/causeconnect/internal/database/models"
	"github.com/hollis/causeconnect/internal/tasks"
	"github.com/hollis/causeconnect/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentReceipt struct {
	to          string
	name        string
	amountCents int64
}

// fakeSender records deliveries instead of talking to SMTP.
type fakeSender struct {
	resets   []string
	receipts []sentReceipt
	fail     error
}

func (f *fakeSender) SendPasswordReset(to, name, link string) error {
	if f.fail != nil {
		return f.fail
	}
	f.resets = append(f.resets, to)
	return nil
}

func (f *fakeSender) SendDonationReceipt(to, name string, amountCents int64, currency string, donatedAt time.Time) error {
	if f.fail != nil {
		return f.fail
	}
	f.receipts = append(f.receipts, sentReceipt{to: to, name: name, amountCents: amountCents})
	return nil
}

func newTestHandler(t *testing.T) (*tasks.Handler, *fakeSender, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	sender := &fakeSender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return tasks.NewHandler(db, logger, sender), sender, db
}

func TestHandlePasswordResetEmail(t *testing.T) {
	handler, sender, _ := newTestHandler(t)

	task, err := tasks.NewPasswordResetEmailTask(tasks.PasswordResetEmailPayload{
		Email:     "member@example.com",
		Name:      "Member",
		ResetLink: "http://localhost:8080/reset-password?token=abc",
	})
	require.NoError(t, err)

	err = handler.HandlePasswordResetEmail(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, []string{"member@example.com"}, sender.resets)
}

func TestHandlePasswordResetEmail_SendFailure(t *testing.T) {
	handler, sender, _ := newTestHandler(t)
	sender.fail = assert.AnError

	task, err := tasks.NewPasswordResetEmailTask(tasks.PasswordResetEmailPayload{
		Email:     "member@example.com",
		Name:      "Member",
		ResetLink: "http://localhost:8080/reset-password?token=abc",
	})
	require.NoError(t, err)

	// The error propagates so asynq retries the delivery
	err = handler.HandlePasswordResetEmail(context.Background(), task)
	assert.Error(t, err)
}

func TestHandleDonationReceipt(t *testing.T) {
	handler, sender, db := newTestHandler(t)

	person := testutil.CreateTestPerson(t, db, "Ira", "Gold", "ira@example.com")
	donation := testutil.CreateTestDonation(t, db, person.ID, 50_00)

	task, err := tasks.NewDonationReceiptTask(tasks.DonationReceiptPayload{DonationID: donation.ID})
	require.NoError(t, err)

	require.NoError(t, handler.HandleDonationReceipt(context.Background(), task))

	require.Len(t, sender.receipts, 1)
	assert.Equal(t, "ira@example.com", sender.receipts[0].to)
	assert.Equal(t, "Ira Gold", sender.receipts[0].name)
	assert.Equal(t, int64(5000), sender.receipts[0].amountCents)

	var reloaded models.Donation
	require.NoError(t, db.First(&reloaded, donation.ID).Error)
	assert.True(t, reloaded.ReceiptSent)

	// Redelivery is a no-op once the receipt flag is set
	require.NoError(t, handler.HandleDonationReceipt(context.Background(), task))
	assert.Len(t, sender.receipts, 1)
}

func TestHandleDonationReceipt_NoEmail(t *testing.T) {
	handler, sender, db := newTestHandler(t)

	person := testutil.CreateTestPerson(t, db, "No", "Email", "")
	donation := testutil.CreateTestDonation(t, db, person.ID, 75_00)

	task, err := tasks.NewDonationReceiptTask(tasks.DonationReceiptPayload{DonationID: donation.ID})
	require.NoError(t, err)

	require.NoError(t, handler.HandleDonationReceipt(context.Background(), task))
	assert.Empty(t, sender.receipts)

	var reloaded models.Donation
	require.NoError(t, db.First(&reloaded, donation.ID).Error)
	assert.False(t, reloaded.ReceiptSent)
}
