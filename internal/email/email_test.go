package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/01moynul/greens-storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogSender_LogsMail(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sender := NewLogSender(zap.New(core))

	require.NoError(t, sender.Send(context.Background(), "ada@example.com", "Hello", "Body"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ada@example.com", entries[0].ContextMap()["to"])
}

func TestSMTPSender_BuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	sender := NewSMTPSender(SMTPConfig{Host: "smtp.test", Port: "587", Username: "user", Password: "pass", From: "orders@greens.test"})
	sender.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := sender.Send(context.Background(), "ada@example.com\r\nBcc: evil@example.com", "Order\nreceived", "Thanks!")
	require.NoError(t, err)

	assert.Equal(t, "smtp.test:587", gotAddr)
	assert.Equal(t, "orders@greens.test", gotFrom)
	assert.Equal(t, []string{"ada@example.comBcc: evil@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Orderreceived\r\n")
	assert.NotContains(t, string(gotMsg), "\r\nBcc:")
	assert.Contains(t, string(gotMsg), "\r\n\r\nThanks!")
}

func TestSMTPSender_WrapsError(t *testing.T) {
	boom := errors.New("connection refused")
	sender := NewSMTPSender(SMTPConfig{Host: "smtp.test", Port: "25", From: "orders@greens.test"})
	sender.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err := sender.Send(context.Background(), "ada@example.com", "s", "b")
	assert.ErrorIs(t, err, boom)
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{Host: "smtp.test", Port: "25"})
	sender.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("must not send")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sender.Send(ctx, "ada@example.com", "s", "b"), context.Canceled)
}

func TestOrderConfirmation(t *testing.T) {
	order := &models.Order{
		ID:              "3f2b8c1a-0000-4000-8000-000000000000",
		CustomerName:    "Ada",
		CustomerPhone:   "+44 7700 900000",
		DeliveryAddress: "1 Market Street",
		TotalAmount:     7.25,
		Status:          models.StatusPending,
		CreatedAt:       time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	}
	items := []models.ReceiptItem{
		{OrderItem: models.OrderItem{Quantity: 2, Price: 2.5}, ProductName: "Amaranth Leaves", LineTotal: 5},
		{OrderItem: models.OrderItem{Quantity: 1, Price: 2.25}, ProductName: "Okra", LineTotal: 2.25},
	}

	subject, body := OrderConfirmation(order, items)

	assert.Equal(t, "Your Greens order 3F2B8C1A", subject)
	assert.Contains(t, body, "Hi Ada,")
	assert.Contains(t, body, "2 x Amaranth Leaves @ $2.50 = $5.00")
	assert.Contains(t, body, "1 x Okra @ $2.25 = $2.25")
	assert.Contains(t, body, "Total: $7.25")
	assert.Contains(t, body, "01 Mar 2026 10:30")
}
