package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/01moynul/greens-storefront/internal/models"
	"go.uber.org/zap"
)

// Sender delivers plain-text mail.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes mail to the log instead of sending it. It is used when
// no SMTP server is configured, so local runs can still "see" every email.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.log.Info("Email (not sent, SMTP disabled)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type SMTPSender struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	to = headerSafe(to)
	msg := []byte(
		"From: " + s.cfg.From + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + headerSafe(subject) + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n" +
			"\r\n" +
			body,
	)

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	if err := s.sendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

// headerSafe strips line breaks so customer input cannot add mail headers.
func headerSafe(v string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}

// OrderConfirmation renders the confirmation mail for a placed order.
func OrderConfirmation(order *models.Order, items []models.ReceiptItem) (subject, body string) {
	subject = fmt.Sprintf("Your Greens order %s", shortID(order.ID))

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", order.CustomerName)
	b.WriteString("Thank you for your order! Here is your receipt.\n\n")
	fmt.Fprintf(&b, "Order: %s\n", order.ID)
	fmt.Fprintf(&b, "Placed: %s\n", order.CreatedAt.Format("02 Jan 2006 15:04"))
	fmt.Fprintf(&b, "Status: %s\n\n", order.Status)

	for _, item := range items {
		fmt.Fprintf(&b, "%d x %s @ $%.2f = $%.2f\n", item.Quantity, item.ProductName, item.Price, item.LineTotal)
	}

	fmt.Fprintf(&b, "\nTotal: $%.2f\n\n", order.TotalAmount)
	fmt.Fprintf(&b, "Delivering to:\n%s\n%s\n", order.DeliveryAddress, order.CustomerPhone)
	return subject, b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}
