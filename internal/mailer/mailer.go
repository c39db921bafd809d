package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"lightkart/internal/config"
)

// OrderConfirmation carries everything the confirmation email renders.
type OrderConfirmation struct {
	CustomerName  string
	Email         string
	OrderNumber   string
	OrderDate     time.Time
	Products      []ProductLine
	Subtotal      int64
	Discount      int64
	ShippingFee   int64
	Total         int64
	PaymentMethod string
}

// ProductLine is one purchased item in the confirmation email.
type ProductLine struct {
	Name     string
	Quantity int
	Price    int64
}

// Mailer sends transactional email.
type Mailer interface {
	// SendOrderConfirmation sends the order confirmation email. Delivery
	// is best-effort from the caller's point of view: a failure must
	// never undo a recorded payment.
	SendOrderConfirmation(ctx context.Context, confirmation *OrderConfirmation) error
}

// smtpMailer delivers mail over SMTP.
type smtpMailer struct {
	client *mail.Client
	from   string
	logger zerolog.Logger
}

// New creates a Mailer from SMTP configuration. When SMTP is disabled
// the returned Mailer logs confirmations instead of sending them.
func New(cfg config.SMTPConfig, logger zerolog.Logger) (Mailer, error) {
	if !cfg.Enabled {
		logger.Info().Msg("SMTP disabled, order confirmations will be logged only")
		return &nopMailer{logger: logger.With().Str("component", "mailer").Logger()}, nil
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &smtpMailer{
		client: client,
		from:   cfg.From,
		logger: logger.With().Str("component", "mailer").Logger(),
	}, nil
}

// SendOrderConfirmation sends the order confirmation email.
func (m *smtpMailer) SendOrderConfirmation(ctx context.Context, confirmation *OrderConfirmation) error {
	body, err := renderConfirmation(confirmation)
	if err != nil {
		return fmt.Errorf("failed to render confirmation email: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(confirmation.Email); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(fmt.Sprintf("Order confirmation %s", confirmation.OrderNumber))
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}

	m.logger.Info().
		Str("order_number", confirmation.OrderNumber).
		Str("email", confirmation.Email).
		Msg("order confirmation sent")

	return nil
}

// nopMailer logs confirmations without delivering them.
type nopMailer struct {
	logger zerolog.Logger
}

func (m *nopMailer) SendOrderConfirmation(_ context.Context, confirmation *OrderConfirmation) error {
	names := make([]string, len(confirmation.Products))
	for i, p := range confirmation.Products {
		names[i] = p.Name
	}
	m.logger.Info().
		Str("order_number", confirmation.OrderNumber).
		Str("email", confirmation.Email).
		Int64("total", confirmation.Total).
		Str("products", strings.Join(names, ", ")).
		Msg("order confirmation (delivery disabled)")
	return nil
}
