package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var errIncompleteConfig = errors.New("SMTP configuration is incomplete")

// ClaimMailer notifies the lost-and-found desk when a finder claims a posting.
type ClaimMailer struct {
	cfg    *config.SMTPConfig
	logger *logger.Logger
}

var _ domain.ClaimMailer = (*ClaimMailer)(nil)

func NewClaimMailer(cfg *config.SMTPConfig, log *logger.Logger) *ClaimMailer {
	return &ClaimMailer{cfg: cfg, logger: log.Named("claim_mailer")}
}

func (m *ClaimMailer) complete() bool {
	return m.cfg.Host != "" && m.cfg.Port > 0 && m.cfg.From != "" && m.cfg.DeskTo != ""
}

func (m *ClaimMailer) SendClaimNotice(ctx context.Context, p domain.Posting, c domain.FinderContact) error {
	if !m.complete() {
		m.logger.Error("SMTP configuration is incomplete, cannot send claim notice", zap.String("posting_id", p.ID))
		return errIncompleteConfig
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", m.cfg.DeskTo)
	msg.SetHeader("Subject", claimSubject(p))
	msg.SetBody("text/plain", claimBody(p, c))

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := d.DialAndSend(msg); err != nil {
		m.logger.Error("Failed to send claim notice", zap.String("posting_id", p.ID), zap.Error(err))
		return fmt.Errorf("send claim notice for %s: %w", p.ID, err)
	}
	m.logger.Info("Claim notice sent", zap.String("posting_id", p.ID), zap.String("to", m.cfg.DeskTo))
	return nil
}

func claimSubject(p domain.Posting) string {
	return fmt.Sprintf("Item found: %s (%s)", oneLine(p.Description, 60), p.Location)
}

func claimBody(p domain.Posting, c domain.FinderContact) string {
	name := c.Name
	if name == "" {
		name = "(not given)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "A finder has claimed posting %s.\n\n", p.ID)
	fmt.Fprintf(&b, "Posted by:   %s on %s\n", p.Author, p.DisplayDate())
	fmt.Fprintf(&b, "Lost at:     %s\n", p.Location)
	fmt.Fprintf(&b, "Description: %s\n", p.Description)
	fmt.Fprintf(&b, "Photo:       %s\n\n", p.ImageURL)
	fmt.Fprintf(&b, "Finder:      %s\n", name)
	fmt.Fprintf(&b, "Mobile:      %s\n", c.Mobile)
	fmt.Fprintf(&b, "Pickup at:   %s\n", c.PickupLocation)
	return b.String()
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}
