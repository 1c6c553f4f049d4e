package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type Publisher struct {
	nc     *nats.Conn
	prefix string
	logger *logger.Logger
}

var _ domain.EventPublisher = (*Publisher)(nil)

func NewNATSPublisher(cfg *config.NATSConfig, log *logger.Logger) (*Publisher, error) {
	l := log.Named("nats")
	opts := []nats.Option{
		nats.Name("lostfound-service"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			l.Error("NATS error", zap.String("subject", subject), zap.Error(err))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			l.Info("NATS connection closed")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			l.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			l.Warn("NATS disconnected", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	l.Info("Successfully connected to NATS", zap.String("url", nc.ConnectedUrl()))
	return &Publisher{nc: nc, prefix: cfg.SubjectPrefix, logger: l}, nil
}

// Subject qualifies subject with the configured prefix.
func Subject(prefix, subject string) string {
	if prefix == "" {
		return subject
	}
	return prefix + "." + subject
}

func (p *Publisher) Publish(_ context.Context, subject string, payload any) error {
	full := Subject(p.prefix, subject)
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", full, err)
	}
	if err := p.nc.Publish(full, data); err != nil {
		p.logger.Error("Failed to publish NATS message", zap.String("subject", full), zap.Error(err))
		return fmt.Errorf("failed to publish NATS message for %s: %w", full, err)
	}
	p.logger.Debug("Published NATS message", zap.String("subject", full), zap.Int("bytes", len(data)))
	return nil
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() {
	if p.nc != nil && !p.nc.IsClosed() {
		if err := p.nc.Drain(); err != nil {
			p.logger.Error("Error draining NATS connection", zap.Error(err))
		}
		p.nc.Close()
		p.logger.Info("NATS publisher connection closed")
	}
}
