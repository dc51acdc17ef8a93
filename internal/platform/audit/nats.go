package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/internal/platform/telemetry"
)

// SubjectPrefix is prepended to the entity type to form the NATS subject.
const SubjectPrefix = "audit."

// Publisher is the subset of *nats.Conn used by NATSSink.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// NATSSink publishes events as JSON to audit.<entity_type> once the
// surrounding transaction commits. Delivery is best effort.
type NATSSink struct {
	pub    Publisher
	logger zerolog.Logger
}

func NewNATSSink(pub Publisher, logger zerolog.Logger) *NATSSink {
	return &NATSSink{pub: pub, logger: logger.With().Str("component", "audit_nats").Logger()}
}

// ConnectNATS dials url with reconnects enabled.
func ConnectNATS(url string, logger zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("ehr-admin-audit"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

func Subject(entityType string) string {
	return SubjectPrefix + entityType
}

func (s *NATSSink) Record(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	subject := Subject(e.EntityType)
	db.AfterCommit(ctx, func() {
		if err := s.pub.Publish(subject, data); err != nil {
			telemetry.AuditFanoutErrorsTotal.WithLabelValues("nats").Inc()
			s.logger.Error().Err(err).
				Str("subject", subject).
				Str("entity_id", e.EntityID.String()).
				Msg("publish audit event")
		}
	})
	return nil
}
