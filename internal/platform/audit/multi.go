package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/internal/platform/telemetry"
)

// Multi writes to a primary sink and fans out to secondary sinks. Only the
// primary's error is returned; secondary failures are logged.
type Multi struct {
	primary     Sink
	secondaries []Sink
	logger      zerolog.Logger
}

func NewMulti(logger zerolog.Logger, primary Sink, secondaries ...Sink) *Multi {
	return &Multi{primary: primary, secondaries: secondaries, logger: logger}
}

func (m *Multi) Record(ctx context.Context, e Event) error {
	if err := m.primary.Record(ctx, e); err != nil {
		return err
	}
	for _, s := range m.secondaries {
		if err := s.Record(ctx, e); err != nil {
			telemetry.AuditFanoutErrorsTotal.WithLabelValues("secondary").Inc()
			m.logger.Error().Err(err).
				Str("entity_type", e.EntityType).
				Str("entity_id", e.EntityID.String()).
				Msg("secondary audit sink failed")
		}
	}
	db.AfterCommit(ctx, func() {
		telemetry.AuditEventsTotal.WithLabelValues(e.EntityType, string(e.Action)).Inc()
	})
	return nil
}
