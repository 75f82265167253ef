package render

import (
	"context"
	"streetview-pano-service/internal/domain"
	"streetview-pano-service/internal/platform/obs"

	"go.uber.org/zap"
)

// LogSink reports outcomes to the log; used by batch runs.
// It is safe for concurrent use.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Render(ctx context.Context, session domain.Session, result *domain.PanoResult) error {
	s.log.Info("panorama found",
		zap.String("req_id", obs.RequestID(ctx)),
		zap.String("case_id", session.CaseID),
		zap.String("pano", result.PanoID),
		zap.Stringer("date", result.CaptureDate),
		zap.Float64("heading", result.Heading),
		zap.Float64("radius", result.Radius),
		zap.Int("other_captures", len(result.OtherCaptures)),
	)
	return nil
}

func (s *LogSink) Fail(ctx context.Context, session domain.Session, cause error) error {
	s.log.Error("panorama not found",
		zap.String("req_id", obs.RequestID(ctx)),
		zap.String("case_id", session.CaseID),
		zap.Stringer("origin", session.Origin),
		zap.Error(cause),
	)
	return nil
}
