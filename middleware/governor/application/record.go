package application

import (
	"context"

	"request-governor/middleware/governor/domain"

	"go.uber.org/zap"
)

// RecordService despacha um desfecho para todos os sinks configurados
// (monitor em memória, espelho Redis, ...).
//
// Falha de sink é best-effort: loga e segue. Telemetria nunca derruba a
// requisição que está sendo observada.
type RecordService struct {
	Sinks  []domain.Recorder
	Logger *zap.Logger
}

func (s RecordService) Record(ctx context.Context, rec domain.RequestRecord) {
	for _, sink := range s.Sinks {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, rec); err != nil && s.Logger != nil {
			s.Logger.Debug("recorder sink failed",
				zap.Error(err),
				zap.String("method", rec.Method),
				zap.String("path", rec.Path))
		}
	}
}
