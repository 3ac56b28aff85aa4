package eventhandler

import (
	"github.com/edupulse-hub/edupulse-insights/internal/domain/prediction"
	"github.com/edupulse-hub/edupulse-insights/internal/domain/shared"
	"github.com/edupulse-hub/edupulse-insights/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON RISK LEVEL CHANGED HANDLER
// Журналирует смену уровня риска. Переход в high пишется как warning -
// это сигнал для кураторов, которые читают логи через алертинг.
// ═══════════════════════════════════════════════════════════════════════════

// OnRiskLevelChangedHandler журналирует смену уровня риска.
type OnRiskLevelChangedHandler struct {
	log *logger.Logger
}

// NewOnRiskLevelChangedHandler создаёт обработчик.
func NewOnRiskLevelChangedHandler(log *logger.Logger) *OnRiskLevelChangedHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnRiskLevelChangedHandler{
		log: log.With(logger.String("component", "on_risk_level_changed")),
	}
}

// Handle реализует shared.EventHandler.
func (h *OnRiskLevelChangedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.RiskLevelChangedEvent)
	if !ok {
		return nil
	}

	fields := []logger.Field{
		logger.UserID(e.AggregateID()),
		logger.Subject(e.Subject),
		logger.String("old_risk", e.OldLevel),
		logger.RiskLevel(e.NewLevel),
	}

	if e.NewLevel == string(prediction.RiskHigh) {
		h.log.Warn("learner entered high risk", fields...)
		return nil
	}
	h.log.Info("risk level changed", fields...)
	return nil
}
