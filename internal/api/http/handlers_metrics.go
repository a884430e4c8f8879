package http

import (
	"time"

	"github.com/GriffinCanCode/termbridge/internal/infrastructure/monitoring"
)

// HandlerMetrics wraps handlers with metrics tracking
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper. A nil metrics disables tracking.
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// TrackTool times one service tool execution. Call the returned func with
// the execution error.
func (hm *HandlerMetrics) TrackTool(tool string) func(err error) {
	start := time.Now()
	return func(err error) {
		if hm == nil || hm.metrics == nil {
			return
		}
		status := "success"
		if err != nil {
			status = "error"
		}
		hm.metrics.RecordToolCall(tool, status, time.Since(start))
	}
}
