package server

import (
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/raysh454/bizaudit/internal/logging"
)

func ptr[T any](v T) *T { return &v }

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(name),
		Help:   ptr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: ptr(v)}}},
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(name),
		Help:   ptr(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: ptr(v)}}},
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// metricFamilies snapshots queue and cache state.
func (s *Server) metricFamilies() []*dto.MetricFamily {
	q := s.auditor.QueueStatus()
	c := s.auditor.CacheStats()

	families := []*dto.MetricFamily{
		gauge("bizaudit_queue_depth", "Audits waiting for dispatch.", float64(q.QueueDepth)),
		gauge("bizaudit_queue_in_flight", "Audits currently being extracted.", float64(q.InFlight)),
		gauge("bizaudit_queue_max_depth", "Admission limit on queued plus in-flight audits.", float64(q.MaxDepth)),
		gauge("bizaudit_queue_paused", "1 when dispatching is paused.", boolValue(q.Paused)),
		counter("bizaudit_tasks_processed_total", "Dispatched audits that finished, including failures.", float64(q.TotalProcessed)),
		counter("bizaudit_tasks_failed_total", "Dispatched audits that failed.", float64(q.TotalFailed)),
		counter("bizaudit_cache_hits_total", "Fresh cache lookups.", float64(c.Hits)),
		counter("bizaudit_cache_misses_total", "Missing or stale cache lookups.", float64(c.Misses)),
	}
	if q.LastDispatchTime != nil {
		families = append(families, gauge("bizaudit_last_dispatch_timestamp_seconds",
			"Unix time of the most recent dispatch.", float64(q.LastDispatchTime.UnixNano())/1e9))
	}
	return families
}

// @Summary Prometheus metrics
// @Tags ops
// @Produce plain
// @Success 200 {string} string
// @Router /metrics [get]
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	w.WriteHeader(http.StatusOK)

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range s.metricFamilies() {
		if err := enc.Encode(mf); err != nil {
			s.logger.Warn("encoding metrics", logging.F("family", mf.GetName()), logging.Err(err))
			return
		}
	}
}
