package handler

import (
	"cmp"
	"fmt"
	"maps"
	"net/http"
	"slices"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	ops := make([]metrics.EntityKey, 0, len(snap.EntityOperations))
	for k := range snap.EntityOperations {
		ops = append(ops, k)
	}
	slices.SortFunc(ops, func(a, b metrics.EntityKey) int {
		return cmp.Or(cmp.Compare(a.Entity, b.Entity), cmp.Compare(a.Op, b.Op))
	})
	for _, k := range ops {
		writeMetric(w, "ucsb_entity_operations_total{entity=%q,op=%q} %d\n", k.Entity, k.Op, snap.EntityOperations[k])
	}

	for _, entity := range slices.Sorted(maps.Keys(snap.EntityNotFound)) {
		writeMetric(w, "ucsb_entity_not_found_total{entity=%q} %d\n", entity, snap.EntityNotFound[entity])
	}

	writeMetric(w, "ucsb_logins_total{status=\"success\"} %d\n", snap.Logins[metrics.LoginSucceeded])
	writeMetric(w, "ucsb_logins_total{status=\"failed\"} %d\n", snap.Logins[metrics.LoginFailed])

	writeMetric(w, "ucsb_api_keys_issued_total %d\n", snap.APIKeysIssued)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
