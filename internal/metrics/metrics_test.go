package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveQuery("scan", "ok", time.Millisecond)
	m.ObserveScan(3)
	m.ObserveRebuild(nil, time.Second, 10, 10)
	m.ObserveCache("hit")
	if m.Handler() == nil {
		t.Error("nil metrics should still expose a handler")
	}
}

func TestObserveRebuild(t *testing.T) {
	m := New()

	m.ObserveRebuild(nil, time.Second, 1200, 1201)
	m.ObserveRebuild(errors.New("boom"), time.Second, 0, 0)

	if got := testutil.ToFloat64(m.RebuildsTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok rebuilds = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RebuildsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("failed rebuilds = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LatestRound); got != 1201 {
		t.Errorf("latest round = %v, want 1201 (failed rebuild must not reset it)", got)
	}
	if got := testutil.ToFloat64(m.SnapshotDraws); got != 1200 {
		t.Errorf("snapshot draws = %v, want 1200", got)
	}
}

func TestObserveQueryAndCache(t *testing.T) {
	m := New()
	m.ObserveQuery("kmatch", "ok", time.Millisecond)
	m.ObserveQuery("kmatch", "ok", time.Millisecond)
	m.ObserveQuery("kmatch", "invalid", time.Millisecond)
	m.ObserveCache("miss")

	if got := testutil.ToFloat64(m.QueriesTotal.WithLabelValues("kmatch", "ok")); got != 2 {
		t.Errorf("ok queries = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ResultCache.WithLabelValues("miss")); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}
}
