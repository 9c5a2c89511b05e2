package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lotto-mcp/internal/draw"
	"lotto-mcp/internal/history"
	"lotto-mcp/internal/metrics"
)

type fakeRebuilder struct {
	store *history.Store
	err   error
	calls int
}

func (f *fakeRebuilder) Rebuild(context.Context) (history.Info, error) {
	f.calls++
	if f.err != nil {
		return history.Info{}, f.err
	}
	snap, _ := history.FromRecords([]draw.Record{{Round: 1, Numbers: []int{1, 2, 3, 4, 5, 6}, Bonus: 7}})
	f.store.Replace(snap)
	return snap.Info(), nil
}

func TestHealthz(t *testing.T) {
	store := history.NewStore()
	rb := &fakeRebuilder{store: store}
	srv := httptest.NewServer(NewRouter(store, rb, metrics.New(), ""))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("empty snapshot status = %d, want 503", resp.StatusCode)
	}

	if _, err := rb.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRebuild(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		header     string
		err        error
		wantStatus int
		wantCalls  int
	}{
		{"no token configured", "", "", nil, http.StatusNotFound, 0},
		{"no token configured, header sent", "", "anything", nil, http.StatusNotFound, 0},
		{"token ok", "s3cret", "s3cret", nil, http.StatusOK, 1},
		{"token missing", "s3cret", "", nil, http.StatusUnauthorized, 0},
		{"token wrong", "s3cret", "guess", nil, http.StatusUnauthorized, 0},
		{"source failure", "s3cret", "s3cret", errors.New("upstream down"), http.StatusBadGateway, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := history.NewStore()
			rb := &fakeRebuilder{store: store, err: tt.err}
			h := NewRouter(store, rb, nil, tt.token)

			req := httptest.NewRequest(http.MethodPost, "/admin/rebuild", nil)
			if tt.header != "" {
				req.Header.Set("X-Admin-Token", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rb.calls != tt.wantCalls {
				t.Errorf("rebuild calls = %d, want %d", rb.calls, tt.wantCalls)
			}
			if tt.wantStatus == http.StatusOK {
				var info history.Info
				if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if info.Count != 1 {
					t.Errorf("info.Count = %d, want 1", info.Count)
				}
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.ObserveQuery("next_frequency", "ok", 0)
	h := NewRouter(history.NewStore(), &fakeRebuilder{}, m, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `lotto_query_total{kind="next_frequency",status="ok"} 1`) {
		t.Error("query counter missing from exposition")
	}
}
