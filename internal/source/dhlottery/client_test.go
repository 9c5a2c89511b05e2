package dhlottery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync/atomic"
	"testing"
)

func newServer(t *testing.T, published int, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("method") != "getLottoNumber" {
			http.Error(w, "bad method", http.StatusBadRequest)
			return
		}
		round, err := strconv.Atoi(r.URL.Query().Get("drwNo"))
		if err != nil {
			http.Error(w, "bad round", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if round > published {
			_ = json.NewEncoder(w).Encode(map[string]string{"returnValue": "fail"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"returnValue": "success",
			"drwNo":       round,
			"drwNoDate":   "2024-01-06",
			"drwtNo1":     1, "drwtNo2": 2, "drwtNo3": 3,
			"drwtNo4": 4, "drwtNo5": 5, "drwtNo6": round + 6,
			"bnusNo": 45,
		})
	}))
}

func TestFetch_StopsAtUnpublished(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, 5, &hits)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	got, err := c.Fetch(context.Background(), 2)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	var rounds []int
	for _, r := range got {
		rounds = append(rounds, r.Round)
	}
	if !slices.Equal(rounds, []int{3, 4, 5}) {
		t.Errorf("rounds = %v, want [3 4 5]", rounds)
	}
	if !slices.Equal(got[0].Numbers, []int{1, 2, 3, 4, 5, 9}) || got[0].Bonus != 45 {
		t.Errorf("record = %+v", got[0])
	}
	if hits.Load() != 4 {
		t.Errorf("requests = %d, want 4", hits.Load())
	}
}

func TestRound_Cached(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, 5, &hits)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	for range 3 {
		if _, ok, err := c.Round(context.Background(), 1); err != nil || !ok {
			t.Fatalf("Round: ok=%v err=%v", ok, err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want 1", hits.Load())
	}
}

func TestFetch_MaxRounds(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, 100, &hits)
	defer srv.Close()

	got, err := New(Config{BaseURL: srv.URL, MaxRounds: 2}).Fetch(context.Background(), 0)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("fetched %d, want 2", len(got))
	}
}

func TestRound_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, ok, err := New(Config{BaseURL: srv.URL}).Round(context.Background(), 1)
	if err == nil || ok {
		t.Fatalf("ok=%v err=%v, want error", ok, err)
	}
}

func TestRound_ContextCancelled(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, 5, &hits)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := New(Config{BaseURL: srv.URL}).Round(ctx, 1); err == nil {
		t.Error("expected error on cancelled context")
	}
}
