// Package dhlottery fetches published draw results from the lottery operator's
// public JSON endpoint.
package dhlottery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"lotto-mcp/internal/draw"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the operator's result endpoint.
const DefaultBaseURL = "https://www.dhlottery.co.kr/common.do"

// Config holds connection settings.
type Config struct {
	BaseURL      string
	RequestDelay time.Duration
	// MaxRounds bounds one Fetch call. Zero means unbounded.
	MaxRounds int
}

// response is the endpoint's payload for a single round.
type response struct {
	ReturnValue string `json:"returnValue"`
	Round       int    `json:"drwNo"`
	Date        string `json:"drwNoDate"`
	No1         int    `json:"drwtNo1"`
	No2         int    `json:"drwtNo2"`
	No3         int    `json:"drwtNo3"`
	No4         int    `json:"drwtNo4"`
	No5         int    `json:"drwtNo5"`
	No6         int    `json:"drwtNo6"`
	Bonus       int    `json:"bnusNo"`
}

func (r response) record() draw.Record {
	return draw.Record{
		Round:   r.Round,
		Numbers: []int{r.No1, r.No2, r.No3, r.No4, r.No5, r.No6},
		Bonus:   r.Bonus,
	}
}

// Client is a history.Source that walks rounds upward until the endpoint
// reports that a round has not been drawn yet.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter

	// Published rounds never change, so entries do not expire.
	cache      map[int]draw.Record
	cacheMutex sync.RWMutex
}

// New creates a client. A zero RequestDelay disables throttling.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(limit, 1),
		cache:   make(map[int]draw.Record),
	}
}

// Fetch returns every published round after the given one, ascending.
func (c *Client) Fetch(ctx context.Context, after int) ([]draw.Record, error) {
	var out []draw.Record
	for round := after + 1; c.cfg.MaxRounds == 0 || len(out) < c.cfg.MaxRounds; round++ {
		rec, ok, err := c.Round(ctx, round)
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		out = append(out, rec)
	}
	log.Info().Int("after", after).Int("fetched", len(out)).Msg("Fetched draws from dhlottery")
	return out, nil
}

// Round fetches a single round. ok is false when the round is not published.
func (c *Client) Round(ctx context.Context, round int) (draw.Record, bool, error) {
	c.cacheMutex.RLock()
	rec, hit := c.cache[round]
	c.cacheMutex.RUnlock()
	if hit {
		log.Debug().Int("round", round).Msg("Cache hit")
		return rec, true, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return draw.Record{}, false, err
	}

	params := url.Values{}
	params.Set("method", "getLottoNumber")
	params.Set("drwNo", strconv.Itoa(round))
	reqURL := fmt.Sprintf("%s?%s", c.cfg.BaseURL, params.Encode())
	log.Debug().Str("url", reqURL).Msg("Requesting draw")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return draw.Record{}, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return draw.Record{}, false, fmt.Errorf("request round %d: %w", round, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				return draw.Record{}, false, fmt.Errorf("dhlottery rate limit exceeded (429), retry after %s seconds", retryAfter)
			}
			return draw.Record{}, false, fmt.Errorf("dhlottery rate limit exceeded (429)")
		default:
			return draw.Record{}, false, fmt.Errorf("dhlottery returned status %d for round %d", resp.StatusCode, round)
		}
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return draw.Record{}, false, fmt.Errorf("failed to decode round %d: %w", round, err)
	}
	if payload.ReturnValue != "success" {
		log.Debug().Int("round", round).Str("returnValue", payload.ReturnValue).Msg("Round not published")
		return draw.Record{}, false, nil
	}
	if payload.Round != round {
		return draw.Record{}, false, fmt.Errorf("dhlottery answered round %d for request %d", payload.Round, round)
	}

	rec = payload.record()
	c.cacheMutex.Lock()
	c.cache[round] = rec
	c.cacheMutex.Unlock()
	return rec, true, nil
}
