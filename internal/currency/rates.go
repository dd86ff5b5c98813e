package currency

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// DefaultFeedURL is the ČNB daily exchange-rate fixing in plain text.
const DefaultFeedURL = "https://www.cnb.cz/cs/financni-trhy/devizovy-trh/kurzy-devizoveho-trhu/kurzy-devizoveho-trhu/denni_kurz.txt"

var rateRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vydaje_rate_refreshes_total",
	Help: "Exchange-rate refresh attempts by outcome.",
}, []string{"status"})

// Source holds the current rate table and refreshes it opportunistically
// from the feed. A failed refresh keeps the previous table in place (or the
// hardcoded fallback before the first success); callers of Table never see
// an error.
type Source struct {
	url      string
	client   *http.Client
	interval time.Duration
	table    atomic.Value // Rates
	updated  atomic.Value // time.Time
}

// NewSource creates a rate source seeded with the fallback table. An empty
// url selects the ČNB feed.
func NewSource(url string, interval time.Duration) *Source {
	if url == "" {
		url = DefaultFeedURL
	}
	if interval <= 0 {
		interval = time.Hour
	}
	s := &Source{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
	s.table.Store(Fallback())
	return s
}

// Table returns the current rate table snapshot.
func (s *Source) Table() Rates {
	return s.table.Load().(Rates)
}

// LastUpdate returns when the table was last replaced by a successful
// refresh, or the zero time if only the fallback is in place.
func (s *Source) LastUpdate() time.Time {
	if v := s.updated.Load(); v != nil {
		return v.(time.Time)
	}
	return time.Time{}
}

// Refresh fetches and parses the feed, swapping the table on success. The
// returned error is for logging only; the previous table stays valid.
func (s *Source) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		rateRefreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("build rates request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		rateRefreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rateRefreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	rates, err := ParseFeed(resp.Body)
	if err != nil {
		rateRefreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("parse rates feed: %w", err)
	}

	s.table.Store(rates)
	s.updated.Store(time.Now())
	rateRefreshes.WithLabelValues("ok").Inc()

	slog.InfoContext(ctx, "Exchange rates updated",
		"source", s.url,
		"currencies", len(rates))
	return nil
}

// Run refreshes immediately and then on every interval tick until the
// context is cancelled. Refresh failures are logged and swallowed.
func (s *Source) Run(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Using fallback exchange rates", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				slog.WarnContext(ctx, "Exchange rate refresh failed, keeping previous table", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ParseFeed parses the ČNB daily fixing. The format is two header lines
// followed by pipe-delimited records:
//
//	země|měna|množství|kód|kurz
//	Austrálie|dolar|1|AUD|14,743
//
// Decimal commas are normalized and the quoted rate is divided by the
// quantity column, so the resulting table is always per one unit. The
// ledger currency is pinned at rate 1.
func ParseFeed(r io.Reader) (Rates, error) {
	rates := Rates{Ledger: decimal.NewFromInt(1)}

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		if line <= 2 {
			// date header and column header
			continue
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		parts := strings.Split(text, "|")
		if len(parts) < 5 {
			continue
		}

		code := strings.TrimSpace(parts[3])
		qty, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
		if err != nil || !qty.IsPositive() {
			continue
		}
		rate, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(parts[4]), ",", "."))
		if err != nil {
			continue
		}
		rates[code] = rate.Div(qty)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan feed: %w", err)
	}
	if len(rates) < 2 {
		return nil, fmt.Errorf("feed yielded no rates")
	}
	return rates, nil
}
