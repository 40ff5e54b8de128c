package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/availability"
)

// Client fetches the upstream availability feed for a field and date. The
// feed service is best-effort: when it is unreachable or returns garbage the
// caller gets a fully open grid at the field's default rate, flagged degraded.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// DayAvailability returns the feed for fieldID on date (YYYY-MM-DD) and
// whether the result is degraded (open fallback instead of upstream data).
func (c *Client) DayAvailability(ctx context.Context, fieldID, date string, defaultRate float64) (availability.Feed, bool) {
	if c.baseURL == "" {
		return availability.OpenFeed(defaultRate), true
	}

	endpoint := c.baseURL + "/fields/" + url.PathEscape(fieldID) + "/availability?date=" + url.QueryEscape(date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return availability.OpenFeed(defaultRate), true
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("availability feed unreachable", "field_id", fieldID, "date", date, "err", err)
		return availability.OpenFeed(defaultRate), true
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("availability feed returned non-2xx", "field_id", fieldID, "date", date, "status", resp.StatusCode)
		return availability.OpenFeed(defaultRate), true
	}

	var f availability.Feed
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		c.logger.Warn("availability feed undecodable", "field_id", fieldID, "date", date, "err", err)
		return availability.OpenFeed(defaultRate), true
	}
	if f.Field.HourlyRate <= 0 {
		f.Field.HourlyRate = defaultRate
	}
	return f, false
}
