package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/httputil"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// Yahoo Finance symbols for overseas indices
var yahooSymbols = map[string]string{
	"S&P500": "^GSPC",
	"NASDAQ": "^IXIC",
	"DOW":    "^DJI",
}

// Yahoo fetches overseas index quotes from the Yahoo Finance chart API
// ⭐ SSOT: Yahoo Finance 호출은 이 어댑터에서만
type Yahoo struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	limiter    *rate.Limiter
}

// NewYahoo creates a new Yahoo Finance quote source
func NewYahoo(cfg config.YahooConfig, interval time.Duration, httpClient *httputil.Client, log *logger.Logger) *Yahoo {
	return &Yahoo{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.BaseURL,
		limiter:    newLimiter(rate.Every(interval)),
	}
}

// Name returns the adapter identifier
func (y *Yahoo) Name() string {
	return "yahoo"
}

// Fetch collects overseas index quotes, one symbol per request.
// Per-symbol errors drop that symbol only.
func (y *Yahoo) Fetch(ctx context.Context) (*market.Snapshot, error) {
	snap := market.NewSnapshot(y.Name())

	for name, symbol := range yahooSymbols {
		price, change, err := y.fetchSymbol(ctx, symbol)
		if err != nil {
			y.logger.WithError(err).WithField("index", name).Debug("Yahoo symbol fetch failed")
			continue
		}
		if price <= 0 || !market.InBand(name, price) {
			y.logger.WithFields(map[string]interface{}{
				"index": name,
				"price": price,
			}).Warn("Yahoo price outside plausible band, dropped")
			continue
		}
		snap.Set(name, price, change)
	}

	y.logger.WithField("count", len(snap.Indices)).Debug("Yahoo fetch completed")
	return snap, nil
}

// chartResponse is the subset of the v8 chart API response we need
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// fetchSymbol gets the latest quote for one symbol
func (y *Yahoo) fetchSymbol(ctx context.Context, symbol string) (price, change float64, err error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return 0, 0, fmt.Errorf("rate limiter wait: %w", err)
	}

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", y.baseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, 0, fmt.Errorf("decode response: %w", err)
	}

	if result.Chart.Error != nil {
		return 0, 0, fmt.Errorf("chart API error: %s - %s", result.Chart.Error.Code, result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 {
		return 0, 0, fmt.Errorf("no chart result for %s", symbol)
	}

	meta := result.Chart.Result[0].Meta
	price = meta.RegularMarketPrice
	if meta.PreviousClose > 0 {
		change = price - meta.PreviousClose
	}

	return price, change, nil
}
