package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/httputil"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// Naver scrapes domestic index quotes (KOSPI, KOSDAQ) from the Naver
// Finance home page
// ⭐ SSOT: 네이버 증권 크롤링은 이 어댑터에서만
type Naver struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	limiter    *rate.Limiter
}

// NewNaver creates a new Naver Finance scraper
func NewNaver(cfg config.NaverConfig, interval time.Duration, httpClient *httputil.Client, log *logger.Logger) *Naver {
	return &Naver{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.BaseURL,
		limiter:    newLimiter(rate.Every(interval)),
	}
}

// Name returns the adapter identifier
func (n *Naver) Name() string {
	return "naver"
}

// Home page sections per index
var naverAreas = map[string]string{
	"KOSPI":  ".kospi_area",
	"KOSDAQ": ".kosdaq_area",
}

// Fetch scrapes KOSPI/KOSDAQ from the home page. Values failing the
// plausibility band are dropped individually; a parse failure yields an
// empty snapshot rather than an error.
func (n *Naver) Fetch(ctx context.Context) (*market.Snapshot, error) {
	snap := market.NewSnapshot(n.Name())

	if err := n.limiter.Wait(ctx); err != nil {
		return snap, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/", nil)
	if err != nil {
		return snap, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return snap, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return snap, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return snap, fmt.Errorf("read response body: %w", err)
	}

	n.parsePage(string(body), snap)

	n.logger.WithField("count", len(snap.Indices)).Debug("Naver fetch completed")
	return snap, nil
}

// parsePage extracts index quotes from the home page HTML
func (n *Naver) parsePage(html string, snap *market.Snapshot) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		n.logger.WithError(err).Warn("Naver page parse failed")
		return
	}

	pageText := doc.Text()

	for name, selector := range naverAreas {
		price, change, ok := extractFromArea(doc, selector)
		if !ok {
			// Markup changed, fall back to text pattern matching
			price, change, ok = extractFromText(pageText, name)
		}
		if !ok {
			n.logger.WithField("index", name).Warn("Naver index not found on page")
			continue
		}
		if !market.InBand(name, price) {
			n.logger.WithFields(map[string]interface{}{
				"index": name,
				"price": price,
			}).Warn("Naver price outside plausible band, dropped")
			continue
		}
		snap.Set(name, price, change)
	}
}

// extractFromArea reads price/change from the index area markup.
// num_quot 블록: .num 현재가, .num2 전일대비, dn 클래스면 하락
func extractFromArea(doc *goquery.Document, selector string) (price, change float64, ok bool) {
	area := doc.Find(selector).First()
	if area.Length() == 0 {
		return 0, 0, false
	}

	quot := area.Find(".num_quot").First()
	if quot.Length() == 0 {
		return 0, 0, false
	}

	priceText := quot.Find(".num").First().Text()
	price, ok = parseNumber(priceText)
	if !ok || price <= 0 {
		return 0, 0, false
	}

	changeText := quot.Find(".num2").First().Text()
	change, _ = parseNumber(changeText)
	if quot.HasClass("dn") {
		change = -change
	}

	return price, change, true
}

// Fallback patterns per index label (Korean labels included)
var indexPatterns = map[string][]*regexp.Regexp{
	"KOSPI": {
		regexp.MustCompile(`KOSPI[^\d]*(\d{1,3}(?:,\d{3})*(?:\.\d+)?)`),
		regexp.MustCompile(`코스피[^\d]*(\d{1,3}(?:,\d{3})*(?:\.\d+)?)`),
	},
	"KOSDAQ": {
		regexp.MustCompile(`KOSDAQ[^\d]*(\d{1,3}(?:,\d{3})*(?:\.\d+)?)`),
		regexp.MustCompile(`코스닥[^\d]*(\d{1,3}(?:,\d{3})*(?:\.\d+)?)`),
	},
}

var changePattern = regexp.MustCompile(`[+-]?\d{1,3}(?:,\d{3})*(?:\.\d+)?`)

// extractFromText finds an index quote in raw page text
func extractFromText(pageText, name string) (price, change float64, ok bool) {
	for _, re := range indexPatterns[name] {
		m := re.FindStringSubmatchIndex(pageText)
		if m == nil {
			continue
		}
		candidate, parsed := parseNumber(pageText[m[2]:m[3]])
		if !parsed || !market.InBand(name, candidate) {
			continue
		}
		price = candidate

		// Look for the change amount near the price
		// 변동폭은 가격의 10% 이내라고 가정
		end := m[3] + 150
		if end > len(pageText) {
			end = len(pageText)
		}
		for _, cm := range changePattern.FindAllString(pageText[m[3]:end], -1) {
			v, parsed := parseNumber(cm)
			if parsed && v != price && v != 0 && abs(v) < price*0.1 {
				change = v
				break
			}
		}
		return price, change, true
	}
	return 0, 0, false
}

// parseNumber extracts a float from text like "3,227.68" or "+29.54"
func parseNumber(text string) (float64, bool) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimPrefix(cleaned, "+")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
