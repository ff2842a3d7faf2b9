package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ark-poiop/dkwjawj-renew/internal/market"
	"github.com/ark-poiop/dkwjawj-renew/pkg/config"
	"github.com/ark-poiop/dkwjawj-renew/pkg/httputil"
	"github.com/ark-poiop/dkwjawj-renew/pkg/logger"
)

// Domestic index codes and overseas symbols served by KIS
var (
	kisDomesticCodes = map[string]string{
		"KOSPI":  "0001",
		"KOSDAQ": "1001",
	}
	kisOverseasSymbols = map[string]string{
		"S&P500": "SPX",
		"NASDAQ": "IXIC",
		"DOW":    "DJI",
	}
	// 브리핑 변동률 상위 종목 후보
	kisMajorStocks = map[string]string{
		"005930": "삼성전자",
		"000660": "SK하이닉스",
		"035420": "NAVER",
		"051910": "LG화학",
		"006400": "삼성SDI",
	}
)

// Curated market context attached to live snapshots.
// TODO: 업종별 지수 시세 API(FHPUP02100000, 업종 코드별)로 교체
var (
	kisSectors = map[string]float64{
		"반도체": 2.1,
		"AI":  1.8,
		"바이오": -0.5,
		"금융":  0.3,
		"자동차": 1.2,
	}
	kisIssues = []string{
		"FOMC 결과 발표",
		"반도체 수급 개선",
		"AI 투자 확대",
		"글로벌 경기 우려",
	}
	kisEvents = []string{
		"주요 기업 실적 발표",
		"한국은행 금리 결정",
		"경제지표 발표",
	}
)

// KIS fetches index quotes from the KIS (한국투자증권) Open API
// ⭐ SSOT: KIS API 호출은 이 어댑터에서만
type KIS struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.KISConfig
	limiter    *rate.Limiter

	// Token management
	accessToken string
	tokenExpiry time.Time
	tokenMu     sync.Mutex
}

// NewKIS creates a new KIS quote source
func NewKIS(cfg config.KISConfig, interval time.Duration, httpClient *httputil.Client, log *logger.Logger) *KIS {
	return &KIS{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
		limiter:    newLimiter(rate.Every(interval)),
	}
}

// Name returns the adapter identifier
func (k *KIS) Name() string {
	return "kis"
}

// Fetch collects domestic and overseas index quotes. Missing credentials or
// request failures yield an empty snapshot, never an error the caller must
// distinguish; per-index failures just omit the index.
func (k *KIS) Fetch(ctx context.Context) (*market.Snapshot, error) {
	snap := market.NewSnapshot(k.Name())

	if !k.cfg.Configured() {
		k.logger.Warn("KIS credentials not configured, skipping live fetch")
		return snap, nil
	}

	if _, err := k.token(ctx); err != nil {
		k.logger.WithError(err).Warn("KIS token issue failed")
		return snap, nil
	}

	for name, code := range kisDomesticCodes {
		price, change, err := k.fetchDomesticIndex(ctx, code)
		if err != nil {
			k.logger.WithError(err).WithField("index", name).Debug("KIS domestic index fetch failed")
			continue
		}
		if price > 0 {
			snap.Set(name, price, change)
		}
	}

	for name, symbol := range kisOverseasSymbols {
		price, change, err := k.fetchOverseasIndex(ctx, symbol)
		if err != nil {
			k.logger.WithError(err).WithField("index", name).Debug("KIS overseas index fetch failed")
			continue
		}
		if price > 0 {
			snap.Set(name, price, change)
		}
	}

	// 주요 종목 등락률, 실패한 종목은 생략
	for code, name := range kisMajorStocks {
		price, changePct, err := k.fetchStockPrice(ctx, code)
		if err != nil {
			k.logger.WithError(err).WithField("stock", name).Debug("KIS stock fetch failed")
			continue
		}
		if price > 0 {
			snap.SetStock(name, changePct)
		}
	}

	if len(snap.Indices) > 0 {
		snap.Sectors = make(map[string]float64, len(kisSectors))
		for name, change := range kisSectors {
			snap.Sectors[name] = change
		}
		snap.Issues = append([]string(nil), kisIssues...)
		snap.Events = append([]string(nil), kisEvents...)
	}

	k.logger.WithFields(map[string]interface{}{
		"count":  len(snap.Indices),
		"stocks": len(snap.Stocks),
	}).Debug("KIS fetch completed")
	return snap, nil
}

// tokenResponse is the OAuth token response
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// token gets a valid access token, refreshing if necessary
func (k *KIS) token(ctx context.Context) (string, error) {
	k.tokenMu.Lock()
	defer k.tokenMu.Unlock()

	if k.accessToken != "" && time.Now().Before(k.tokenExpiry) {
		return k.accessToken, nil
	}

	url := fmt.Sprintf("%s/oauth2/tokenP", k.cfg.BaseURL)
	body := fmt.Sprintf(`{"grant_type":"client_credentials","appkey":"%s","appsecret":"%s"}`,
		k.cfg.AppKey, k.cfg.AppSecret)

	resp, err := k.httpClient.Post(ctx, url, "application/json", strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	k.accessToken = tokenResp.AccessToken
	k.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second) // 1분 여유

	k.logger.WithField("expires_in", tokenResp.ExpiresIn).Info("KIS access token refreshed")
	return k.accessToken, nil
}

// request makes an authenticated request to KIS API
func (k *KIS) request(ctx context.Context, path string, trID string) (*http.Response, error) {
	if err := k.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	token, err := k.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}

	url := fmt.Sprintf("%s%s", k.cfg.BaseURL, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Set required headers
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("appkey", k.cfg.AppKey)
	req.Header.Set("appsecret", k.cfg.AppSecret)
	req.Header.Set("tr_id", trID)

	return k.httpClient.Do(req)
}

// fetchDomesticIndex gets a domestic index quote (코스피 0001, 코스닥 1001)
func (k *KIS) fetchDomesticIndex(ctx context.Context, code string) (price, change float64, err error) {
	path := fmt.Sprintf("/uapi/domestic-stock/v1/quotations/inquire-price?FID_COND_MRKT_DIV_CODE=U&FID_INPUT_ISCD=%s", code)
	trID := "FHPUP02100000" // 국내 업종/지수 현재가

	resp, err := k.request(ctx, path, trID)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, 0, fmt.Errorf("API error status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		RtCd   string `json:"rt_cd"`
		Msg1   string `json:"msg1"`
		Output struct {
			CurrentPrice string `json:"bstp_nmix_prpr"` // 업종지수 현재가
			PriceChange  string `json:"bstp_nmix_prdy_vrss"`
		} `json:"output"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, 0, fmt.Errorf("decode response: %w", err)
	}

	if result.RtCd != "0" {
		return 0, 0, fmt.Errorf("KIS API error: %s - %s", result.RtCd, result.Msg1)
	}

	price = parseFloat(result.Output.CurrentPrice)
	change = parseFloat(result.Output.PriceChange)
	return price, change, nil
}

// fetchOverseasIndex gets an overseas index quote (SPX, IXIC, DJI)
func (k *KIS) fetchOverseasIndex(ctx context.Context, symbol string) (price, change float64, err error) {
	path := fmt.Sprintf("/uapi/overseas-price/v1/quotations/price?AUTH=&EXCD=NAS&SYMB=%s", symbol)
	trID := "HHDFS00000300" // 해외주식 현재가

	resp, err := k.request(ctx, path, trID)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, 0, fmt.Errorf("API error status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		RtCd   string `json:"rt_cd"`
		Msg1   string `json:"msg1"`
		Output struct {
			Last string `json:"last"`
			Diff string `json:"diff"`
		} `json:"output"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, 0, fmt.Errorf("decode response: %w", err)
	}

	if result.RtCd != "0" {
		return 0, 0, fmt.Errorf("KIS API error: %s - %s", result.RtCd, result.Msg1)
	}

	price = parseFloat(result.Output.Last)
	change = parseFloat(result.Output.Diff)
	return price, change, nil
}

// fetchStockPrice gets one stock's current price and daily change rate (%)
func (k *KIS) fetchStockPrice(ctx context.Context, code string) (price, changePct float64, err error) {
	path := fmt.Sprintf("/uapi/domestic-stock/v1/quotations/inquire-price?FID_COND_MRKT_DIV_CODE=J&FID_INPUT_ISCD=%s", code)
	trID := "FHKST01010100" // 주식 현재가 시세

	resp, err := k.request(ctx, path, trID)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, 0, fmt.Errorf("API error status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		RtCd   string `json:"rt_cd"`
		Msg1   string `json:"msg1"`
		Output struct {
			CurrentPrice string `json:"stck_prpr"` // 주식 현재가
			ChangeRate   string `json:"prdy_ctrt"` // 전일 대비율
		} `json:"output"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, 0, fmt.Errorf("decode response: %w", err)
	}

	if result.RtCd != "0" {
		return 0, 0, fmt.Errorf("KIS API error: %s - %s", result.RtCd, result.Msg1)
	}

	price = parseFloat(result.Output.CurrentPrice)
	changePct = parseFloat(result.Output.ChangeRate)
	return price, changePct, nil
}

// parseFloat parses KIS numeric strings ("3,227.68", "-12.45")
func parseFloat(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
