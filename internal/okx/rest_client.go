package okx

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"okx-carry-bot-go/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	baseURL = "https://www.okx.com/api/v5"

	InstTypeSpot    = "SPOT"
	InstTypeSwap    = "SWAP"
	InstTypeFutures = "FUTURES"
)

// RestClientInterface defines the interface for the OKX public REST API client.
type RestClientInterface interface {
	GetServerTime() (int64, error)
	GetTickers(instType string) ([]Ticker, error)
	GetInstruments(instType, underlying string) ([]Instrument, error)
}

// RestClient is a client for the OKX v5 public REST API.
// It implements the RestClientInterface.
type RestClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure RestClient implements the interface
var _ RestClientInterface = (*RestClient)(nil)

// NewRestClient creates a new OKX REST API client.
func NewRestClient(cfg *config.Okx, logger *zap.Logger) *RestClient {
	client := resty.New().SetBaseURL(baseURL)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &RestClient{
		client:  client,
		logger:  logger,
		limiter: limiter,
	}
}

// apiResponse is the envelope every OKX v5 endpoint returns.
type apiResponse[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []T    `json:"data"`
}

// Ticker represents one instrument's latest market snapshot.
type Ticker struct {
	InstType string `json:"instType"`
	InstID   string `json:"instId"`
	Last     string `json:"last"`
	BidPx    string `json:"bidPx"`
	AskPx    string `json:"askPx"`
	High24h  string `json:"high24h"`
	Low24h   string `json:"low24h"`
	Ts       string `json:"ts"` // epoch millis
}

// Instrument represents one listed instrument's static metadata.
type Instrument struct {
	InstType string `json:"instType"`
	InstID   string `json:"instId"`
	Uly      string `json:"uly"`
	ExpTime  string `json:"expTime"` // epoch millis, empty for perpetuals/spot
	State    string `json:"state"`
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// checkCode surfaces OKX's in-band error convention: HTTP 200 with a non-zero code.
func checkCode(code, msg string) error {
	if code != "0" {
		return fmt.Errorf("okx api error %s: %s", code, msg)
	}
	return nil
}

// GetServerTime fetches the current server time from OKX.
// This is a good endpoint to test connectivity.
func (c *RestClient) GetServerTime() (int64, error) {
	type serverTime struct {
		Ts string `json:"ts"`
	}
	var result apiResponse[serverTime]

	req := c.client.R().
		SetResult(&result).
		SetHeader("Content-Type", "application/json")
	ctx := context.Background()

	_, err := c.doRequest(ctx, "GET", "/public/time", req)
	if err != nil {
		c.logger.Error("Failed to get server time", zap.Error(err))
		return 0, fmt.Errorf("failed to get server time: %w", err)
	}
	if err := checkCode(result.Code, result.Msg); err != nil {
		return 0, err
	}
	if len(result.Data) == 0 {
		return 0, fmt.Errorf("server time response contained no data")
	}

	ts, err := strconv.ParseInt(result.Data[0].Ts, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse server time %q: %w", result.Data[0].Ts, err)
	}
	return ts, nil
}

// GetTickers fetches the latest market snapshot for all instruments of the given type.
func (c *RestClient) GetTickers(instType string) ([]Ticker, error) {
	var result apiResponse[Ticker]

	req := c.client.R().
		SetResult(&result).
		SetQueryParam("instType", instType).
		SetHeader("Content-Type", "application/json")
	ctx := context.Background()

	_, err := c.doRequest(ctx, "GET", "/market/tickers", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickers for %s: %w", instType, err)
	}
	if err := checkCode(result.Code, result.Msg); err != nil {
		return nil, err
	}

	return result.Data, nil
}

// GetInstruments fetches instrument metadata. OKX requires an underlying
// (e.g. "BTC-USDT") when instType is FUTURES; it is optional otherwise.
func (c *RestClient) GetInstruments(instType, underlying string) ([]Instrument, error) {
	var result apiResponse[Instrument]

	req := c.client.R().
		SetResult(&result).
		SetQueryParam("instType", instType).
		SetHeader("Content-Type", "application/json")
	if underlying != "" {
		req.SetQueryParam("uly", underlying)
	}
	ctx := context.Background()

	_, err := c.doRequest(ctx, "GET", "/public/instruments", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get instruments for %s: %w", instType, err)
	}
	if err := checkCode(result.Code, result.Msg); err != nil {
		return nil, err
	}

	return result.Data, nil
}

// UnifiedSymbol converts an OKX instrument ID to the unified symbol format
// the price store contract uses:
//
//	BTC-USDT        -> BTC/USDT
//	BTC-USDT-SWAP   -> BTC/USDT:USDT
//	BTC-USDT-250926 -> BTC/USDT:USDT-250926
func UnifiedSymbol(instID string) string {
	parts := strings.Split(instID, "-")
	if len(parts) < 2 {
		return instID
	}
	base, quote := parts[0], parts[1]
	if len(parts) == 2 {
		return base + "/" + quote
	}
	if parts[2] == "SWAP" {
		return base + "/" + quote + ":" + quote
	}
	return base + "/" + quote + ":" + quote + "-" + parts[2]
}

// ParseExpiry converts OKX's epoch-millis expiry string to a time. A missing
// expiry (spot, perpetuals) yields nil.
func ParseExpiry(expTime string) *time.Time {
	if expTime == "" {
		return nil
	}
	ms, err := strconv.ParseInt(expTime, 10, 64)
	if err != nil {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}
