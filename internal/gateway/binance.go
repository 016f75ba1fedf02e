package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// BinanceClient submits signed withdrawal requests to Binance.
type BinanceClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	secretKey  string
}

// BinanceWithdrawResponse is the Binance withdraw-apply response.
type BinanceWithdrawResponse struct {
	ID string `json:"id"`
}

func NewBinanceClient(apiKey, secretKey, baseURL string) *BinanceClient {
	return &BinanceClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   baseURL,
		apiKey:    apiKey,
		secretKey: secretKey,
	}
}

// sign computes the HMAC-SHA256 hex signature over the query string.
func (c *BinanceClient) sign(queryString string) string {
	h := hmac.New(sha256.New, []byte(c.secretKey))
	h.Write([]byte(queryString))
	return hex.EncodeToString(h.Sum(nil))
}

// Withdraw submits a capital withdrawal. Parameter order in the signed
// query string matters to Binance, so it is built by hand.
func (c *BinanceClient) Withdraw(ctx context.Context, asset, address, network string, amount decimal.Decimal) (*BinanceWithdrawResponse, error) {
	timestamp := time.Now().UnixMilli()
	queryString := fmt.Sprintf("asset=%s&amount=%s&address=%s&network=%s&timestamp=%d",
		url.QueryEscape(asset), amount.String(), url.QueryEscape(address), url.QueryEscape(network), timestamp)
	signature := c.sign(queryString)

	endpoint := fmt.Sprintf("%s/sapi/v1/capital/withdraw/apply?%s&signature=%s",
		c.baseURL, queryString, signature)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance returned status %d: %s", resp.StatusCode, string(body))
	}

	var result BinanceWithdrawResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode withdraw response: %w", err)
	}

	return &result, nil
}

// ServerTime pings the public time endpoint; used as a connectivity check.
func (c *BinanceClient) ServerTime(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/time", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var result struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}

	return result.ServerTime, nil
}
