package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const RazorpayBaseURL = "https://api.razorpay.com/v1"

// RazorpayClient creates hosted payment orders and verifies the signature
// Razorpay delivers with the payment callback.
type RazorpayClient struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	secret     string
}

// RazorpayOrder is the subset of the order response this service stores.
type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

func NewRazorpayClient(keyID, secret string) *RazorpayClient {
	return &RazorpayClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: RazorpayBaseURL,
		keyID:   keyID,
		secret:  secret,
	}
}

// CreateOrder creates a Razorpay order. Amount is converted to the smallest
// currency unit (cents).
func (c *RazorpayClient) CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (*RazorpayOrder, error) {
	payload := map[string]interface{}{
		"amount":   amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"currency": currency,
		"receipt":  fmt.Sprintf("order_rcptid_%d", time.Now().UnixMilli()),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("razorpay returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var order RazorpayOrder
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}

	return &order, nil
}

// VerifySignature checks the HMAC-SHA256 signature Razorpay computes over
// "<order_id>|<payment_id>".
func (c *RazorpayClient) VerifySignature(orderID, paymentID, signature string) bool {
	h := hmac.New(sha256.New, []byte(c.secret))
	h.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(h.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
