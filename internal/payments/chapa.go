package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

const DefaultChapaBaseURL = "https://api.chapa.co"

type ChapaAdapter struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewChapaAdapter(secretKey, baseURL string, timeout time.Duration) *ChapaAdapter {
	if baseURL == "" {
		baseURL = DefaultChapaBaseURL
	}
	return &ChapaAdapter{
		secretKey:  secretKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Chapa wants amounts as decimal strings in major units.
func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (c *ChapaAdapter) Initialize(ctx context.Context, req InitiateRequest) (InitiateResponse, error) {
	payload := map[string]string{
		"amount":       formatAmount(req.AmountCents),
		"currency":     "ETB",
		"email":        req.Customer.Email,
		"first_name":   req.Customer.FirstName,
		"last_name":    req.Customer.LastName,
		"phone_number": req.Customer.Phone,
		"tx_ref":       req.TxRef,
		"callback_url": req.CallbackURL,
		"return_url":   req.ReturnURL,
	}

	body, _ := json.Marshal(payload)

	url := c.baseURL + "/v1/transaction/initialize"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return InitiateResponse{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return InitiateResponse{}, fmt.Errorf("chapa initialize request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return InitiateResponse{}, fmt.Errorf("chapa initialize failed: http=%d body=%s", resp.StatusCode, string(raw))
	}

	var res struct {
		Message string `json:"message"`
		Status  string `json:"status"`
		Data    struct {
			CheckoutURL string `json:"checkout_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return InitiateResponse{}, fmt.Errorf("chapa initialize decode: %w body=%s", err, string(raw))
	}

	if !strings.EqualFold(res.Status, "success") || res.Data.CheckoutURL == "" {
		return InitiateResponse{}, fmt.Errorf("chapa initialize rejected: status=%s message=%s", res.Status, res.Message)
	}

	return InitiateResponse{
		CheckoutURL: res.Data.CheckoutURL,
		TxRef:       req.TxRef,
	}, nil
}

func (c *ChapaAdapter) Verify(ctx context.Context, txRef string) (VerifyResult, error) {
	if strings.TrimSpace(txRef) == "" {
		return VerifyResult{}, fmt.Errorf("chapa verify requires tx_ref")
	}

	url := c.baseURL + "/v1/transaction/verify/" + txRef

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return VerifyResult{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("chapa verify request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	// Chapa answers 4xx for unknown/failed transactions with a decodable
	// body, so decode first and only give up when that fails too.
	var res struct {
		Message string `json:"message"`
		Status  string `json:"status"`
		Data    struct {
			Status    string  `json:"status"` // success, failed, pending
			Reference string  `json:"reference"`
			Amount    float64 `json:"amount"`
			Currency  string  `json:"currency"`
			TxRef     string  `json:"tx_ref"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return VerifyResult{}, fmt.Errorf("chapa verify decode: http=%d err=%w body=%s", resp.StatusCode, err, string(raw))
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return VerifyResult{}, fmt.Errorf("chapa verify failed: http=%d message=%s", resp.StatusCode, res.Message)
	}

	status := strings.ToLower(strings.TrimSpace(res.Data.Status))
	switch status {
	case GatewayStatusSuccess, GatewayStatusFailed, GatewayStatusPending:
	default:
		// Unknown transaction or envelope-level failure. Treat as a
		// definitive failure only when the gateway said so explicitly.
		if strings.EqualFold(res.Status, "failed") {
			status = GatewayStatusFailed
		} else {
			return VerifyResult{}, fmt.Errorf("chapa verify inconclusive: http=%d status=%q message=%s", resp.StatusCode, res.Data.Status, res.Message)
		}
	}

	return VerifyResult{
		Status:      status,
		Reference:   res.Data.Reference,
		AmountCents: toCents(res.Data.Amount),
	}, nil
}
