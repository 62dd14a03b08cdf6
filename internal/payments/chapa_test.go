package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChapaAdapter_Initialize(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		var gotAuth string
		var gotBody map[string]string

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/v1/transaction/initialize", r.URL.Path)
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"message": "Hosted Link",
				"status": "success",
				"data": {"checkout_url": "https://checkout.chapa.co/checkout/payment/abc123"}
			}`))
		}))
		defer srv.Close()

		adapter := NewChapaAdapter("sk_test_secret", srv.URL, 5*time.Second)
		resp, err := adapter.Initialize(ctx, InitiateRequest{
			TxRef:       "voyago-1",
			AmountCents: 10050,
			Customer:    Customer{Email: "guest@example.com", FirstName: "Abel", LastName: "Tesfaye", Phone: "0911121314"},
			CallbackURL: "https://api.voyago.test/v1/payments/verify/voyago-1",
			ReturnURL:   "https://app.voyago.test/payments/done",
		})
		require.NoError(t, err)
		require.Equal(t, "https://checkout.chapa.co/checkout/payment/abc123", resp.CheckoutURL)
		require.Equal(t, "voyago-1", resp.TxRef)

		require.Equal(t, "Bearer sk_test_secret", gotAuth)
		require.Equal(t, "100.50", gotBody["amount"])
		require.Equal(t, "ETB", gotBody["currency"])
		require.Equal(t, "voyago-1", gotBody["tx_ref"])
		require.Equal(t, "https://api.voyago.test/v1/payments/verify/voyago-1", gotBody["callback_url"])
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Invalid API Key","status":"failed"}`))
		}))
		defer srv.Close()

		adapter := NewChapaAdapter("bad-key", srv.URL, 5*time.Second)
		_, err := adapter.Initialize(ctx, InitiateRequest{TxRef: "voyago-2", AmountCents: 100})
		require.Error(t, err)
		require.Contains(t, err.Error(), "http=401")
	})

	t.Run("rejected without checkout url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"message":"Transaction reference has been used before","status":"failed"}`))
		}))
		defer srv.Close()

		adapter := NewChapaAdapter("sk", srv.URL, 5*time.Second)
		_, err := adapter.Initialize(ctx, InitiateRequest{TxRef: "voyago-3", AmountCents: 100})
		require.Error(t, err)
		require.Contains(t, err.Error(), "rejected")
	})

	t.Run("malformed body is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>not json</html>`))
		}))
		defer srv.Close()

		adapter := NewChapaAdapter("sk", srv.URL, 5*time.Second)
		_, err := adapter.Initialize(ctx, InitiateRequest{TxRef: "voyago-4", AmountCents: 100})
		require.Error(t, err)
	})
}

func TestChapaAdapter_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("success maps status, reference and amount", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, "/v1/transaction/verify/voyago-1", r.URL.Path)
			require.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))

			w.Write([]byte(`{
				"message": "Payment details",
				"status": "success",
				"data": {
					"status": "success",
					"reference": "APq3Gvz2",
					"amount": 100.50,
					"currency": "ETB",
					"tx_ref": "voyago-1"
				}
			}`))
		}))
		defer srv.Close()

		adapter := NewChapaAdapter("sk_test_secret", srv.URL, 5*time.Second)
		result, err := adapter.Verify(ctx, "voyago-1")
		require.NoError(t, err)
		require.Equal(t, GatewayStatusSuccess, result.Status)
		require.Equal(t, "APq3Gvz2", result.Reference)
		require.Equal(t, int64(10050), result.AmountCents)
	})

	t.Run("definitive failure maps to failed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"message":"Payment details","status":"success","data":{"status":"failed","tx_ref":"voyago-2"}}`))
		}))
		defer srv.Close()

		adapter := NewChapaAdapter("sk", srv.URL, 5*time.Second)
		result, err := adapter.Verify(ctx, "voyago-2")
		require.NoError(t, err)
		require.Equal(t, GatewayStatusFailed, result.Status)
	})

	t.Run("unknown transaction is definitive when gateway says failed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"Invalid transaction or transaction not found","status":"failed","data":null}`))
		}))
		defer srv.Close()

		adapter := NewChapaAdapter("sk", srv.URL, 5*time.Second)
		result, err := adapter.Verify(ctx, "voyago-3")
		require.NoError(t, err)
		require.Equal(t, GatewayStatusFailed, result.Status)
	})

	t.Run("5xx is inconclusive", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"message":"upstream error","status":"error"}`))
		}))
		defer srv.Close()

		adapter := NewChapaAdapter("sk", srv.URL, 5*time.Second)
		_, err := adapter.Verify(ctx, "voyago-4")
		require.Error(t, err)
	})

	t.Run("empty tx_ref rejected", func(t *testing.T) {
		adapter := NewChapaAdapter("sk", "http://127.0.0.1:0", time.Second)
		_, err := adapter.Verify(ctx, "  ")
		require.Error(t, err)
	})
}
