package kalshi_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/weatherarb/internal/adapters/kalshi"
	"github.com/alejandrodnm/weatherarb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestKey genera una clave RSA y la guarda en PKCS#8.
func writeTestKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "kalshi.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))
	return key, path
}

func verifySignature(t *testing.T, pub *rsa.PublicKey, r *http.Request) {
	t.Helper()
	ts := r.Header.Get("KALSHI-ACCESS-TIMESTAMP")
	require.NotEmpty(t, ts)
	sig, err := base64.StdEncoding.DecodeString(r.Header.Get("KALSHI-ACCESS-SIGNATURE"))
	require.NoError(t, err)

	digest := sha256.Sum256([]byte(ts + r.Method + r.URL.Path))
	err = rsa.VerifyPSS(pub, crypto.SHA256, digest[:], sig, &rsa.PSSOptions{SaltLength: 32})
	assert.NoError(t, err, "signature must cover timestamp+method+path")
}

func TestLoadPrivateKey(t *testing.T) {
	key, path := writeTestKey(t)
	loaded, err := kalshi.LoadPrivateKey(path)
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))

	// PKCS#1 también se acepta.
	pkcs1 := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	loaded, err = kalshi.ParsePrivateKey(pkcs1)
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))

	_, err = kalshi.ParsePrivateKey([]byte("not a pem"))
	assert.Error(t, err)

	_, err = kalshi.LoadPrivateKey(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)
}

func TestGetBalance_Signed(t *testing.T) {
	key, path := writeTestKey(t)
	loaded, err := kalshi.LoadPrivateKey(path)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trade-api/v2/portfolio/balance", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("KALSHI-ACCESS-KEY"))
		verifySignature(t, &key.PublicKey, r)
		w.Write([]byte(`{"balance": 12345}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, kalshi.Config{KeyID: "key-1", Key: loaded})
	require.True(t, client.CanSign())

	bal, err := client.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12345), bal)
}

func TestGetBalance_Unauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, kalshi.Config{}).GetBalance(context.Background())
	assert.ErrorIs(t, err, kalshi.ErrNotAuthenticated)
}

func TestPlaceOrder_Paper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("paper orders must not hit the network")
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv, kalshi.Config{}).PlaceOrder(context.Background(), domain.OrderRequest{
		Ticker: "KXHIGHNY-26JAN19-T85", Side: "no", Quantity: 10, LimitPriceCents: 95, Paper: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "paper-KXHIGHNY-26JAN19-T85", res.OrderID)
	assert.InDelta(t, 0.95, res.FilledPrice, 1e-9)
	assert.Equal(t, 10, res.FilledQuantity)
}

func TestPlaceOrder_Live(t *testing.T) {
	key, _ := writeTestKey(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/trade-api/v2/portfolio/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		verifySignature(t, &key.PublicKey, r)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "KXHIGHNY-26JAN19-T85", body["ticker"])
		assert.Equal(t, "buy", body["action"])
		assert.Equal(t, "no", body["side"])
		assert.Equal(t, "limit", body["type"])
		assert.EqualValues(t, 10, body["count"])
		assert.EqualValues(t, 95, body["no_price"])
		assert.NotContains(t, body, "yes_price")
		assert.NotEmpty(t, body["client_order_id"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"order":{"order_id":"ord-42","status":"executed","avg_fill_price":94,"filled_count":10}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, kalshi.Config{KeyID: "key-1", Key: key})
	res, err := client.PlaceOrder(context.Background(), domain.OrderRequest{
		Ticker: "KXHIGHNY-26JAN19-T85", Side: "no", Quantity: 10, LimitPriceCents: 95,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "ord-42", res.OrderID)
	assert.InDelta(t, 0.94, res.FilledPrice, 1e-9)
	assert.Equal(t, 10, res.FilledQuantity)
}

func TestPlaceOrder_Rejected(t *testing.T) {
	key, _ := writeTestKey(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"insufficient_balance","message":"insufficient balance"}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, kalshi.Config{KeyID: "key-1", Key: key})
	res, err := client.PlaceOrder(context.Background(), domain.OrderRequest{
		Ticker: "T", Side: "yes", Quantity: 1, LimitPriceCents: 5,
	})
	require.NoError(t, err, "a rejection is a result, not an error")
	assert.False(t, res.Success)
	assert.Equal(t, "insufficient balance", res.Error)
}

func TestPlaceOrder_LiveWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, kalshi.Config{}).PlaceOrder(context.Background(), domain.OrderRequest{
		Ticker: "T", Side: "yes", Quantity: 1, LimitPriceCents: 5,
	})
	assert.ErrorIs(t, err, kalshi.ErrNotAuthenticated)
}
