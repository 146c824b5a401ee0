package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"invest-ledger-go/internal/api"
	"invest-ledger-go/internal/auth"
	"invest-ledger-go/internal/database"
	"invest-ledger-go/internal/metrics"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/objectstore"
	"invest-ledger-go/internal/pin"
	"invest-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testEnv struct {
	srv *httptest.Server
	db  *database.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, func(*models.ServerConfig) {})
}

func newTestEnvWith(t *testing.T, configure func(*models.ServerConfig)) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         filepath.Join(dir, "server.db"),
		MaxOpenConns: 1,
		PingTimeout:  time.Second,
		BusyTimeout:  time.Second,
	}, models.PolicyConfig{
		MinDeposit:          decimal.NewFromInt(100),
		MinWithdrawal:       decimal.NewFromInt(50),
		MinCopyAmount:       decimal.NewFromInt(100),
		WithdrawalMinTrades: 2,
		TradeGate:           models.TradeGateFixed,
		SettleOnApproval:    true,
		Currency:            "USD",
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	files, err := objectstore.New(filepath.Join(dir, "uploads"), "http://localhost")
	require.NoError(t, err)

	m := metrics.New()
	cfg := models.ServerConfig{JWTSecret: testSecret, AdminPin: "2468", PinAttempts: 3, PinWindow: time.Hour, MaxUploadBytes: 1024}
	configure(&cfg)
	s := New(api.NewLedgerService(db, files, m), m, files.Handler(), pin.NewVerifier(cfg.AdminPin, "", cfg.PinAttempts, cfg.PinWindow), cfg)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, db: db}
}

func (e *testEnv) account(t *testing.T, email string, role models.Role, deposit string) (string, string) {
	t.Helper()
	ctx := context.Background()
	account, err := e.db.CreateAccount(ctx, store.CreateAccountParams{Name: "Test", Email: email, Role: role})
	require.NoError(t, err)

	amount := decimal.RequireFromString(deposit)
	approved := models.KYCApproved
	trades := 2
	_, err = e.db.UpdateAccount(ctx, account.Id, store.AccountUpdate{
		BalanceDeposit: &amount, KYCStatus: &approved, CompletedTrades: &trades,
	})
	require.NoError(t, err)

	token, err := auth.Sign([]byte(testSecret), account.Id, time.Hour)
	require.NoError(t, err)
	return account.Id, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any, headers ...string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &decoded))
	}
	return resp.StatusCode, decoded
}

// list fetches an endpoint that answers with a JSON array
func (e *testEnv) list(t *testing.T, path, token string) []map[string]any {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.srv.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	return items
}

func TestHealthAndAuth(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", body["status"])

	status, _ = env.do(t, http.MethodGet, "/api/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	_, token := env.account(t, "user@example.com", models.RoleUser, "10")
	status, body = env.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "user@example.com", body["email"])

	status, _ = env.do(t, http.MethodGet, "/api/admin/accounts", token, nil)
	require.Equal(t, http.StatusForbidden, status)
}

func TestDepositRejectionIs422(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.account(t, "dep@example.com", models.RoleUser, "0")

	status, body := env.do(t, http.MethodPost, "/api/deposits", token, map[string]any{"amount": "99.99"})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Minimum deposit amount is $100", body["error"])

	status, body = env.do(t, http.MethodPost, "/api/deposits", token, map[string]any{"amount": 100, "crypto_type": "BTC"},
		"Idempotency-Key", "dep-1")
	require.Equal(t, http.StatusCreated, status)
	first := body["entry"].(map[string]any)["id"]

	// same key returns the original entry
	status, body = env.do(t, http.MethodPost, "/api/deposits", token, map[string]any{"amount": 100, "crypto_type": "BTC"},
		"Idempotency-Key", "dep-1")
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, first, body["entry"].(map[string]any)["id"])

	status, _ = env.do(t, http.MethodPost, "/api/deposits", token, map[string]any{"amount": "ten"})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestWithdrawalReviewFlow(t *testing.T) {
	env := newTestEnv(t)
	userId, userToken := env.account(t, "wd@example.com", models.RoleUser, "200")
	_, adminToken := env.account(t, "admin@example.com", models.RoleAdmin, "0")

	status, body := env.do(t, http.MethodPost, "/api/withdrawals", userToken, map[string]any{"amount": 250, "wallet_address": "bc1q"})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Equal(t, "Insufficient balance", body["error"])

	status, body = env.do(t, http.MethodPost, "/api/withdrawals", userToken, map[string]any{"amount": 150, "wallet_address": "bc1q"})
	require.Equal(t, http.StatusCreated, status)
	entryId := body["entry"].(map[string]any)["id"].(string)

	status, _ = env.do(t, http.MethodPost, "/api/admin/entries/"+entryId+"/review", adminToken, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodPost, "/api/admin/entries/"+entryId+"/review", adminToken, map[string]any{"status": "rejected"})
	require.Equal(t, http.StatusConflict, status)

	status, _ = env.do(t, http.MethodPost, "/api/admin/entries/missing/review", adminToken, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusNotFound, status)

	balances, err := env.db.GetBalances(context.Background(), userId)
	require.NoError(t, err)
	require.Equal(t, "50", balances.Deposit.String())

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/api/notifications", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var notes []models.Notification
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&notes))
	require.Len(t, notes, 1)
	require.Equal(t, "Withdrawal Approved", notes[0].Title)
}

func TestInvestmentOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.account(t, "inv@example.com", models.RoleUser, "2000")
	_, adminToken := env.account(t, "admin@example.com", models.RoleAdmin, "0")

	status, body := env.do(t, http.MethodPost, "/api/admin/plans", adminToken, map[string]any{
		"name": "Silver", "plan_type": "silver", "min_amount": 500, "max_amount": 10000,
		"roi_percentage": 15, "duration_days": 30, "is_active": true,
	})
	require.Equal(t, http.StatusCreated, status)
	planId := body["id"].(string)

	status, body = env.do(t, http.MethodPost, "/api/admin/plans", adminToken, map[string]any{
		"name": "Broken", "min_amount": 500, "max_amount": 100, "roi_percentage": 1, "duration_days": 1,
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = env.do(t, http.MethodPost, "/api/investments", userToken, map[string]any{"plan_id": planId, "amount": 1000})
	require.Equal(t, http.StatusCreated, status)
	position := body["position"].(map[string]any)
	require.Equal(t, "150", position["expected_return"])

	status, _ = env.do(t, http.MethodDelete, "/api/admin/plans/"+planId, adminToken, nil)
	require.Equal(t, http.StatusConflict, status)

	status, body = env.do(t, http.MethodPost, "/api/admin/investments/"+position["id"].(string)+"/close", adminToken, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "completed", body["status"])
}

func TestDepositAddressesRequirePin(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.account(t, "admin@example.com", models.RoleAdmin, "0")
	_, userToken := env.account(t, "user@example.com", models.RoleUser, "0")
	address := map[string]any{"crypto_symbol": "btc", "crypto_name": "Bitcoin", "network": "bitcoin", "wallet_address": "bc1q", "is_active": true}

	status, _ := env.do(t, http.MethodPost, "/api/admin/deposit-addresses", userToken, address, pinHeader, "2468")
	require.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodPost, "/api/admin/deposit-addresses", adminToken, address)
	require.Equal(t, http.StatusForbidden, status)

	status, body := env.do(t, http.MethodPost, "/api/admin/deposit-addresses", adminToken, address, pinHeader, "2468")
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "BTC", body["crypto_symbol"])

	status, _ = env.do(t, http.MethodPost, "/api/admin/deposit-addresses", adminToken, address, pinHeader, "1111")
	require.Equal(t, http.StatusForbidden, status)

	// the budget of three attempts per window is now spent
	status, _ = env.do(t, http.MethodPost, "/api/admin/deposit-addresses", adminToken, address, pinHeader, "2468")
	require.Equal(t, http.StatusTooManyRequests, status)
}

func TestVerifyPin(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/admin/verify-pin", "", map[string]any{"pin": "0000"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, false, body["success"])
	require.Equal(t, "Invalid PIN", body["error"])

	status, body = env.do(t, http.MethodPost, "/api/admin/verify-pin", "", map[string]any{"pin": "2468"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, body["success"])
}

func TestVerifyPin_ForwardedForCannotResetBudget(t *testing.T) {
	env := newTestEnv(t)

	for i := 1; i <= 3; i++ {
		status, body := env.do(t, http.MethodPost, "/api/admin/verify-pin", "", map[string]any{"pin": "0000"},
			"X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "Invalid PIN", body["error"])
	}

	// a fresh forwarded address does not buy a fresh budget from an untrusted peer
	status, _ := env.do(t, http.MethodPost, "/api/admin/verify-pin", "", map[string]any{"pin": "2468"},
		"X-Forwarded-For", "198.51.100.77")
	require.Equal(t, http.StatusTooManyRequests, status)
}

func TestVerifyPin_TrustedProxyForwardsClient(t *testing.T) {
	env := newTestEnvWith(t, func(cfg *models.ServerConfig) {
		cfg.TrustedProxies = []netip.Prefix{netip.MustParsePrefix("127.0.0.1/32"), netip.MustParsePrefix("::1/128")}
	})

	for i := 0; i < 3; i++ {
		status, _ := env.do(t, http.MethodPost, "/api/admin/verify-pin", "", map[string]any{"pin": "0000"},
			"X-Forwarded-For", "203.0.113.1")
		require.Equal(t, http.StatusOK, status)
	}

	// a spoofed leftmost hop is ignored; the proxy appended the real client last
	status, _ := env.do(t, http.MethodPost, "/api/admin/verify-pin", "", map[string]any{"pin": "2468"},
		"X-Forwarded-For", "198.51.100.9, 203.0.113.1")
	require.Equal(t, http.StatusTooManyRequests, status)

	status, body := env.do(t, http.MethodPost, "/api/admin/verify-pin", "", map[string]any{"pin": "2468"},
		"X-Forwarded-For", "203.0.113.2")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, body["success"])
}

func TestAdminTrades(t *testing.T) {
	env := newTestEnv(t)
	userId, userToken := env.account(t, "trader@example.com", models.RoleUser, "0")
	_, adminToken := env.account(t, "admin@example.com", models.RoleAdmin, "0")

	trade := map[string]any{"symbol": "ETH/USDT", "trade_type": "sell", "amount": 1000, "entry_price": 2500, "exit_price": 2250}
	status, _ := env.do(t, http.MethodPost, "/api/admin/accounts/"+userId+"/trades", userToken, trade)
	require.Equal(t, http.StatusForbidden, status)

	status, body := env.do(t, http.MethodPost, "/api/admin/accounts/"+userId+"/trades", adminToken, trade)
	require.Equal(t, http.StatusCreated, status)
	recorded := body["trade"].(map[string]any)
	require.Equal(t, "100", recorded["profit_loss"])
	require.Equal(t, "closed", recorded["status"])
	require.EqualValues(t, 3, body["account"].(map[string]any)["completed_trades"])

	trade["trade_type"] = "hold"
	status, _ = env.do(t, http.MethodPost, "/api/admin/accounts/"+userId+"/trades", adminToken, trade)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = env.do(t, http.MethodPost, "/api/admin/accounts/missing/trades", adminToken,
		map[string]any{"symbol": "BTC", "trade_type": "buy", "amount": 1, "entry_price": 1, "exit_price": 1})
	require.Equal(t, http.StatusNotFound, status)

	trades := env.list(t, "/api/me/trades", userToken)
	require.Len(t, trades, 1)
	require.Equal(t, "ETH/USDT", trades[0]["symbol"])

	require.Len(t, env.list(t, "/api/admin/trades?user_id="+userId, adminToken), 1)
}

func TestAdminConflictsAndValidation(t *testing.T) {
	env := newTestEnv(t)
	userId, _ := env.account(t, "user@example.com", models.RoleUser, "0")
	_, adminToken := env.account(t, "admin@example.com", models.RoleAdmin, "0")

	plan := map[string]any{"name": "Gold", "min_amount": 100, "max_amount": 1000, "roi_percentage": 5, "duration_days": 7}
	status, _ := env.do(t, http.MethodPost, "/api/admin/plans", adminToken, plan)
	require.Equal(t, http.StatusCreated, status)
	status, body := env.do(t, http.MethodPost, "/api/admin/plans", adminToken, plan)
	require.Equal(t, http.StatusConflict, status)
	require.NotEqual(t, "An error occurred", body["error"])

	expert := map[string]any{"display_name": "Trader A", "success_rate": 80, "total_profit": 1000}
	status, _ = env.do(t, http.MethodPost, "/api/admin/copy-experts", adminToken, expert)
	require.Equal(t, http.StatusCreated, status)
	status, _ = env.do(t, http.MethodPost, "/api/admin/copy-experts", adminToken, expert)
	require.Equal(t, http.StatusConflict, status)

	status, _ = env.do(t, http.MethodPatch, "/api/admin/accounts/"+userId, adminToken, map[string]any{"kyc_status": "bogus"})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	status, _ = env.do(t, http.MethodPatch, "/api/admin/accounts/"+userId, adminToken, map[string]any{"account_status": "frozen"})
	require.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestFilesAreNotListed(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/files/", "/files/kyc-documents/", "/files/deposit-proofs/"} {
		resp, err := http.Get(env.srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestKYCUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account, err := env.db.CreateAccount(ctx, store.CreateAccountParams{Name: "Kyc", Email: "kyc@example.com"})
	require.NoError(t, err)
	token, err := auth.Sign([]byte(testSecret), account.Id, time.Hour)
	require.NoError(t, err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("document_type", "passport"))
	doc, err := mw.CreateFormFile("document", "passport.png")
	require.NoError(t, err)
	_, err = doc.Write([]byte("document"))
	require.NoError(t, err)
	selfie, err := mw.CreateFormFile("selfie", "selfie.jpg")
	require.NoError(t, err)
	_, err = selfie.Write([]byte("selfie"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/api/kyc", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := env.db.GetAccount(ctx, account.Id)
	require.NoError(t, err)
	require.NotNil(t, stored.KYCSubmittedAt)

	// the stored document is served back from /files/
	path := strings.TrimPrefix(stored.KYCDocumentURL, "http://localhost")
	fileResp, err := http.Get(env.srv.URL + path)
	require.NoError(t, err)
	defer fileResp.Body.Close()
	data, err := io.ReadAll(fileResp.Body)
	require.NoError(t, err)
	require.Equal(t, "document", string(data))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/healthz", "", nil)

	resp, err := http.Get(env.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(data), `http_requests_total{method="GET",path="/healthz",status="200"} 1`)
}
