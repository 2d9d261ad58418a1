package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/JhonesBR/go-ledger/internal/api/account"
	"github.com/JhonesBR/go-ledger/internal/helper"
	"github.com/JhonesBR/go-ledger/internal/ledger"
	"github.com/JhonesBR/go-ledger/internal/memstore"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	svc := ledger.NewService(memstore.New(), ledger.WithPasswordCost(bcrypt.MinCost))
	return NewApp(svc, zap.NewNop())
}

func doJSON(t *testing.T, app *fiber.App, method, url string, caller int64, body any, wantCode int, out any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != 0 {
		req.Header.Set(helper.CallerHeader, strconv.FormatInt(caller, 10))
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantCode, resp.StatusCode, "body: %s", raw)

	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out))
	}
}

func TestAPI_LedgerFlow(t *testing.T) {
	app := newTestApp(t)

	var ac1 account.AccountShowSchema
	doJSON(t, app, http.MethodPost, "/v1/accounts", 7,
		map[string]any{"number": "AC-1", "password": "1234", "balance": 1000},
		http.StatusCreated, &ac1)
	assert.Equal(t, "AC-1", ac1.Number)
	assert.Equal(t, int64(1000), ac1.Balance)
	assert.Equal(t, int64(7), ac1.UserId)

	var ac2 account.AccountShowSchema
	doJSON(t, app, http.MethodPost, "/v1/accounts", 8,
		map[string]any{"number": "AC-2", "password": "abcd", "balance": 100},
		http.StatusCreated, &ac2)

	var receipt account.MovementResponseSchema
	doJSON(t, app, http.MethodPost, "/v1/accounts/withdraw", 7,
		map[string]any{"number": "AC-1", "password": "1234", "amount": 200},
		http.StatusOK, &receipt)
	require.NotNil(t, receipt.WithdrawBalance)
	assert.Equal(t, int64(800), *receipt.WithdrawBalance)
	assert.Nil(t, receipt.DepositAccountId)

	doJSON(t, app, http.MethodPost, "/v1/accounts/deposit", 8,
		map[string]any{"number": "AC-1", "amount": 150},
		http.StatusOK, &receipt)
	require.NotNil(t, receipt.DepositBalance)
	assert.Equal(t, int64(950), *receipt.DepositBalance)

	doJSON(t, app, http.MethodPost, "/v1/accounts/transfer", 7,
		map[string]any{"source_number": "AC-1", "destination_number": "AC-2", "password": "1234", "amount": 300},
		http.StatusOK, &receipt)
	assert.Equal(t, int64(650), *receipt.WithdrawBalance)
	assert.Equal(t, int64(400), *receipt.DepositBalance)

	var shown account.AccountShowSchema
	doJSON(t, app, http.MethodGet, "/v1/accounts/"+ac1.Id.String(), 7, nil, http.StatusOK, &shown)
	assert.Equal(t, int64(650), shown.Balance)

	var list helper.Pagination[account.AccountShowSchema]
	doJSON(t, app, http.MethodGet, "/v1/accounts", 7, nil, http.StatusOK, &list)
	require.NotNil(t, list.Total)
	assert.Equal(t, 1, *list.Total)
	assert.Equal(t, ac1.Id, list.Items[0].Id)

	doJSON(t, app, http.MethodGet, "/v1/accounts?page=4611686018427387904&size=4", 7, nil, http.StatusOK, &list)
	require.NotNil(t, list.Total)
	assert.Equal(t, 1, *list.Total)
	assert.Empty(t, list.Items)

	var history helper.Pagination[account.HistoryShowSchema]
	doJSON(t, app, http.MethodGet, "/v1/accounts/"+ac1.Id.String()+"/history?type=all", 7, nil, http.StatusOK, &history)
	require.Len(t, history.Items, 3)
	assert.Equal(t, "transfer", history.Items[0].Type)
	assert.Equal(t, "AC-1", history.Items[0].Sender)
	assert.Equal(t, "AC-2", history.Items[0].Receiver)
	assert.Equal(t, int64(650), history.Items[0].Balance)
	assert.Equal(t, "deposit", history.Items[1].Type)
	assert.Equal(t, int64(950), history.Items[1].Balance)
	assert.Equal(t, "withdrawal", history.Items[2].Type)

	doJSON(t, app, http.MethodGet, "/v1/accounts/"+ac2.Id.String()+"/history?type=deposit&size=1", 8, nil, http.StatusOK, &history)
	require.Len(t, history.Items, 1)
	assert.Equal(t, int64(400), history.Items[0].Balance)
}

func TestAPI_ErrorMapping(t *testing.T) {
	app := newTestApp(t)
	doJSON(t, app, http.MethodPost, "/v1/accounts", 7,
		map[string]any{"number": "AC-1", "password": "1234", "balance": 650},
		http.StatusCreated, nil)

	tests := []struct {
		name     string
		method   string
		url      string
		caller   int64
		body     any
		wantCode int
		wantKind ledger.Kind
	}{
		{
			name:     "missing caller",
			method:   http.MethodGet,
			url:      "/v1/accounts",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "insufficient funds",
			method:   http.MethodPost,
			url:      "/v1/accounts/withdraw",
			caller:   7,
			body:     map[string]any{"number": "AC-1", "password": "1234", "amount": 5000},
			wantCode: http.StatusPaymentRequired,
			wantKind: ledger.KindInsufficientFunds,
		},
		{
			name:     "not the owner",
			method:   http.MethodPost,
			url:      "/v1/accounts/withdraw",
			caller:   9,
			body:     map[string]any{"number": "AC-1", "password": "1234", "amount": 10},
			wantCode: http.StatusUnauthorized,
			wantKind: ledger.KindUnauthorized,
		},
		{
			name:     "wrong password",
			method:   http.MethodPost,
			url:      "/v1/accounts/withdraw",
			caller:   7,
			body:     map[string]any{"number": "AC-1", "password": "0000", "amount": 10},
			wantCode: http.StatusForbidden,
			wantKind: ledger.KindForbidden,
		},
		{
			name:     "unknown account",
			method:   http.MethodPost,
			url:      "/v1/accounts/deposit",
			caller:   7,
			body:     map[string]any{"number": "AC-404", "amount": 10},
			wantCode: http.StatusNotFound,
			wantKind: ledger.KindNotFound,
		},
		{
			name:     "duplicate number",
			method:   http.MethodPost,
			url:      "/v1/accounts",
			caller:   8,
			body:     map[string]any{"number": "AC-1", "password": "1234", "balance": 10},
			wantCode: http.StatusConflict,
			wantKind: ledger.KindConflict,
		},
		{
			name:     "non-positive amount",
			method:   http.MethodPost,
			url:      "/v1/accounts/deposit",
			caller:   7,
			body:     map[string]any{"number": "AC-1", "amount": 0},
			wantCode: http.StatusUnprocessableEntity,
			wantKind: ledger.KindValidation,
		},
		{
			name:     "fractional amount",
			method:   http.MethodPost,
			url:      "/v1/accounts/deposit",
			caller:   7,
			body:     map[string]any{"number": "AC-1", "amount": 1.5},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "missing amount",
			method:   http.MethodPost,
			url:      "/v1/accounts/withdraw",
			caller:   7,
			body:     map[string]any{"number": "AC-1", "password": "1234"},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "transfer to itself",
			method:   http.MethodPost,
			url:      "/v1/accounts/transfer",
			caller:   7,
			body:     map[string]any{"source_number": "AC-1", "destination_number": "AC-1", "password": "1234", "amount": 1},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "bad history filter",
			method:   http.MethodGet,
			url:      "/v1/accounts/0190a5a0-0000-7000-8000-000000000000/history?type=refund",
			caller:   7,
			wantCode: http.StatusUnprocessableEntity,
			wantKind: ledger.KindValidation,
		},
		{
			name:     "bad account id",
			method:   http.MethodGet,
			url:      "/v1/accounts/not-a-uuid",
			caller:   7,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out map[string]any
			doJSON(t, app, tt.method, tt.url, tt.caller, tt.body, tt.wantCode, &out)
			assert.NotEmpty(t, out["error"])
			if tt.wantKind != "" {
				assert.Equal(t, string(tt.wantKind), out["kind"])
			}
		})
	}

	var shown helper.Pagination[account.AccountShowSchema]
	doJSON(t, app, http.MethodGet, "/v1/accounts", 7, nil, http.StatusOK, &shown)
	assert.Equal(t, int64(650), shown.Items[0].Balance)
}

type brokenLedger struct {
	account.Ledger
}

func (brokenLedger) AccountsByUser(ctx context.Context, caller ledger.UserID) ([]ledger.Account, error) {
	return nil, &ledger.Error{Kind: ledger.KindUnknown, Message: "could not list accounts", Err: errors.New("connection reset by peer")}
}

func TestAPI_InternalErrorsAreGeneric(t *testing.T) {
	app := NewApp(brokenLedger{}, zap.NewNop())

	var out map[string]any
	doJSON(t, app, http.MethodGet, "/v1/accounts", 7, nil, http.StatusInternalServerError, &out)
	assert.Equal(t, "internal server error", out["error"])
	assert.NotContains(t, out["error"], "connection reset")
}
