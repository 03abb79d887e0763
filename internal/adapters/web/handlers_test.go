package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"commandx/internal/ai"
	"commandx/internal/app"
	"commandx/internal/core"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

// fakeService implements the calls these tests make. Anything else panics
// through the embedded nil interface and surfaces as a 500.
type fakeService struct {
	app.ApplicationService

	lastStatus string
	lastBulk   app.BulkStatusRequest
	settings   int
}

func (f *fakeService) LoadDefaultCompany(context.Context) (*core.Company, error) {
	return &core.Company{ID: 1, CompanyCode: "ACME", Name: "Acme Builders"}, nil
}

func (f *fakeService) AuthenticateUser(_ context.Context, username, password string) (*app.UserSession, error) {
	if username != "alice" || password != "correct horse" {
		return nil, app.ErrInvalidCredentials
	}
	return &app.UserSession{UserID: 7, Username: "alice", CompanyID: 1, CompanyCode: "ACME", Role: core.RoleAdmin}, nil
}

func (f *fakeService) GetUser(_ context.Context, userID int) (*core.User, error) {
	return &core.User{ID: userID, Username: "alice", CompanyCode: "ACME", Role: core.RoleAdmin}, nil
}

func (f *fakeService) GetSettings(context.Context, string) (*app.SettingsResult, error) {
	f.settings++
	return &app.SettingsResult{Settings: &core.CompanySettings{CompanyID: 1}}, nil
}

func (f *fakeService) UpdateSettings(context.Context, app.UpdateSettingsRequest) (*app.SettingsResult, error) {
	f.settings++
	return &app.SettingsResult{Settings: &core.CompanySettings{CompanyID: 1}}, nil
}

func (f *fakeService) GetEstimate(_ context.Context, _ string, id int) (*core.Estimate, error) {
	if id == 404 {
		return nil, fmt.Errorf("estimate %d: %w", id, core.ErrNotFound)
	}
	return &core.Estimate{ID: id}, nil
}

func (f *fakeService) UpdateEstimateStatus(_ context.Context, _ string, _ int, status string) (*core.EstimateStatusChange, error) {
	f.lastStatus = status
	return nil, &core.TransitionError{Kind: core.KindEstimate, From: core.EstimateSent, To: core.Status(status)}
}

func (f *fakeService) BulkUpdateEstimateStatus(_ context.Context, req app.BulkStatusRequest) (*core.BulkResult, error) {
	f.lastBulk = req
	return &core.BulkResult{Target: core.Status(req.Status), Succeeded: 1, Failed: 1}, nil
}

func (f *fakeService) CreateVendorBill(context.Context, app.VendorBillRequest) (*app.VendorBillResult, error) {
	return nil, core.ErrPurchaseOrderClosed
}

func (f *fakeService) CreateCustomer(context.Context, app.CreateCustomerRequest) (*core.Customer, error) {
	return nil, &app.ValidationError{Fields: map[string]string{"phone": "phone"}}
}

func (f *fakeService) CheckLockedPeriod(_ context.Context, _ string, date, _ string) (core.ValidationResult, error) {
	if date <= "2024-01-31" {
		return core.ValidationResult{Valid: false, Message: "locked"}, nil
	}
	return core.ValidationResult{Valid: true}, nil
}

func (f *fakeService) ClockIn(context.Context, app.ClockInRequest) (*core.TimeEntry, error) {
	return nil, fmt.Errorf("clock in: %w", core.ErrOutsideGeofence)
}

func (f *fakeService) Translate(context.Context, app.TranslateRequest) (*ai.Translation, error) {
	return nil, app.ErrTranslationUnavailable
}

func newTestServer(t *testing.T) (*fakeService, http.Handler) {
	t.Helper()
	svc := &fakeService{}
	return svc, NewHandler(svc, Options{JWTSecret: testSecret, AppScheme: "cmdx-test", AllowedOrigins: []string{"http://localhost:5173"}})
}

func signToken(t *testing.T, companyCode, role string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := &jwtClaims{
		UserID:      7,
		CompanyID:   1,
		CompanyCode: companyCode,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func do(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(h, http.MethodGet, "/api/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"company":"ACME"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, h := newTestServer(t)

	t.Run("MissingToken", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/companies/ACME/settings", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.Code != "UNAUTHORIZED" || resp.RequestID == "" {
			t.Errorf("unexpected error body %+v", resp)
		}
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/companies/ACME/settings", signToken(t, "ACME", core.RoleAdmin, -time.Minute), "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwtClaims{CompanyCode: "ACME", Role: core.RoleAdmin}).SignedString([]byte("some-other-secret"))
		rec := do(h, http.MethodGet, "/api/companies/ACME/settings", forged, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("OtherCompany", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/companies/OTHER/settings", signToken(t, "ACME", core.RoleAdmin, time.Hour), "")
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("CookieIsAccepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/companies/ACME/settings", nil)
		req.AddCookie(&http.Cookie{Name: authCookie, Value: signToken(t, "ACME", core.RoleMember, time.Hour)})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	svc, h := newTestServer(t)

	member := signToken(t, "ACME", core.RoleMember, time.Hour)
	rec := do(h, http.MethodPut, "/api/companies/ACME/settings", member, `{"locked_period_enabled": true}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member: expected 403, got %d", rec.Code)
	}
	if svc.settings != 0 {
		t.Error("service must not be reached for a member")
	}

	admin := signToken(t, "ACME", core.RoleAdmin, time.Hour)
	rec = do(h, http.MethodPut, "/api/companies/ACME/settings", admin, `{"locked_period_enabled": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLoginAndMe(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(h, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", rec.Code)
	}

	rec = do(h, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"correct horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Token       string `json:"token"`
		CompanyCode string `json:"company_code"`
		Role        string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode login body: %v", err)
	}
	if body.Token == "" || body.CompanyCode != "ACME" || body.Role != core.RoleAdmin {
		t.Errorf("unexpected login body %+v", body)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == authCookie {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly || cookie.Value != body.Token {
		t.Errorf("expected HttpOnly auth cookie carrying the token, got %+v", cookie)
	}

	rec = do(h, http.MethodGet, "/api/auth/me", body.Token, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"alice"`) {
		t.Errorf("me: got %d %s", rec.Code, rec.Body.String())
	}
}

func TestServiceErrorMapping(t *testing.T) {
	_, h := newTestServer(t)
	token := signToken(t, "ACME", core.RoleMember, time.Hour)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"not found", http.MethodGet, "/api/companies/ACME/estimates/404", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad id", http.MethodGet, "/api/companies/ACME/estimates/abc", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"bad json", http.MethodPost, "/api/companies/ACME/estimates/1/status", "{", http.StatusBadRequest, "BAD_REQUEST"},
		{"invalid transition", http.MethodPost, "/api/companies/ACME/estimates/1/status", `{"status":"draft"}`, http.StatusConflict, "INVALID_TRANSITION"},
		{"po closed", http.MethodPost, "/api/companies/ACME/vendor-bills", `{"purchase_order_id":3}`, http.StatusConflict, "PO_CLOSED"},
		{"validation", http.MethodPost, "/api/companies/ACME/customers", `{"code":"C1"}`, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"geofence", http.MethodPost, "/api/companies/ACME/time-entries/clock-in", `{"personnel_id":1}`, http.StatusUnprocessableEntity, "OUTSIDE_GEOFENCE"},
		{"translation off", http.MethodPost, "/api/translate", `{"text":"hola","target_language":"en"}`, http.StatusServiceUnavailable, "NOT_CONFIGURED"},
		{"locked period needs date", http.MethodGet, "/api/companies/ACME/locked-period/check", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"bad query int", http.MethodGet, "/api/companies/ACME/invoices?job_order_id=x", "", http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, tt.method, tt.path, token, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if resp := decodeError(t, rec); resp.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, resp.Code)
			}
		})
	}
}

func TestWriteServiceError_Sentinels(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{&app.ValidationError{Fields: map[string]string{"lines": "required"}}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{&core.PeriodLockedError{Message: "locked"}, http.StatusUnprocessableEntity, "PERIOD_LOCKED"},
		{fmt.Errorf("wrapped: %w", core.ErrAlreadyClockedIn), http.StatusConflict, "ALREADY_CLOCKED_IN"},
		{core.ErrInvalidCoordinates, http.StatusBadRequest, "INVALID_COORDINATES"},
		{&core.InputError{Message: "quantity must be positive"}, http.StatusUnprocessableEntity, "UNPROCESSABLE"},
		{app.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
		{errors.New("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			resp := decodeError(t, rec)
			if resp.Code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, resp.Code)
			}
			if tt.code == "INTERNAL_ERROR" && strings.Contains(resp.Error, "db down") {
				t.Error("internal errors must not leak details")
			}
		})
	}
}

func TestBulkStatusAndLockedPeriodCheck(t *testing.T) {
	svc, h := newTestServer(t)
	token := signToken(t, "ACME", core.RoleMember, time.Hour)

	rec := do(h, http.MethodPost, "/api/companies/ACME/estimates/bulk-status", token, `{"ids":[1,2],"status":"sent"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk: expected 200, got %d", rec.Code)
	}
	if svc.lastBulk.CompanyCode != "ACME" || len(svc.lastBulk.IDs) != 2 || svc.lastBulk.Status != "sent" {
		t.Errorf("unexpected bulk request %+v", svc.lastBulk)
	}

	rec = do(h, http.MethodGet, "/api/companies/ACME/locked-period/check?date=2024-01-31&entity=Invoice", token, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"valid":false`) {
		t.Errorf("locked date: got %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthCallbackPage(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(h, http.MethodGet, "/auth/callback", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("expected no-store, got %q", got)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), `"cmdx-test:`) {
		t.Errorf("expected deep link target in page")
	}
}

func TestCORS(t *testing.T) {
	_, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/companies/ACME/estimates", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight: expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("expected allowed origin to be echoed")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not get CORS headers")
	}
}
