// Package integration exercises the full stack over HTTP: router,
// middleware, services, resilience layer and the PostgREST adapter,
// backed by an in-process fake PostgREST server.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/handler"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/infra/cache"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/infra/observability"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/infra/resilience"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/infra/supabase"
	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Fake PostgREST backend
// ============================================================

// fakePostgREST emulates the subset of the PostgREST API the store uses:
// eq/gte/lt filters, Prefer: return=representation, and the unique
// constraint on monthly_closures (user_id, period) answered with 409.
type fakePostgREST struct {
	mu     sync.Mutex
	tables map[string][]map[string]any
}

func newFakePostgREST() *fakePostgREST {
	return &fakePostgREST{tables: make(map[string][]map[string]any)}
}

type filter struct {
	column string
	op     string
	value  string
}

func parseFilters(query map[string][]string) []filter {
	var filters []filter
	for column, values := range query {
		if column == "order" || column == "limit" || column == "select" {
			continue
		}
		for _, v := range values {
			op, value, ok := strings.Cut(v, ".")
			if !ok {
				continue
			}
			filters = append(filters, filter{column: column, op: op, value: value})
		}
	}
	return filters
}

func rowMatches(row map[string]any, filters []filter) bool {
	for _, f := range filters {
		got := fmt.Sprint(row[f.column])
		switch f.op {
		case "eq":
			if got != f.value {
				return false
			}
		case "gte":
			if got < f.value {
				return false
			}
		case "lt":
			if got >= f.value {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	filters := parseFilters(r.URL.Query())

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		matched := []map[string]any{}
		for _, row := range f.tables[table] {
			if rowMatches(row, filters) {
				matched = append(matched, row)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(matched)

	case http.MethodPost:
		var row map[string]any
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if table == "monthly_closures" {
			for _, existing := range f.tables[table] {
				if existing["user_id"] == row["user_id"] && existing["period"] == row["period"] {
					w.WriteHeader(http.StatusConflict)
					w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint"}`))
					return
				}
			}
		}
		f.tables[table] = append(f.tables[table], row)
		w.WriteHeader(http.StatusCreated)
		if strings.Contains(r.Header.Get("Prefer"), "return=representation") {
			json.NewEncoder(w).Encode([]map[string]any{row})
		}

	case http.MethodPatch:
		var updates map[string]any
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for _, row := range f.tables[table] {
			if rowMatches(row, filters) {
				for k, v := range updates {
					row[k] = v
				}
			}
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		var kept []map[string]any
		for _, row := range f.tables[table] {
			if !rowMatches(row, filters) {
				kept = append(kept, row)
			}
		}
		f.tables[table] = kept
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ============================================================
// Stack wiring
// ============================================================

func newStack(t *testing.T) (http.Handler, func()) {
	t.Helper()
	backend := httptest.NewServer(newFakePostgREST())

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cfg := resilience.Config{
		MaxRetries:     1,
		InitialBackoff: 10 * time.Millisecond,
		MaxConcurrency: 10,
	}
	cb := resilience.NewCircuitBreaker("supabase-integration")
	store := supabase.NewClient(&http.Client{Timeout: 5 * time.Second}, backend.URL, "anon", "service", cb, cfg, logger)

	categoryCache := cache.New[[]domain.Category](time.Minute)
	closureSvc := service.NewClosureService(store, store, metrics, logger)
	router := handler.NewRouter(handler.Services{
		Auth:         service.NewAuthService(store, "integration-secret", 15*time.Minute, time.Hour, logger),
		Transactions: service.NewTransactionService(store, closureSvc, metrics, logger),
		Categories:   service.NewCategoryService(store, categoryCache, logger),
		Reports:      service.NewReportService(store, closureSvc, categoryCache, metrics, logger),
		Closure:      closureSvc,
	}, metrics, logger)

	return router, backend.Close
}

func do(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"name":     "Maria",
		"email":    "maria@example.com",
		"password": "senha-segura",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "maria@example.com",
		"password": "senha-segura",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token")
	}
	return resp.AccessToken
}

func createCategory(t *testing.T, router http.Handler, token, name string, limit float64) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/v1/categories", token, map[string]any{
		"name":         name,
		"monthlyLimit": limit,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category %s: expected 201, got %d: %s", name, rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)
	return created.ID
}

func createTransaction(t *testing.T, router http.Handler, token string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, router, http.MethodPost, "/v1/transactions", token, body)
}

// ============================================================
// Scenario: one month of activity, dashboard, closure
// ============================================================

func TestMonthLifecycle(t *testing.T) {
	router, shutdown := newStack(t)
	defer shutdown()
	token := login(t, router)

	foodID := createCategory(t, router, token, "Alimentação", 800.00)
	transportID := createCategory(t, router, token, "Transporte", 300.00)

	seed := []map[string]any{
		{"description": "Salário", "amount": 3000.00, "kind": "income", "occurredOn": "2025-03-01"},
		{"description": "Mercado", "amount": 650.00, "kind": "expense", "categoryId": foodID, "occurredOn": "2025-03-08"},
		{"description": "Combustível", "amount": 290.00, "kind": "expense", "categoryId": transportID, "occurredOn": "2025-03-12"},
	}
	for _, body := range seed {
		if rec := createTransaction(t, router, token, body); rec.Code != http.StatusCreated {
			t.Fatalf("seed %v: expected 201, got %d: %s", body["description"], rec.Code, rec.Body.String())
		}
	}

	// --- Budget report ---
	rec := do(t, router, http.MethodGet, "/v1/budget/report?period=2025-03", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("budget report: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report domain.BudgetReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.TotalIncomeCents != 300000 || report.TotalExpensesCents != 94000 {
		t.Errorf("unexpected totals: income=%d expenses=%d", report.TotalIncomeCents, report.TotalExpensesCents)
	}
	if report.OverallLimitCents != 110000 || report.OverallUsagePercent != 85 {
		t.Errorf("unexpected overall: limit=%d usage=%d%%", report.OverallLimitCents, report.OverallUsagePercent)
	}
	if len(report.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(report.Categories))
	}
	if report.Categories[0].Name != "Alimentação" || report.Categories[0].UsagePercent != 81 {
		t.Errorf("unexpected food usage: %+v", report.Categories[0])
	}
	if report.Categories[1].Name != "Transporte" || report.Categories[1].UsagePercent != 97 {
		t.Errorf("unexpected transport usage: %+v", report.Categories[1])
	}

	// --- Dashboard alerts: both categories and the overall budget are in
	// the warning band, nothing is critical ---
	rec = do(t, router, http.MethodGet, "/v1/dashboard?period=2025-03", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var dash struct {
		Closed bool           `json:"closed"`
		Alerts []domain.Alert `json:"alerts"`
	}
	json.Unmarshal(rec.Body.Bytes(), &dash)
	if dash.Closed {
		t.Error("march should be open")
	}
	warningScopes := map[string]bool{}
	for _, a := range dash.Alerts {
		if a.Severity == domain.SeverityCritical {
			t.Errorf("unexpected critical alert: %s", a.Message)
		}
		if a.Severity == domain.SeverityWarning {
			warningScopes[a.Scope] = true
		}
	}
	for _, scope := range []string{domain.ScopeGlobal, "Alimentação", "Transporte"} {
		if !warningScopes[scope] {
			t.Errorf("expected warning alert for %s, got %+v", scope, dash.Alerts)
		}
	}

	// --- Closure ---
	rec = do(t, router, http.MethodPost, "/v1/periods/2025-03/close", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("close: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var closure struct {
		Period        string  `json:"period"`
		TotalIncome   float64 `json:"totalIncome"`
		TotalExpenses float64 `json:"totalExpenses"`
	}
	json.Unmarshal(rec.Body.Bytes(), &closure)
	if closure.Period != "2025-03" || closure.TotalIncome != 3000.00 || closure.TotalExpenses != 940.00 {
		t.Errorf("unexpected closure: %+v", closure)
	}

	// Closing twice hits the unique constraint.
	rec = do(t, router, http.MethodPost, "/v1/periods/2025-03/close", token, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("re-close: expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	// A closed month rejects new transactions; the next month does not.
	rec = createTransaction(t, router, token, map[string]any{
		"description": "Atrasada", "amount": 50.00, "kind": "expense", "occurredOn": "2025-03-20",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("create in closed month: expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = createTransaction(t, router, token, map[string]any{
		"description": "Abril", "amount": 50.00, "kind": "expense", "occurredOn": "2025-04-02",
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("create in open month: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// The dashboard reflects the closed state.
	rec = do(t, router, http.MethodGet, "/v1/dashboard?period=2025-03", token, nil)
	json.Unmarshal(rec.Body.Bytes(), &dash)
	if !dash.Closed {
		t.Error("dashboard should report march as closed")
	}

	// --- Reopen, edit, close again ---
	rec = do(t, router, http.MethodDelete, "/v1/periods/2025-03/close", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("reopen: expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = createTransaction(t, router, token, map[string]any{
		"description": "Atrasada", "amount": 50.00, "kind": "expense", "occurredOn": "2025-03-20",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create after reopen: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, router, http.MethodPost, "/v1/periods/2025-03/close", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second close: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	json.Unmarshal(rec.Body.Bytes(), &closure)
	if closure.TotalExpenses != 990.00 {
		t.Errorf("second closure should include the new expense, got %.2f", closure.TotalExpenses)
	}
}

func TestMonthlyTrendEndpoint(t *testing.T) {
	router, shutdown := newStack(t)
	defer shutdown()
	token := login(t, router)

	seed := []map[string]any{
		{"description": "Salário", "amount": 2000.00, "kind": "income", "occurredOn": "2025-02-05"},
		{"description": "Aluguel", "amount": 500.00, "kind": "expense", "occurredOn": "2025-02-10"},
		{"description": "Mercado", "amount": 1200.00, "kind": "expense", "occurredOn": "2025-03-10"},
	}
	for _, body := range seed {
		if rec := createTransaction(t, router, token, body); rec.Code != http.StatusCreated {
			t.Fatalf("seed: expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}
	if rec := do(t, router, http.MethodPost, "/v1/periods/2025-02/close", token, nil); rec.Code != http.StatusCreated {
		t.Fatalf("close february: expected 201, got %d", rec.Code)
	}

	rec := do(t, router, http.MethodGet, "/v1/reports/trend?period=2025-03&months=2", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("trend: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Trend []domain.MonthlyTrendPoint `json:"trend"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode trend: %v", err)
	}
	if len(resp.Trend) != 2 {
		t.Fatalf("expected 2 trend points, got %d", len(resp.Trend))
	}
	feb, mar := resp.Trend[0], resp.Trend[1]
	if feb.Income != 2000.00 || feb.Balance != 1500.00 || !feb.PeriodClosed {
		t.Errorf("unexpected february point: %+v", feb)
	}
	if mar.Expenses != 1200.00 || mar.Balance != -1200.00 || mar.PeriodClosed {
		t.Errorf("unexpected march point: %+v", mar)
	}
}

func TestAuthFlow(t *testing.T) {
	router, shutdown := newStack(t)
	defer shutdown()

	// Register + login.
	token := login(t, router)

	// Duplicate registration is a conflict.
	rec := do(t, router, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"name":     "Maria de novo",
		"email":    "maria@example.com",
		"password": "outra-senha",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: expected 409, got %d", rec.Code)
	}

	// Refresh rotation.
	rec = do(t, router, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "maria@example.com",
		"password": "senha-segura",
	})
	var loginResp domain.LoginResponse
	json.Unmarshal(rec.Body.Bytes(), &loginResp)

	rec = do(t, router, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refreshToken": loginResp.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, router, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refreshToken": loginResp.RefreshToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("reused refresh token: expected 401, got %d", rec.Code)
	}

	// Logout requires auth and kills the session's refresh tokens.
	rec = do(t, router, http.MethodPost, "/v1/auth/logout", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("logout without token: expected 401, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPost, "/v1/auth/logout", token, nil)
	if rec.Code != http.StatusOK && rec.Code != http.StatusNoContent {
		t.Errorf("logout: expected success, got %d: %s", rec.Code, rec.Body.String())
	}
}
