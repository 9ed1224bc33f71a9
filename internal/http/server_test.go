package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"cashflow/internal/auth"
	"cashflow/internal/core"
	"cashflow/internal/memstore"
	"cashflow/internal/services"
	"cashflow/internal/store"
)

func newTestServer(t *testing.T) (*Server, *memstore.Store) {
	t.Helper()

	st := memstore.New()
	ledger := services.NewLedgerService(st, nil)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	srv := NewServer(":0", st, ledger, jwtManager)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	return srv, st
}

func createTestUser(t *testing.T, st *memstore.Store, username, password string) {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if _, err := st.CreateUser(context.Background(), store.User{
		Username: username,
		Password: hash,
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}
}

// login performs the form login and returns the session cookie.
func login(t *testing.T, srv *Server, username, password string) *http.Cookie {
	t.Helper()

	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d, want 303 (location %s)", rec.Code, rec.Header().Get("Location"))
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie set")
	return nil
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestDashboardRequiresSession(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("redirect to %s, want /login", loc)
	}
}

func TestLoginAndDashboard(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "admin", "secret-pass")

	cookie := login(t, srv, "admin", "secret-pass")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "admin") {
		t.Fatalf("dashboard should greet the signed-in user")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "admin", "secret-pass")

	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/login?") || !strings.Contains(loc, "error=") {
		t.Fatalf("expected redirect back to login with error, got %s", loc)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			t.Fatalf("no session cookie should be set on failure")
		}
	}
}

func TestRegisterThenLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	form := url.Values{
		"username": {"dewi"},
		"password": {"a-long-password"},
		"email":    {"dewi@example.com"},
	}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("register status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login") {
		t.Fatalf("register should land on login, got %s", loc)
	}

	login(t, srv, "dewi", "a-long-password")
}

func TestRegisterDuplicateUsername(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "dewi", "a-long-password")

	form := url.Values{"username": {"dewi"}, "password": {"another-pass"}}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/register?") || !strings.Contains(loc, "error=") {
		t.Fatalf("expected redirect to register with error, got %s", loc)
	}
}

func TestAddTransaction(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "admin", "secret-pass")
	cookie := login(t, srv, "admin", "secret-pass")

	form := url.Values{
		"description":      {"Gaji bulanan"},
		"category":         {"cash"},
		"transaction_type": {"income"},
		"amount":           {"10000000"},
	}
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}

	txs, err := st.List(context.Background(), 1, core.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("stored %d transactions, want 1", len(txs))
	}
	if txs[0].Amount.Cents != 10_000_000_00 {
		t.Fatalf("amount = %d cents", txs[0].Amount.Cents)
	}
	if txs[0].UserID != 1 {
		t.Fatalf("row not owned by the session user: user_id = %d", txs[0].UserID)
	}
}

func TestAddTransactionRejectsBadAmount(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "admin", "secret-pass")
	cookie := login(t, srv, "admin", "secret-pass")

	form := url.Values{
		"description":      {"Broken"},
		"category":         {"cash"},
		"transaction_type": {"income"},
		"amount":           {"-5"},
	}
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	loc := rec.Header().Get("Location")
	if !strings.Contains(loc, "error=") {
		t.Fatalf("expected error flash, got %s", loc)
	}

	txs, _ := st.List(context.Background(), 1, core.Filter{})
	if len(txs) != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestTransactionsPageShowsRunningBalance(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "admin", "secret-pass")
	cookie := login(t, srv, "admin", "secret-pass")

	st.Seed([]core.Transaction{
		{
			UserID:      1,
			Description: "Gaji bulanan",
			Category:    core.Cash,
			Type:        core.Income,
			Amount:      core.Money{Cents: 10_000_000_00},
			Timestamp:   time.Now().Add(-time.Hour),
		},
		{
			UserID:      1,
			Description: "Belanja bulanan",
			Category:    core.Cash,
			Type:        core.Expenditure,
			Amount:      core.Money{Cents: 500_000_00},
			Timestamp:   time.Now(),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	// Cash running balance after the expenditure.
	if !strings.Contains(body, "Rp 9.500.000") {
		t.Fatalf("running balance missing from page")
	}
	// Newest row first.
	if strings.Index(body, "Belanja bulanan") > strings.Index(body, "Gaji bulanan") {
		t.Fatalf("rows should be listed newest first")
	}
}

// A filter narrows which rows are shown; the balance column must still
// carry the ledger-wide running balances, not a recomputation over the
// filtered subset.
func TestFilteredViewKeepsLedgerBalances(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "admin", "secret-pass")
	cookie := login(t, srv, "admin", "secret-pass")

	st.Seed([]core.Transaction{
		{
			UserID:      1,
			Description: "Gaji mingguan",
			Category:    core.Cash,
			Type:        core.Income,
			Amount:      core.Money{Cents: 100_000},
			Timestamp:   time.Now().Add(-time.Hour),
		},
		{
			UserID:      1,
			Description: "Belanja pasar",
			Category:    core.Cash,
			Type:        core.Expenditure,
			Amount:      core.Money{Cents: 40_000},
			Timestamp:   time.Now(),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/transactions?type=expenditure", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "Gaji mingguan") {
		t.Fatalf("income row should be filtered out")
	}
	if !strings.Contains(body, "Belanja pasar") {
		t.Fatalf("expenditure row missing")
	}
	// 100.000 - 40.000 cents: the cash balance next to the expenditure row.
	if !strings.Contains(body, "Rp 600") {
		t.Fatalf("expected ledger-wide running balance on the filtered row")
	}
	if strings.Contains(body, "-Rp 400") {
		t.Fatalf("running balance recomputed over the filtered subset")
	}
}

// Each account only ever sees and mutates its own ledger, including through
// the dashboard caches and the clear-all operation.
func TestAccountsAreIsolated(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "admin", "secret-pass")
	createTestUser(t, st, "dewi", "another-pass")
	adminCookie := login(t, srv, "admin", "secret-pass")
	dewiCookie := login(t, srv, "dewi", "another-pass")

	st.Seed([]core.Transaction{{
		UserID:      1,
		Description: "Gaji rahasia",
		Category:    core.Cash,
		Type:        core.Income,
		Amount:      core.Money{Cents: 10_000_000_00},
		Timestamp:   time.Now(),
	}})

	// Warm admin's dashboard cache, then read dewi's dashboard.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(adminCookie)
	srv.Handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(dewiCookie)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Gaji rahasia") || strings.Contains(rec.Body.String(), "Rp 10.000.000") {
		t.Fatalf("another account's data leaked into the dashboard")
	}

	// dewi clearing her ledger must not touch admin's rows.
	req = httptest.NewRequest(http.MethodPost, "/transactions/clear", nil)
	req.AddCookie(dewiCookie)
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("clear status = %d, want 303", rec.Code)
	}

	adminRows, err := st.List(context.Background(), 1, core.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(adminRows) != 1 {
		t.Fatalf("clear crossed accounts: admin has %d rows, want 1", len(adminRows))
	}
}

func TestDeleteTransaction(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "admin", "secret-pass")
	cookie := login(t, srv, "admin", "secret-pass")

	id, err := st.Add(context.Background(), core.Transaction{
		UserID:      1,
		Description: "Sewa kantor",
		Category:    core.Cash,
		Type:        core.Expenditure,
		Amount:      core.Money{Cents: 1_500_000_00},
		Timestamp:   time.Now(),
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/transactions/1/delete", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if _, err := st.Get(context.Background(), 1, id); err == nil {
		t.Fatalf("transaction should be gone")
	}
}

func TestExportCSV(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "admin", "secret-pass")
	cookie := login(t, srv, "admin", "secret-pass")

	st.Seed([]core.Transaction{{
		UserID:      1,
		Description: "Gaji bulanan",
		Category:    core.Cash,
		Type:        core.Income,
		Amount:      core.Money{Cents: 10_000_000_00},
		Timestamp:   time.Now(),
	}})

	req := httptest.NewRequest(http.MethodGet, "/export/csv", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type = %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "cashflow_") {
		t.Fatalf("content disposition = %s", cd)
	}
	if !strings.Contains(rec.Body.String(), "Gaji bulanan") {
		t.Fatalf("csv body missing transaction")
	}
}

func TestExportUnknownFormat(t *testing.T) {
	srv, st := newTestServer(t)
	createTestUser(t, st, "admin", "secret-pass")
	cookie := login(t, srv, "admin", "secret-pass")

	req := httptest.NewRequest(http.MethodGet, "/export/docx", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing X-Content-Type-Options header")
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Fatalf("missing Content-Security-Policy header")
	}
}
