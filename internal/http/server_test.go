package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/AlynxNeko/sangu/internal/auth"
	"github.com/AlynxNeko/sangu/internal/ocr"
	"github.com/AlynxNeko/sangu/internal/services"
	"github.com/AlynxNeko/sangu/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	transactions := services.NewTransactionService(repo, nil)
	srv := NewServer(
		Options{Addr: ":0", UploadDir: t.TempDir(), PublicBaseURL: "http://localhost"},
		repo,
		transactions,
		services.NewRuleService(repo),
		services.NewBudgetService(repo),
		auth.NewJWTManager("test-secret-key-long-enough", time.Hour),
		auth.NewPasswordAuthenticator(repo),
		ocr.NewClient("", 0),
	)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
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

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func signupUser(t *testing.T, srv *Server, email string) string {
	t.Helper()
	rr := doRequest(t, srv, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":        email,
		"password":     "correct-horse",
		"display_name": "Test User",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body = %s", rr.Code, rr.Body.String())
	}
	return decodeBody[authResponse](t, rr).Token
}

func createCategory(t *testing.T, srv *Server, token, name, entryType string) string {
	t.Helper()
	rr := doRequest(t, srv, http.MethodPost, "/api/categories", token, map[string]string{
		"name": name,
		"type": entryType,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create category status = %d, body = %s", rr.Code, rr.Body.String())
	}
	return decodeBody[categoryResponse](t, rr).ID
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rr := doRequest(t, srv, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decodeBody[map[string]string](t, rr); got["status"] != "ok" {
		t.Errorf("body = %v, want status ok", got)
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	token := signupUser(t, srv, "a@example.com")
	if token == "" {
		t.Fatal("empty token")
	}

	rr := doRequest(t, srv, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "a@example.com", "password": "correct-horse",
	})
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "a@example.com", "password": "wrong-password",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("bad signin status = %d, want 401", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/auth/me", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("me status = %d", rr.Code)
	}
	if me := decodeBody[userResponse](t, rr); me.Email != "a@example.com" {
		t.Errorf("me email = %q", me.Email)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/auth/me", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated me status = %d, want 401", rr.Code)
	}
}

func TestChangePasswordEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := signupUser(t, srv, "a@example.com")

	rr := doRequest(t, srv, http.MethodPut, "/api/auth/password", token, map[string]string{
		"current_password": "wrong", "new_password": "another-pass",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong current password status = %d, want 401", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodPut, "/api/auth/password", token, map[string]string{
		"current_password": "correct-horse", "new_password": "another-pass",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("change password status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "a@example.com", "password": "another-pass",
	})
	if rr.Code != http.StatusOK {
		t.Errorf("signin with new password status = %d", rr.Code)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := signupUser(t, srv, "a@example.com")
	categoryID := createCategory(t, srv, token, "Food", "expense")

	date := time.Now().UTC().Format(dateLayout)
	rr := doRequest(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"type":        "expense",
		"amount":      "90000",
		"category_id": categoryID,
		"description": "Team dinner",
		"date":        date,
		"split": map[string]any{
			"mode": "total",
			"participants": []map[string]string{
				{"name": "Budi", "amount": "30000"},
				{"name": "Sari", "amount": "30000"},
			},
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rr.Code, rr.Body.String())
	}
	created := decodeBody[transactionResponse](t, rr)
	if created.Amount != "30000.00" {
		t.Errorf("user share = %s, want 30000.00", created.Amount)
	}
	if !created.IsSplit || created.Split == nil || len(created.Split.Participants) != 2 {
		t.Fatalf("split not persisted: %+v", created)
	}
	if created.Split.TotalAmount != "90000.00" {
		t.Errorf("total bill = %s, want 90000.00", created.Split.TotalAmount)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/transactions/"+created.ID, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/transactions", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	if list := decodeBody[[]transactionResponse](t, rr); len(list) != 1 {
		t.Errorf("list len = %d, want 1", len(list))
	}

	participantID := created.Split.Participants[0].ID
	rr = doRequest(t, srv, http.MethodPut, "/api/splits/participants/"+participantID+"/paid", token, map[string]bool{"paid": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("mark paid status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodDelete, "/api/transactions/"+created.ID, token, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodGet, "/api/transactions/"+created.ID, token, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rr.Code)
	}
}

func TestMarkParticipantPaid_InvalidatesTransactionMonth(t *testing.T) {
	srv := newTestServer(t)
	token := signupUser(t, srv, "a@example.com")

	// The split lives two months back, not in the current month.
	past := time.Now().UTC().AddDate(0, -2, 0)
	rr := doRequest(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"type":        "expense",
		"amount":      "60000",
		"description": "Old dinner",
		"date":        past.Format(dateLayout),
		"split": map[string]any{
			"mode": "total",
			"participants": []map[string]string{
				{"name": "Budi", "amount": "20000"},
			},
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rr.Code, rr.Body.String())
	}
	created := decodeBody[transactionResponse](t, rr)

	monthQuery := "?year=" + past.Format("2006") + "&month=" + strconv.Itoa(int(past.Month()))
	rr = doRequest(t, srv, http.MethodGet, "/api/transactions"+monthQuery, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}

	participantID := created.Split.Participants[0].ID
	rr = doRequest(t, srv, http.MethodPut, "/api/splits/participants/"+participantID+"/paid", token, map[string]bool{"paid": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("mark paid status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/transactions"+monthQuery, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list after paid status = %d", rr.Code)
	}
	list := decodeBody[[]transactionResponse](t, rr)
	if len(list) != 1 || list[0].Split == nil {
		t.Fatalf("unexpected list: %+v", list)
	}
	if !list[0].Split.Participants[0].IsPaid {
		t.Error("cached month listing still shows the participant unpaid")
	}
}

func TestCreateTransaction_FullyCoveredSplit(t *testing.T) {
	srv := newTestServer(t)
	token := signupUser(t, srv, "a@example.com")

	// Friends cover the whole bill, leaving the user with a zero share.
	rr := doRequest(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"type":        "expense",
		"amount":      "100000",
		"description": "Covered dinner",
		"date":        time.Now().UTC().Format(dateLayout),
		"split": map[string]any{
			"mode": "total",
			"participants": []map[string]string{
				{"name": "Budi", "amount": "100000"},
			},
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rr.Code, rr.Body.String())
	}
	created := decodeBody[transactionResponse](t, rr)
	if created.Amount != "0.00" {
		t.Errorf("user share = %s, want 0.00", created.Amount)
	}
	if created.Split == nil || created.Split.TotalAmount != "100000.00" {
		t.Fatalf("split not persisted: %+v", created)
	}
}

func TestCreateTransaction_RejectsOverdrawnSplit(t *testing.T) {
	srv := newTestServer(t)
	token := signupUser(t, srv, "a@example.com")

	rr := doRequest(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"type":        "expense",
		"amount":      "50000",
		"description": "Dinner",
		"date":        time.Now().UTC().Format(dateLayout),
		"split": map[string]any{
			"mode": "total",
			"participants": []map[string]string{
				{"name": "Budi", "amount": "60000"},
			},
		},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body = %s", rr.Code, rr.Body.String())
	}
}

func TestRuleEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := signupUser(t, srv, "a@example.com")
	needsID := createCategory(t, srv, token, "Needs", "expense")
	wantsID := createCategory(t, srv, token, "Wants", "expense")

	rr := doRequest(t, srv, http.MethodPost, "/api/rules", token, map[string]any{
		"name":              "Default",
		"tithe_enabled":     true,
		"tithe_percent":     "10",
		"savings_enabled":   true,
		"savings_percent":   "20",
		"core_percent":      "70",
		"satellite_percent": "30",
		"allocations": []map[string]string{
			{"category_id": needsID, "percent": "60"},
			{"category_id": wantsID, "percent": "40"},
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create rule status = %d, body = %s", rr.Code, rr.Body.String())
	}
	rule := decodeBody[ruleResponse](t, rr)
	if rule.IsActive {
		t.Error("new rule must not be active until activated")
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/rules/active", token, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("active rule before activation status = %d, want 404", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodPost, "/api/rules/"+rule.ID+"/activate", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("activate status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/rules/active", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("active rule status = %d", rr.Code)
	}
	if active := decodeBody[ruleResponse](t, rr); active.ID != rule.ID || !active.IsActive {
		t.Errorf("active rule = %+v, want %s active", active, rule.ID)
	}

	rr = doRequest(t, srv, http.MethodPost, "/api/rules/preview", token, map[string]string{
		"amount": "1000000",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("preview status = %d, body = %s", rr.Code, rr.Body.String())
	}
	preview := decodeBody[previewResponse](t, rr)
	if preview.Tithe != "100000.00" {
		t.Errorf("tithe = %s, want 100000.00", preview.Tithe)
	}
	if preview.Savings != "200000.00" {
		t.Errorf("savings = %s, want 200000.00", preview.Savings)
	}
	if preview.Net != "700000.00" {
		t.Errorf("net = %s, want 700000.00", preview.Net)
	}
	if len(preview.Categories) != 2 {
		t.Fatalf("categories len = %d, want 2", len(preview.Categories))
	}
}

func TestRuleValidationRejected(t *testing.T) {
	srv := newTestServer(t)
	token := signupUser(t, srv, "a@example.com")

	// Core + satellite must cover all of savings.
	rr := doRequest(t, srv, http.MethodPost, "/api/rules", token, map[string]any{
		"name":              "Broken",
		"savings_enabled":   true,
		"savings_percent":   "20",
		"core_percent":      "50",
		"satellite_percent": "30",
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body = %s", rr.Code, rr.Body.String())
	}
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t)
	token := signupUser(t, srv, "a@example.com")
	categoryID := createCategory(t, srv, token, "Food", "expense")

	date := time.Now().UTC().Format(dateLayout)
	for _, tx := range []map[string]any{
		{"type": "income", "amount": "1000000", "description": "Salary", "date": date},
		{"type": "expense", "amount": "250000", "description": "Groceries", "date": date, "category_id": categoryID},
	} {
		rr := doRequest(t, srv, http.MethodPost, "/api/transactions", token, tx)
		if rr.Code != http.StatusCreated {
			t.Fatalf("create status = %d, body = %s", rr.Code, rr.Body.String())
		}
	}

	rr := doRequest(t, srv, http.MethodPost, "/api/budgets", token, map[string]string{
		"category_id": categoryID, "amount": "200000", "alert_threshold": "80",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create budget status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/dashboard", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, body = %s", rr.Code, rr.Body.String())
	}
	dash := decodeBody[dashboardResponse](t, rr)
	if dash.Income != "1000000.00" || dash.Expenses != "250000.00" || dash.Balance != "750000.00" {
		t.Errorf("totals = %s/%s/%s", dash.Income, dash.Expenses, dash.Balance)
	}
	if len(dash.Days) != time.Now().Day() {
		t.Errorf("days len = %d, want %d", len(dash.Days), time.Now().Day())
	}
	if len(dash.Budgets) != 1 {
		t.Fatalf("budgets len = %d, want 1", len(dash.Budgets))
	}
	if !dash.Budgets[0].Alerted {
		t.Error("budget over 100% must be alerted")
	}

	// Cached response stays coherent on a second read.
	rr = doRequest(t, srv, http.MethodGet, "/api/dashboard", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("cached dashboard status = %d", rr.Code)
	}
	if again := decodeBody[dashboardResponse](t, rr); again.Balance != dash.Balance {
		t.Errorf("cached balance = %s, want %s", again.Balance, dash.Balance)
	}
}

func TestUserScoping(t *testing.T) {
	srv := newTestServer(t)
	tokenA := signupUser(t, srv, "a@example.com")
	tokenB := signupUser(t, srv, "b@example.com")

	rr := doRequest(t, srv, http.MethodPost, "/api/transactions", tokenA, map[string]any{
		"type": "expense", "amount": "100", "description": "Coffee",
		"date": time.Now().UTC().Format(dateLayout),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rr.Code)
	}
	created := decodeBody[transactionResponse](t, rr)

	rr = doRequest(t, srv, http.MethodGet, "/api/transactions/"+created.ID, tokenB, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("cross-user get status = %d, want 404", rr.Code)
	}
}
