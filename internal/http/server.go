package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AlynxNeko/sangu/internal/auth"
	"github.com/AlynxNeko/sangu/internal/cache"
	"github.com/AlynxNeko/sangu/internal/core"
	"github.com/AlynxNeko/sangu/internal/metrics"
	"github.com/AlynxNeko/sangu/internal/ocr"
	"github.com/AlynxNeko/sangu/internal/services"
	"github.com/AlynxNeko/sangu/internal/storage"
)

// Options carries the server-level knobs that are not injected services.
type Options struct {
	Addr          string
	UploadDir     string
	PublicBaseURL string
}

type Server struct {
	http.Server

	store        *storage.SQLiteRepository
	transactions *services.TransactionService
	rules        *services.RuleService
	budgets      *services.BudgetService
	jwt          *auth.JWTManager
	passwords    *auth.PasswordAuthenticator
	ocr          *ocr.Client

	uploadDir     string
	publicBaseURL string
	rateLimiter   *rateLimiter

	dashboardCache *cache.LRU[dashboardResponse]
	monthCache     *cache.LRU[[]core.Transaction]
	cacheManager   *cache.Manager
	shutdownOnce   sync.Once
}

// NewServer wires routes and caches, returning a ready-to-run http.Server.
func NewServer(
	opts Options,
	store *storage.SQLiteRepository,
	transactions *services.TransactionService,
	rules *services.RuleService,
	budgets *services.BudgetService,
	jwtManager *auth.JWTManager,
	passwords *auth.PasswordAuthenticator,
	ocrClient *ocr.Client,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         opts.Addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		store:         store,
		transactions:  transactions,
		rules:         rules,
		budgets:       budgets,
		jwt:           jwtManager,
		passwords:     passwords,
		ocr:           ocrClient,
		uploadDir:     opts.UploadDir,
		publicBaseURL: opts.PublicBaseURL,
		rateLimiter:   newRateLimiter(60),

		dashboardCache: cache.NewLRU[dashboardResponse](200, 2*time.Minute),
		monthCache:     cache.NewLRU[[]core.Transaction](200, 2*time.Minute),
		cacheManager:   cache.NewManager(),
	}
	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.Register(s.monthCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Uploaded receipts
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadDir))))

	public := func(h http.HandlerFunc) http.HandlerFunc { return s.withSecurityHeaders(h) }
	authed := func(h http.HandlerFunc) http.HandlerFunc { return s.withSecurityHeaders(s.authed(h)) }

	mux.HandleFunc("POST /api/auth/signup", public(s.handleSignup))
	mux.HandleFunc("POST /api/auth/signin", public(s.handleSignin))
	mux.HandleFunc("GET /api/auth/me", authed(s.handleMe))
	mux.HandleFunc("PUT /api/auth/me", authed(s.handleUpdateProfile))
	mux.HandleFunc("PUT /api/auth/password", authed(s.handleChangePassword))

	mux.HandleFunc("GET /api/transactions", authed(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", authed(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", authed(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", authed(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", authed(s.handleDeleteTransaction))
	mux.HandleFunc("PUT /api/splits/participants/{id}/paid", authed(s.handleMarkParticipantPaid))

	mux.HandleFunc("GET /api/categories", authed(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", authed(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", authed(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", authed(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/payment-methods", authed(s.handleListPaymentMethods))
	mux.HandleFunc("POST /api/payment-methods", authed(s.handleCreatePaymentMethod))
	mux.HandleFunc("PUT /api/payment-methods/{id}", authed(s.handleUpdatePaymentMethod))
	mux.HandleFunc("DELETE /api/payment-methods/{id}", authed(s.handleDeletePaymentMethod))

	mux.HandleFunc("GET /api/budgets", authed(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", authed(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets/progress", authed(s.handleBudgetProgress))
	mux.HandleFunc("PUT /api/budgets/{id}", authed(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", authed(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/recurring", authed(s.handleListRecurring))
	mux.HandleFunc("POST /api/recurring", authed(s.handleCreateRecurring))
	mux.HandleFunc("PUT /api/recurring/{id}", authed(s.handleUpdateRecurring))
	mux.HandleFunc("DELETE /api/recurring/{id}", authed(s.handleDeleteRecurring))

	mux.HandleFunc("GET /api/rules", authed(s.handleListRules))
	mux.HandleFunc("POST /api/rules", authed(s.handleCreateRule))
	mux.HandleFunc("GET /api/rules/active", authed(s.handleGetActiveRule))
	mux.HandleFunc("POST /api/rules/preview", authed(s.handlePreviewRule))
	mux.HandleFunc("GET /api/rules/{id}", authed(s.handleGetRule))
	mux.HandleFunc("PUT /api/rules/{id}", authed(s.handleUpdateRule))
	mux.HandleFunc("DELETE /api/rules/{id}", authed(s.handleDeleteRule))
	mux.HandleFunc("POST /api/rules/{id}/activate", authed(s.handleActivateRule))

	mux.HandleFunc("GET /api/goals", authed(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", authed(s.handleCreateGoal))
	mux.HandleFunc("PUT /api/goals/{id}", authed(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", authed(s.handleDeleteGoal))

	mux.HandleFunc("GET /api/notifications", authed(s.handleListNotifications))
	mux.HandleFunc("PUT /api/notifications/read-all", authed(s.handleMarkAllNotificationsRead))
	mux.HandleFunc("PUT /api/notifications/{id}/read", authed(s.handleMarkNotificationRead))

	mux.HandleFunc("GET /api/dashboard", authed(s.handleDashboard))
	mux.HandleFunc("POST /api/receipts", authed(s.handleUploadReceipt))

	return s
}

// Shutdown stops the server and its background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Ready means the database answers.
	if _, err := s.store.ListCategories(r.Context(), "readiness-probe"); err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, "database not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func monthCacheKey(userID string, year, month int) string {
	return userID + "|" + strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

// monthRange is the half-open [first of month, first of next month) window.
func monthRange(year, month int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// monthTransactions returns the month's transactions through the per-user
// cache.
func (s *Server) monthTransactions(ctx context.Context, userID string, year, month int) ([]core.Transaction, error) {
	key := monthCacheKey(userID, year, month)
	if items, ok := s.monthCache.Get(key); ok {
		metrics.CacheHits.WithLabelValues("transactions", "hit").Inc()
		out := make([]core.Transaction, len(items))
		copy(out, items)
		return out, nil
	}
	metrics.CacheHits.WithLabelValues("transactions", "miss").Inc()

	from, to := monthRange(year, month)
	items, err := s.transactions.List(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list month transactions: %w", err)
	}
	s.monthCache.Set(key, items)
	return items, nil
}

// invalidateMonth drops the cached views touched by a mutation on the
// given date.
func (s *Server) invalidateMonth(userID string, date time.Time) {
	key := monthCacheKey(userID, date.Year(), int(date.Month()))
	s.monthCache.Delete(key)
	s.dashboardCache.Delete(key)
}

func (s *Server) invalidateCurrentMonth(userID string) {
	s.invalidateMonth(userID, time.Now())
}
