package httpx

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splax/fintrack/internal/service/account"
	"github.com/splax/fintrack/internal/service/ledger"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	handler  http.Handler
	logger   *slog.Logger
	accounts account.Service
	ledger   ledger.Service
	limiter  RateLimiter
	dbHealth func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateLimitRegister  = 5
	rateLimitLogin     = 12
	healthCheckTimeout = 2 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, accounts account.Service, ledgerSvc ledger.Service, limiter RateLimiter, dbHealth func(context.Context) error, corsOrigins []string) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		accounts: accounts,
		ledger:   ledgerSvc,
		limiter:  limiter,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	r.handler = r.recoverer(withCORS(corsOrigins, noStore(r.mux)))
	return r
}

// ServeHTTP delegates to the middleware-wrapped mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/health", r.audit("/health", r.handleHealth))
	r.mux.HandleFunc("/register", r.audit("/register", r.withRateLimit("/register", rateLimitRegister, rateWindowDefault, rateLimitKeyIP, r.handleRegister)))
	r.mux.HandleFunc("/login", r.audit("/login", r.withRateLimit("/login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin)))
	r.mux.HandleFunc("/transactions/", r.audit("/transactions/:owner", r.handleTransactions))
	r.mux.HandleFunc("/", r.audit("unmatched", r.handleUnmatched))
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	payload := map[string]any{
		"status":    "ok",
		"message":   "Backend is running",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			r.logger.Error("database health check failed", "error", err)
			payload["status"] = "error"
			payload["message"] = "Backend running but database error"
			payload["database"] = "disconnected"
			payload["error"] = err.Error()
			code = http.StatusInternalServerError
		}
	}
	writeJSON(w, code, payload)
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload registerRequest
	if err := decodeBody(w, req, &payload); err != nil {
		r.badBody(w, err, "No data received")
		return
	}
	if payload == (registerRequest{}) {
		writeError(w, http.StatusBadRequest, "No data received")
		return
	}
	if _, err := r.accounts.Register(req.Context(), payload.input()); err != nil {
		r.serviceError(w, req, "register", err)
		return
	}
	writeMessage(w, http.StatusCreated, "Registration successful")
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload loginRequest
	if err := decodeBody(w, req, &payload); err != nil {
		r.badBody(w, err, "Email and password required")
		return
	}
	acct, err := r.accounts.Authenticate(req.Context(), payload.Email, payload.Password)
	if err != nil {
		r.serviceError(w, req, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, accountView{ID: acct.ID, Name: acct.Name, Email: acct.Email})
}

func (r *Router) handleTransactions(w http.ResponseWriter, req *http.Request) {
	ownerID := strings.TrimPrefix(req.URL.Path, "/transactions/")
	if ownerID == "" || strings.Contains(ownerID, "/") {
		r.notFound(w)
		return
	}
	switch req.Method {
	case http.MethodGet:
		r.listTransactions(w, req, ownerID)
	case http.MethodPost:
		r.createTransaction(w, req, ownerID)
	case http.MethodDelete:
		r.deleteTransaction(w, req, ownerID)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) listTransactions(w http.ResponseWriter, req *http.Request, ownerID string) {
	txns, err := r.ledger.List(req.Context(), ownerID)
	if err != nil {
		r.serviceError(w, req, "list transactions", err, "owner_id", ownerID)
		return
	}
	writeJSON(w, http.StatusOK, transactionViews(txns))
}

func (r *Router) createTransaction(w http.ResponseWriter, req *http.Request, ownerID string) {
	// an unknown owner outranks a bad body
	if _, err := r.accounts.Lookup(req.Context(), ownerID); err != nil {
		r.serviceError(w, req, "create transaction", err, "owner_id", ownerID)
		return
	}
	var payload transactionRequest
	if err := decodeBody(w, req, &payload); err != nil {
		r.badBody(w, err, "No transaction data")
		return
	}
	if payload == (transactionRequest{}) {
		writeError(w, http.StatusBadRequest, "No transaction data")
		return
	}
	txn, err := r.ledger.Append(req.Context(), ownerID, payload.input())
	if err != nil {
		r.serviceError(w, req, "create transaction", err, "owner_id", ownerID)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionView(*txn))
}

func (r *Router) deleteTransaction(w http.ResponseWriter, req *http.Request, ownerID string) {
	transactionID := req.URL.Query().Get("id")
	if err := r.ledger.Remove(req.Context(), ownerID, transactionID); err != nil {
		r.serviceError(w, req, "delete transaction", err, "owner_id", ownerID, "transaction_id", transactionID)
		return
	}
	writeMessage(w, http.StatusOK, "Transaction deleted")
}

func (r *Router) handleUnmatched(w http.ResponseWriter, req *http.Request) {
	r.notFound(w)
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, route, status, duration)

		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"route", route,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "Endpoint not found")
}
