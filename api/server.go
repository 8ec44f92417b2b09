// Package api provides the HTTP API server for earningsinsights.
//
// It exposes the SEC filing scraper, the Yahoo Finance statement scraper,
// the earnings calendars and a WebSocket stream of scrape progress.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seenimoa/earningsinsights/internal/cache"
	"github.com/seenimoa/earningsinsights/internal/config"
	"github.com/seenimoa/earningsinsights/internal/financials"
	"github.com/seenimoa/earningsinsights/internal/providers/alphavantage"
	"github.com/seenimoa/earningsinsights/internal/providers/sec"
	"github.com/seenimoa/earningsinsights/internal/providers/yfinance"
	"github.com/seenimoa/earningsinsights/pkg/models"
	"github.com/seenimoa/earningsinsights/pkg/utils"
)

// Version is reported by /health. Set at build time.
var Version = "dev"

const defaultCompany = "AAPL"

// Scraper runs the SEC and Yahoo Finance pipelines.
type Scraper interface {
	ScrapeFilings(ctx context.Context, symbol, reportType string, force bool) ([]models.FinancialData, error)
	ScrapeYahoo(ctx context.Context, ticker string, force bool) (*models.YahooFinancials, bool, error)
}

// DateCalendar lists the earnings events of a day.
type DateCalendar interface {
	EarningsCalendar(ctx context.Context, date string) ([]models.EarningsEvent, error)
}

// CompanyCalendar lists upcoming earnings of several companies.
type CompanyCalendar interface {
	Configured() bool
	EarningsCalendars(ctx context.Context, symbols []string) []models.EarningsCalendarEntry
}

// Dependencies are the backends the handlers call.
type Dependencies struct {
	Scraper   Scraper
	Dates     DateCalendar
	Companies CompanyCalendar
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	deps   Dependencies
	wsHub  *WSHub
	logger *zap.Logger
}

// NewServer wires the providers, the cache and the scrape service from cfg
// and returns a server whose hub receives the scrape progress events.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.L()
	}
	hub := NewWSHub(logger)

	secProvider := sec.New(cfg.SEC,
		sec.WithLogger(logger),
		sec.WithMaxRetries(cfg.HTTP.MaxRetries))
	yahoo := yfinance.New(cfg.Yahoo, yfinance.WithLogger(logger))
	av := alphavantage.New(cfg.AlphaVantage, alphavantage.WithLogger(logger))

	svc := financials.NewService(secProvider, yahoo, cache.New(cfg.Cache.Dir),
		financials.WithLogger(logger.Named("financials")),
		financials.WithConcurrency(cfg.SEC.MaxConcurrency),
		financials.WithEventSink(hub))

	return New(cfg, Dependencies{Scraper: svc, Dates: yahoo, Companies: av}, hub, logger), nil
}

// New builds a server around already constructed dependencies.
func New(cfg *config.Config, deps Dependencies, hub *WSHub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.L()
	}
	if hub == nil {
		hub = NewWSHub(logger)
	}
	srv := &Server{
		cfg:    cfg,
		deps:   deps,
		wsHub:  hub,
		logger: logger.Named("api"),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe starts the HTTP server and shuts it down gracefully on
// SIGINT/SIGTERM or when ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.requestTimeout() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()
	defer s.wsHub.Stop()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return eris.Wrap(err, "http server")
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) requestTimeout() time.Duration {
	if s.cfg.API.RequestTimeout > 0 {
		return s.cfg.API.RequestTimeout
	}
	return 5 * time.Minute
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.requestTimeout()))

			r.Get("/scrape", s.handleScrape)
			r.Get("/scrape-yf", s.handleScrapeYahoo)
			r.Post("/earnings-calendar-company", s.handleCompanyCalendar)
			r.Get("/earnings-calendar-date", s.handleDateCalendar)
			r.Get("/status", s.handleStatus)
		})
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the generic JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ScrapeResponse is returned by GET /api/scrape.
type ScrapeResponse struct {
	Success       bool                   `json:"success"`
	FinancialData []models.FinancialData `json:"financialData"`
}

// YahooResponse is returned by GET /api/scrape-yf.
type YahooResponse struct {
	Success bool                    `json:"success"`
	Ticker  string                  `json:"ticker"`
	Cached  bool                    `json:"cached"`
	Data    *models.YahooFinancials `json:"data"`
}

// CompanyCalendarRequest is the body of POST /api/earnings-calendar-company.
type CompanyCalendarRequest struct {
	SelectedCompanies []string `json:"selectedCompanies"`
	Page              flexInt  `json:"page"`
	Size              flexInt  `json:"size"`
}

// CompanyCalendarResponse is a page of Alpha Vantage earnings rows.
type CompanyCalendarResponse struct {
	Success      bool                           `json:"success"`
	Data         []models.EarningsCalendarEntry `json:"data"`
	TotalResults int                            `json:"totalResults"`
	NextOffset   *int                           `json:"nextOffset"`
}

// DateCalendarResponse is a page of the Yahoo earnings calendar.
type DateCalendarResponse struct {
	Success      bool                   `json:"success"`
	Date         string                 `json:"date"`
	Data         []models.EarningsEvent `json:"data"`
	TotalResults int                    `json:"totalResults"`
	NextOffset   *int                   `json:"nextOffset"`
}

// flexInt accepts a JSON number or a numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return eris.Wrapf(err, "invalid integer %s", data)
	}
	*f = flexInt(n)
	return nil
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "ok",
			"version":    Version,
			"time_et":    utils.NowET().Format(time.RFC3339),
			"ws_clients": s.wsHub.ClientCount(),
		},
	})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol := utils.NormalizeTicker(q.Get("symbol"))
	reportType := strings.TrimSpace(q.Get("reportType"))
	if symbol == "" || reportType == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters.")
		return
	}
	if !utils.ValidTicker(symbol) {
		writeError(w, http.StatusBadRequest, "Unable to fetch CIK for symbol: "+symbol)
		return
	}

	data, err := s.deps.Scraper.ScrapeFilings(r.Context(), symbol, reportType, queryBool(q.Get("forceScrape")))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ScrapeResponse{Success: true, FinancialData: data})
	case eris.Is(err, financials.ErrCIKNotFound):
		writeError(w, http.StatusBadRequest, "Unable to fetch CIK for symbol: "+symbol)
	case eris.Is(err, financials.ErrNoFilings):
		writeError(w, http.StatusNotFound, "No relevant filings found")
	case eris.Is(err, financials.ErrNoData):
		writeError(w, http.StatusNotFound, "No financial data extracted")
	default:
		s.logger.Error("scrape failed", zap.String("symbol", symbol), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to scrape financial data")
	}
}

func (s *Server) handleScrapeYahoo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ticker := utils.NormalizeTicker(q.Get("ticker"))
	if ticker == "" || !utils.ValidTicker(ticker) {
		writeError(w, http.StatusBadRequest, "Invalid or missing ticker.")
		return
	}

	data, cached, err := s.deps.Scraper.ScrapeYahoo(r.Context(), ticker, queryBool(q.Get("forceScrape")))
	if err != nil {
		if eris.Is(err, financials.ErrInvalidTicker) {
			writeError(w, http.StatusBadRequest, "Invalid or missing ticker.")
			return
		}
		s.logger.Error("yahoo scrape failed", zap.String("ticker", ticker), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal Server Error.")
		return
	}

	writeJSON(w, http.StatusOK, YahooResponse{Success: true, Ticker: ticker, Cached: cached, Data: data})
}

func (s *Server) handleCompanyCalendar(w http.ResponseWriter, r *http.Request) {
	var req CompanyCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.deps.Companies.Configured() {
		writeError(w, http.StatusServiceUnavailable, "Alpha Vantage API key is not configured.")
		return
	}

	symbols := make([]string, 0, len(req.SelectedCompanies))
	seen := make(map[string]bool)
	for _, raw := range req.SelectedCompanies {
		sym := utils.NormalizeTicker(raw)
		if !utils.ValidTicker(sym) || seen[sym] {
			continue
		}
		seen[sym] = true
		symbols = append(symbols, sym)
	}
	if len(req.SelectedCompanies) == 0 {
		symbols = []string{defaultCompany}
	}
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid symbols.")
		return
	}

	all := s.deps.Companies.EarningsCalendars(r.Context(), symbols)
	if len(all) == 0 {
		writeError(w, http.StatusNotFound, "No earnings data found for the specified symbols.")
		return
	}

	page, next := models.Page(all, int(req.Page), int(req.Size))
	writeJSON(w, http.StatusOK, CompanyCalendarResponse{
		Success:      true,
		Data:         page,
		TotalResults: len(all),
		NextOffset:   next,
	})
}

func (s *Server) handleDateCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := strings.TrimSpace(q.Get("date"))
	if date == "" {
		date = utils.TodayET()
	}
	if _, err := models.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date. Expected YYYY-MM-DD.")
		return
	}

	events, err := s.deps.Dates.EarningsCalendar(r.Context(), date)
	if err != nil {
		s.logger.Error("earnings calendar scrape failed", zap.String("date", date), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to scrape earnings data")
		return
	}

	page, next := models.Page(events, queryInt(q.Get("page")), queryInt(q.Get("size")))
	writeJSON(w, http.StatusOK, DateCalendarResponse{
		Success:      true,
		Date:         date,
		Data:         page,
		TotalResults: len(events),
		NextOffset:   next,
	})
}

// ============================================================
// Helpers
// ============================================================

func queryBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// queryInt returns 0 for missing or malformed values so defaults apply.
func queryInt(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to write JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections and message broadcasting.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
	done       chan struct{}
	stopOnce   sync.Once
	logger     *zap.Logger
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub(logger *zap.Logger) *WSHub {
	if logger == nil {
		logger = zap.L()
	}
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		done:       make(chan struct{}),
		logger:     logger.Named("ws"),
	}
}

// Run starts the hub event loop. It returns after Stop.
func (h *WSHub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// slow client
					delete(h.clients, client)
					close(client.send)
					h.logger.Debug("dropped slow websocket client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop ends Run and closes every client.
func (h *WSHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// Publish forwards a scrape progress event to the connected clients.
func (h *WSHub) Publish(e financials.Event) {
	h.Broadcast(WSMessage{Type: string(e.Type), Data: e})
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
