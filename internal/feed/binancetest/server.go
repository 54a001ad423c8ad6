// Package binancetest provides a fake Binance spot REST server serving the account
// and trade history endpoints read by the Binance fill feed.
package binancetest

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// Balance represents an account balance.
type Balance struct {
	Asset  string
	Free   string
	Locked string
}

// Trade represents an executed trade of the account.
type Trade struct {
	ID              int64
	OrderID         int64
	Symbol          string
	Price           string
	Quantity        string
	QuoteQuantity   string
	Commission      string
	CommissionAsset string
	Time            time.Time
	IsBuyer         bool
}

// Server is a fake Binance server for testing.
type Server struct {
	mu sync.RWMutex

	httpServer *http.Server
	listener   net.Listener

	balances map[string]Balance
	trades   []Trade
	// tradeRequests counts myTrades calls, so tests can assert pagination.
	tradeRequests int
	// failTrades makes myTrades answer with a Binance error payload.
	failTrades bool
}

// NewServer creates a server with no balances and no trades.
func NewServer() *Server {
	return &Server{
		balances: make(map[string]Balance),
	}
}

// Start starts the server on a random local port.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener

	router := mux.NewRouter()
	router.HandleFunc("/api/v3/account", s.handleAccount).Methods("GET")
	router.HandleFunc("/api/v3/myTrades", s.handleMyTrades).Methods("GET")

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// BaseURL returns the base URL for the server.
func (s *Server) BaseURL() string {
	return "http://" + s.listener.Addr().String()
}

// SetBalance sets the balance of an asset.
func (s *Server) SetBalance(asset, free, locked string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balances[asset] = Balance{Asset: asset, Free: free, Locked: locked}
}

// AddTrades appends trades to the account history.
func (s *Server) AddTrades(trades ...Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades = append(s.trades, trades...)
	sort.SliceStable(s.trades, func(i, j int) bool { return s.trades[i].ID < s.trades[j].ID })
}

// FailTrades toggles error responses on the trade history endpoint.
func (s *Server) FailTrades(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failTrades = fail
}

// TradeRequests returns how many trade history requests were served.
func (s *Server) TradeRequests() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tradeRequests
}

// handleAccount handles GET /api/v3/account
func (s *Server) handleAccount(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type balanceResponse struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	}

	balances := make([]balanceResponse, 0, len(s.balances))
	for _, bal := range s.balances {
		balances = append(balances, balanceResponse{Asset: bal.Asset, Free: bal.Free, Locked: bal.Locked})
	}

	response := map[string]any{
		"makerCommission": 10,
		"takerCommission": 10,
		"canTrade":        true,
		"canWithdraw":     true,
		"canDeposit":      true,
		"updateTime":      time.Now().UnixMilli(),
		"accountType":     "SPOT",
		"balances":        balances,
	}

	writeJSON(w, http.StatusOK, response)
}

// handleMyTrades handles GET /api/v3/myTrades with fromId, startTime and limit.
func (s *Server) handleMyTrades(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.tradeRequests++
	fail := s.failTrades
	s.mu.Unlock()

	if fail {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": -1121, "msg": "Invalid symbol."})

		return
	}

	query := r.URL.Query()

	symbol := query.Get("symbol")
	if symbol == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": -1102, "msg": "Mandatory parameter 'symbol' was not sent."})

		return
	}

	limit := 500
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		limit = l
	}

	fromID := int64(-1)
	if id, err := strconv.ParseInt(query.Get("fromId"), 10, 64); err == nil {
		fromID = id
	}

	var startTime time.Time
	if ms, err := strconv.ParseInt(query.Get("startTime"), 10, 64); err == nil {
		startTime = time.UnixMilli(ms)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := make([]map[string]any, 0)

	for _, trade := range s.trades {
		if trade.Symbol != symbol {
			continue
		}

		if fromID >= 0 && trade.ID < fromID {
			continue
		}

		if fromID < 0 && !startTime.IsZero() && trade.Time.Before(startTime) {
			continue
		}

		trades = append(trades, map[string]any{
			"symbol":          trade.Symbol,
			"id":              trade.ID,
			"orderId":         trade.OrderID,
			"orderListId":     -1,
			"price":           trade.Price,
			"qty":             trade.Quantity,
			"quoteQty":        trade.QuoteQuantity,
			"commission":      trade.Commission,
			"commissionAsset": trade.CommissionAsset,
			"time":            trade.Time.UnixMilli(),
			"isBuyer":         trade.IsBuyer,
			"isMaker":         false,
			"isBestMatch":     true,
		})

		if len(trades) >= limit {
			break
		}
	}

	writeJSON(w, http.StatusOK, trades)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
