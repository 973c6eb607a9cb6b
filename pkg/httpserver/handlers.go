package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mselser95/polyshark/internal/orderbook"
	"github.com/mselser95/polyshark/internal/trader"
	"github.com/mselser95/polyshark/pkg/types"
	"go.uber.org/zap"
)

// APIHandler serves the read-only wallet and order-book endpoints.
type APIHandler struct {
	trader *trader.Trader
	books  *orderbook.Manager
	logger *zap.Logger
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(tr *trader.Trader, books *orderbook.Manager, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		trader: tr,
		books:  books,
		logger: logger,
	}
}

// BookResponse is the order-book payload for one token: the best levels and
// derived figures ahead of the full depth.
type BookResponse struct {
	TokenID   string             `json:"token_id"`
	Timestamp time.Time          `json:"timestamp"`
	BestBid   float64            `json:"best_bid"`
	BestAsk   float64            `json:"best_ask"`
	Midpoint  float64            `json:"midpoint"`
	BidLevels int                `json:"bid_levels"`
	AskLevels int                `json:"ask_levels"`
	Bids      []types.PriceLevel `json:"bids"`
	Asks      []types.PriceLevel `json:"asks"`
}

// BookListResponse lists the tokens with a tracked order book.
type BookListResponse struct {
	Count    int      `json:"count"`
	TokenIDs []string `json:"token_ids"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleWallet handles GET /api/wallet requests. The payload is the current
// simulated wallet state with open positions marked at the latest quotes.
func (h *APIHandler) HandleWallet(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.trader.Snapshot())
}

// HandleBookList handles GET /api/books requests.
func (h *APIHandler) HandleBookList(w http.ResponseWriter, r *http.Request) {
	tokenIDs := h.books.Books()

	h.writeJSON(w, http.StatusOK, BookListResponse{
		Count:    len(tokenIDs),
		TokenIDs: tokenIDs,
	})
}

// HandleBook handles GET /api/books/{tokenID} requests.
func (h *APIHandler) HandleBook(w http.ResponseWriter, r *http.Request) {
	tokenID := chi.URLParam(r, "tokenID")

	h.logger.Debug("book-request-received", zap.String("token-id", tokenID))

	book, exists := h.books.Book(tokenID)
	if !exists {
		h.writeError(w, "no book for token", http.StatusNotFound)
		return
	}

	resp := BookResponse{
		TokenID:   book.TokenID,
		Timestamp: book.Timestamp,
		Bids:      book.Bids,
		Asks:      book.Asks,
	}
	resp.BidLevels, resp.AskLevels = book.Depth()

	if bid, ok := book.BestBid(); ok {
		resp.BestBid = bid.Price
	}
	if ask, ok := book.BestAsk(); ok {
		resp.BestAsk = ask.Price
	}
	if mid, ok := book.Midpoint(); ok {
		resp.Midpoint = mid
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response.
func (h *APIHandler) writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *APIHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, statusCode, ErrorResponse{Error: message})
}
