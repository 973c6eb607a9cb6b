package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"go.uber.org/zap"

	"github.com/mselser95/polyshark/pkg/types"
)

// marketPage builds a page of minimal market fixtures numbered from
// offset+1.
func marketPage(offset, count int) []types.Market {
	markets := make([]types.Market, count)
	for i := 0; i < count; i++ {
		marketNum := offset + i + 1
		markets[i] = types.Market{
			ID:       fmt.Sprintf("market%d", marketNum),
			Slug:     fmt.Sprintf("market-%d", marketNum),
			Question: fmt.Sprintf("Question %d", marketNum),
		}
	}
	return markets
}

// TestClient_Pagination_SmallLimit tests that small limits (<= MaxBatchSize) use a single request.
func TestClient_Pagination_SmallLimit(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	requestCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++

		if requestCount > 1 {
			t.Errorf("expected single request for small limit, got %d requests", requestCount)
		}

		if limit := r.URL.Query().Get("limit"); limit != "50" {
			t.Errorf("expected limit=50, got %s", limit)
		}

		if offset := r.URL.Query().Get("offset"); offset != "0" {
			t.Errorf("expected offset=0, got %s", offset)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(marketPage(0, 50))
	}))
	defer server.Close()

	client := NewClient(server.URL, logger)

	markets, err := client.FetchActiveMarkets(context.Background(), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(markets) != 50 {
		t.Errorf("expected 50 markets, got %d", len(markets))
	}

	if requestCount != 1 {
		t.Errorf("expected 1 request, got %d", requestCount)
	}
}

// TestClient_Pagination_LargeLimit tests that large limits (> MaxBatchSize) use pagination.
func TestClient_Pagination_LargeLimit(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	requestCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		// Request 1: limit=100, offset=0
		// Request 2: limit=100, offset=100
		// Request 3: limit=50, offset=200
		var expectedLimit, expectedOffset int
		switch requestCount {
		case 1:
			expectedLimit = 100
			expectedOffset = 0
		case 2:
			expectedLimit = 100
			expectedOffset = 100
		case 3:
			expectedLimit = 50
			expectedOffset = 200
		default:
			t.Errorf("unexpected request %d", requestCount)
		}

		if limit != expectedLimit {
			t.Errorf("request %d: expected limit=%d, got %d", requestCount, expectedLimit, limit)
		}

		if offset != expectedOffset {
			t.Errorf("request %d: expected offset=%d, got %d", requestCount, expectedOffset, offset)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(marketPage(offset, limit))
	}))
	defer server.Close()

	client := NewClient(server.URL, logger)

	markets, err := client.FetchActiveMarkets(context.Background(), 250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(markets) != 250 {
		t.Fatalf("expected 250 markets, got %d", len(markets))
	}

	if requestCount != 3 {
		t.Errorf("expected 3 requests, got %d", requestCount)
	}

	if markets[0].ID != "market1" {
		t.Errorf("expected first market to be market1, got %s", markets[0].ID)
	}

	if markets[249].ID != "market250" {
		t.Errorf("expected last market to be market250, got %s", markets[249].ID)
	}
}

// TestClient_Pagination_FetchAll tests that limit=0 fetches all available markets.
func TestClient_Pagination_FetchAll(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	requestCount := 0
	totalMarkets := 350

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		if limit != MaxBatchSize {
			t.Errorf("request %d: expected limit=%d, got %d", requestCount, MaxBatchSize, limit)
		}

		remaining := totalMarkets - offset
		numMarkets := MaxBatchSize
		if remaining < MaxBatchSize {
			numMarkets = remaining
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(marketPage(offset, numMarkets))
	}))
	defer server.Close()

	client := NewClient(server.URL, logger)

	markets, err := client.FetchActiveMarkets(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(markets) != totalMarkets {
		t.Errorf("expected %d markets, got %d", totalMarkets, len(markets))
	}

	// Should make 4 requests: 100, 100, 100, 50
	if requestCount != 4 {
		t.Errorf("expected 4 requests, got %d", requestCount)
	}
}

// TestClient_Pagination_PartialLastPage tests that pagination stops when a page comes back short.
func TestClient_Pagination_PartialLastPage(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	requestCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		// First request returns a full page, second only 30 markets.
		var numMarkets int
		switch requestCount {
		case 1:
			numMarkets = 100
		case 2:
			numMarkets = 30
		default:
			t.Errorf("unexpected request %d", requestCount)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(marketPage(offset, numMarkets))
	}))
	defer server.Close()

	client := NewClient(server.URL, logger)

	// Request 200 markets, but the API only has 130.
	markets, err := client.FetchActiveMarkets(context.Background(), 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(markets) != 130 {
		t.Errorf("expected 130 markets, got %d", len(markets))
	}

	if requestCount != 2 {
		t.Errorf("expected 2 requests, got %d", requestCount)
	}
}

// TestClient_Pagination_Error tests that pagination stops on error.
func TestClient_Pagination_Error(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	requestCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++

		if requestCount == 1 {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(marketPage(0, 100))
			return
		}

		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
	}))
	defer server.Close()

	client := NewClient(server.URL, logger)

	_, err := client.FetchActiveMarkets(context.Background(), 200)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if requestCount != 2 {
		t.Errorf("expected 2 requests before error, got %d", requestCount)
	}
}

// TestClient_Pagination_ExactMultiple tests a limit that is an exact multiple of MaxBatchSize.
func TestClient_Pagination_ExactMultiple(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	requestCount := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		if limit != 100 {
			t.Errorf("request %d: expected limit=100, got %d", requestCount, limit)
		}

		expectedOffset := (requestCount - 1) * 100
		if offset != expectedOffset {
			t.Errorf("request %d: expected offset=%d, got %d", requestCount, expectedOffset, offset)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(marketPage(offset, 100))
	}))
	defer server.Close()

	client := NewClient(server.URL, logger)

	markets, err := client.FetchActiveMarkets(context.Background(), 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(markets) != 300 {
		t.Errorf("expected 300 markets, got %d", len(markets))
	}

	if requestCount != 3 {
		t.Errorf("expected 3 requests, got %d", requestCount)
	}
}

// TestClient_FetchMarkets_WithOffset tests that a single page request carries the offset through.
func TestClient_FetchMarkets_WithOffset(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if offset := r.URL.Query().Get("offset"); offset != "50" {
			t.Errorf("expected offset=50, got %s", offset)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(marketPage(50, 25))
	}))
	defer server.Close()

	client := NewClient(server.URL, logger)

	markets, err := client.FetchMarkets(context.Background(), 25, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(markets) != 25 {
		t.Fatalf("expected 25 markets, got %d", len(markets))
	}

	if markets[0].ID != "market51" {
		t.Errorf("expected first market to be market51, got %s", markets[0].ID)
	}
}
