package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/huythanhnguyen/ddv/internal/domain"
	"github.com/huythanhnguyen/ddv/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

// chatResponse mirrors the OpenAI-compatible chat completion response.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		var resp chatResponse
		resp.Choices = append(resp.Choices, struct {
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
		}{})
		resp.Choices[0].Message.Role = "assistant"
		resp.Choices[0].Message.Content = content
		resp.Usage.TotalTokens = 42

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestExtractor(baseURL string) *Extractor {
	return NewExtractor(&Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})
}

func TestExtract(t *testing.T) {
	server := chatServer(t, `{"search_query":"iphone 16 pro","budget_min":null,"budget_max":25000000,"brands":["apple"],"features":["camera"]}`)
	defer server.Close()

	ext, err := newTestExtractor(server.URL).Extract(context.Background(), "iphone 16 pro chụp ảnh dưới 25 triệu")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if ext.SearchQuery != "iphone 16 pro" {
		t.Errorf("unexpected search query: %q", ext.SearchQuery)
	}
	if ext.BudgetMax == nil || *ext.BudgetMax != 25_000_000 {
		t.Errorf("unexpected budget max: %v", ext.BudgetMax)
	}
	if ext.BudgetMin != nil {
		t.Errorf("expected nil budget min, got %v", ext.BudgetMin)
	}
	if len(ext.Brands) != 1 || ext.Brands[0] != "apple" {
		t.Errorf("unexpected brands: %v", ext.Brands)
	}
}

func TestExtractMalformedJSON(t *testing.T) {
	server := chatServer(t, "Sure! Here are the extracted fields: brand apple")
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), "iphone")
	if !errors.Is(err, domain.ErrExtractorUnavailable) {
		t.Fatalf("expected ErrExtractorUnavailable, got %v", err)
	}
}

func TestExtractAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer server.Close()

	_, err := newTestExtractor(server.URL).Extract(context.Background(), "iphone")
	if !errors.Is(err, domain.ErrExtractorUnavailable) {
		t.Fatalf("expected ErrExtractorUnavailable, got %v", err)
	}
}

func TestExtractUnreachable(t *testing.T) {
	_, err := newTestExtractor("http://127.0.0.1:1").Extract(context.Background(), "iphone")
	if !errors.Is(err, domain.ErrExtractorUnavailable) {
		t.Fatalf("expected ErrExtractorUnavailable, got %v", err)
	}
}
