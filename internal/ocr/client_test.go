package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestScan_ExtractsFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req scanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.UserID != "user-1" || req.FileURL != "https://example.com/r.jpg" {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"amount":   45000.50,
			"date":     "2026-03-10",
			"merchant": "Warung Makan",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	result, err := client.Scan(context.Background(), "user-1", "https://example.com/r.jpg")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.Amount.Cents != 45000_50 {
		t.Errorf("Amount = %d, want 4500050", result.Amount.Cents)
	}
	if result.Date != "2026-03-10" {
		t.Errorf("Date = %q", result.Date)
	}
	if result.Merchant != "Warung Makan" {
		t.Errorf("Merchant = %q", result.Merchant)
	}
}

func TestScan_DisabledWithoutURL(t *testing.T) {
	client := NewClient("", time.Second)
	if client.Enabled() {
		t.Error("client should be disabled without a webhook URL")
	}
	result, err := client.Scan(context.Background(), "u", "f")
	if err != nil || result != nil {
		t.Errorf("Scan = (%v, %v), want (nil, nil)", result, err)
	}
}

func TestScan_DegradesGracefully(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		result, err := NewClient(srv.URL, time.Second).Scan(context.Background(), "u", "f")
		if err != nil || result != nil {
			t.Errorf("Scan = (%v, %v), want (nil, nil)", result, err)
		}
	})

	t.Run("unreachable host", func(t *testing.T) {
		result, err := NewClient("http://127.0.0.1:1", time.Second).Scan(context.Background(), "u", "f")
		if err != nil || result != nil {
			t.Errorf("Scan = (%v, %v), want (nil, nil)", result, err)
		}
	})

	t.Run("bad amount keeps other fields", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"amount": -5, "merchant": "Kafe"}`))
		}))
		defer srv.Close()

		result, err := NewClient(srv.URL, time.Second).Scan(context.Background(), "u", "f")
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if result == nil || result.Merchant != "Kafe" {
			t.Fatalf("result = %+v, want merchant Kafe", result)
		}
		if result.Amount.Cents != 0 {
			t.Errorf("Amount = %d, want 0 for unparseable value", result.Amount.Cents)
		}
	})
}
