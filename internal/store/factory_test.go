package store

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewStore_Memory(t *testing.T) {
	ctx := context.Background()
	st, err := NewStore(ctx, "memory", "")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer st.Close()

	if _, ok := st.(*MemoryStore); !ok {
		t.Fatalf("Expected *MemoryStore, got %T", st)
	}

	if _, err := st.UpsertTour(ctx, TourParams{ID: "sintra", Name: "Sintra", BasePrice: decimal.NewFromInt(45), Currency: "EUR"}); err != nil {
		t.Fatalf("UpsertTour failed: %v", err)
	}
	if tours, _ := st.ListTours(ctx); len(tours) != 1 {
		t.Errorf("Expected 1 tour, got %d", len(tours))
	}
}

func TestNewStore_Errors(t *testing.T) {
	tests := []struct {
		name      string
		storeType string
		dsn       string
		wantErr   string
	}{
		{"unknown type", "redis", "", "unsupported store type: redis"},
		{"type is case sensitive", "Memory", "", "unsupported store type: Memory"},
		{"malformed dsn", "postgres", "not a dsn", "failed to open postgres store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := NewStore(context.Background(), tt.storeType, tt.dsn)
			if err == nil {
				st.Close()
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}
