package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsExclusionViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"exclusion", &pgconn.PgError{Code: "23P01"}, true},
		{"wrapped exclusion", fmt.Errorf("insert appointment: %w", &pgconn.PgError{Code: "23P01"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExclusionViolation(tt.err); got != tt.want {
				t.Errorf("IsExclusionViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(fmt.Errorf("insert client: %w", &pgconn.PgError{Code: "23505"})) {
		t.Error("expected unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23P01"}) {
		t.Error("exclusion violation is not a unique violation")
	}
}

func TestConnFromContext_Empty(t *testing.T) {
	if tx := ConnFromContext(context.Background()); tx != nil {
		t.Errorf("expected nil transaction, got %v", tx)
	}
}

func TestConn_FallsBackToPool(t *testing.T) {
	q := Conn(context.Background(), nil)
	if q == nil {
		t.Fatal("expected the pool querier")
	}
}
