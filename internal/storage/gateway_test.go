package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/cantinalabs/orderdesk/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"nil passes through", nil, nil},
		{"no rows is not found", sql.ErrNoRows, domain.ErrNotFound},
		{"unique violation is conflict", &pq.Error{Code: "23505", Message: "duplicate key"}, domain.ErrConflict},
		{"serialization failure is conflict", &pq.Error{Code: "40001"}, domain.ErrConflict},
		{"deadlock is conflict", &pq.Error{Code: "40P01"}, domain.ErrConflict},
		{"check violation is constraint", &pq.Error{Code: "23514", Message: "valid_cost_range"}, domain.ErrConstraintViolation},
		{"fk violation is constraint", &pq.Error{Code: "23503"}, domain.ErrConstraintViolation},
		{"lock timeout is storage", &pq.Error{Code: "55P03"}, domain.ErrStorageUnavailable},
		{"statement timeout is storage", &pq.Error{Code: "57014"}, domain.ErrStorageUnavailable},
		{"connection failure is storage", &pq.Error{Code: "08006"}, domain.ErrStorageUnavailable},
		{"unknown error is storage", errors.New("boom"), domain.ErrStorageUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tc.want) {
				t.Fatalf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestClassifyKeepsDomainErrors(t *testing.T) {
	wrapped := fmt.Errorf("resolving cost: %w", domain.ErrProductNotFound)

	got := Classify(wrapped)
	if !errors.Is(got, domain.ErrProductNotFound) {
		t.Fatalf("expected product-not-found preserved, got %v", got)
	}
	if errors.Is(got, domain.ErrStorageUnavailable) {
		t.Fatalf("domain error must not be reclassified as storage failure: %v", got)
	}
}
