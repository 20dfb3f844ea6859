package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/punchamoorthee/globalpay/internal/domain"
	"github.com/punchamoorthee/globalpay/internal/service"
	"github.com/punchamoorthee/globalpay/internal/store/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func seedTransfers(t *testing.T, n int) *memory.AccountStore {
	t.Helper()
	ctx := context.Background()
	ledger := memory.NewAccountStore()
	svc := service.NewTransferService(memory.NewIdempotencyStore(), ledger, stubIdentity{}, nil, zerolog.Nop())

	a, _ := ledger.CreateAccount(ctx, domain.NewMoney(decimal.NewFromInt(1000), domain.EUR))
	b, _ := ledger.CreateAccount(ctx, domain.NewMoney(decimal.Zero, domain.EUR))
	for i := 0; i < n; i++ {
		res, err := svc.Handle(ctx, fmt.Sprintf("seed-%02d", i), transfer(a, b, "1", domain.EUR))
		if err != nil || res.Status != domain.StatusCompleted {
			t.Fatalf("seed transfer %d: %+v (%v)", i, res, err)
		}
	}
	return ledger
}

type stubIdentity struct{}

func (stubIdentity) Convert(_ context.Context, m domain.Money, _ domain.Currency) (domain.Money, error) {
	return m, nil
}

func TestMonitor_CompletedTransfers(t *testing.T) {
	mon := service.NewMonitorService(seedTransfers(t, 25))

	tests := []struct {
		name      string
		page      int
		size      int
		wantItems int
		firstKey  string
	}{
		{name: "first page", page: 0, size: 10, wantItems: 10, firstKey: "seed-00"},
		{name: "second page", page: 1, size: 10, wantItems: 10, firstKey: "seed-10"},
		{name: "partial last page", page: 2, size: 10, wantItems: 5, firstKey: "seed-20"},
		{name: "past the end", page: 3, size: 10, wantItems: 0},
		{name: "max page size", page: 0, size: service.MaxPageSize, wantItems: 25, firstKey: "seed-00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mon.CompletedTransfers(context.Background(), tt.page, tt.size)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got.Items) != tt.wantItems {
				t.Fatalf("expected %d items, got %d", tt.wantItems, len(got.Items))
			}
			if got.Total != 25 {
				t.Errorf("expected total 25, got %d", got.Total)
			}
			if tt.wantItems > 0 && got.Items[0].IdempotencyKey != tt.firstKey {
				t.Errorf("expected first key %s, got %s", tt.firstKey, got.Items[0].IdempotencyKey)
			}
			for _, it := range got.Items {
				if it.Status != domain.StatusCompleted {
					t.Errorf("listed transfer %s has status %s", it.ID, it.Status)
				}
			}
		})
	}
}

func TestMonitor_InvalidPage(t *testing.T) {
	mon := service.NewMonitorService(memory.NewAccountStore())

	for _, tc := range []struct{ page, size int }{{-1, 10}, {0, 0}, {0, service.MaxPageSize + 1}} {
		_, err := mon.CompletedTransfers(context.Background(), tc.page, tc.size)
		if !errors.Is(err, service.ErrInvalidPage) {
			t.Errorf("page=%d size=%d: expected ErrInvalidPage, got %v", tc.page, tc.size, err)
		}
	}
}
