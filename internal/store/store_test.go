package store

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pfsim/pfsim/internal/domain"
)

func storedProfile() domain.UserProfile {
	alloc := domain.AssetAllocation{Stocks: decimal.NewFromInt(70), Bonds: decimal.NewFromInt(30)}
	return domain.UserProfile{
		ID:   "user-1",
		Name: "Jordan",
		Accounts: domain.Accounts{
			Checking: decimal.NewFromInt(2000),
			Investments: domain.InvestmentAccounts{
				Taxable: domain.InvestmentAccount{
					Balance:    decimal.NewFromInt(5000),
					Allocation: &alloc,
				},
			},
		},
		Goals: []domain.FinancialGoal{
			{ID: "goal-1", Name: "Emergency Fund", TargetAmount: decimal.NewFromInt(10000)},
		},
	}
}

func TestGetUnknownUser(t *testing.T) {
	s := NewUserStateStore()
	_, ok := s.Get("nobody")
	if ok {
		t.Error("unknown user should not be found")
	}
}

func TestSetThenGet(t *testing.T) {
	s := NewUserStateStore()
	s.Set("user-1", storedProfile())

	got, ok := s.Get("user-1")
	if !ok {
		t.Fatal("profile should be stored")
	}
	if got.Name != "Jordan" || !got.Accounts.Checking.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("stored profile round-trips, got %+v", got)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewUserStateStore()
	s.Set("user-1", storedProfile())

	got, _ := s.Get("user-1")
	got.Goals[0].CurrentAmount = decimal.NewFromInt(9999)
	got.Accounts.Investments.Taxable.Allocation.Stocks = decimal.NewFromInt(1)

	fresh, _ := s.Get("user-1")
	if !fresh.Goals[0].CurrentAmount.IsZero() {
		t.Error("mutating a returned profile must not reach the store")
	}
	if !fresh.Accounts.Investments.Taxable.Allocation.Stocks.Equal(decimal.NewFromInt(70)) {
		t.Error("allocation pointers must not be shared with callers")
	}
}

func TestSetStoresCopy(t *testing.T) {
	s := NewUserStateStore()
	profile := storedProfile()
	s.Set("user-1", profile)

	profile.Goals[0].Name = "changed"

	got, _ := s.Get("user-1")
	if got.Goals[0].Name != "Emergency Fund" {
		t.Error("mutating the caller's profile after Set must not reach the store")
	}
}

func TestGetOrCreateSeeds(t *testing.T) {
	s := NewUserStateStore()
	fallback := storedProfile()

	got := s.GetOrCreate("user-1", fallback)
	if got.Name != "Jordan" {
		t.Errorf("fallback should be returned, got %q", got.Name)
	}
	if !s.Has("user-1") {
		t.Error("fallback should be stored")
	}

	// A second call ignores the new fallback.
	other := storedProfile()
	other.Name = "Someone Else"
	again := s.GetOrCreate("user-1", other)
	if again.Name != "Jordan" {
		t.Errorf("existing profile wins over the fallback, got %q", again.Name)
	}
}

func TestDelete(t *testing.T) {
	s := NewUserStateStore()
	s.Set("user-1", storedProfile())

	if !s.Delete("user-1") {
		t.Error("deleting a stored profile reports true")
	}
	if s.Delete("user-1") {
		t.Error("deleting again reports false")
	}
	if s.Len() != 0 {
		t.Errorf("store should be empty, has %d", s.Len())
	}
}
