package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// AssetAllocation holds allocation percentages for an investment account.
// Stocks, Bonds, Cash, and Other are percentages that nominally sum to 100.
type AssetAllocation struct {
	Stocks decimal.Decimal `yaml:"stocks" json:"stocks"`
	Bonds  decimal.Decimal `yaml:"bonds" json:"bonds"`
	Cash   decimal.Decimal `yaml:"cash" json:"cash"`
	Other  decimal.Decimal `yaml:"other,omitempty" json:"other,omitempty"`
}

// DefaultAllocation is the allocation assumed for investment slots recorded
// as a bare balance: fully in stocks.
func DefaultAllocation() AssetAllocation {
	return AssetAllocation{Stocks: decimal.NewFromInt(100)}
}

// InvestmentAccount is one investment slot. Older profile data records a slot
// as a bare dollar amount; newer data carries a balance plus an allocation.
// Both shapes deserialize into this type, with Allocation nil for the bare
// form. Every consumer goes through Balance and AllocationOrDefault rather
// than inspecting the shape itself.
type InvestmentAccount struct {
	Balance    decimal.Decimal
	Allocation *AssetAllocation
}

// AllocationOrDefault normalizes the dual representation: slots without an
// explicit allocation are treated as 100% stocks.
func (a InvestmentAccount) AllocationOrDefault() AssetAllocation {
	if a.Allocation == nil {
		return DefaultAllocation()
	}
	return *a.Allocation
}

// Clone returns a copy with no shared allocation pointer.
func (a InvestmentAccount) Clone() InvestmentAccount {
	out := a
	if a.Allocation != nil {
		alloc := *a.Allocation
		out.Allocation = &alloc
	}
	return out
}

type investmentAccountWire struct {
	Balance    decimal.Decimal  `yaml:"balance" json:"balance"`
	Allocation *AssetAllocation `yaml:"allocation,omitempty" json:"allocation,omitempty"`
}

// UnmarshalYAML accepts either a bare number or a {balance, allocation} mapping.
func (a *InvestmentAccount) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var balance decimal.Decimal
		if err := value.Decode(&balance); err != nil {
			return fmt.Errorf("investment account balance: %w", err)
		}
		a.Balance = balance
		a.Allocation = nil
		return nil
	}
	var wire investmentAccountWire
	if err := value.Decode(&wire); err != nil {
		return fmt.Errorf("investment account: %w", err)
	}
	a.Balance = wire.Balance
	a.Allocation = wire.Allocation
	return nil
}

// MarshalYAML emits the same shape that was read: a bare number when no
// allocation is present, a mapping otherwise.
func (a InvestmentAccount) MarshalYAML() (interface{}, error) {
	if a.Allocation == nil {
		return a.Balance, nil
	}
	return investmentAccountWire{Balance: a.Balance, Allocation: a.Allocation}, nil
}

// UnmarshalJSON accepts either a bare number or a {balance, allocation} object.
func (a *InvestmentAccount) UnmarshalJSON(data []byte) error {
	var balance decimal.Decimal
	if err := json.Unmarshal(data, &balance); err == nil {
		a.Balance = balance
		a.Allocation = nil
		return nil
	}
	var wire investmentAccountWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("investment account: %w", err)
	}
	a.Balance = wire.Balance
	a.Allocation = wire.Allocation
	return nil
}

// MarshalJSON mirrors UnmarshalJSON.
func (a InvestmentAccount) MarshalJSON() ([]byte, error) {
	if a.Allocation == nil {
		return json.Marshal(a.Balance)
	}
	return json.Marshal(investmentAccountWire{Balance: a.Balance, Allocation: a.Allocation})
}

// InvestmentAccounts groups the three supported investment slots.
type InvestmentAccounts struct {
	Taxable         InvestmentAccount `yaml:"taxable" json:"taxable"`
	RothIRA         InvestmentAccount `yaml:"roth_ira" json:"rothIRA"`
	Traditional401k InvestmentAccount `yaml:"traditional_401k" json:"traditional401k"`
}

// Total returns the combined balance across all investment slots.
func (inv InvestmentAccounts) Total() decimal.Decimal {
	return inv.Taxable.Balance.Add(inv.RothIRA.Balance).Add(inv.Traditional401k.Balance)
}

// Slot returns a pointer to the named slot, or nil for an unknown id.
// Valid ids are "taxable", "rothIRA", and "traditional401k".
func (inv *InvestmentAccounts) Slot(id string) *InvestmentAccount {
	switch id {
	case "taxable":
		return &inv.Taxable
	case "rothIRA":
		return &inv.RothIRA
	case "traditional401k":
		return &inv.Traditional401k
	}
	return nil
}

// PortfolioAllocation blends the per-slot allocations weighted by balance,
// rounded to one decimal place. A zero portfolio yields a zero allocation.
func (inv InvestmentAccounts) PortfolioAllocation() AssetAllocation {
	total := inv.Total()
	if total.IsZero() {
		return AssetAllocation{}
	}

	slots := []InvestmentAccount{inv.Taxable, inv.RothIRA, inv.Traditional401k}
	var stocks, bonds, cash, other decimal.Decimal
	for _, s := range slots {
		alloc := s.AllocationOrDefault()
		stocks = stocks.Add(s.Balance.Mul(alloc.Stocks))
		bonds = bonds.Add(s.Balance.Mul(alloc.Bonds))
		cash = cash.Add(s.Balance.Mul(alloc.Cash))
		other = other.Add(s.Balance.Mul(alloc.Other))
	}
	return AssetAllocation{
		Stocks: stocks.Div(total).Round(1),
		Bonds:  bonds.Div(total).Round(1),
		Cash:   cash.Div(total).Round(1),
		Other:  other.Div(total).Round(1),
	}
}

// Clone returns a deep copy of all slots.
func (inv InvestmentAccounts) Clone() InvestmentAccounts {
	return InvestmentAccounts{
		Taxable:         inv.Taxable.Clone(),
		RothIRA:         inv.RothIRA.Clone(),
		Traditional401k: inv.Traditional401k.Clone(),
	}
}

// Accounts holds every balance the user owns.
type Accounts struct {
	Checking    decimal.Decimal    `yaml:"checking" json:"checking"`
	Savings     decimal.Decimal    `yaml:"savings" json:"savings"`
	Investments InvestmentAccounts `yaml:"investments" json:"investments"`
}

// Liquid returns checking plus savings.
func (a Accounts) Liquid() decimal.Decimal {
	return a.Checking.Add(a.Savings)
}

// TotalAssets returns liquid balances plus all investments.
func (a Accounts) TotalAssets() decimal.Decimal {
	return a.Liquid().Add(a.Investments.Total())
}

// BalanceFor returns the balance of the named account and whether the id is
// known. Valid ids are "checking", "savings", and the investment slot ids.
func (a Accounts) BalanceFor(accountID string) (decimal.Decimal, bool) {
	switch accountID {
	case "checking":
		return a.Checking, true
	case "savings":
		return a.Savings, true
	}
	if slot := a.Investments.Slot(accountID); slot != nil {
		return slot.Balance, true
	}
	return decimal.Zero, false
}

// Clone returns a deep copy with no aliasing of allocation pointers.
func (a Accounts) Clone() Accounts {
	out := a
	out.Investments = a.Investments.Clone()
	return out
}
