// Package ledger provides the fungible asset ledger the settlement engine
// moves escrow through. The engine only issues balance movements; it never
// touches balances directly.
package ledger

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/starboard-ventures/BDX-auction/internal/identity"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrAmountNegative        = errors.New("amount is negative")
)

// AssetLedger is the capability surface the engine consumes. Every call is
// atomic: it either fully applies or returns an error with no effect.
type AssetLedger interface {
	BalanceOf(account identity.Address) decimal.Decimal
	Allowance(owner, spender identity.Address) decimal.Decimal
	Approve(owner, spender identity.Address, amount decimal.Decimal) error
	Transfer(from, to identity.Address, amount decimal.Decimal) error
	TransferFrom(spender, from, to identity.Address, amount decimal.Decimal) error
}

// Ledger is an in-process asset ledger with ERC20-style allowance semantics.
// The full supply is minted to the treasury account at construction.
type Ledger struct {
	mu         sync.Mutex
	symbol     string
	balances   map[identity.Address]decimal.Decimal
	allowances map[identity.Address]map[identity.Address]decimal.Decimal
}

func New(symbol string, treasury identity.Address, supply decimal.Decimal) *Ledger {
	l := &Ledger{
		symbol:     symbol,
		balances:   make(map[identity.Address]decimal.Decimal),
		allowances: make(map[identity.Address]map[identity.Address]decimal.Decimal),
	}
	if supply.IsPositive() {
		l.balances[treasury] = supply
	}
	return l
}

func (l *Ledger) Symbol() string { return l.symbol }

func (l *Ledger) BalanceOf(account identity.Address) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}

func (l *Ledger) Allowance(owner, spender identity.Address) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[owner][spender]
}

func (l *Ledger) Approve(owner, spender identity.Address, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrAmountNegative
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	m := l.allowances[owner]
	if m == nil {
		m = make(map[identity.Address]decimal.Decimal)
		l.allowances[owner] = m
	}
	m[spender] = amount
	return nil
}

func (l *Ledger) Transfer(from, to identity.Address, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrAmountNegative
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

// TransferFrom moves owner funds on behalf of spender, debiting spender's
// allowance.
func (l *Ledger) TransferFrom(spender, from, to identity.Address, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrAmountNegative
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	allowed := l.allowances[from][spender]
	if allowed.LessThan(amount) {
		return ErrInsufficientAllowance
	}
	if err := l.move(from, to, amount); err != nil {
		return err
	}
	l.allowances[from][spender] = allowed.Sub(amount)
	return nil
}

func (l *Ledger) move(from, to identity.Address, amount decimal.Decimal) error {
	if l.balances[from].LessThan(amount) {
		return ErrInsufficientBalance
	}
	l.balances[from] = l.balances[from].Sub(amount)
	l.balances[to] = l.balances[to].Add(amount)
	return nil
}
