// Package ledger implements the in-memory fungible-balance ledger the
// authorization core drives: balances, allowances, supply tracking with an
// optional cap, a minter allow-list, a rejected-party list and an
// emergency halt flag. All gating for plain transfers lives here; the
// authorization core only calls Transfer and SetAllowance.
package ledger

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	token "github.com/simpcl/generic-erc20-token"
)

// Config describes a ledger deployment.
type Config struct {
	Name     string
	Symbol   string
	Decimals uint8
	Owner    common.Address

	// Cap is the maximum total supply. Nil means uncapped.
	Cap *uint256.Int
}

// Ledger is a mutex-protected in-memory ledger. It satisfies the
// token.Ledger interface and additionally exposes the ERC-20 surface
// (transferFrom, mint, burn) plus the owner's administrative operations.
type Ledger struct {
	mu sync.RWMutex

	name     string
	symbol   string
	decimals uint8
	owner    common.Address
	cap      *uint256.Int

	totalSupply *uint256.Int
	balances    map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int

	// minters maps each configured minter to its remaining mint allowance.
	minters  map[common.Address]*uint256.Int
	rejected map[common.Address]bool
	halted   bool
}

// New creates an empty ledger.
func New(cfg Config) *Ledger {
	var cap *uint256.Int
	if cfg.Cap != nil {
		cap = cfg.Cap.Clone()
	}
	return &Ledger{
		name:        cfg.Name,
		symbol:      cfg.Symbol,
		decimals:    cfg.Decimals,
		owner:       cfg.Owner,
		cap:         cap,
		totalSupply: uint256.NewInt(0),
		balances:    make(map[common.Address]*uint256.Int),
		allowances:  make(map[common.Address]map[common.Address]*uint256.Int),
		minters:     make(map[common.Address]*uint256.Int),
		rejected:    make(map[common.Address]bool),
	}
}

// Transfer moves value between accounts. Gating order: halted, barred
// parties, zero addresses, balance.
func (l *Ledger) Transfer(from, to common.Address, value *big.Int) error {
	amount, err := toAmount(value)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transfer(from, to, amount)
}

// TransferFrom moves value from an owner's balance using the spender's
// allowance, which is decremented on success.
func (l *Ledger) TransferFrom(spender, from, to common.Address, value *big.Int) error {
	amount, err := toAmount(value)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	allowance := l.allowance(from, spender)
	if allowance.Lt(amount) {
		return token.ErrInsufficientAllowance
	}
	if err := l.transfer(from, to, amount); err != nil {
		return err
	}
	l.setAllowance(from, spender, new(uint256.Int).Sub(allowance, amount))
	return nil
}

// transfer requires l.mu.
func (l *Ledger) transfer(from, to common.Address, amount *uint256.Int) error {
	if l.halted {
		return token.ErrSystemHalted
	}
	if l.rejected[from] || l.rejected[to] {
		return token.ErrPartyRejected
	}
	if from == (common.Address{}) || to == (common.Address{}) {
		return token.ErrZeroAddress
	}

	balance := l.balance(from)
	if balance.Lt(amount) {
		return token.ErrInsufficientBalance
	}
	l.balances[from] = new(uint256.Int).Sub(balance, amount)
	l.balances[to] = new(uint256.Int).Add(l.balance(to), amount)
	return nil
}

// SetAllowance sets the spender's allowance over the owner's balance.
func (l *Ledger) SetAllowance(owner, spender common.Address, value *big.Int) error {
	amount, err := toAmount(value)
	if err != nil {
		return err
	}
	if spender == (common.Address{}) {
		return token.ErrZeroAddress
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.setAllowance(owner, spender, amount)
	return nil
}

// setAllowance requires l.mu.
func (l *Ledger) setAllowance(owner, spender common.Address, amount *uint256.Int) {
	row := l.allowances[owner]
	if row == nil {
		row = make(map[common.Address]*uint256.Int)
		l.allowances[owner] = row
	}
	row[spender] = amount.Clone()
}

// Mint creates value on the recipient's balance. The caller must be a
// configured minter with sufficient mint allowance, and the resulting
// supply must not exceed the cap.
func (l *Ledger) Mint(minter, to common.Address, value *big.Int) error {
	amount, err := toAmount(value)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.halted {
		return token.ErrSystemHalted
	}
	remaining, ok := l.minters[minter]
	if !ok {
		return token.ErrNotMinter
	}
	if remaining.Lt(amount) {
		return token.ErrNotMinter
	}
	if to == (common.Address{}) {
		return token.ErrZeroAddress
	}
	if l.rejected[minter] || l.rejected[to] {
		return token.ErrPartyRejected
	}

	supply, overflow := new(uint256.Int).AddOverflow(l.totalSupply, amount)
	if overflow {
		return token.ErrCapExceeded
	}
	if l.cap != nil && supply.Gt(l.cap) {
		return token.ErrCapExceeded
	}

	l.minters[minter] = new(uint256.Int).Sub(remaining, amount)
	l.totalSupply = supply
	l.balances[to] = new(uint256.Int).Add(l.balance(to), amount)
	return nil
}

// Burn destroys value from the minter's own balance and reduces supply.
func (l *Ledger) Burn(minter common.Address, value *big.Int) error {
	amount, err := toAmount(value)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.halted {
		return token.ErrSystemHalted
	}
	if _, ok := l.minters[minter]; !ok {
		return token.ErrNotMinter
	}
	balance := l.balance(minter)
	if balance.Lt(amount) {
		return token.ErrInsufficientBalance
	}

	l.balances[minter] = new(uint256.Int).Sub(balance, amount)
	l.totalSupply = new(uint256.Int).Sub(l.totalSupply, amount)
	return nil
}

// ConfigureMinter grants a minter its mint allowance. Owner only.
func (l *Ledger) ConfigureMinter(caller, minter common.Address, allowance *big.Int) error {
	amount, err := toAmount(allowance)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return token.ErrNotOwner
	}
	l.minters[minter] = amount
	return nil
}

// RemoveMinter revokes a minter. Owner only.
func (l *Ledger) RemoveMinter(caller, minter common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return token.ErrNotOwner
	}
	delete(l.minters, minter)
	return nil
}

// SetPartyRejected bars or unbars an account. Owner only.
func (l *Ledger) SetPartyRejected(caller, account common.Address, rejected bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return token.ErrNotOwner
	}
	if rejected {
		l.rejected[account] = true
	} else {
		delete(l.rejected, account)
	}
	return nil
}

// Halt puts the ledger in its emergency state. Owner only.
func (l *Ledger) Halt(caller common.Address) error {
	return l.setHalted(caller, true)
}

// Resume clears the emergency state. Owner only.
func (l *Ledger) Resume(caller common.Address) error {
	return l.setHalted(caller, false)
}

func (l *Ledger) setHalted(caller common.Address, halted bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return token.ErrNotOwner
	}
	l.halted = halted
	return nil
}

// IsPartyRejected reports whether the account is barred.
func (l *Ledger) IsPartyRejected(account common.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rejected[account]
}

// IsHalted reports whether the ledger is halted.
func (l *Ledger) IsHalted() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.halted
}

// IsMinter reports whether the account is a configured minter.
func (l *Ledger) IsMinter(account common.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.minters[account]
	return ok
}

// MinterAllowance returns the minter's remaining mint allowance.
func (l *Ledger) MinterAllowance(minter common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if remaining, ok := l.minters[minter]; ok {
		return remaining.ToBig()
	}
	return new(big.Int)
}

// BalanceOf returns the account's balance.
func (l *Ledger) BalanceOf(account common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance(account).ToBig()
}

// Allowance returns the spender's allowance over the owner's balance.
func (l *Ledger) Allowance(owner, spender common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allowance(owner, spender).ToBig()
}

// TotalSupply returns the current total supply.
func (l *Ledger) TotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalSupply.ToBig()
}

// Name returns the token name.
func (l *Ledger) Name() string { return l.name }

// Symbol returns the token symbol.
func (l *Ledger) Symbol() string { return l.symbol }

// Decimals returns the token's decimal places.
func (l *Ledger) Decimals() uint8 { return l.decimals }

// Owner returns the administrative owner.
func (l *Ledger) Owner() common.Address { return l.owner }

// Cap returns the supply cap, or nil when uncapped.
func (l *Ledger) Cap() *big.Int {
	if l.cap == nil {
		return nil
	}
	return l.cap.ToBig()
}

// balance requires l.mu (read or write).
func (l *Ledger) balance(account common.Address) *uint256.Int {
	if b, ok := l.balances[account]; ok {
		return b
	}
	return uint256.NewInt(0)
}

// allowance requires l.mu (read or write).
func (l *Ledger) allowance(owner, spender common.Address) *uint256.Int {
	if row, ok := l.allowances[owner]; ok {
		if a, ok := row[spender]; ok {
			return a
		}
	}
	return uint256.NewInt(0)
}

// toAmount converts an externally supplied value into the ledger's word
// size, rejecting nil, negative and over-width values.
func toAmount(value *big.Int) (*uint256.Int, error) {
	if value == nil || value.Sign() < 0 {
		return nil, token.ErrInvalidAmount
	}
	amount, overflow := uint256.FromBig(value)
	if overflow {
		return nil, token.ErrInvalidAmount
	}
	return amount, nil
}
