package blockchain

import "sync"

// AccountModel maps participant identities to signed balances.
// It performs no validation; the Blockchain checks coverage before debiting.
type AccountModel struct {
	balances map[string]float64
	mutex    sync.RWMutex
}

// NewAccountModel creates an empty ledger.
func NewAccountModel() *AccountModel {
	return &AccountModel{
		balances: make(map[string]float64),
	}
}

// GetBalance returns the stored balance, or 0 for an unseen identity.
func (am *AccountModel) GetBalance(identity string) float64 {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return am.balances[identity]
}

// UpdateBalance adds delta to the identity's balance, creating the entry if absent.
func (am *AccountModel) UpdateBalance(identity string, delta float64) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.balances[identity] += delta
}

// Accounts returns a copy of all balances.
func (am *AccountModel) Accounts() map[string]float64 {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	out := make(map[string]float64, len(am.balances))
	for id, balance := range am.balances {
		out[id] = balance
	}
	return out
}
