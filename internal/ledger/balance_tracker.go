package ledger

import (
	"fmt"

	"github.com/google/uuid"
)

// BalanceTracker maintains in-memory account balances
type BalanceTracker struct {
	balances map[AccountKey]int64
}

func NewBalanceTracker() *BalanceTracker {
	return &BalanceTracker{
		balances: make(map[AccountKey]int64),
	}
}

// ApplyJournal applies a single journal entry to balances
func (bt *BalanceTracker) ApplyJournal(j Journal) {
	bt.balances[j.DebitAccount] += j.Amount
	bt.balances[j.CreditAccount] -= j.Amount
}

// ApplyBatch applies all journals in a batch
func (bt *BalanceTracker) ApplyBatch(batch *Batch) error {
	if err := batch.Validate(); err != nil {
		return fmt.Errorf("invalid batch: %w", err)
	}

	for _, j := range batch.Journals {
		bt.ApplyJournal(j)
	}

	return nil
}

// GetBalance returns the current balance for an account
func (bt *BalanceTracker) GetBalance(key AccountKey) int64 {
	return bt.balances[key]
}

// === User Balance Queries ===

// GetUserCollateral returns posted collateral for one asset
func (bt *BalanceTracker) GetUserCollateral(userID uuid.UUID, assetID AssetID) int64 {
	return bt.GetBalance(NewUserAccountKey(userID, SubTypeCollateral, assetID))
}

// GetUserDebt returns the principal disbursed to the user and not yet repaid.
// Interest lives in the scaled-debt model, not the journal trail.
func (bt *BalanceTracker) GetUserDebt(userID uuid.UUID, assetID AssetID) int64 {
	return bt.GetBalance(NewUserAccountKey(userID, SubTypeDebt, assetID))
}

// GetPoolCash returns the lendable cash held by a pool
func (bt *BalanceTracker) GetPoolCash(assetID AssetID) int64 {
	return bt.GetBalance(NewSystemAccountKey("pool", SubTypeSystemPoolCash, assetID))
}

// GetProtocolFees returns accumulated flash-loan and liquidation fees
func (bt *BalanceTracker) GetProtocolFees(assetID AssetID) int64 {
	return bt.GetBalance(NewSystemAccountKey("protocol", SubTypeSystemFees, assetID))
}

// === Invariant Checks ===

// ValidateSufficientCollateral checks if user has enough posted collateral
func (bt *BalanceTracker) ValidateSufficientCollateral(userID uuid.UUID, assetID AssetID, required int64) error {
	collateral := bt.GetUserCollateral(userID, assetID)
	if collateral < required {
		return fmt.Errorf("insufficient collateral: have=%d, need=%d", collateral, required)
	}
	return nil
}

// ValidateSufficientPoolCash checks if a pool can fund a disbursement
func (bt *BalanceTracker) ValidateSufficientPoolCash(assetID AssetID, required int64) error {
	cash := bt.GetPoolCash(assetID)
	if cash < required {
		return fmt.Errorf("insufficient pool cash: have=%d, need=%d", cash, required)
	}
	return nil
}

// ComputeGlobalBalance sums all account balances (should be 0 for zero-sum ledger)
func (bt *BalanceTracker) ComputeGlobalBalance() map[AssetID]int64 {
	totals := make(map[AssetID]int64)

	for key, balance := range bt.balances {
		totals[key.AssetID] += balance
	}

	return totals
}

// ValidateNonNegative checks that a specific account balance is >= 0
func (bt *BalanceTracker) ValidateNonNegative(key AccountKey) error {
	balance := bt.GetBalance(key)
	if balance < 0 {
		return fmt.Errorf("account %s has negative balance: %d", key.AccountPath(), balance)
	}
	return nil
}

// Snapshot returns a copy of all balances (for state hashing)
func (bt *BalanceTracker) Snapshot() map[AccountKey]int64 {
	snapshot := make(map[AccountKey]int64, len(bt.balances))
	for k, v := range bt.balances {
		snapshot[k] = v
	}
	return snapshot
}

// Restore replaces all balances from a snapshot
func (bt *BalanceTracker) Restore(snapshot map[AccountKey]int64) {
	bt.balances = make(map[AccountKey]int64, len(snapshot))
	for k, v := range snapshot {
		bt.balances[k] = v
	}
}
