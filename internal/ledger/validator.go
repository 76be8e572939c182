package ledger

import (
	"fmt"

	"github.com/google/uuid"
)

// InvariantValidator checks ledger invariants
type InvariantValidator struct {
	tracker *BalanceTracker
}

func NewInvariantValidator(tracker *BalanceTracker) *InvariantValidator {
	return &InvariantValidator{
		tracker: tracker,
	}
}

// ValidateBatchBalance verifies batch is balanced
func (v *InvariantValidator) ValidateBatchBalance(batch *Batch) error {
	return batch.Validate()
}

// ValidateUserCollateralNonNegative checks user collateral >= 0
func (v *InvariantValidator) ValidateUserCollateralNonNegative(userID uuid.UUID, assetID AssetID) error {
	key := NewUserAccountKey(userID, SubTypeCollateral, assetID)
	return v.tracker.ValidateNonNegative(key)
}

// ValidatePoolCashNonNegative checks pool cash >= 0; a pool can never
// disburse more than it holds
func (v *InvariantValidator) ValidatePoolCashNonNegative(assetID AssetID) error {
	key := NewSystemAccountKey("pool", SubTypeSystemPoolCash, assetID)
	return v.tracker.ValidateNonNegative(key)
}

// ValidateGlobalBalance verifies system is zero-sum
func (v *InvariantValidator) ValidateGlobalBalance() error {
	totals := v.tracker.ComputeGlobalBalance()

	for assetID, total := range totals {
		if total != 0 {
			assetName, _ := GetAssetName(assetID)
			return fmt.Errorf("global balance for %s is non-zero: %d", assetName, total)
		}
	}

	return nil
}
