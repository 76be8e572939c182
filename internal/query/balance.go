package query

import (
	"github.com/google/uuid"
)

// ObligationResponse represents a user's lending position for API queries.
type ObligationResponse struct {
	UserID uuid.UUID `json:"user_id"`

	// Ledger balances (from journal entries)
	Collaterals map[string]int64 `json:"collaterals"` // asset -> deposited amount
	Debt        int64            `json:"debt"`        // disbursed USDC principal

	// Metadata
	AsOfSequence int64 `json:"as_of_sequence"` // last projected event sequence
}

// HealthInfo contains derived obligation health metrics.
type HealthInfo struct {
	UserID uuid.UUID `json:"user_id"`

	// Derived values (computed at query time, NOT ledger balances)
	CollateralValue  int64 `json:"collateral_value"`  // sum of collateral * price * collateral_factor
	LiquidationValue int64 `json:"liquidation_value"` // sum of collateral * price * liquidation_factor
	Debt             int64 `json:"debt"`              // principal + accrued interest
	HealthFactor     int64 `json:"health_factor"`     // liquidation_value / debt (fixed-point)

	// Status
	IsLiquidatable bool `json:"is_liquidatable"` // debt > liquidation_value

	AsOfSequence int64 `json:"as_of_sequence"`
}
