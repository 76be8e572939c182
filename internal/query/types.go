package query

import "github.com/google/uuid"

// PoolResponse represents a liquidity pool for API queries.
type PoolResponse struct {
	Asset        string `json:"asset"`
	Cash         int64  `json:"cash"`
	FeeReserves  int64  `json:"fee_reserves"`
	AsOfSequence int64  `json:"as_of_sequence"`
}

// PriceHistoryResponse represents a validated oracle price for API queries.
type PriceHistoryResponse struct {
	Asset     string `json:"asset"`
	Source    string `json:"source"`
	Price     int64  `json:"price"`
	SampledAt int64  `json:"sampled_at"`
	Sequence  int64  `json:"sequence"`
}

// LiquidationHistoryResponse represents a completed liquidation for API queries.
type LiquidationHistoryResponse struct {
	LiquidationID uuid.UUID `json:"liquidation_id"`
	ObligationID  uuid.UUID `json:"obligation_id"`
	LiquidatorID  uuid.UUID `json:"liquidator_id"`
	SeizeAsset    string    `json:"seize_asset"`
	Repaid        int64     `json:"repaid"`
	Seized        int64     `json:"seized"`
	ResidualDebt  int64     `json:"residual_debt"`
	Timestamp     int64     `json:"timestamp"`
}

// JournalHistoryEntry represents a journal entry for API queries.
type JournalHistoryEntry struct {
	JournalID     string `json:"journal_id"`
	BatchID       string `json:"batch_id"`
	EventRef      string `json:"event_ref"`
	Sequence      int64  `json:"sequence"`
	DebitAccount  string `json:"debit_account"`
	CreditAccount string `json:"credit_account"`
	AssetID       uint16 `json:"asset_id"`
	Amount        int64  `json:"amount"`
	JournalType   int32  `json:"journal_type"`
	Timestamp     int64  `json:"timestamp"`
}

// IntegrityReport is the result of an integrity verification check.
type IntegrityReport struct {
	IsHealthy        bool              `json:"is_healthy"`
	HashChainBreaks  []int64           `json:"hash_chain_breaks,omitempty"`
	UnbalancedAssets []UnbalancedAsset `json:"unbalanced_assets,omitempty"`
}

// UnbalancedAsset represents an asset with non-zero global balance sum.
type UnbalancedAsset struct {
	AssetID   uint16 `json:"asset_id"`
	Imbalance int64  `json:"imbalance"`
}
