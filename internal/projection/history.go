package projection

import (
	"github.com/google/uuid"
)

// LiquidationHistoryEntry represents one completed liquidation.
type LiquidationHistoryEntry struct {
	LiquidationID uuid.UUID
	ObligationID  uuid.UUID
	LiquidatorID  uuid.UUID
	SeizeAsset    string
	Repaid        int64
	Seized        int64
	ResidualDebt  int64
	Timestamp     int64
}

// LiquidationHistoryProjection maintains queryable liquidation history.
type LiquidationHistoryProjection struct {
	entries []LiquidationHistoryEntry
}

func NewLiquidationHistoryProjection() *LiquidationHistoryProjection {
	return &LiquidationHistoryProjection{
		entries: make([]LiquidationHistoryEntry, 0),
	}
}

// AddEntry records a liquidation.
func (p *LiquidationHistoryProjection) AddEntry(entry LiquidationHistoryEntry) {
	p.entries = append(p.entries, entry)
}

// QueryByObligation returns liquidation history for an obligation,
// newest first.
func (p *LiquidationHistoryProjection) QueryByObligation(obligationID uuid.UUID, limit int) []LiquidationHistoryEntry {
	result := make([]LiquidationHistoryEntry, 0)

	for i := len(p.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if p.entries[i].ObligationID == obligationID {
			result = append(result, p.entries[i])
		}
	}

	return result
}

// PriceHistoryEntry is one validated oracle price point.
type PriceHistoryEntry struct {
	Asset     string
	Source    string
	Price     int64
	SampledAt int64
	Sequence  int64
}
