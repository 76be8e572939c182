package market

import (
	"fmt"

	"github.com/Creek-Finance/lendcore/internal/math"
	"github.com/Creek-Finance/lendcore/internal/state"

	"github.com/google/uuid"
)

const (
	// DefaultFlashLoanCap is the per-transaction cap: 50,000 units at
	// the 9-decimal scale.
	DefaultFlashLoanCap = int64(50_000) * math.Scale

	// DefaultFlashFeeBps is the flash-loan fee: 10 bps = 0.1%.
	DefaultFlashFeeBps = int64(10)
)

// FlashReceipt is the unforgeable repayment obligation handed out with
// borrowed funds. The surrounding unit of work must consume it exactly
// once via FlashRepay; the core refuses to settle while any receipt is
// outstanding.
type FlashReceipt struct {
	ID     uuid.UUID
	Asset  string
	Amount int64
	Fee    int64
}

// FlashFee computes the fee for a principal: amount * feeBps / 10000,
// rounded up, minimum 1 for any positive principal.
func (m *Market) FlashFee(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	fee := math.MulDiv(amount, m.flashFeeBps, 10_000, math.RoundUp)
	if fee < 1 {
		fee = 1
	}
	return fee
}

// FlashBorrow issues pool cash against a receipt. No collateral check.
func (m *Market) FlashBorrow(asset string, amount, version int64) (*FlashReceipt, error) {
	if err := m.guard(version); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrZeroAmount
	}
	if !m.assets.Active(asset) {
		return nil, fmt.Errorf("%w: %s", state.ErrAssetNotActive, asset)
	}
	if amount > m.flashCap {
		return nil, fmt.Errorf("%w: amount %d, cap %d", ErrFlashLoanExceedSingleCap, amount, m.flashCap)
	}
	if err := m.pools.RemoveCash(asset, amount); err != nil {
		return nil, err
	}

	r := &FlashReceipt{ID: uuid.New(), Asset: asset, Amount: amount, Fee: m.FlashFee(amount)}
	m.outstanding[r.ID] = r

	m.logger.Debug().Str("receipt", r.ID.String()).Str("asset", asset).Int64("amount", amount).Int64("fee", r.Fee).Msg("flash borrow")
	return r, nil
}

// FlashRepay consumes a receipt. The returned amount must cover
// principal plus fee; anything beyond that is refunded.
func (m *Market) FlashRepay(receiptID uuid.UUID, amount, version int64) (refund int64, err error) {
	if err := m.guard(version); err != nil {
		return 0, err
	}
	r, ok := m.outstanding[receiptID]
	if !ok {
		return 0, fmt.Errorf("%w: unknown receipt %s", state.ErrInvalidParams, receiptID)
	}
	due := math.SaturatingAdd(r.Amount, r.Fee)
	if amount < due {
		return 0, fmt.Errorf("%w: returned %d, due %d", ErrFlashLoanRepayNotEnough, amount, due)
	}

	delete(m.outstanding, receiptID)
	m.pools.AddCash(r.Asset, r.Amount)
	m.pools.AddFees(r.Asset, r.Fee)

	m.logger.Debug().Str("receipt", receiptID.String()).Int64("amount", amount).Msg("flash repay")
	return amount - due, nil
}

// OutstandingReceipts reports unconsumed receipts. The core checks this
// is zero before sealing an event; a dropped receipt fails the whole
// unit of work.
func (m *Market) OutstandingReceipts() int {
	return len(m.outstanding)
}

// FlashLoanSummary is the settled outcome of a one-event flash loan.
type FlashLoanSummary struct {
	Asset  string
	Amount int64
	Fee    int64
	Refund int64
}

// ExecuteFlashLoan runs a complete borrow-and-repay cycle as one atomic
// unit: every check runs before any state moves, so a failure leaves
// nothing behind.
func (m *Market) ExecuteFlashLoan(asset string, amount, repayAmount, version int64) (*FlashLoanSummary, error) {
	if err := m.guard(version); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrZeroAmount
	}
	if !m.assets.Active(asset) {
		return nil, fmt.Errorf("%w: %s", state.ErrAssetNotActive, asset)
	}
	if amount > m.flashCap {
		return nil, fmt.Errorf("%w: amount %d, cap %d", ErrFlashLoanExceedSingleCap, amount, m.flashCap)
	}
	if amount > m.pools.Get(asset).Cash {
		return nil, fmt.Errorf("%w: pool cash %d", state.ErrCollateralNotEnough, m.pools.Get(asset).Cash)
	}
	fee := m.FlashFee(amount)
	due := math.SaturatingAdd(amount, fee)
	if repayAmount < due {
		return nil, fmt.Errorf("%w: returned %d, due %d", ErrFlashLoanRepayNotEnough, repayAmount, due)
	}

	m.pools.AddFees(asset, fee)

	m.logger.Debug().Str("asset", asset).Int64("amount", amount).Int64("fee", fee).Msg("flash loan settled")
	return &FlashLoanSummary{Asset: asset, Amount: amount, Fee: fee, Refund: repayAmount - due}, nil
}
