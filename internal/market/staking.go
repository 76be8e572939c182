package market

import (
	"fmt"

	"github.com/Creek-Finance/lendcore/internal/math"
	"github.com/Creek-Finance/lendcore/internal/state"

	"github.com/google/uuid"
)

// StakeDerivativeRatio is the fixed conversion: one reserve unit mints
// this many units of each derivative token.
const StakeDerivativeRatio = int64(100)

// StakeResult reports a reserve-staking conversion.
type StakeResult struct {
	User            uuid.UUID
	Staked          int64
	MintedEach      int64 // per derivative token
	DerivativePrice int64 // governance derivative, priced off the EMA-120
}

// StakeReserve burns reserve units and mints both derivative tokens at
// the fixed ratio through the external token-supply collaborator. The
// governance derivative's reference price is read from the reserve
// asset's EMA-120 so the conversion stays consistent with valuation.
func (m *Market) StakeReserve(user uuid.UUID, amount, now, version int64) (*StakeResult, error) {
	if err := m.guard(version); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrZeroAmount
	}
	if !m.assets.Active(state.ReserveAssetID) {
		return nil, fmt.Errorf("%w: %s", state.ErrAssetNotActive, state.ReserveAssetID)
	}

	ema, err := m.oracle.ReserveEMA()
	if err != nil {
		return nil, err
	}

	minted := math.SaturatingMul(amount, StakeDerivativeRatio)

	if err := m.minter.Burn(state.ReserveAssetID, amount); err != nil {
		return nil, err
	}
	if err := m.minter.Mint(state.StakedDerivativeID, minted); err != nil {
		return nil, err
	}
	if err := m.minter.Mint(state.GovernanceDerivativeID, minted); err != nil {
		return nil, err
	}

	// One derivative unit represents 1/ratio of a reserve unit.
	derivPrice := math.MulDiv(ema, 1, StakeDerivativeRatio, math.RoundHalfUp)

	m.logger.Debug().Str("user", user.String()).Int64("staked", amount).Int64("minted_each", minted).Msg("reserve staked")
	return &StakeResult{User: user, Staked: amount, MintedEach: minted, DerivativePrice: derivPrice}, nil
}
