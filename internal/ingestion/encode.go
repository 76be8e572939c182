package ingestion

import (
	"encoding/json"
	"fmt"

	"github.com/Creek-Finance/lendcore/internal/event"
)

// MarshalEvent converts a typed event back into its JSON wire form.
// The event log stores this payload, so replay feeds it straight back
// through ParseRawEvent.
func MarshalEvent(evt event.Event) ([]byte, error) {
	switch e := evt.(type) {
	case *event.CollateralDeposited:
		return json.Marshal(collateralMoveJSON{
			ID:        e.DepositID.String(),
			UserID:    e.UserID.String(),
			Asset:     e.AssetID,
			Amount:    e.Amount,
			Version:   e.Version,
			Sequence:  e.Sequence,
			Timestamp: e.Timestamp,
		})
	case *event.CollateralWithdrawn:
		return json.Marshal(collateralMoveJSON{
			ID:        e.WithdrawalID.String(),
			UserID:    e.UserID.String(),
			Asset:     e.AssetID,
			Amount:    e.Amount,
			Version:   e.Version,
			Sequence:  e.Sequence,
			Timestamp: e.Timestamp,
		})
	case *event.Borrowed:
		return json.Marshal(collateralMoveJSON{
			ID:        e.BorrowID.String(),
			UserID:    e.UserID.String(),
			Asset:     e.AssetID,
			Amount:    e.Amount,
			Version:   e.Version,
			Sequence:  e.Sequence,
			Timestamp: e.Timestamp,
		})
	case *event.Repaid:
		return json.Marshal(collateralMoveJSON{
			ID:        e.RepayID.String(),
			UserID:    e.UserID.String(),
			Asset:     e.AssetID,
			Amount:    e.Amount,
			Version:   e.Version,
			Sequence:  e.Sequence,
			Timestamp: e.Timestamp,
		})
	case *event.Liquidated:
		return json.Marshal(liquidatedJSON{
			LiquidationID: e.LiquidationID.String(),
			ObligationID:  e.ObligationID.String(),
			LiquidatorID:  e.LiquidatorID.String(),
			SeizeAsset:    e.SeizeAssetID,
			MaxRepay:      e.MaxRepay,
			Version:       e.Version,
			Sequence:      e.Sequence,
			Timestamp:     e.Timestamp,
		})
	case *event.FlashLoanExecuted:
		return json.Marshal(flashLoanJSON{
			LoanID:      e.LoanID.String(),
			BorrowerID:  e.BorrowerID.String(),
			Asset:       e.AssetID,
			Amount:      e.Amount,
			RepayAmount: e.RepayAmount,
			Version:     e.Version,
			Sequence:    e.Sequence,
			Timestamp:   e.Timestamp,
		})
	case *event.PriceUpdate:
		return json.Marshal(priceUpdateJSON{
			Asset:             e.AssetID,
			Source:            e.Source,
			Value:             e.Value,
			Exponent:          e.Exponent,
			Negative:          e.Negative,
			SampledAt:         e.SampledAt,
			SecondarySource:   e.SecondarySource,
			SecondaryValue:    e.SecondaryValue,
			SecondaryExponent: e.SecondaryExponent,
			SecondaryNegative: e.SecondaryNegative,
			Sequence:          e.Sequence,
			Timestamp:         e.Timestamp,
		})
	case *event.RiskParamProposed:
		return json.Marshal(riskParamProposedJSON{
			Asset:              e.AssetID,
			CollateralFactor:   e.CollateralFactor,
			LiquidationFactor:  e.LiquidationFactor,
			LiquidationPenalty: e.LiquidationPenalty,
			Isolated:           e.Isolated,
			Version:            e.Version,
			Sequence:           e.Sequence,
			Timestamp:          e.Timestamp,
		})
	case *event.RiskParamApplied:
		return json.Marshal(riskParamAppliedJSON{
			Asset:     e.AssetID,
			Version:   e.Version,
			Sequence:  e.Sequence,
			Timestamp: e.Timestamp,
		})
	case *event.InterestParamsSet:
		return json.Marshal(interestParamsJSON{
			Asset:     e.AssetID,
			Base:      e.Base,
			Slope1:    e.Slope1,
			Slope2:    e.Slope2,
			Kink:      e.Kink,
			Version:   e.Version,
			Sequence:  e.Sequence,
			Timestamp: e.Timestamp,
		})
	case *event.EpochTick:
		return json.Marshal(epochTickJSON{
			Epoch:     e.Epoch,
			Sequence:  e.Sequence,
			Timestamp: e.Timestamp,
		})
	case *event.PauseSet:
		return json.Marshal(pauseSetJSON{
			Paused:    e.Paused,
			Version:   e.Version,
			Sequence:  e.Sequence,
			Timestamp: e.Timestamp,
		})
	case *event.ReservesSeeded:
		return json.Marshal(reservesSeededJSON{
			SeedID:    e.SeedID.String(),
			Asset:     e.AssetID,
			Amount:    e.Amount,
			Version:   e.Version,
			Sequence:  e.Sequence,
			Timestamp: e.Timestamp,
		})
	case *event.ReserveStaked:
		return json.Marshal(reserveStakedJSON{
			StakeID:   e.StakeID.String(),
			UserID:    e.UserID.String(),
			Amount:    e.Amount,
			Version:   e.Version,
			Sequence:  e.Sequence,
			Timestamp: e.Timestamp,
		})
	case *event.ObligationForceUnlocked:
		return json.Marshal(forceUnlockJSON{
			ObligationID: e.ObligationID.String(),
			Version:      e.Version,
			Sequence:     e.Sequence,
			Timestamp:    e.Timestamp,
		})
	default:
		return nil, fmt.Errorf("unknown event type: %T", evt)
	}
}
