package ingestion

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Creek-Finance/lendcore/internal/event"
)

// ParseRawEvent converts a RawEvent (JSON bytes + event type string)
// into a typed event.Event. The ingestion shell validates, parses, and
// converts raw events before handing them to the deterministic core.
func ParseRawEvent(raw RawEvent, eventType string) (event.Event, error) {
	switch eventType {
	case "CollateralDeposited":
		return parseCollateralDeposited(raw.Data)
	case "CollateralWithdrawn":
		return parseCollateralWithdrawn(raw.Data)
	case "Borrowed":
		return parseBorrowed(raw.Data)
	case "Repaid":
		return parseRepaid(raw.Data)
	case "Liquidated":
		return parseLiquidated(raw.Data)
	case "FlashLoanExecuted":
		return parseFlashLoanExecuted(raw.Data)
	case "PriceUpdate":
		return parsePriceUpdate(raw.Data)
	case "RiskParamProposed":
		return parseRiskParamProposed(raw.Data)
	case "RiskParamApplied":
		return parseRiskParamApplied(raw.Data)
	case "InterestParamsSet":
		return parseInterestParamsSet(raw.Data)
	case "EpochTick":
		return parseEpochTick(raw.Data)
	case "PauseSet":
		return parsePauseSet(raw.Data)
	case "ReservesSeeded":
		return parseReservesSeeded(raw.Data)
	case "ReserveStaked":
		return parseReserveStaked(raw.Data)
	case "ObligationForceUnlocked":
		return parseObligationForceUnlocked(raw.Data)
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
}

// --- JSON wire formats ---
// These structs represent the JSON payloads received from NATS.
// Field names use snake_case to match upstream producers.

type collateralMoveJSON struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Asset     string `json:"asset"`
	Amount    int64  `json:"amount"`
	Version   int64  `json:"version"`
	Sequence  int64  `json:"sequence"`
	Timestamp int64  `json:"timestamp"`
}

func parseCollateralDeposited(data []byte) (*event.CollateralDeposited, error) {
	var j collateralMoveJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse CollateralDeposited: %w", err)
	}
	depositID, err := uuid.Parse(j.ID)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	userID, err := uuid.Parse(j.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user_id: %w", err)
	}
	return &event.CollateralDeposited{
		DepositID: depositID,
		UserID:    userID,
		AssetID:   j.Asset,
		Amount:    j.Amount,
		Version:   j.Version,
		Sequence:  j.Sequence,
		Timestamp: j.Timestamp,
	}, nil
}

func parseCollateralWithdrawn(data []byte) (*event.CollateralWithdrawn, error) {
	var j collateralMoveJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse CollateralWithdrawn: %w", err)
	}
	withdrawalID, err := uuid.Parse(j.ID)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	userID, err := uuid.Parse(j.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user_id: %w", err)
	}
	return &event.CollateralWithdrawn{
		WithdrawalID: withdrawalID,
		UserID:       userID,
		AssetID:      j.Asset,
		Amount:       j.Amount,
		Version:      j.Version,
		Sequence:     j.Sequence,
		Timestamp:    j.Timestamp,
	}, nil
}

func parseBorrowed(data []byte) (*event.Borrowed, error) {
	var j collateralMoveJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Borrowed: %w", err)
	}
	borrowID, err := uuid.Parse(j.ID)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	userID, err := uuid.Parse(j.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user_id: %w", err)
	}
	return &event.Borrowed{
		BorrowID:  borrowID,
		UserID:    userID,
		AssetID:   j.Asset,
		Amount:    j.Amount,
		Version:   j.Version,
		Sequence:  j.Sequence,
		Timestamp: j.Timestamp,
	}, nil
}

func parseRepaid(data []byte) (*event.Repaid, error) {
	var j collateralMoveJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Repaid: %w", err)
	}
	repayID, err := uuid.Parse(j.ID)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	userID, err := uuid.Parse(j.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user_id: %w", err)
	}
	return &event.Repaid{
		RepayID:   repayID,
		UserID:    userID,
		AssetID:   j.Asset,
		Amount:    j.Amount,
		Version:   j.Version,
		Sequence:  j.Sequence,
		Timestamp: j.Timestamp,
	}, nil
}

type liquidatedJSON struct {
	LiquidationID string `json:"liquidation_id"`
	ObligationID  string `json:"obligation_id"`
	LiquidatorID  string `json:"liquidator_id"`
	SeizeAsset    string `json:"seize_asset"`
	MaxRepay      int64  `json:"max_repay"`
	Version       int64  `json:"version"`
	Sequence      int64  `json:"sequence"`
	Timestamp     int64  `json:"timestamp"`
}

func parseLiquidated(data []byte) (*event.Liquidated, error) {
	var j liquidatedJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Liquidated: %w", err)
	}
	liqID, err := uuid.Parse(j.LiquidationID)
	if err != nil {
		return nil, fmt.Errorf("parse liquidation_id: %w", err)
	}
	obligationID, err := uuid.Parse(j.ObligationID)
	if err != nil {
		return nil, fmt.Errorf("parse obligation_id: %w", err)
	}
	liquidatorID, err := uuid.Parse(j.LiquidatorID)
	if err != nil {
		return nil, fmt.Errorf("parse liquidator_id: %w", err)
	}
	return &event.Liquidated{
		LiquidationID: liqID,
		ObligationID:  obligationID,
		LiquidatorID:  liquidatorID,
		SeizeAssetID:  j.SeizeAsset,
		MaxRepay:      j.MaxRepay,
		Version:       j.Version,
		Sequence:      j.Sequence,
		Timestamp:     j.Timestamp,
	}, nil
}

type flashLoanJSON struct {
	LoanID      string `json:"loan_id"`
	BorrowerID  string `json:"borrower_id"`
	Asset       string `json:"asset"`
	Amount      int64  `json:"amount"`
	RepayAmount int64  `json:"repay_amount"`
	Version     int64  `json:"version"`
	Sequence    int64  `json:"sequence"`
	Timestamp   int64  `json:"timestamp"`
}

func parseFlashLoanExecuted(data []byte) (*event.FlashLoanExecuted, error) {
	var j flashLoanJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse FlashLoanExecuted: %w", err)
	}
	loanID, err := uuid.Parse(j.LoanID)
	if err != nil {
		return nil, fmt.Errorf("parse loan_id: %w", err)
	}
	borrowerID, err := uuid.Parse(j.BorrowerID)
	if err != nil {
		return nil, fmt.Errorf("parse borrower_id: %w", err)
	}
	return &event.FlashLoanExecuted{
		LoanID:      loanID,
		BorrowerID:  borrowerID,
		AssetID:     j.Asset,
		Amount:      j.Amount,
		RepayAmount: j.RepayAmount,
		Version:     j.Version,
		Sequence:    j.Sequence,
		Timestamp:   j.Timestamp,
	}, nil
}

type priceUpdateJSON struct {
	Asset     string `json:"asset"`
	Source    string `json:"source"`
	Value     int64  `json:"value"`
	Exponent  int32  `json:"exponent"`
	Negative  bool   `json:"negative"`
	SampledAt int64  `json:"sampled_at"`

	SecondarySource   string `json:"secondary_source,omitempty"`
	SecondaryValue    int64  `json:"secondary_value,omitempty"`
	SecondaryExponent int32  `json:"secondary_exponent,omitempty"`
	SecondaryNegative bool   `json:"secondary_negative,omitempty"`

	Sequence  int64 `json:"sequence"`
	Timestamp int64 `json:"timestamp"`
}

func parsePriceUpdate(data []byte) (*event.PriceUpdate, error) {
	var j priceUpdateJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse PriceUpdate: %w", err)
	}
	return &event.PriceUpdate{
		AssetID:           j.Asset,
		Source:            j.Source,
		Value:             j.Value,
		Exponent:          j.Exponent,
		Negative:          j.Negative,
		SampledAt:         j.SampledAt,
		SecondarySource:   j.SecondarySource,
		SecondaryValue:    j.SecondaryValue,
		SecondaryExponent: j.SecondaryExponent,
		SecondaryNegative: j.SecondaryNegative,
		HasSecondary:      j.SecondarySource != "",
		Sequence:          j.Sequence,
		Timestamp:         j.Timestamp,
	}, nil
}

type riskParamProposedJSON struct {
	Asset              string `json:"asset"`
	CollateralFactor   int64  `json:"collateral_factor"`
	LiquidationFactor  int64  `json:"liquidation_factor"`
	LiquidationPenalty int64  `json:"liquidation_penalty"`
	Isolated           bool   `json:"isolated"`
	Version            int64  `json:"version"`
	Sequence           int64  `json:"sequence"`
	Timestamp          int64  `json:"timestamp"`
}

func parseRiskParamProposed(data []byte) (*event.RiskParamProposed, error) {
	var j riskParamProposedJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse RiskParamProposed: %w", err)
	}
	return &event.RiskParamProposed{
		AssetID:            j.Asset,
		CollateralFactor:   j.CollateralFactor,
		LiquidationFactor:  j.LiquidationFactor,
		LiquidationPenalty: j.LiquidationPenalty,
		Isolated:           j.Isolated,
		Version:            j.Version,
		Sequence:           j.Sequence,
		Timestamp:          j.Timestamp,
	}, nil
}

type riskParamAppliedJSON struct {
	Asset     string `json:"asset"`
	Version   int64  `json:"version"`
	Sequence  int64  `json:"sequence"`
	Timestamp int64  `json:"timestamp"`
}

func parseRiskParamApplied(data []byte) (*event.RiskParamApplied, error) {
	var j riskParamAppliedJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse RiskParamApplied: %w", err)
	}
	return &event.RiskParamApplied{
		AssetID:   j.Asset,
		Version:   j.Version,
		Sequence:  j.Sequence,
		Timestamp: j.Timestamp,
	}, nil
}

type interestParamsJSON struct {
	Asset     string `json:"asset"`
	Base      int64  `json:"base"`
	Slope1    int64  `json:"slope1"`
	Slope2    int64  `json:"slope2"`
	Kink      int64  `json:"kink"`
	Version   int64  `json:"version"`
	Sequence  int64  `json:"sequence"`
	Timestamp int64  `json:"timestamp"`
}

func parseInterestParamsSet(data []byte) (*event.InterestParamsSet, error) {
	var j interestParamsJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse InterestParamsSet: %w", err)
	}
	return &event.InterestParamsSet{
		AssetID:   j.Asset,
		Base:      j.Base,
		Slope1:    j.Slope1,
		Slope2:    j.Slope2,
		Kink:      j.Kink,
		Version:   j.Version,
		Sequence:  j.Sequence,
		Timestamp: j.Timestamp,
	}, nil
}

type epochTickJSON struct {
	Epoch     int64 `json:"epoch"`
	Sequence  int64 `json:"sequence"`
	Timestamp int64 `json:"timestamp"`
}

func parseEpochTick(data []byte) (*event.EpochTick, error) {
	var j epochTickJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse EpochTick: %w", err)
	}
	return &event.EpochTick{
		Epoch:     j.Epoch,
		Sequence:  j.Sequence,
		Timestamp: j.Timestamp,
	}, nil
}

type pauseSetJSON struct {
	Paused    bool  `json:"paused"`
	Version   int64 `json:"version"`
	Sequence  int64 `json:"sequence"`
	Timestamp int64 `json:"timestamp"`
}

func parsePauseSet(data []byte) (*event.PauseSet, error) {
	var j pauseSetJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse PauseSet: %w", err)
	}
	return &event.PauseSet{
		Paused:    j.Paused,
		Version:   j.Version,
		Sequence:  j.Sequence,
		Timestamp: j.Timestamp,
	}, nil
}

type reservesSeededJSON struct {
	SeedID    string `json:"seed_id"`
	Asset     string `json:"asset"`
	Amount    int64  `json:"amount"`
	Version   int64  `json:"version"`
	Sequence  int64  `json:"sequence"`
	Timestamp int64  `json:"timestamp"`
}

func parseReservesSeeded(data []byte) (*event.ReservesSeeded, error) {
	var j reservesSeededJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse ReservesSeeded: %w", err)
	}
	seedID, err := uuid.Parse(j.SeedID)
	if err != nil {
		return nil, fmt.Errorf("parse seed_id: %w", err)
	}
	return &event.ReservesSeeded{
		SeedID:    seedID,
		AssetID:   j.Asset,
		Amount:    j.Amount,
		Version:   j.Version,
		Sequence:  j.Sequence,
		Timestamp: j.Timestamp,
	}, nil
}

type reserveStakedJSON struct {
	StakeID   string `json:"stake_id"`
	UserID    string `json:"user_id"`
	Amount    int64  `json:"amount"`
	Version   int64  `json:"version"`
	Sequence  int64  `json:"sequence"`
	Timestamp int64  `json:"timestamp"`
}

func parseReserveStaked(data []byte) (*event.ReserveStaked, error) {
	var j reserveStakedJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse ReserveStaked: %w", err)
	}
	stakeID, err := uuid.Parse(j.StakeID)
	if err != nil {
		return nil, fmt.Errorf("parse stake_id: %w", err)
	}
	userID, err := uuid.Parse(j.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user_id: %w", err)
	}
	return &event.ReserveStaked{
		StakeID:   stakeID,
		UserID:    userID,
		Amount:    j.Amount,
		Version:   j.Version,
		Sequence:  j.Sequence,
		Timestamp: j.Timestamp,
	}, nil
}

type forceUnlockJSON struct {
	ObligationID string `json:"obligation_id"`
	Version      int64  `json:"version"`
	Sequence     int64  `json:"sequence"`
	Timestamp    int64  `json:"timestamp"`
}

func parseObligationForceUnlocked(data []byte) (*event.ObligationForceUnlocked, error) {
	var j forceUnlockJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse ObligationForceUnlocked: %w", err)
	}
	obligationID, err := uuid.Parse(j.ObligationID)
	if err != nil {
		return nil, fmt.Errorf("parse obligation_id: %w", err)
	}
	return &event.ObligationForceUnlocked{
		ObligationID: obligationID,
		Version:      j.Version,
		Sequence:     j.Sequence,
		Timestamp:    j.Timestamp,
	}, nil
}
