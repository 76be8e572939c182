package ledger

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Creek-Finance/lendcore/internal/event"
)

// JournalGenerator creates balanced journal batches from events
type JournalGenerator struct {
	sequence       int64
	balanceTracker *BalanceTracker // Reference for pre-checks
}

func NewJournalGenerator(startSequence int64, tracker *BalanceTracker) *JournalGenerator {
	return &JournalGenerator{
		sequence:       startSequence,
		balanceTracker: tracker,
	}
}

// GenerateCollateralDeposited creates journals for a deposit.
// Moves funds: external:deposits -> user:collateral
func (jg *JournalGenerator) GenerateCollateralDeposited(
	evt *event.CollateralDeposited,
	assetID AssetID,
) (*Batch, error) {
	batchID := uuid.New()

	batch := &Batch{
		BatchID:   batchID,
		EventRef:  evt.DepositID.String(),
		Sequence:  jg.sequence,
		Timestamp: evt.Timestamp,
		Journals:  make([]Journal, 0, 1),
	}

	journal := Journal{
		JournalID:     uuid.New(),
		BatchID:       batchID,
		EventRef:      evt.DepositID.String(),
		Sequence:      jg.sequence,
		DebitAccount:  NewUserAccountKey(evt.UserID, SubTypeCollateral, assetID),
		CreditAccount: NewExternalAccountKey(SubTypeExternalDeposits, assetID),
		AssetID:       assetID,
		Amount:        evt.Amount,
		JournalType:   JournalTypeCollateralDeposit,
		Timestamp:     evt.Timestamp,
	}

	batch.Journals = append(batch.Journals, journal)
	jg.sequence++

	return batch, nil
}

// GenerateCollateralWithdrawn creates journals for a withdrawal.
// Pre-check: user must hold at least the withdrawn amount as collateral.
// Moves funds: user:collateral -> external:withdrawals
func (jg *JournalGenerator) GenerateCollateralWithdrawn(
	evt *event.CollateralWithdrawn,
	assetID AssetID,
) (*Batch, error) {
	if err := jg.balanceTracker.ValidateSufficientCollateral(evt.UserID, assetID, evt.Amount); err != nil {
		return nil, fmt.Errorf("withdrawal pre-check failed: %w", err)
	}

	batchID := uuid.New()

	batch := &Batch{
		BatchID:   batchID,
		EventRef:  evt.WithdrawalID.String(),
		Sequence:  jg.sequence,
		Timestamp: evt.Timestamp,
		Journals:  make([]Journal, 0, 1),
	}

	journal := Journal{
		JournalID:     uuid.New(),
		BatchID:       batchID,
		EventRef:      evt.WithdrawalID.String(),
		Sequence:      jg.sequence,
		DebitAccount:  NewExternalAccountKey(SubTypeExternalWithdrawals, assetID),
		CreditAccount: NewUserAccountKey(evt.UserID, SubTypeCollateral, assetID),
		AssetID:       assetID,
		Amount:        evt.Amount,
		JournalType:   JournalTypeCollateralWithdrawal,
		Timestamp:     evt.Timestamp,
	}

	batch.Journals = append(batch.Journals, journal)
	jg.sequence++

	return batch, nil
}

// GenerateBorrowed creates journals for a loan disbursement.
// Pre-check: the pool must hold enough cash.
// Two legs under one batch:
//
//	user:debt       <- external:borrows   (principal owed)
//	external:borrows <- system:pool_cash  (cash leaves the pool)
//
// Net effect: pool cash down, user debt up, borrows account flat.
func (jg *JournalGenerator) GenerateBorrowed(
	evt *event.Borrowed,
	assetID AssetID,
) (*Batch, error) {
	if err := jg.balanceTracker.ValidateSufficientPoolCash(assetID, evt.Amount); err != nil {
		return nil, fmt.Errorf("borrow pre-check failed: %w", err)
	}

	batchID := uuid.New()

	batch := &Batch{
		BatchID:   batchID,
		EventRef:  evt.BorrowID.String(),
		Sequence:  jg.sequence,
		Timestamp: evt.Timestamp,
		Journals:  make([]Journal, 0, 2),
	}

	principal := Journal{
		JournalID:     uuid.New(),
		BatchID:       batchID,
		EventRef:      evt.BorrowID.String(),
		Sequence:      jg.sequence,
		DebitAccount:  NewUserAccountKey(evt.UserID, SubTypeDebt, assetID),
		CreditAccount: NewExternalAccountKey(SubTypeExternalBorrows, assetID),
		AssetID:       assetID,
		Amount:        evt.Amount,
		JournalType:   JournalTypeBorrowDisbursement,
		Timestamp:     evt.Timestamp,
	}

	cashOut := Journal{
		JournalID:     uuid.New(),
		BatchID:       batchID,
		EventRef:      evt.BorrowID.String(),
		Sequence:      jg.sequence,
		DebitAccount:  NewExternalAccountKey(SubTypeExternalBorrows, assetID),
		CreditAccount: NewSystemAccountKey("pool", SubTypeSystemPoolCash, assetID),
		AssetID:       assetID,
		Amount:        evt.Amount,
		JournalType:   JournalTypeBorrowDisbursement,
		Timestamp:     evt.Timestamp,
	}

	batch.Journals = append(batch.Journals, principal, cashOut)
	jg.sequence++

	return batch, nil
}

// GenerateRepaid creates journals for a repayment, the mirror of a borrow.
// The amount is what actually settled (caps and refunds already applied).
// The user:debt account tracks disbursed principal, so once accrued
// interest is paid on top of principal the account runs below zero. The
// authoritative owed figure is the scaled-debt model, not this account.
func (jg *JournalGenerator) GenerateRepaid(
	evt *event.Repaid,
	assetID AssetID,
	settled int64,
) (*Batch, error) {
	batchID := uuid.New()

	batch := &Batch{
		BatchID:   batchID,
		EventRef:  evt.RepayID.String(),
		Sequence:  jg.sequence,
		Timestamp: evt.Timestamp,
		Journals:  make([]Journal, 0, 2),
	}

	cashIn := Journal{
		JournalID:     uuid.New(),
		BatchID:       batchID,
		EventRef:      evt.RepayID.String(),
		Sequence:      jg.sequence,
		DebitAccount:  NewSystemAccountKey("pool", SubTypeSystemPoolCash, assetID),
		CreditAccount: NewExternalAccountKey(SubTypeExternalRepayments, assetID),
		AssetID:       assetID,
		Amount:        settled,
		JournalType:   JournalTypeRepayment,
		Timestamp:     evt.Timestamp,
	}

	debtRelief := Journal{
		JournalID:     uuid.New(),
		BatchID:       batchID,
		EventRef:      evt.RepayID.String(),
		Sequence:      jg.sequence,
		DebitAccount:  NewExternalAccountKey(SubTypeExternalRepayments, assetID),
		CreditAccount: NewUserAccountKey(evt.UserID, SubTypeDebt, assetID),
		AssetID:       assetID,
		Amount:        settled,
		JournalType:   JournalTypeRepayment,
		Timestamp:     evt.Timestamp,
	}

	batch.Journals = append(batch.Journals, cashIn, debtRelief)
	jg.sequence++

	return batch, nil
}

// GenerateLiquidated creates journals for one liquidation step.
// Pre-check: the owner must hold at least the seized collateral.
// Three legs under one batch:
//
//	system:pool_cash     <- external:repayments  (liquidator pays in)
//	external:repayments  <- owner user:debt      (debt relief)
//	external:seized      <- owner user:collateral (seized collateral out)
func (jg *JournalGenerator) GenerateLiquidated(
	evt *event.Liquidated,
	ownerID uuid.UUID,
	debtAssetID AssetID,
	seizeAssetID AssetID,
	repaid int64,
	seized int64,
) (*Batch, error) {
	if err := jg.balanceTracker.ValidateSufficientCollateral(ownerID, seizeAssetID, seized); err != nil {
		return nil, fmt.Errorf("liquidation pre-check failed: %w", err)
	}

	batchID := uuid.New()

	batch := &Batch{
		BatchID:   batchID,
		EventRef:  evt.LiquidationID.String(),
		Sequence:  jg.sequence,
		Timestamp: evt.Timestamp,
		Journals:  make([]Journal, 0, 3),
	}

	cashIn := Journal{
		JournalID:     uuid.New(),
		BatchID:       batchID,
		EventRef:      evt.LiquidationID.String(),
		Sequence:      jg.sequence,
		DebitAccount:  NewSystemAccountKey("pool", SubTypeSystemPoolCash, debtAssetID),
		CreditAccount: NewExternalAccountKey(SubTypeExternalRepayments, debtAssetID),
		AssetID:       debtAssetID,
		Amount:        repaid,
		JournalType:   JournalTypeLiquidationRepay,
		Timestamp:     evt.Timestamp,
	}

	debtRelief := Journal{
		JournalID:     uuid.New(),
		BatchID:       batchID,
		EventRef:      evt.LiquidationID.String(),
		Sequence:      jg.sequence,
		DebitAccount:  NewExternalAccountKey(SubTypeExternalRepayments, debtAssetID),
		CreditAccount: NewUserAccountKey(ownerID, SubTypeDebt, debtAssetID),
		AssetID:       debtAssetID,
		Amount:        repaid,
		JournalType:   JournalTypeLiquidationRepay,
		Timestamp:     evt.Timestamp,
	}

	seize := Journal{
		JournalID:     uuid.New(),
		BatchID:       batchID,
		EventRef:      evt.LiquidationID.String(),
		Sequence:      jg.sequence,
		DebitAccount:  NewExternalAccountKey(SubTypeExternalSeized, seizeAssetID),
		CreditAccount: NewUserAccountKey(ownerID, SubTypeCollateral, seizeAssetID),
		AssetID:       seizeAssetID,
		Amount:        seized,
		JournalType:   JournalTypeLiquidationSeize,
		Timestamp:     evt.Timestamp,
	}

	batch.Journals = append(batch.Journals, cashIn, debtRelief, seize)
	jg.sequence++

	return batch, nil
}

// GenerateFlashLoanFee records the net effect of a flash loan. Principal
// out and back cancel within the event, so only the fee moves.
// Moves funds: external:repayments -> system:fees
func (jg *JournalGenerator) GenerateFlashLoanFee(
	evt *event.FlashLoanExecuted,
	assetID AssetID,
	fee int64,
) (*Batch, error) {
	batchID := uuid.New()

	batch := &Batch{
		BatchID:   batchID,
		EventRef:  evt.LoanID.String(),
		Sequence:  jg.sequence,
		Timestamp: evt.Timestamp,
		Journals:  make([]Journal, 0, 1),
	}

	journal := Journal{
		JournalID:     uuid.New(),
		BatchID:       batchID,
		EventRef:      evt.LoanID.String(),
		Sequence:      jg.sequence,
		DebitAccount:  NewSystemAccountKey("protocol", SubTypeSystemFees, assetID),
		CreditAccount: NewExternalAccountKey(SubTypeExternalRepayments, assetID),
		AssetID:       assetID,
		Amount:        fee,
		JournalType:   JournalTypeFlashLoanFee,
		Timestamp:     evt.Timestamp,
	}

	batch.Journals = append(batch.Journals, journal)
	jg.sequence++

	return batch, nil
}

// GenerateReservesSeeded funds a pool with lendable cash.
// Moves funds: external:deposits -> system:pool_cash
func (jg *JournalGenerator) GenerateReservesSeeded(
	evt *event.ReservesSeeded,
	assetID AssetID,
) (*Batch, error) {
	batchID := uuid.New()

	batch := &Batch{
		BatchID:   batchID,
		EventRef:  evt.SeedID.String(),
		Sequence:  jg.sequence,
		Timestamp: evt.Timestamp,
		Journals:  make([]Journal, 0, 1),
	}

	journal := Journal{
		JournalID:     uuid.New(),
		BatchID:       batchID,
		EventRef:      evt.SeedID.String(),
		Sequence:      jg.sequence,
		DebitAccount:  NewSystemAccountKey("pool", SubTypeSystemPoolCash, assetID),
		CreditAccount: NewExternalAccountKey(SubTypeExternalDeposits, assetID),
		AssetID:       assetID,
		Amount:        evt.Amount,
		JournalType:   JournalTypeReserveSeed,
		Timestamp:     evt.Timestamp,
	}

	batch.Journals = append(batch.Journals, journal)
	jg.sequence++

	return batch, nil
}

// SetSequence aligns the generator with the engine's event sequence
func (jg *JournalGenerator) SetSequence(seq int64) {
	jg.sequence = seq
}
