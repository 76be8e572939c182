package ledger_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/Creek-Finance/lendcore/internal/event"
	"github.com/Creek-Finance/lendcore/internal/ledger"
)

// ============================================================================
// Test: AccountKey
// ============================================================================

func TestAccountKey_UserPath(t *testing.T) {
	userID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	assetID, _ := ledger.GetAssetID("USDC")
	key := ledger.NewUserAccountKey(userID, ledger.SubTypeCollateral, assetID)

	path := key.AccountPath()
	expected := "user:550e8400-e29b-41d4-a716-446655440000:collateral:USDC"
	if path != expected {
		t.Errorf("got %q, want %q", path, expected)
	}
}

func TestAccountKey_SystemPath(t *testing.T) {
	assetID, _ := ledger.GetAssetID("USDC")
	key := ledger.NewSystemAccountKey("pool", ledger.SubTypeSystemPoolCash, assetID)

	path := key.AccountPath()
	if path != "system:pool_cash:USDC" {
		t.Errorf("got %q, want %q", path, "system:pool_cash:USDC")
	}
}

func TestAccountKey_ExternalPath(t *testing.T) {
	assetID, _ := ledger.GetAssetID("BTC")
	key := ledger.NewExternalAccountKey(ledger.SubTypeExternalSeized, assetID)

	path := key.AccountPath()
	if path != "external:seized:BTC" {
		t.Errorf("got %q, want %q", path, "external:seized:BTC")
	}
}

func TestGetAssetID_Known(t *testing.T) {
	id, ok := ledger.GetAssetID("USDC")
	if !ok {
		t.Fatal("USDC should be a known asset")
	}
	if id == 0 {
		t.Error("USDC asset ID should be non-zero")
	}
}

func TestGetAssetID_Unknown(t *testing.T) {
	_, ok := ledger.GetAssetID("DOGE")
	if ok {
		t.Error("DOGE should not be a known asset")
	}
}

func TestRegisterAsset_Idempotent(t *testing.T) {
	first := ledger.RegisterAsset("SOL")
	second := ledger.RegisterAsset("SOL")
	if first != second {
		t.Errorf("re-registering should return the same ID: got %d and %d", first, second)
	}

	name, ok := ledger.GetAssetName(first)
	if !ok || name != "SOL" {
		t.Errorf("got %q, want %q", name, "SOL")
	}
}

// ============================================================================
// Test: BalanceTracker
// ============================================================================

func TestBalanceTracker_InitialBalanceZero(t *testing.T) {
	bt := ledger.NewBalanceTracker()
	userID := uuid.New()
	assetID, _ := ledger.GetAssetID("USDC")

	balance := bt.GetUserCollateral(userID, assetID)
	if balance != 0 {
		t.Errorf("initial balance should be 0, got %d", balance)
	}
}

func TestBalanceTracker_ApplyJournal(t *testing.T) {
	bt := ledger.NewBalanceTracker()
	userID := uuid.New()
	assetID, _ := ledger.GetAssetID("USDC")

	// Simulate deposit: debit user:collateral, credit external:deposits
	j := ledger.Journal{
		JournalID:     uuid.New(),
		BatchID:       uuid.New(),
		DebitAccount:  ledger.NewUserAccountKey(userID, ledger.SubTypeCollateral, assetID),
		CreditAccount: ledger.NewExternalAccountKey(ledger.SubTypeExternalDeposits, assetID),
		AssetID:       assetID,
		Amount:        1_000_000,
	}

	bt.ApplyJournal(j)

	collateral := bt.GetUserCollateral(userID, assetID)
	if collateral != 1_000_000 {
		t.Errorf("collateral: got %d, want 1_000_000", collateral)
	}
}

func TestBalanceTracker_GlobalBalanceZeroSum(t *testing.T) {
	bt := ledger.NewBalanceTracker()
	userID := uuid.New()
	assetID, _ := ledger.GetAssetID("USDC")

	// Deposit
	bt.ApplyJournal(ledger.Journal{
		JournalID:     uuid.New(),
		BatchID:       uuid.New(),
		DebitAccount:  ledger.NewUserAccountKey(userID, ledger.SubTypeCollateral, assetID),
		CreditAccount: ledger.NewExternalAccountKey(ledger.SubTypeExternalDeposits, assetID),
		AssetID:       assetID,
		Amount:        1_000_000,
	})

	// Seed the pool
	bt.ApplyJournal(ledger.Journal{
		JournalID:     uuid.New(),
		BatchID:       uuid.New(),
		DebitAccount:  ledger.NewSystemAccountKey("pool", ledger.SubTypeSystemPoolCash, assetID),
		CreditAccount: ledger.NewExternalAccountKey(ledger.SubTypeExternalDeposits, assetID),
		AssetID:       assetID,
		Amount:        300_000,
	})

	// Global balance should still be zero
	totals := bt.ComputeGlobalBalance()
	for aid, total := range totals {
		if total != 0 {
			t.Errorf("asset %d has non-zero global balance: %d", aid, total)
		}
	}
}

func TestBalanceTracker_ValidateSufficientCollateral(t *testing.T) {
	bt := ledger.NewBalanceTracker()
	userID := uuid.New()
	assetID, _ := ledger.GetAssetID("BTC")

	// No balance, should fail
	err := bt.ValidateSufficientCollateral(userID, assetID, 100)
	if err == nil {
		t.Error("expected error for insufficient collateral")
	}

	bt.ApplyJournal(ledger.Journal{
		JournalID:     uuid.New(),
		BatchID:       uuid.New(),
		DebitAccount:  ledger.NewUserAccountKey(userID, ledger.SubTypeCollateral, assetID),
		CreditAccount: ledger.NewExternalAccountKey(ledger.SubTypeExternalDeposits, assetID),
		AssetID:       assetID,
		Amount:        1_000,
	})

	err = bt.ValidateSufficientCollateral(userID, assetID, 1_000)
	if err != nil {
		t.Errorf("should have sufficient collateral: %v", err)
	}

	err = bt.ValidateSufficientCollateral(userID, assetID, 1_001)
	if err == nil {
		t.Error("expected error for 1_001 > 1_000")
	}
}

func TestBalanceTracker_SnapshotRestore(t *testing.T) {
	bt := ledger.NewBalanceTracker()
	userID := uuid.New()
	assetID, _ := ledger.GetAssetID("USDC")

	bt.ApplyJournal(ledger.Journal{
		JournalID:     uuid.New(),
		BatchID:       uuid.New(),
		DebitAccount:  ledger.NewUserAccountKey(userID, ledger.SubTypeCollateral, assetID),
		CreditAccount: ledger.NewExternalAccountKey(ledger.SubTypeExternalDeposits, assetID),
		AssetID:       assetID,
		Amount:        999,
	})

	snap := bt.Snapshot()
	if len(snap) == 0 {
		t.Fatal("snapshot should not be empty")
	}

	// Mutating snapshot should not affect tracker
	for k := range snap {
		snap[k] = 0
	}
	if bt.GetUserCollateral(userID, assetID) != 999 {
		t.Error("tracker balance should not be affected by snapshot mutation")
	}

	// Restore into a fresh tracker
	fresh := ledger.NewBalanceTracker()
	fresh.Restore(bt.Snapshot())
	if fresh.GetUserCollateral(userID, assetID) != 999 {
		t.Error("restored tracker should carry the original balance")
	}
}

// ============================================================================
// Test: Batch Validation
// ============================================================================

func TestBatchValidate_EmptyBatch_Fails(t *testing.T) {
	batch := &ledger.Batch{
		BatchID:  uuid.New(),
		Journals: []ledger.Journal{},
	}

	err := batch.Validate()
	if err == nil {
		t.Error("empty batch should fail validation")
	}
}

func TestBatchValidate_ZeroAmount_Fails(t *testing.T) {
	batchID := uuid.New()
	assetID, _ := ledger.GetAssetID("USDC")

	batch := &ledger.Batch{
		BatchID: batchID,
		Journals: []ledger.Journal{
			{
				JournalID:     uuid.New(),
				BatchID:       batchID,
				DebitAccount:  ledger.NewUserAccountKey(uuid.New(), ledger.SubTypeCollateral, assetID),
				CreditAccount: ledger.NewExternalAccountKey(ledger.SubTypeExternalDeposits, assetID),
				AssetID:       assetID,
				Amount:        0,
			},
		},
	}

	err := batch.Validate()
	if err == nil {
		t.Error("zero amount should fail validation")
	}
}

func TestBatchValidate_SelfTransfer_Fails(t *testing.T) {
	batchID := uuid.New()
	assetID, _ := ledger.GetAssetID("USDC")
	sameAccount := ledger.NewUserAccountKey(uuid.New(), ledger.SubTypeCollateral, assetID)

	batch := &ledger.Batch{
		BatchID: batchID,
		Journals: []ledger.Journal{
			{
				JournalID:     uuid.New(),
				BatchID:       batchID,
				DebitAccount:  sameAccount,
				CreditAccount: sameAccount,
				AssetID:       assetID,
				Amount:        100,
			},
		},
	}

	err := batch.Validate()
	if err == nil {
		t.Error("self-transfer should fail validation")
	}
}

func TestBatchValidate_MismatchedBatchID_Fails(t *testing.T) {
	batchID := uuid.New()
	assetID, _ := ledger.GetAssetID("USDC")

	batch := &ledger.Batch{
		BatchID: batchID,
		Journals: []ledger.Journal{
			{
				JournalID:     uuid.New(),
				BatchID:       uuid.New(), // Different batch ID
				DebitAccount:  ledger.NewUserAccountKey(uuid.New(), ledger.SubTypeCollateral, assetID),
				CreditAccount: ledger.NewExternalAccountKey(ledger.SubTypeExternalDeposits, assetID),
				AssetID:       assetID,
				Amount:        100,
			},
		},
	}

	err := batch.Validate()
	if err == nil {
		t.Error("mismatched batch ID should fail validation")
	}
}

// ============================================================================
// Test: JournalGenerator
// ============================================================================

func TestGenerator_DepositThenWithdraw(t *testing.T) {
	bt := ledger.NewBalanceTracker()
	jg := ledger.NewJournalGenerator(1, bt)
	userID := uuid.New()
	assetID, _ := ledger.GetAssetID("BTC")

	dep := &event.CollateralDeposited{
		DepositID: uuid.New(),
		UserID:    userID,
		AssetID:   "BTC",
		Amount:    5_000_000_000,
		Timestamp: 1_700_000_000,
	}
	batch, err := jg.GenerateCollateralDeposited(dep, assetID)
	if err != nil {
		t.Fatalf("deposit generation failed: %v", err)
	}
	if err := bt.ApplyBatch(batch); err != nil {
		t.Fatalf("deposit apply failed: %v", err)
	}
	if bt.GetUserCollateral(userID, assetID) != 5_000_000_000 {
		t.Errorf("collateral after deposit: got %d, want 5_000_000_000", bt.GetUserCollateral(userID, assetID))
	}

	wd := &event.CollateralWithdrawn{
		WithdrawalID: uuid.New(),
		UserID:       userID,
		AssetID:      "BTC",
		Amount:       2_000_000_000,
		Timestamp:    1_700_000_100,
	}
	batch, err = jg.GenerateCollateralWithdrawn(wd, assetID)
	if err != nil {
		t.Fatalf("withdrawal generation failed: %v", err)
	}
	if err := bt.ApplyBatch(batch); err != nil {
		t.Fatalf("withdrawal apply failed: %v", err)
	}
	if bt.GetUserCollateral(userID, assetID) != 3_000_000_000 {
		t.Errorf("collateral after withdrawal: got %d, want 3_000_000_000", bt.GetUserCollateral(userID, assetID))
	}
}

func TestGenerator_WithdrawWithoutCollateral_Fails(t *testing.T) {
	bt := ledger.NewBalanceTracker()
	jg := ledger.NewJournalGenerator(1, bt)
	assetID, _ := ledger.GetAssetID("BTC")

	wd := &event.CollateralWithdrawn{
		WithdrawalID: uuid.New(),
		UserID:       uuid.New(),
		AssetID:      "BTC",
		Amount:       1,
		Timestamp:    1_700_000_000,
	}
	_, err := jg.GenerateCollateralWithdrawn(wd, assetID)
	if err == nil {
		t.Error("withdrawal against empty collateral should fail pre-check")
	}
}

func TestGenerator_BorrowRepayRoundTrip(t *testing.T) {
	bt := ledger.NewBalanceTracker()
	jg := ledger.NewJournalGenerator(1, bt)
	userID := uuid.New()
	usdc, _ := ledger.GetAssetID("USDC")

	// Seed the pool first
	seed := &event.ReservesSeeded{
		SeedID:    uuid.New(),
		AssetID:   "USDC",
		Amount:    100_000_000_000,
		Timestamp: 1_700_000_000,
	}
	batch, err := jg.GenerateReservesSeeded(seed, usdc)
	if err != nil {
		t.Fatalf("seed generation failed: %v", err)
	}
	if err := bt.ApplyBatch(batch); err != nil {
		t.Fatalf("seed apply failed: %v", err)
	}

	borrow := &event.Borrowed{
		BorrowID:  uuid.New(),
		UserID:    userID,
		AssetID:   "USDC",
		Amount:    800_000_000_000 / 10,
		Timestamp: 1_700_000_100,
	}
	batch, err = jg.GenerateBorrowed(borrow, usdc)
	if err != nil {
		t.Fatalf("borrow generation failed: %v", err)
	}
	if err := bt.ApplyBatch(batch); err != nil {
		t.Fatalf("borrow apply failed: %v", err)
	}

	if bt.GetUserDebt(userID, usdc) != borrow.Amount {
		t.Errorf("debt after borrow: got %d, want %d", bt.GetUserDebt(userID, usdc), borrow.Amount)
	}
	if bt.GetPoolCash(usdc) != seed.Amount-borrow.Amount {
		t.Errorf("pool cash after borrow: got %d, want %d", bt.GetPoolCash(usdc), seed.Amount-borrow.Amount)
	}

	repay := &event.Repaid{
		RepayID:   uuid.New(),
		UserID:    userID,
		AssetID:   "USDC",
		Amount:    borrow.Amount,
		Timestamp: 1_700_000_200,
	}
	batch, err = jg.GenerateRepaid(repay, usdc, borrow.Amount)
	if err != nil {
		t.Fatalf("repay generation failed: %v", err)
	}
	if err := bt.ApplyBatch(batch); err != nil {
		t.Fatalf("repay apply failed: %v", err)
	}

	if bt.GetUserDebt(userID, usdc) != 0 {
		t.Errorf("debt after full repay: got %d, want 0", bt.GetUserDebt(userID, usdc))
	}
	if bt.GetPoolCash(usdc) != seed.Amount {
		t.Errorf("pool cash after full repay: got %d, want %d", bt.GetPoolCash(usdc), seed.Amount)
	}

	v := ledger.NewInvariantValidator(bt)
	if err := v.ValidateGlobalBalance(); err != nil {
		t.Errorf("ledger should stay zero-sum: %v", err)
	}
}

func TestGenerator_BorrowExceedsPoolCash_Fails(t *testing.T) {
	bt := ledger.NewBalanceTracker()
	jg := ledger.NewJournalGenerator(1, bt)
	usdc, _ := ledger.GetAssetID("USDC")

	borrow := &event.Borrowed{
		BorrowID:  uuid.New(),
		UserID:    uuid.New(),
		AssetID:   "USDC",
		Amount:    1,
		Timestamp: 1_700_000_000,
	}
	_, err := jg.GenerateBorrowed(borrow, usdc)
	if err == nil {
		t.Error("borrow against an empty pool should fail pre-check")
	}
}

func TestGenerator_Liquidation(t *testing.T) {
	bt := ledger.NewBalanceTracker()
	jg := ledger.NewJournalGenerator(1, bt)
	owner := uuid.New()
	usdc, _ := ledger.GetAssetID("USDC")
	btc, _ := ledger.GetAssetID("BTC")

	// Owner posts BTC and owes USDC.
	dep := &event.CollateralDeposited{
		DepositID: uuid.New(),
		UserID:    owner,
		AssetID:   "BTC",
		Amount:    1_000_000_000_000,
		Timestamp: 1_700_000_000,
	}
	batch, _ := jg.GenerateCollateralDeposited(dep, btc)
	if err := bt.ApplyBatch(batch); err != nil {
		t.Fatalf("deposit apply failed: %v", err)
	}

	liq := &event.Liquidated{
		LiquidationID: uuid.New(),
		ObligationID:  uuid.New(),
		LiquidatorID:  uuid.New(),
		SeizeAssetID:  "BTC",
		MaxRepay:      400_000_000_000,
		Timestamp:     1_700_000_100,
	}
	batch, err := jg.GenerateLiquidated(liq, owner, usdc, btc, 325_000_000_000, 380_000_000_000)
	if err != nil {
		t.Fatalf("liquidation generation failed: %v", err)
	}
	if len(batch.Journals) != 3 {
		t.Fatalf("liquidation batch should carry 3 legs, got %d", len(batch.Journals))
	}
	if err := bt.ApplyBatch(batch); err != nil {
		t.Fatalf("liquidation apply failed: %v", err)
	}

	if bt.GetUserCollateral(owner, btc) != 1_000_000_000_000-380_000_000_000 {
		t.Errorf("collateral after seize: got %d", bt.GetUserCollateral(owner, btc))
	}
	if bt.GetPoolCash(usdc) != 325_000_000_000 {
		t.Errorf("pool cash after liquidation repay: got %d", bt.GetPoolCash(usdc))
	}

	v := ledger.NewInvariantValidator(bt)
	if err := v.ValidateGlobalBalance(); err != nil {
		t.Errorf("ledger should stay zero-sum: %v", err)
	}
	if err := v.ValidateUserCollateralNonNegative(owner, btc); err != nil {
		t.Errorf("owner collateral should stay non-negative: %v", err)
	}
}

func TestGenerator_LiquidationSeizeExceedsCollateral_Fails(t *testing.T) {
	bt := ledger.NewBalanceTracker()
	jg := ledger.NewJournalGenerator(1, bt)
	usdc, _ := ledger.GetAssetID("USDC")
	btc, _ := ledger.GetAssetID("BTC")

	liq := &event.Liquidated{
		LiquidationID: uuid.New(),
		ObligationID:  uuid.New(),
		LiquidatorID:  uuid.New(),
		SeizeAssetID:  "BTC",
		MaxRepay:      100,
		Timestamp:     1_700_000_000,
	}
	_, err := jg.GenerateLiquidated(liq, uuid.New(), usdc, btc, 100, 120)
	if err == nil {
		t.Error("seizing more than posted collateral should fail pre-check")
	}
}

func TestGenerator_FlashLoanFee(t *testing.T) {
	bt := ledger.NewBalanceTracker()
	jg := ledger.NewJournalGenerator(1, bt)
	usdc, _ := ledger.GetAssetID("USDC")

	loan := &event.FlashLoanExecuted{
		LoanID:      uuid.New(),
		BorrowerID:  uuid.New(),
		AssetID:     "USDC",
		Amount:      10_000_000_000_000,
		RepayAmount: 10_010_000_000_000,
		Timestamp:   1_700_000_000,
	}
	batch, err := jg.GenerateFlashLoanFee(loan, usdc, 10_000_000_000)
	if err != nil {
		t.Fatalf("flash loan fee generation failed: %v", err)
	}
	if err := bt.ApplyBatch(batch); err != nil {
		t.Fatalf("flash loan fee apply failed: %v", err)
	}

	if bt.GetProtocolFees(usdc) != 10_000_000_000 {
		t.Errorf("protocol fees: got %d, want 10_000_000_000", bt.GetProtocolFees(usdc))
	}

	v := ledger.NewInvariantValidator(bt)
	if err := v.ValidateGlobalBalance(); err != nil {
		t.Errorf("ledger should stay zero-sum: %v", err)
	}
}
