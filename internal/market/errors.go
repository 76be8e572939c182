package market

import "errors"

var (
	ErrMarketPaused    = errors.New("market: paused")
	ErrVersionMismatch = errors.New("market: version mismatch")
	ErrZeroAmount      = errors.New("market: zero amount")

	ErrBorrowTooMuch      = errors.New("market: borrow too much")
	ErrBorrowTooSmall     = errors.New("market: borrow too small")
	ErrBorrowLimitReached = errors.New("market: borrow limit reached")
	ErrWithdrawTooMuch    = errors.New("market: withdraw too much")
	ErrNoDebt             = errors.New("market: no debt")

	ErrUnableToLiquidate = errors.New("market: unable to liquidate")

	ErrFlashLoanRepayNotEnough  = errors.New("market: flash loan repay not enough")
	ErrFlashLoanExceedSingleCap = errors.New("market: flash loan exceeds single-tx cap")
)
