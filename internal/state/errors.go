package state

import "errors"

var (
	ErrAssetNotActive       = errors.New("state: asset not active")
	ErrInvalidCoinType      = errors.New("state: invalid coin type")
	ErrMaxCollateralReached = errors.New("state: max collateral types reached")
	ErrCollateralNotEnough  = errors.New("state: collateral not enough")
	ErrObligationLocked     = errors.New("state: obligation locked")
	ErrAlreadyLocked        = errors.New("state: already locked")
	ErrUnlockWithWrongKey   = errors.New("state: unlock with wrong key")
	ErrCantForcelyUnlocked  = errors.New("state: cannot force unlock")
	ErrInvalidParams        = errors.New("state: invalid params")
)
