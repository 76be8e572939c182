package state

import "fmt"

// Asset is a listed collateral or debt type. Assets are created by admin
// action and never deleted, only deactivated.
type Asset struct {
	ID       string
	Decimals int32 // informational; all amounts are stored at the 9-decimal scale
	Active   bool

	// Debt-asset limits. Zero BorrowCap means uncapped.
	MinBorrow int64
	BorrowCap int64
}

var (
	// Default listing (MVP). USDC is the single debt asset; CREEK is the
	// reserve asset whose EMA prices the governance derivative gCREEK.
	DefaultAssets = map[string]*Asset{
		"USDC":   {ID: "USDC", Decimals: 9, Active: true, MinBorrow: 1_000_000_000, BorrowCap: 0},
		"BTC":    {ID: "BTC", Decimals: 9, Active: true},
		"ETH":    {ID: "ETH", Decimals: 9, Active: true},
		"CREEK":  {ID: "CREEK", Decimals: 9, Active: true},
		"sCREEK": {ID: "sCREEK", Decimals: 9, Active: true},
		"gCREEK": {ID: "gCREEK", Decimals: 9, Active: true},
	}
)

const (
	DebtAssetID    = "USDC"
	ReserveAssetID = "CREEK"

	// Staking derivatives minted per unit of reserve asset.
	StakedDerivativeID     = "sCREEK"
	GovernanceDerivativeID = "gCREEK"
)

// AssetRegistry holds the listed assets.
type AssetRegistry struct {
	assets map[string]*Asset
}

func NewAssetRegistry() *AssetRegistry {
	assets := make(map[string]*Asset)
	for k, v := range DefaultAssets {
		a := *v
		assets[k] = &a
	}
	return &AssetRegistry{assets: assets}
}

func (ar *AssetRegistry) Get(id string) (*Asset, bool) {
	a, ok := ar.assets[id]
	return a, ok
}

// Active reports whether an asset is listed and not deactivated.
func (ar *AssetRegistry) Active(id string) bool {
	a, ok := ar.assets[id]
	return ok && a.Active
}

// List registers a new asset. Re-listing an existing ID is rejected.
func (ar *AssetRegistry) List(a *Asset) error {
	if _, ok := ar.assets[a.ID]; ok {
		return fmt.Errorf("%w: asset %s already listed", ErrInvalidParams, a.ID)
	}
	cp := *a
	ar.assets[a.ID] = &cp
	return nil
}

// SetActive flips the active flag. Unknown assets are rejected.
func (ar *AssetRegistry) SetActive(id string, active bool) error {
	a, ok := ar.assets[id]
	if !ok {
		return fmt.Errorf("%w: unknown asset %s", ErrInvalidCoinType, id)
	}
	a.Active = active
	return nil
}
