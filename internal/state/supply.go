package state

import "fmt"

// SupplyBook tracks the net circulating supply of protocol-minted
// tokens. It backs the market's TokenMinter: staking burns reserve
// tokens and mints derivative tokens against this book. The book is
// observational, it is not part of the hashed ledger state, so it is
// rebuilt by event replay rather than snapshotted.
type SupplyBook struct {
	supply map[string]int64
}

func NewSupplyBook() *SupplyBook {
	return &SupplyBook{supply: make(map[string]int64)}
}

// Mint increases the tracked supply of an asset.
func (b *SupplyBook) Mint(asset string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("supply: mint amount must be positive, got %d", amount)
	}
	b.supply[asset] += amount
	return nil
}

// Burn decreases the tracked supply of an asset. Net supply may go
// negative for the reserve asset: burns retire tokens the protocol
// never minted itself.
func (b *SupplyBook) Burn(asset string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("supply: burn amount must be positive, got %d", amount)
	}
	b.supply[asset] -= amount
	return nil
}

// Supply returns the net minted supply for an asset.
func (b *SupplyBook) Supply(asset string) int64 {
	return b.supply[asset]
}
