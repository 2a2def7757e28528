package model

// Package is a purchasable bundle of coins. Price is in minor currency units.
type Package struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Coins int    `json:"coins"`
	Bonus int    `json:"bonus"`
	Price int64  `json:"price"`
}

func (p Package) TotalCoins() int {
	return p.Coins + p.Bonus
}
