package blockchain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimal exponents between wei and the display units.
const (
	etherDigits = 18
	gweiDigits  = 9
)

// WeiToEther converts a wei amount to ether.
func WeiToEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -etherDigits)
}

// EtherToWei converts an ether amount to wei, truncating anything below 1 wei.
func EtherToWei(ether decimal.Decimal) *big.Int {
	return ether.Shift(etherDigits).Truncate(0).BigInt()
}

// WeiToGwei converts a wei amount to gwei.
func WeiToGwei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -gweiDigits)
}

// GweiToWei converts a gwei amount to wei, truncating anything below 1 wei.
func GweiToWei(gwei decimal.Decimal) *big.Int {
	return gwei.Shift(gweiDigits).Truncate(0).BigInt()
}
