package wallet

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet is a single named row of the wallet table. PrivateKey is optional; a
// wallet without one can be queried but cannot sign.
type Wallet struct {
	Name       string
	Address    string
	PrivateKey string
}

// HasPrivateKey reports whether the wallet can sign transactions.
func (w Wallet) HasPrivateKey() bool {
	return w.PrivateKey != ""
}

// NormalizeAddress validates a hex address and returns its checksummed form.
func NormalizeAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid wallet address %q", address)
	}
	return common.HexToAddress(address).Hex(), nil
}

// AddressFromPrivateKey recovers the checksummed public address controlled by
// the given hex-encoded private key.
func AddressFromPrivateKey(privateKeyHex string) (string, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}
