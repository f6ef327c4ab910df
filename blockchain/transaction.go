package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

// ErrMissingPrivateKey is returned when an operation that must sign a
// transaction is given a wallet without a private key.
var ErrMissingPrivateKey = errors.New("missing private key")

// FeeOptions carries explicit EIP-1559 gas settings in gwei. Both fields must
// be set; pass a nil *FeeOptions to use the node's suggested legacy gas price
// instead.
type FeeOptions struct {
	MaxFeeGwei      decimal.Decimal
	MaxPriorityGwei decimal.Decimal
}

func (f *FeeOptions) validate() error {
	if f == nil {
		return nil
	}
	if f.MaxFeeGwei.IsZero() || f.MaxPriorityGwei.IsZero() {
		return errors.New("both max fee and max priority fee must be set")
	}
	return nil
}

// parsePrivateKey decodes a hex-encoded secp256k1 private key, with or
// without a 0x prefix.
func parsePrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	if privateKeyHex == "" {
		return nil, ErrMissingPrivateKey
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// signAndSend builds, signs and submits a single transaction and returns its
// hash.
func (c *Client) signAndSend(
	ctx context.Context,
	key *ecdsa.PrivateKey,
	nonce uint64,
	to common.Address,
	value *big.Int,
	gasLimit uint64,
	data []byte,
	fees *FeeOptions,
) (common.Hash, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	if value == nil {
		value = new(big.Int)
	}

	var tx *types.Transaction
	if fees != nil {
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: GweiToWei(fees.MaxPriorityGwei),
			GasFeeCap: GweiToWei(fees.MaxFeeGwei),
			Gas:       gasLimit,
			To:        &to,
			Value:     value,
			Data:      data,
		})
	} else {
		gasPrice, err := c.eth.SuggestGasPrice(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to fetch gas price: %w", err)
		}
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gasLimit,
			To:       &to,
			Value:    value,
			Data:     data,
		})
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	return signed.Hash(), nil
}
