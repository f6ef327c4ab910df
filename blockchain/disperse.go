package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/shopspring/decimal"
)

// DisperseETH sends amounts[i] ether from sender to recipients[i], one signed
// transaction per recipient, and returns the hashes of the submitted
// transactions. The sends are strictly sequential; on failure the hashes of
// the sends completed so far are returned alongside the error and the
// remaining recipients are not attempted.
func (c *Client) DisperseETH(
	ctx context.Context,
	sender common.Address,
	privateKeyHex string,
	recipients []common.Address,
	amounts []decimal.Decimal,
	fees *FeeOptions,
) ([]common.Hash, error) {
	if len(recipients) != len(amounts) {
		return nil, fmt.Errorf("got %d recipients but %d amounts", len(recipients), len(amounts))
	}
	if err := fees.validate(); err != nil {
		return nil, err
	}

	key, err := parsePrivateKey(privateKeyHex)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}

	balance, err := c.WalletBalance(ctx, sender)
	if err != nil {
		return nil, err
	}
	if balance.LessThanOrEqual(total) {
		return nil, fmt.Errorf("%s balance of %s ETH too low for %s ETH disperse", sender.Hex(), balance, total)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce for %s: %w", sender.Hex(), err)
	}

	hashes := make([]common.Hash, 0, len(recipients))
	for i, recipient := range recipients {
		hash, err := c.signAndSend(ctx, key, nonce+uint64(i), recipient, EtherToWei(amounts[i]), params.TxGas, nil, fees)
		if err != nil {
			return hashes, fmt.Errorf("failed to send %s ETH to %s: %w", amounts[i], recipient.Hex(), err)
		}
		hashes = append(hashes, hash)

		slog.InfoContext(ctx, fmt.Sprintf("Sent %s ETH to %s at hash %s", amounts[i], recipient.Hex(), hash.Hex()))
	}

	return hashes, nil
}

// DisperseERC721 transfers tokenIDs[i] of the given token contract from the
// holding wallet to recipients[i] via safeTransferFrom, one signed transaction
// per recipient, with the same sequential abort-on-first-failure semantics as
// DisperseETH.
func (c *Client) DisperseERC721(
	ctx context.Context,
	holder common.Address,
	privateKeyHex string,
	contract *Contract,
	recipients []common.Address,
	tokenIDs []*big.Int,
	fees *FeeOptions,
) ([]common.Hash, error) {
	if len(recipients) != len(tokenIDs) {
		return nil, fmt.Errorf("got %d recipients but %d token ids", len(recipients), len(tokenIDs))
	}
	if err := fees.validate(); err != nil {
		return nil, err
	}

	key, err := parsePrivateKey(privateKeyHex)
	if err != nil {
		return nil, err
	}

	nonce, err := c.eth.PendingNonceAt(ctx, holder)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce for %s: %w", holder.Hex(), err)
	}

	hashes := make([]common.Hash, 0, len(recipients))
	for i, recipient := range recipients {
		data, err := contract.ABI.Pack("safeTransferFrom", holder, recipient, tokenIDs[i])
		if err != nil {
			return hashes, fmt.Errorf("failed to pack safeTransferFrom for token %s: %w", tokenIDs[i], err)
		}

		gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
			From: holder,
			To:   &contract.Address,
			Data: data,
		})
		if err != nil {
			return hashes, fmt.Errorf("failed to estimate gas for token %s: %w", tokenIDs[i], err)
		}

		hash, err := c.signAndSend(ctx, key, nonce+uint64(i), contract.Address, nil, gasLimit, data, fees)
		if err != nil {
			return hashes, fmt.Errorf("failed to send token %s to %s: %w", tokenIDs[i], recipient.Hex(), err)
		}
		hashes = append(hashes, hash)

		slog.InfoContext(ctx, fmt.Sprintf("Token %s sent from %s to %s at hash %s", tokenIDs[i], holder.Hex(), recipient.Hex(), hash.Hex()))
	}

	return hashes, nil
}
