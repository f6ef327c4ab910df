package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"
)

// TxStatus is the mining status of a submitted transaction.
type TxStatus string

const (
	TxPending TxStatus = "pending"
	TxFailed  TxStatus = "failed"
	TxSuccess TxStatus = "success"
)

// Client wraps an Ethereum node's JSON-RPC endpoint through go-ethereum's
// ethclient. Every operation is a single request/response; nothing is cached
// beyond the chain ID, which cannot change for a connected node.
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
}

// Dial connects to the node at rpcURL with a 30 second request timeout.
func Dial(rpcURL string) (*Client, error) {
	return DialWithHTTPClient(rpcURL, &http.Client{Timeout: 30 * time.Second})
}

// DialWithHTTPClient connects to the node at rpcURL using the provided HTTP
// client.
func DialWithHTTPClient(rpcURL string, httpClient *http.Client) (*Client, error) {
	rpcClient, err := rpc.DialOptions(context.Background(), rpcURL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc node: %w", err)
	}

	return &Client{eth: ethclient.NewClient(rpcClient)}, nil
}

// Close tears down the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// CurrentGasPrice returns the node's suggested gas price in gwei.
func (c *Client) CurrentGasPrice(ctx context.Context) (decimal.Decimal, error) {
	price, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	return WeiToGwei(price), nil
}

// WalletBalance returns the ether balance of the given address at the latest
// block.
func (c *Client) WalletBalance(ctx context.Context, address common.Address) (decimal.Decimal, error) {
	balance, err := c.eth.BalanceAt(ctx, address, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch balance of %s: %w", address.Hex(), err)
	}

	return WeiToEther(balance), nil
}

// TransactionStatus queries the receipt of the given transaction. A missing
// receipt means the transaction is still pending; the status is never awaited.
func (c *Client) TransactionStatus(ctx context.Context, txHash common.Hash) (TxStatus, error) {
	receipt, err := c.eth.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return TxPending, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch receipt for %s: %w", txHash.Hex(), err)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		return TxFailed, nil
	}
	return TxSuccess, nil
}

// ChainID returns the chain ID of the connected node, fetching it on first
// use.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	if c.chainID != nil {
		return c.chainID, nil
	}

	chainID, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}
	c.chainID = chainID

	return chainID, nil
}
