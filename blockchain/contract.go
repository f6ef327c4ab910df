package blockchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Contract is a loaded contract: its address, parsed ABI, and a bound
// instance for read-only calls. Transactions against the contract go through
// the dispersal operations, which pack calldata from the ABI directly.
type Contract struct {
	Address common.Address
	ABI     abi.ABI

	bound *bind.BoundContract
}

// LoadContract parses abiJSON and binds it to the contract at address. No
// validation is performed beyond the ABI parse itself.
func (c *Client) LoadContract(address common.Address, abiJSON string) (*Contract, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	return &Contract{
		Address: address,
		ABI:     parsed,
		bound:   bind.NewBoundContract(address, parsed, c.eth, c.eth, c.eth),
	}, nil
}

// Call invokes a read-only contract method and stores its outputs in results.
func (ct *Contract) Call(ctx context.Context, results *[]interface{}, method string, args ...interface{}) error {
	if err := ct.bound.Call(&bind.CallOpts{Context: ctx}, results, method, args...); err != nil {
		return fmt.Errorf("failed to call %s on %s: %w", method, ct.Address.Hex(), err)
	}
	return nil
}
