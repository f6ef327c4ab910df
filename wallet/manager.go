package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"chainscape/blockchain"
	"chainscape/config"
	"chainscape/etherscan"
)

var (
	// ErrDuplicateAddress is returned by AddWallet when the address is
	// already present in the table.
	ErrDuplicateAddress = errors.New("wallet address already present")
	// ErrNotFound is returned by operations that reference a wallet address
	// absent from the table.
	ErrNotFound = errors.New("wallet address not found")
)

// Balance is the ether balance of a single wallet.
type Balance struct {
	Address string
	Ether   decimal.Decimal
}

// TokenHolding is one token held by one wallet, as discovered by FindTokens.
// Amount is 1 for ERC-721 tokens and the net held amount for ERC-1155.
type TokenHolding struct {
	Wallet    string
	TokenID   string
	Amount    *big.Int
	TokenName string
	Contract  string
}

// Manager owns the in-memory wallet table and composes the node and block
// explorer clients for wallet-centric batch operations. It is not safe for
// concurrent use; callers drive it from a single goroutine.
type Manager struct {
	chain   *blockchain.Client
	scanner *etherscan.Client
	wallets []Wallet
}

// NewManager dials the node, builds the block-explorer client and loads the
// wallet table from cfg.WalletsCSV when set.
func NewManager(cfg config.Config) (*Manager, error) {
	httpClient := &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second}

	chain, err := blockchain.DialWithHTTPClient(cfg.RPCURL, httpClient)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		chain:   chain,
		scanner: etherscan.NewClientWith(cfg.EtherscanAPIKey, cfg.EtherscanBaseURL, httpClient),
	}

	if cfg.WalletsCSV != "" {
		wallets, err := LoadCSV(cfg.WalletsCSV)
		if err != nil {
			return nil, err
		}
		m.wallets = wallets
	}

	return m, nil
}

// NewManagerWithClients builds a manager around already-constructed clients
// and an initial wallet table.
func NewManagerWithClients(chain *blockchain.Client, scanner *etherscan.Client, wallets []Wallet) *Manager {
	return &Manager{chain: chain, scanner: scanner, wallets: wallets}
}

// AddWallet appends a wallet to the table. An empty address is recovered from
// the private key. Fails with ErrDuplicateAddress when the address is already
// present; the table is left unchanged on any failure.
func (m *Manager) AddWallet(w Wallet) error {
	if w.Address == "" && w.HasPrivateKey() {
		address, err := AddressFromPrivateKey(w.PrivateKey)
		if err != nil {
			return err
		}
		w.Address = address
	}

	address, err := NormalizeAddress(w.Address)
	if err != nil {
		return err
	}
	w.Address = address

	if m.indexOf(w.Address) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateAddress, w.Address)
	}

	m.wallets = append(m.wallets, w)
	slog.Info(fmt.Sprintf("Wallet %q added with address %s", w.Name, w.Address))

	return nil
}

// RemoveWallet deletes the wallet with the given address from the table.
func (m *Manager) RemoveWallet(address string) error {
	i := m.indexOf(address)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, address)
	}

	m.wallets = append(m.wallets[:i], m.wallets[i+1:]...)
	slog.Info(fmt.Sprintf("Wallet %s removed", address))

	return nil
}

// Wallets returns a copy of the wallet table in its stored order.
func (m *Manager) Wallets() []Wallet {
	out := make([]Wallet, len(m.wallets))
	copy(out, m.wallets)
	return out
}

// ReceivingWallets returns up to n wallet addresses in table order, skipping
// the holding wallet.
func (m *Manager) ReceivingWallets(holdingWallet string, n int) []string {
	var receiving []string
	for _, w := range m.wallets {
		if strings.EqualFold(w.Address, holdingWallet) {
			continue
		}
		receiving = append(receiving, w.Address)
		if len(receiving) >= n {
			break
		}
	}
	return receiving
}

// ExportCSV writes the wallet table to path in the fixed column order,
// overwriting any existing file.
func (m *Manager) ExportCSV(path string) error {
	return WriteCSV(path, m.wallets)
}

// WalletBalance returns the ether balance of a single address, which does not
// need to be in the table.
func (m *Manager) WalletBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	normalized, err := NormalizeAddress(address)
	if err != nil {
		return decimal.Zero, err
	}
	return m.chain.WalletBalance(ctx, common.HexToAddress(normalized))
}

// WalletBalances looks up the ether balance of every wallet in table order.
// The first failed lookup aborts the whole batch.
func (m *Manager) WalletBalances(ctx context.Context) ([]Balance, error) {
	balances := make([]Balance, 0, len(m.wallets))
	for _, w := range m.wallets {
		ether, err := m.chain.WalletBalance(ctx, common.HexToAddress(w.Address))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch balance of %s: %w", w.Address, err)
		}
		balances = append(balances, Balance{Address: w.Address, Ether: ether})
	}
	return balances, nil
}

// TokenIDs nets the transfer history of one wallet against one token contract
// into the token IDs currently held, mapped to their held amounts (always 1
// for ERC-721).
func (m *Manager) TokenIDs(ctx context.Context, walletAddress, contractAddress string, standard etherscan.TokenStandard) (map[string]*big.Int, error) {
	transfers, err := m.scanner.GetTokenTransfers(ctx, walletAddress, contractAddress, standard)
	if err != nil {
		return nil, err
	}

	held := make(map[string]*big.Int)
	for _, transfer := range transfers {
		switch standard {
		case etherscan.ERC1155:
			value, ok := new(big.Int).SetString(transfer.TokenValue, 10)
			if !ok {
				return nil, fmt.Errorf("invalid token value %q for token %s", transfer.TokenValue, transfer.TokenID)
			}

			current := held[transfer.TokenID]
			if current == nil {
				current = new(big.Int)
			}
			switch {
			case strings.EqualFold(transfer.To, walletAddress):
				current.Add(current, value)
			case strings.EqualFold(transfer.From, walletAddress):
				current.Sub(current, value)
			default:
				continue
			}

			if current.Sign() == 0 {
				delete(held, transfer.TokenID)
			} else {
				held[transfer.TokenID] = current
			}
		default:
			if strings.EqualFold(transfer.To, walletAddress) {
				held[transfer.TokenID] = big.NewInt(1)
			} else if strings.EqualFold(transfer.From, walletAddress) {
				delete(held, transfer.TokenID)
			}
		}
	}

	return held, nil
}

// FindTokens scans every wallet in the table for tokens of the given
// contract. The contract's ABI comes from the block explorer; a contract
// whose name() cannot be read directly is treated as a proxy and re-resolved
// through its implementation() address, which is how ERC-1155 collections
// usually present themselves. A single failed lookup aborts the whole scan.
func (m *Manager) FindTokens(ctx context.Context, contractAddress string) ([]TokenHolding, error) {
	address, err := NormalizeAddress(contractAddress)
	if err != nil {
		return nil, err
	}

	abiJSON, err := m.scanner.GetContractABI(ctx, address)
	if err != nil {
		return nil, err
	}
	contract, err := m.chain.LoadContract(common.HexToAddress(address), abiJSON)
	if err != nil {
		return nil, err
	}

	standard := etherscan.ERC721
	tokenName, err := contractName(ctx, contract)
	if err != nil {
		implementation, implErr := implementationAddress(ctx, contract)
		if implErr != nil {
			return nil, fmt.Errorf("failed to read token name from %s: %w", address, err)
		}

		implABI, err := m.scanner.GetContractABI(ctx, implementation.Hex())
		if err != nil {
			return nil, err
		}
		contract, err = m.chain.LoadContract(common.HexToAddress(address), implABI)
		if err != nil {
			return nil, err
		}
		tokenName, err = contractName(ctx, contract)
		if err != nil {
			return nil, fmt.Errorf("failed to read token name through proxy %s: %w", implementation.Hex(), err)
		}
		standard = etherscan.ERC1155
	}

	slog.Info(fmt.Sprintf("Scanning %d wallets for %s tokens of %q", len(m.wallets), standard, tokenName))

	var holdings []TokenHolding
	for _, w := range m.wallets {
		held, err := m.TokenIDs(ctx, w.Address, address, standard)
		if err != nil {
			return nil, err
		}
		for tokenID, amount := range held {
			holdings = append(holdings, TokenHolding{
				Wallet:    w.Address,
				TokenID:   tokenID,
				Amount:    amount,
				TokenName: tokenName,
				Contract:  address,
			})
		}
	}

	return holdings, nil
}

// DisperseETH sends amounts[i] ether from the table wallet at senderAddress
// to recipients[i], one transaction per recipient. The sending wallet must
// carry a private key.
func (m *Manager) DisperseETH(ctx context.Context, senderAddress string, recipients []string, amounts []decimal.Decimal, fees *blockchain.FeeOptions) ([]common.Hash, error) {
	sender, err := m.signingWallet(senderAddress)
	if err != nil {
		return nil, err
	}

	recipientAddrs, err := toAddresses(recipients)
	if err != nil {
		return nil, err
	}

	return m.chain.DisperseETH(ctx, common.HexToAddress(sender.Address), sender.PrivateKey, recipientAddrs, amounts, fees)
}

// DisperseERC721 fetches the token contract's ABI from the block explorer and
// transfers tokenIDs[i] from the holding table wallet to recipients[i].
func (m *Manager) DisperseERC721(ctx context.Context, holderAddress, contractAddress string, recipients []string, tokenIDs []*big.Int, fees *blockchain.FeeOptions) ([]common.Hash, error) {
	holder, err := m.signingWallet(holderAddress)
	if err != nil {
		return nil, err
	}

	address, err := NormalizeAddress(contractAddress)
	if err != nil {
		return nil, err
	}

	abiJSON, err := m.scanner.GetContractABI(ctx, address)
	if err != nil {
		return nil, err
	}
	contract, err := m.chain.LoadContract(common.HexToAddress(address), abiJSON)
	if err != nil {
		return nil, err
	}

	recipientAddrs, err := toAddresses(recipients)
	if err != nil {
		return nil, err
	}

	return m.chain.DisperseERC721(ctx, common.HexToAddress(holder.Address), holder.PrivateKey, contract, recipientAddrs, tokenIDs, fees)
}

// TotalGasSpent sums the gas paid by the given address across its recorded
// transactions, in ether.
func (m *Manager) TotalGasSpent(ctx context.Context, address string) (decimal.Decimal, error) {
	normalized, err := NormalizeAddress(address)
	if err != nil {
		return decimal.Zero, err
	}

	txs, err := m.scanner.GetTransactions(ctx, normalized)
	if err != nil {
		return decimal.Zero, err
	}

	totalWei := new(big.Int)
	for _, tx := range txs {
		if !strings.EqualFold(tx.From, normalized) {
			continue
		}

		gasUsed, ok := new(big.Int).SetString(tx.GasUsed, 10)
		if !ok {
			return decimal.Zero, fmt.Errorf("invalid gasUsed %q in transaction %s", tx.GasUsed, tx.Hash)
		}
		gasPrice, ok := new(big.Int).SetString(tx.GasPrice, 10)
		if !ok {
			return decimal.Zero, fmt.Errorf("invalid gasPrice %q in transaction %s", tx.GasPrice, tx.Hash)
		}

		totalWei.Add(totalWei, new(big.Int).Mul(gasUsed, gasPrice))
	}

	return blockchain.WeiToEther(totalWei), nil
}

func (m *Manager) indexOf(address string) int {
	for i, w := range m.wallets {
		if strings.EqualFold(w.Address, address) {
			return i
		}
	}
	return -1
}

// signingWallet resolves a table wallet that must be able to sign.
func (m *Manager) signingWallet(address string) (Wallet, error) {
	i := m.indexOf(address)
	if i < 0 {
		return Wallet{}, fmt.Errorf("%w: %s", ErrNotFound, address)
	}

	w := m.wallets[i]
	if !w.HasPrivateKey() {
		return Wallet{}, fmt.Errorf("%w: %s", blockchain.ErrMissingPrivateKey, address)
	}
	return w, nil
}

func toAddresses(addresses []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(addresses))
	for _, address := range addresses {
		normalized, err := NormalizeAddress(address)
		if err != nil {
			return nil, err
		}
		out = append(out, common.HexToAddress(normalized))
	}
	return out, nil
}

func contractName(ctx context.Context, contract *blockchain.Contract) (string, error) {
	var out []interface{}
	if err := contract.Call(ctx, &out, "name"); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", errors.New("empty name() result")
	}

	name, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected name() result type %T", out[0])
	}
	return name, nil
}

func implementationAddress(ctx context.Context, contract *blockchain.Contract) (common.Address, error) {
	var out []interface{}
	if err := contract.Call(ctx, &out, "implementation"); err != nil {
		return common.Address{}, err
	}
	if len(out) == 0 {
		return common.Address{}, errors.New("empty implementation() result")
	}

	address, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected implementation() result type %T", out[0])
	}
	return address, nil
}
