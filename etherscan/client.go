package etherscan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the mainnet Etherscan API endpoint.
const DefaultBaseURL = "https://api.etherscan.io/api"

const (
	moduleAccount  = "account"
	moduleContract = "contract"

	actionGetABI      = "getabi"
	actionTxList      = "txlist"
	actionSourceCode  = "getsourcecode"
	actionTokenNFTTx  = "tokennfttx"
	actionToken1155Tx = "token1155tx"
)

// noTransactionsFound is the envelope message Etherscan uses for an empty
// transaction list. It arrives with an error status but is not a failure.
const noTransactionsFound = "No transactions found"

// Client is a stateless client for an Etherscan-style block explorer API.
// Every method is a single parameterized GET request with the API key
// attached; there is no retry or rate-limit handling.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the mainnet Etherscan API.
func NewClient(apiKey string) *Client {
	return NewClientWith(apiKey, "", nil)
}

// NewClientWith creates a client with an explicit endpoint and HTTP client.
// An empty baseURL falls back to DefaultBaseURL; a nil httpClient falls back
// to one with a 30 second timeout.
func NewClientWith(apiKey, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// GetContractABI returns the verified ABI of the contract as a JSON string.
func (c *Client) GetContractABI(ctx context.Context, contractAddress string) (string, error) {
	var abiJSON string
	if err := c.call(ctx, moduleContract, actionGetABI, contractAddress, nil, &abiJSON); err != nil {
		return "", err
	}

	slog.DebugContext(ctx, fmt.Sprintf("Retrieved ABI for contract %s", contractAddress))

	return abiJSON, nil
}

// GetContractSourceCode returns the verified source code of the contract.
func (c *Client) GetContractSourceCode(ctx context.Context, contractAddress string) (string, error) {
	var entries []struct {
		SourceCode string `json:"SourceCode"`
	}
	if err := c.call(ctx, moduleContract, actionSourceCode, strings.ToLower(contractAddress), nil, &entries); err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", &APIError{Action: actionSourceCode, Message: "empty result"}
	}

	slog.DebugContext(ctx, fmt.Sprintf("Retrieved source code for contract %s", contractAddress))

	return entries[0].SourceCode, nil
}

// GetTransactions returns the recorded transactions of an address. The API
// caps the result at whatever a single txlist call returns; there is no
// pagination here.
func (c *Client) GetTransactions(ctx context.Context, address string) ([]Transaction, error) {
	var transactions []Transaction
	if err := c.call(ctx, moduleAccount, actionTxList, strings.ToLower(address), nil, &transactions); err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, fmt.Sprintf("Retrieved %d transactions for %s", len(transactions), address))

	return transactions, nil
}

// GetTokenTransfers returns the token transfer events between the holding
// wallet and the given token contract, for the ERC-721 or ERC-1155 standard.
func (c *Client) GetTokenTransfers(ctx context.Context, holdingWallet, contractAddress string, standard TokenStandard) ([]TokenTransfer, error) {
	action := actionTokenNFTTx
	if standard == ERC1155 {
		action = actionToken1155Tx
	}

	extra := url.Values{}
	extra.Set("contractaddress", strings.ToLower(contractAddress))

	var transfers []TokenTransfer
	if err := c.call(ctx, moduleAccount, action, strings.ToLower(holdingWallet), extra, &transfers); err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, fmt.Sprintf("Retrieved %d token transfers for wallet %s and contract %s", len(transfers), holdingWallet, contractAddress))

	return transfers, nil
}

// call issues one GET request against the API and decodes the result field of
// the response envelope into out.
func (c *Client) call(ctx context.Context, module, action, address string, extra url.Values, out any) error {
	query := url.Values{}
	query.Set("module", module)
	query.Set("action", action)
	query.Set("address", address)
	query.Set("apikey", c.apiKey)
	for key, values := range extra {
		for _, value := range values {
			query.Add(key, value)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{Action: action, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if env.Status == "0" {
		if env.Message == noTransactionsFound {
			// empty list, not a failure; leave out at its zero value
			return nil
		}
		return &APIError{Action: action, Message: env.Message}
	}

	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}

	return nil
}
