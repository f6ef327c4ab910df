package etherscan

import (
	"encoding/json"
	"fmt"
)

// TokenStandard selects which token-transfer endpoint is queried.
type TokenStandard string

const (
	ERC721  TokenStandard = "erc721"
	ERC1155 TokenStandard = "erc1155"
)

// Transaction is a single account transaction as returned by the txlist
// action. Etherscan returns every field as a decimal string; they are kept
// that way and parsed only where a computation needs them.
type Transaction struct {
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	Gas         string `json:"gas"`
	GasPrice    string `json:"gasPrice"`
	GasUsed     string `json:"gasUsed"`
	IsError     string `json:"isError"`
}

// TokenTransfer is a single ERC-721 or ERC-1155 transfer event as returned by
// the tokennfttx and token1155tx actions. TokenValue is only populated for
// ERC-1155 transfers.
type TokenTransfer struct {
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	ContractAddress string `json:"contractAddress"`
	TokenID         string `json:"tokenID"`
	TokenValue      string `json:"tokenValue"`
	TokenName       string `json:"tokenName"`
}

// envelope is the status/result wrapper every Etherscan response carries.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// APIError reports a failed Etherscan call: a non-2xx HTTP response or an
// error status in the response envelope.
type APIError struct {
	Action  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("etherscan %s: %s", e.Action, e.Message)
}
