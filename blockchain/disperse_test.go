package blockchain_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"chainscape/blockchain"
)

// well-known development key, holds nothing on any real network
const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	testSender = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

	testRecipients = []common.Address{
		common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"),
		common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906"),
	}
)

var _ = Describe("DisperseETH", func() {
	AfterEach(func() {
		httpmock.Reset()
	})

	// registerNode wires a JSON-RPC node that accepts sends until failAt
	// (1-based); a failAt of 0 never fails. Returns a counter of submissions.
	registerNode := func(failAt int) *int {
		sends := 0
		httpmock.RegisterResponder("POST", rpcURL, rpcResponder(func(call rpcCall) (string, error) {
			switch call.Method {
			case "eth_getBalance":
				return `"0x8ac7230489e80000"`, nil // 10 ether
			case "eth_getTransactionCount":
				return `"0x0"`, nil
			case "eth_chainId":
				return `"0x1"`, nil
			case "eth_gasPrice":
				return `"0x3b9aca00"`, nil
			case "eth_sendRawTransaction":
				sends++
				if failAt > 0 && sends >= failAt {
					return "", fmt.Errorf("nonce too low")
				}
				return `"0x3fe67569dfcce1fe4afca58819da01f423b2cb67d61ee3ba1ed413d2612717c7"`, nil
			default:
				return "", fmt.Errorf("unexpected method %s", call.Method)
			}
		}))
		return &sends
	}

	amounts := []decimal.Decimal{
		decimal.RequireFromString("0.1"),
		decimal.RequireFromString("0.2"),
		decimal.RequireFromString("0.3"),
	}

	It("submits one transaction per recipient and returns every hash", func() {
		sends := registerNode(0)

		hashes, err := dialTestClient().DisperseETH(
			context.Background(), testSender, testPrivateKey, testRecipients, amounts, nil,
		)
		Expect(err).ToNot(HaveOccurred())
		Expect(hashes).To(HaveLen(3))
		Expect(*sends).To(Equal(3))
	})

	It("stops at the first failed submission and returns the completed hashes", func() {
		sends := registerNode(2)

		hashes, err := dialTestClient().DisperseETH(
			context.Background(), testSender, testPrivateKey, testRecipients, amounts, nil,
		)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("nonce too low"))
		Expect(hashes).To(HaveLen(1))
		// the third recipient is never attempted
		Expect(*sends).To(Equal(2))
	})

	It("fails without a private key before touching the node", func() {
		registerNode(0)

		_, err := dialTestClient().DisperseETH(
			context.Background(), testSender, "", testRecipients, amounts, nil,
		)
		Expect(errors.Is(err, blockchain.ErrMissingPrivateKey)).To(BeTrue())
		Expect(httpmock.GetTotalCallCount()).To(BeZero())
	})

	It("rejects a half-set fee option pair", func() {
		registerNode(0)

		_, err := dialTestClient().DisperseETH(
			context.Background(), testSender, testPrivateKey, testRecipients, amounts,
			&blockchain.FeeOptions{MaxFeeGwei: decimal.NewFromInt(30)},
		)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("max priority fee"))
	})

	It("rejects a mismatched recipient and amount count", func() {
		_, err := dialTestClient().DisperseETH(
			context.Background(), testSender, testPrivateKey, testRecipients, amounts[:2], nil,
		)
		Expect(err).To(HaveOccurred())
	})

	It("refuses to disperse more than the sender's balance", func() {
		httpmock.RegisterResponder("POST", rpcURL, rpcResponder(func(call rpcCall) (string, error) {
			Expect(call.Method).To(Equal("eth_getBalance"))
			return `"0xde0b6b3a7640000"`, nil // 1 ether
		}))

		oversized := []decimal.Decimal{
			decimal.NewFromInt(1),
			decimal.NewFromInt(1),
			decimal.NewFromInt(1),
		}
		_, err := dialTestClient().DisperseETH(
			context.Background(), testSender, testPrivateKey, testRecipients, oversized, nil,
		)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("too low"))
	})
})

var _ = Describe("DisperseERC721", func() {
	const transferABI = `[{"constant":false,"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"name":"safeTransferFrom","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

	contractAddress := common.HexToAddress("0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D")

	AfterEach(func() {
		httpmock.Reset()
	})

	It("sends one safeTransferFrom transaction per token", func() {
		sends := 0
		httpmock.RegisterResponder("POST", rpcURL, rpcResponder(func(call rpcCall) (string, error) {
			switch call.Method {
			case "eth_getTransactionCount":
				return `"0x5"`, nil
			case "eth_chainId":
				return `"0x1"`, nil
			case "eth_estimateGas":
				Expect(string(call.Params[0])).To(ContainSubstring("0x42842e0e")) // safeTransferFrom selector
				return `"0x186a0"`, nil
			case "eth_sendRawTransaction":
				sends++
				return `"0x3fe67569dfcce1fe4afca58819da01f423b2cb67d61ee3ba1ed413d2612717c7"`, nil
			default:
				return "", fmt.Errorf("unexpected method %s", call.Method)
			}
		}))

		client := dialTestClient()
		contract, err := client.LoadContract(contractAddress, transferABI)
		Expect(err).ToNot(HaveOccurred())

		hashes, err := client.DisperseERC721(
			context.Background(),
			testSender,
			testPrivateKey,
			contract,
			testRecipients[:2],
			[]*big.Int{big.NewInt(7), big.NewInt(8)},
			&blockchain.FeeOptions{
				MaxFeeGwei:      decimal.NewFromInt(30),
				MaxPriorityGwei: decimal.NewFromInt(2),
			},
		)
		Expect(err).ToNot(HaveOccurred())
		Expect(hashes).To(HaveLen(2))
		Expect(sends).To(Equal(2))
	})
})
