package test

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github/chapool/transfer-relay/internal/transfer"
)

// RPCError is a JSON-RPC error object returned by a RPCHandler.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RPCHandler answers one JSON-RPC method.
type RPCHandler func(params []json.RawMessage) (any, *RPCError)

// RPCNode is an in-process JSON-RPC endpoint that behaves like a small EVM
// node with one ERC20 token deployed. Handlers can be replaced per test.
type RPCNode struct {
	Server *httptest.Server

	ChainID       uint64
	BlockNumber   uint64
	BaseFee       *big.Int // nil for a pre-London chain
	TipCap        *big.Int
	GasPrice      *big.Int
	Nonce         uint64
	Gas           uint64
	TokenName     string
	TokenSymbol   string
	TokenDecimals uint8
	TokenBalance  *big.Int

	mu       sync.Mutex
	handlers map[string]RPCHandler
	calls    map[string]int
	sent     []json.RawMessage
}

// NewRPCNode starts a node that is closed with the test.
func NewRPCNode(t *testing.T) *RPCNode {
	t.Helper()

	node := &RPCNode{
		ChainID:       4200,
		BlockNumber:   0x10,
		BaseFee:       big.NewInt(1000),
		TipCap:        big.NewInt(100),
		GasPrice:      big.NewInt(1500),
		Nonce:         5,
		Gas:           52000,
		TokenName:     "Test Token",
		TokenSymbol:   "TST",
		TokenDecimals: 6,
		TokenBalance:  big.NewInt(2500000),
		handlers:      map[string]RPCHandler{},
		calls:         map[string]int{},
	}

	node.Server = httptest.NewServer(http.HandlerFunc(node.serveHTTP))
	t.Cleanup(node.Server.Close)

	return node
}

// URL of the endpoint.
func (n *RPCNode) URL() string {
	return n.Server.URL
}

// Handle overrides method.
func (n *RPCNode) Handle(method string, h RPCHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.handlers[method] = h
}

// Reset restores the default behavior of method.
func (n *RPCNode) Reset(method string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.handlers, method)
}

// Fail makes method return a JSON-RPC error.
func (n *RPCNode) Fail(method string, message string) {
	n.Handle(method, func([]json.RawMessage) (any, *RPCError) {
		return nil, &RPCError{Code: -32000, Message: message}
	})
}

// Calls returns how often method was invoked.
func (n *RPCNode) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.calls[method]
}

// Sent returns the first parameter of every eth_sendTransaction and
// eth_sendRawTransaction call.
func (n *RPCNode) Sent() []json.RawMessage {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]json.RawMessage(nil), n.sent...)
}

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

func (n *RPCNode) serveHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls[req.Method]++
	if (req.Method == "eth_sendTransaction" || req.Method == "eth_sendRawTransaction") && len(req.Params) > 0 {
		n.sent = append(n.sent, req.Params[0])
	}
	h, ok := n.handlers[req.Method]
	n.mu.Unlock()

	if !ok {
		h = n.defaultHandler(req.Method)
	}

	res := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	if h == nil {
		res.Error = &RPCError{Code: -32601, Message: "the method " + req.Method + " does not exist"}
	} else {
		res.Result, res.Error = h(req.Params)
		if res.Result == nil && res.Error == nil {
			res.Result = json.RawMessage("null")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

func (n *RPCNode) defaultHandler(method string) RPCHandler {
	switch method {
	case "eth_chainId":
		return func([]json.RawMessage) (any, *RPCError) { return hexutil.Uint64(n.ChainID), nil }
	case "eth_blockNumber":
		return func([]json.RawMessage) (any, *RPCError) { return hexutil.Uint64(n.BlockNumber), nil }
	case "eth_syncing":
		return func([]json.RawMessage) (any, *RPCError) { return false, nil }
	case "eth_getTransactionCount":
		return func([]json.RawMessage) (any, *RPCError) { return hexutil.Uint64(n.Nonce), nil }
	case "eth_estimateGas":
		return func([]json.RawMessage) (any, *RPCError) { return hexutil.Uint64(n.Gas), nil }
	case "eth_maxPriorityFeePerGas":
		return func([]json.RawMessage) (any, *RPCError) { return (*hexutil.Big)(n.TipCap), nil }
	case "eth_gasPrice":
		return func([]json.RawMessage) (any, *RPCError) { return (*hexutil.Big)(n.GasPrice), nil }
	case "eth_getBlockByNumber":
		return func([]json.RawMessage) (any, *RPCError) { return n.header(), nil }
	case "eth_call":
		return n.handleCall
	case "eth_sendTransaction":
		return func([]json.RawMessage) (any, *RPCError) {
			return common.HexToHash("0xabc0000000000000000000000000000000000000000000000000000000000001"), nil
		}
	case "eth_sendRawTransaction":
		return func(params []json.RawMessage) (any, *RPCError) {
			return nil, nil
		}
	}

	return nil
}

func (n *RPCNode) header() map[string]any {
	zeroHash := common.Hash{}.Hex()
	h := map[string]any{
		"parentHash":       zeroHash,
		"sha3Uncles":       zeroHash,
		"miner":            common.Address{}.Hex(),
		"stateRoot":        zeroHash,
		"transactionsRoot": zeroHash,
		"receiptsRoot":     zeroHash,
		"logsBloom":        "0x" + strings.Repeat("00", 256),
		"difficulty":       "0x0",
		"number":           hexutil.Uint64(n.BlockNumber),
		"gasLimit":         "0x1c9c380",
		"gasUsed":          "0x0",
		"timestamp":        "0x65000000",
		"extraData":        "0x",
		"mixHash":          zeroHash,
		"nonce":            "0x0000000000000000",
		"hash":             zeroHash,
	}

	if n.BaseFee != nil {
		h["baseFeePerGas"] = (*hexutil.Big)(n.BaseFee)
	}

	return h
}

type callArgs struct {
	Input hexutil.Bytes `json:"input"`
	Data  hexutil.Bytes `json:"data"`
}

func (n *RPCNode) handleCall(params []json.RawMessage) (any, *RPCError) {
	if len(params) == 0 {
		return nil, &RPCError{Code: -32602, Message: "missing call arguments"}
	}

	var args callArgs
	if err := json.Unmarshal(params[0], &args); err != nil {
		return nil, &RPCError{Code: -32602, Message: err.Error()}
	}

	input := args.Input
	if len(input) == 0 {
		input = args.Data
	}

	if len(input) < 4 {
		return "0x", nil
	}

	method, err := transfer.ERC20ABI.MethodById(input[:4])
	if err != nil {
		return nil, &RPCError{Code: 3, Message: "execution reverted"}
	}

	var out []byte
	switch method.Name {
	case "decimals":
		out, err = method.Outputs.Pack(n.TokenDecimals)
	case "symbol":
		out, err = method.Outputs.Pack(n.TokenSymbol)
	case "name":
		out, err = method.Outputs.Pack(n.TokenName)
	case "balanceOf":
		out, err = method.Outputs.Pack(n.TokenBalance)
	default:
		return nil, &RPCError{Code: 3, Message: "execution reverted"}
	}

	if err != nil {
		return nil, &RPCError{Code: -32603, Message: err.Error()}
	}

	return "0x" + hex.EncodeToString(out), nil
}
