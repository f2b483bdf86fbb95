package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Gateway talks to the proof chain's sequencer over its HTTP gateway API.
// Reads go through the feeder endpoint (call_contract), writes and
// deployments through the transaction gateway (add_transaction).
type Gateway struct {
	gatewayURL string
	feederURL  string
	client     *http.Client
	log        *zap.SugaredLogger
}

func NewGateway(gatewayURL, feederURL string, log *zap.SugaredLogger) *Gateway {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Gateway{
		gatewayURL: gatewayURL,
		feederURL:  feederURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// Selector returns the entry point selector for a function name: the low
// 250 bits of keccak256(name), as used by the sequencer's calling convention.
func Selector(name string) *big.Int {
	h := new(big.Int).SetBytes(crypto.Keccak256([]byte(name)))
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))
	return h.And(h, mask)
}

type callRequest struct {
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
	Signature          []string `json:"signature"`
}

type callResponse struct {
	Result []string `json:"result"`
}

type invokeRequest struct {
	Type                string          `json:"type"`
	ContractAddress     string          `json:"contract_address,omitempty"`
	EntryPointSelector  string          `json:"entry_point_selector,omitempty"`
	Calldata            []string        `json:"calldata,omitempty"`
	Signature           []string        `json:"signature,omitempty"`
	ConstructorCalldata []string        `json:"constructor_calldata,omitempty"`
	ContractDefinition  json.RawMessage `json:"contract_definition,omitempty"`
}

type invokeResponse struct {
	Code            string `json:"code"`
	TransactionHash string `json:"transaction_hash"`
	Address         string `json:"address"`
}

// Call performs a read-only contract call and returns the result words.
func (g *Gateway) Call(ctx context.Context, contract, entryPoint string, calldata []*big.Int) ([]*big.Int, error) {
	req := callRequest{
		ContractAddress:    contract,
		EntryPointSelector: hexWord(Selector(entryPoint)),
		Calldata:           decimalWords(calldata),
		Signature:          []string{},
	}
	var resp callResponse
	if err := g.post(ctx, g.feederURL+"/call_contract", req, &resp); err != nil {
		return nil, fmt.Errorf("call %s: %w", entryPoint, err)
	}
	out := make([]*big.Int, len(resp.Result))
	for i, word := range resp.Result {
		v, ok := new(big.Int).SetString(trimHexPrefix(word), 16)
		if !ok {
			return nil, fmt.Errorf("call %s: bad result word %q", entryPoint, word)
		}
		out[i] = v
	}
	return out, nil
}

// Invoke submits a state-changing transaction. Signature may be nil for
// entry points that accept anonymous invocations (mint, initialize).
func (g *Gateway) Invoke(ctx context.Context, contract, entryPoint string, calldata, signature []*big.Int) (string, error) {
	req := invokeRequest{
		Type:               "INVOKE_FUNCTION",
		ContractAddress:    contract,
		EntryPointSelector: hexWord(Selector(entryPoint)),
		Calldata:           decimalWords(calldata),
		Signature:          decimalWords(signature),
	}
	var resp invokeResponse
	if err := g.post(ctx, g.gatewayURL+"/add_transaction", req, &resp); err != nil {
		return "", fmt.Errorf("invoke %s: %w", entryPoint, err)
	}
	g.log.Debugw("invoke_submitted", "entry_point", entryPoint, "tx", resp.TransactionHash)
	return resp.TransactionHash, nil
}

// Deploy submits a contract deployment and returns the deployed address.
func (g *Gateway) Deploy(ctx context.Context, contractDefinition json.RawMessage, constructorCalldata []*big.Int) (string, error) {
	req := invokeRequest{
		Type:                "DEPLOY",
		ContractDefinition:  contractDefinition,
		ConstructorCalldata: decimalWords(constructorCalldata),
	}
	var resp invokeResponse
	if err := g.post(ctx, g.gatewayURL+"/add_transaction", req, &resp); err != nil {
		return "", fmt.Errorf("deploy: %w", err)
	}
	if resp.Address == "" {
		return "", fmt.Errorf("deploy: gateway returned no address (code %q)", resp.Code)
	}
	g.log.Infow("contract_deployed", "address", resp.Address, "tx", resp.TransactionHash)
	return resp.Address, nil
}

func (g *Gateway) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decimalWords(words []*big.Int) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.String()
	}
	return out
}

func hexWord(v *big.Int) string {
	return fmt.Sprintf("%#x", v)
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[:2] == "0x" {
		return s[2:]
	}
	return s
}
