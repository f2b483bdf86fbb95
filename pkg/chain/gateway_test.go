package chain

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSelectorFitsField(t *testing.T) {
	limit := new(big.Int).Lsh(big.NewInt(1), 250)
	for _, name := range []string{"balance_of", "allowance", "approve", "mint", "initialize"} {
		sel := Selector(name)
		if sel.Cmp(limit) >= 0 {
			t.Errorf("Selector(%s) exceeds 250 bits", name)
		}
		if sel.Sign() <= 0 {
			t.Errorf("Selector(%s) = %s", name, sel)
		}
	}
	if Selector("balance_of").Cmp(Selector("allowance")) == 0 {
		t.Error("distinct names share a selector")
	}
}

func TestCall(t *testing.T) {
	var got callRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/call_contract" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("request body: %v", err)
		}
		json.NewEncoder(w).Encode(callResponse{Result: []string{"0x5f5e100"}})
	}))
	defer srv.Close()

	g := NewGateway("", srv.URL, nil)
	result, err := g.Call(context.Background(), "0x0123", "balance_of", []*big.Int{big.NewInt(77)})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(result) != 1 || result[0].Cmp(big.NewInt(100_000_000)) != 0 {
		t.Errorf("result = %v, want [100000000]", result)
	}
	if got.ContractAddress != "0x0123" {
		t.Errorf("contract = %s", got.ContractAddress)
	}
	if got.EntryPointSelector != hexWord(Selector("balance_of")) {
		t.Errorf("selector = %s", got.EntryPointSelector)
	}
	// Calldata travels as decimal strings, per the sequencer API.
	if len(got.Calldata) != 1 || got.Calldata[0] != "77" {
		t.Errorf("calldata = %v, want [77]", got.Calldata)
	}
}

func TestInvoke(t *testing.T) {
	var got invokeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/add_transaction" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("request body: %v", err)
		}
		json.NewEncoder(w).Encode(invokeResponse{Code: "TRANSACTION_RECEIVED", TransactionHash: "0xbeef"})
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "", nil)
	tx, err := g.Invoke(context.Background(), "0x0123", "approve",
		[]*big.Int{big.NewInt(5), big.NewInt(10)}, []*big.Int{big.NewInt(1), big.NewInt(2)})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if tx != "0xbeef" {
		t.Errorf("tx = %s, want 0xbeef", tx)
	}
	if got.Type != "INVOKE_FUNCTION" {
		t.Errorf("type = %s", got.Type)
	}
	if len(got.Signature) != 2 || got.Signature[0] != "1" {
		t.Errorf("signature = %v", got.Signature)
	}
}

func TestDeploy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got invokeRequest
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("request body: %v", err)
		}
		if got.Type != "DEPLOY" {
			t.Errorf("type = %s", got.Type)
		}
		if len(got.ContractDefinition) == 0 {
			t.Error("contract definition missing")
		}
		json.NewEncoder(w).Encode(invokeResponse{Code: "TRANSACTION_RECEIVED", Address: "0x00aa"})
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "", nil)
	addr, err := g.Deploy(context.Background(), json.RawMessage(`{"program":{}}`), []*big.Int{big.NewInt(9)})
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if addr != "0x00aa" {
		t.Errorf("address = %s, want 0x00aa", addr)
	}
}

func TestGatewayErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sequencer busy", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, srv.URL, nil)
	if _, err := g.Call(context.Background(), "0x0123", "balance_of", nil); err == nil {
		t.Error("Call swallowed a 500")
	}
	if _, err := g.Invoke(context.Background(), "0x0123", "mint", nil, nil); err == nil {
		t.Error("Invoke swallowed a 500")
	}
}
