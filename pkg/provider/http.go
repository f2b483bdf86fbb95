// Package provider implements the rollup wallet collaborator over HTTP.
// Order signing for rollup chains lives with the wallet process, not in
// this client; the provider daemon exposes account state and signs order
// payloads on request, and this package is the thin client for it.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/zigzag-exchange/zigzag-go/pkg/adapter"
)

// HTTP talks to a rollup provider daemon.
type HTTP struct {
	baseURL string
	client  *http.Client
	log     *zap.SugaredLogger
}

func NewHTTP(baseURL string, log *zap.SugaredLogger) *HTTP {
	return &HTTP{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

type accountStateResponse struct {
	Address       string            `json:"address"`
	AccountID     string            `json:"accountId"`
	Committed     map[string]string `json:"committed"`
	SigningKeySet bool              `json:"signingKeySet"`
}

func (h *HTTP) AccountState(ctx context.Context) (*adapter.RollupAccountState, error) {
	var resp accountStateResponse
	if err := h.get(ctx, "/account", &resp); err != nil {
		return nil, err
	}
	committed := make(map[string]*big.Int, len(resp.Committed))
	for cur, raw := range resp.Committed {
		v, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, fmt.Errorf("provider: bad balance %q for %s", raw, cur)
		}
		committed[cur] = v
	}
	return &adapter.RollupAccountState{
		Address:   resp.Address,
		AccountID: resp.AccountID,
		Committed: committed,
	}, nil
}

func (h *HTTP) IsSigningKeySet(ctx context.Context) (bool, error) {
	var resp accountStateResponse
	if err := h.get(ctx, "/account", &resp); err != nil {
		return false, err
	}
	return resp.SigningKeySet, nil
}

func (h *HTTP) SetSigningKey(ctx context.Context, feeToken string) error {
	body := map[string]string{"feeToken": feeToken}
	return h.post(ctx, "/signing-key", body, nil)
}

type orderRequest struct {
	TokenSell  string            `json:"tokenSell"`
	TokenBuy   string            `json:"tokenBuy"`
	Amount     string            `json:"amount"`
	Ratio      map[string]string `json:"ratio"`
	ValidUntil int64             `json:"validUntil,omitempty"`
}

func (h *HTTP) BuildOrder(ctx context.Context, p adapter.RollupOrderParams) (json.RawMessage, error) {
	ratio := make(map[string]string, len(p.Ratio))
	for cur, v := range p.Ratio {
		ratio[cur] = v.String()
	}
	req := orderRequest{
		TokenSell:  p.TokenSell,
		TokenBuy:   p.TokenBuy,
		Amount:     p.Amount.String(),
		Ratio:      ratio,
		ValidUntil: p.ValidUntil,
	}
	var payload json.RawMessage
	if err := h.post(ctx, "/order", req, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (h *HTTP) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+path, nil)
	if err != nil {
		return err
	}
	return h.do(req, out)
}

func (h *HTTP) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return h.do(req, out)
}

func (h *HTTP) do(req *http.Request, out any) error {
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider: %s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
