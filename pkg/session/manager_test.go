package session

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zigzag-exchange/zigzag-go/pkg/adapter"
	"github.com/zigzag-exchange/zigzag-go/pkg/currency"
	"github.com/zigzag-exchange/zigzag-go/pkg/notify"
	"github.com/zigzag-exchange/zigzag-go/pkg/protocol"
	"github.com/zigzag-exchange/zigzag-go/pkg/util"
)

type fakeWallet struct {
	rejectSwitch bool
}

func (f *fakeWallet) Address() common.Address { return common.Address{} }

func (f *fakeWallet) RequestChainSwitch(ctx context.Context, chainID uint64) error {
	if f.rejectSwitch {
		return errors.New("user declined")
	}
	return nil
}

type fakeProvider struct {
	state adapter.RollupAccountState
}

func (f *fakeProvider) AccountState(ctx context.Context) (*adapter.RollupAccountState, error) {
	st := f.state
	return &st, nil
}

func (f *fakeProvider) IsSigningKeySet(ctx context.Context) (bool, error) { return true, nil }

func (f *fakeProvider) SetSigningKey(ctx context.Context, feeToken string) error { return nil }

func (f *fakeProvider) BuildOrder(ctx context.Context, p adapter.RollupOrderParams) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

type nopSink struct{}

func (nopSink) Push(notify.Notification) {}
func (nopSink) Dismiss(string)           {}

// dialTestConn spins up a frame-recording websocket server and connects a
// protocol client to it.
func dialTestConn(t *testing.T) (*protocol.Client, func() []protocol.Message) {
	t.Helper()
	var mu sync.Mutex
	var frames []protocol.Message
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m protocol.Message
			if json.Unmarshal(raw, &m) == nil {
				mu.Lock()
				frames = append(frames, m)
				mu.Unlock()
			}
		}
	}))
	t.Cleanup(srv.Close)

	conn, err := protocol.Dial(context.Background(),
		"ws"+strings.TrimPrefix(srv.URL, "http"),
		protocol.Options{PingInterval: time.Hour})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn, func() []protocol.Message {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			mu.Lock()
			n := len(frames)
			mu.Unlock()
			if n > 0 {
				break
			}
			time.Sleep(5 * time.Millisecond)
		}
		mu.Lock()
		defer mu.Unlock()
		return append([]protocol.Message(nil), frames...)
	}
}

func testDeps(t *testing.T, provider adapter.RollupProvider) (adapter.Deps, func() []protocol.Message) {
	conn, frames := dialTestConn(t)
	return adapter.Deps{
		Registry:  currency.Default(),
		Conn:      conn,
		Notify:    nopSink{},
		Log:       zap.NewNop().Sugar(),
		Clock:     util.RealClock{},
		Provider:  provider,
		FeePolicy: adapter.DefaultFeeTokenPolicy(),
	}, frames
}

func TestSignInHappyPath(t *testing.T) {
	provider := &fakeProvider{state: adapter.RollupAccountState{
		Address:   "0xabc",
		AccountID: "42",
		Committed: map[string]*big.Int{},
	}}
	deps, frames := testDeps(t, provider)
	mgr := NewManager(&fakeWallet{}, deps)

	if mgr.State() != StateDisconnected {
		t.Fatalf("initial state = %s", mgr.State())
	}
	s, err := mgr.SignIn(context.Background(), adapter.ChainZkSyncMainnet)
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if mgr.State() != StateActive {
		t.Errorf("state = %s, want active", mgr.State())
	}
	if s.AccountID != "42" {
		t.Errorf("AccountID = %q, want 42", s.AccountID)
	}

	got := frames()
	if len(got) == 0 || got[0].Op != protocol.OpLogin {
		t.Fatalf("frames = %v, want leading login", got)
	}
	if len(got[0].Args) != 2 {
		t.Fatalf("login args = %v", got[0].Args)
	}
	if id, ok := got[0].Args[1].(string); !ok || id != "42" {
		t.Errorf("login account id = %v, want \"42\"", got[0].Args[1])
	}
}

func TestSignInWithoutWallet(t *testing.T) {
	deps, _ := testDeps(t, &fakeProvider{})
	mgr := NewManager(nil, deps)

	if _, err := mgr.SignIn(context.Background(), adapter.ChainZkSyncMainnet); !errors.Is(err, ErrWalletUnavailable) {
		t.Errorf("err = %v, want ErrWalletUnavailable", err)
	}
	if mgr.State() != StateDisconnected {
		t.Errorf("state = %s, want disconnected", mgr.State())
	}
}

func TestSignInChainSwitchRejected(t *testing.T) {
	deps, _ := testDeps(t, &fakeProvider{})
	mgr := NewManager(&fakeWallet{rejectSwitch: true}, deps)

	if _, err := mgr.SignIn(context.Background(), adapter.ChainZkSyncMainnet); !errors.Is(err, ErrChainSwitchRejected) {
		t.Errorf("err = %v, want ErrChainSwitchRejected", err)
	}
	if mgr.State() != StateDisconnected {
		t.Errorf("state = %s, want disconnected", mgr.State())
	}
}

func TestSignInUnsupportedChain(t *testing.T) {
	deps, _ := testDeps(t, &fakeProvider{})
	mgr := NewManager(&fakeWallet{}, deps)

	if _, err := mgr.SignIn(context.Background(), 9999); !errors.Is(err, adapter.ErrUnsupportedChain) {
		t.Errorf("err = %v, want ErrUnsupportedChain", err)
	}
}

func TestSignInUnfundedAccount(t *testing.T) {
	// No account id: the rollup has never seen a deposit from this wallet.
	deps, _ := testDeps(t, &fakeProvider{state: adapter.RollupAccountState{Address: "0xabc"}})
	mgr := NewManager(&fakeWallet{}, deps)

	if _, err := mgr.SignIn(context.Background(), adapter.ChainZkSyncMainnet); !errors.Is(err, adapter.ErrAccountNotFound) {
		t.Errorf("err = %v, want ErrAccountNotFound", err)
	}
	if mgr.State() != StateDisconnected {
		t.Errorf("state = %s, want disconnected", mgr.State())
	}
}

func TestSignOut(t *testing.T) {
	provider := &fakeProvider{state: adapter.RollupAccountState{
		AccountID: "42",
		Committed: map[string]*big.Int{},
	}}
	deps, _ := testDeps(t, provider)
	mgr := NewManager(&fakeWallet{}, deps)

	if _, err := mgr.SignIn(context.Background(), adapter.ChainZkSyncMainnet); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	mgr.SignOut()
	if mgr.State() != StateDisconnected {
		t.Errorf("state = %s, want disconnected", mgr.State())
	}
	if mgr.Session() != nil {
		t.Error("session still present after sign-out")
	}
	if _, err := mgr.AccountState(context.Background()); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("AccountState after sign-out: err = %v, want ErrNotSignedIn", err)
	}
}
