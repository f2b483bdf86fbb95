package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/zigzag-exchange/zigzag-go/params"
	"github.com/zigzag-exchange/zigzag-go/pkg/adapter"
	"github.com/zigzag-exchange/zigzag-go/pkg/chain"
	zzcrypto "github.com/zigzag-exchange/zigzag-go/pkg/crypto"
	"github.com/zigzag-exchange/zigzag-go/pkg/currency"
	"github.com/zigzag-exchange/zigzag-go/pkg/notify"
	"github.com/zigzag-exchange/zigzag-go/pkg/order"
	"github.com/zigzag-exchange/zigzag-go/pkg/protocol"
	"github.com/zigzag-exchange/zigzag-go/pkg/provider"
	"github.com/zigzag-exchange/zigzag-go/pkg/session"
	"github.com/zigzag-exchange/zigzag-go/pkg/storage"
	"github.com/zigzag-exchange/zigzag-go/pkg/util"
	"github.com/zigzag-exchange/zigzag-go/pkg/wallet"
)

func main() {
	action := flag.String("action", "balances", "balances | l1balances | order | fill | cancel | cancelall | watch")
	market := flag.String("market", "ETH-USDT", "market pair, e.g. ETH-USDT")
	side := flag.String("side", "s", "order side: b (buy) or s (sell)")
	price := flag.String("price", "", "limit price (decimal)")
	amount := flag.String("amount", "", "base quantity (decimal)")
	orderID := flag.Uint64("order", 0, "resting order id (fill, cancel)")
	flag.Parse()

	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = filepath.Join(cfg.DataDir, "client.log")
	}
	logger, err := util.NewLoggerWithFile(logFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(filepath.Join(cfg.DataDir, "store"))
	if err != nil {
		sugar.Fatalw("store_open_failed", "err", err)
	}
	defer store.Close()

	// Local wallet: configured key, or a fresh one for throwaway sessions.
	var w *wallet.Local
	if cfg.PrivateKeyHex != "" {
		signer, err := zzcrypto.FromPrivateKeyHex(cfg.PrivateKeyHex)
		if err != nil {
			sugar.Fatalw("bad_private_key", "err", err)
		}
		w = wallet.NewLocal(signer)
	} else {
		w, err = wallet.GenerateLocal()
		if err != nil {
			sugar.Fatalw("keygen_failed", "err", err)
		}
	}

	conn, err := protocol.Dial(ctx, cfg.Protocol.WsURL, protocol.Options{
		Logger:       sugar,
		PingInterval: cfg.Protocol.PingInterval,
		OnMessage: func(raw []byte) {
			sugar.Infow("inbound", "frame", string(raw))
		},
		OnClose: func(err error) {
			sugar.Errorw("connection_lost", "err", err)
			stop()
		},
	})
	if err != nil {
		sugar.Fatalw("dial_failed", "url", cfg.Protocol.WsURL, "err", err)
	}
	defer conn.Close()

	deps := adapter.Deps{
		Registry:  currency.Default(),
		Store:     store,
		Conn:      conn,
		Notify:    notify.ZapSink{Log: sugar},
		Log:       sugar,
		Clock:     util.RealClock{},
		Provider:  provider.NewHTTP(cfg.Rollup.ProviderURL, sugar),
		FeePolicy: adapter.DefaultFeeTokenPolicy(),

		Caller:          chain.NewGateway(cfg.ProofChain.GatewayURL, cfg.ProofChain.FeederURL, sugar),
		ExchangeAddress: cfg.ProofChain.ExchangeAddress,

		OwnerAddress: w.Address(),
		L1Bridge:     common.HexToAddress(cfg.L1.BridgeAddress),
	}
	if cfg.ProofChain.AccountContractPath != "" {
		contract, err := os.ReadFile(cfg.ProofChain.AccountContractPath)
		if err != nil {
			sugar.Fatalw("account_contract_read_failed", "path", cfg.ProofChain.AccountContractPath, "err", err)
		}
		deps.AccountContract = json.RawMessage(contract)
	}
	if cfg.L1.RPCURL != "" {
		l1, err := ethclient.DialContext(ctx, cfg.L1.RPCURL)
		if err != nil {
			sugar.Warnw("l1_dial_failed", "url", cfg.L1.RPCURL, "err", err)
		} else {
			deps.L1Client = l1
			defer l1.Close()
		}
	}

	mgr := session.NewManager(w, deps)
	s, err := mgr.SignIn(ctx, cfg.ChainID)
	if err != nil {
		sugar.Fatalw("sign_in_failed", "chain", cfg.ChainID, "err", err)
	}
	defer mgr.SignOut()

	if err := run(ctx, mgr, s, deps, *action, *market, *side, *price, *amount, *orderID); err != nil {
		sugar.Fatalw("action_failed", "action", *action, "err", err)
	}
}

func run(ctx context.Context, mgr *session.Manager, s *adapter.Session, deps adapter.Deps,
	action, market, side, price, amount string, orderID uint64) error {
	ad := mgr.Adapter()

	switch action {
	case "balances":
		balances, err := mgr.AccountState(ctx)
		if err != nil {
			return err
		}
		printBalances(balances)
		return nil

	case "l1balances":
		// What is sitting on Ethereum itself, available to deposit.
		l1, err := adapter.ForL1(s.ChainID, deps)
		if err != nil {
			return err
		}
		ls, err := l1.SignIn(ctx)
		if err != nil {
			return err
		}
		balances, err := l1.Balances(ctx, ls)
		if err != nil {
			return err
		}
		printBalances(balances)
		return nil

	case "order":
		req, err := parseOrder(market, side, price, amount)
		if err != nil {
			return err
		}
		return ad.SubmitOrder(ctx, s, req)

	case "fill":
		if orderID == 0 {
			return fmt.Errorf("fill requires -order")
		}
		req, err := parseOrder(market, side, price, amount)
		if err != nil {
			return err
		}
		return ad.SubmitFill(ctx, s, order.Receipt{
			ChainID:       s.ChainID,
			OrderID:       orderID,
			Market:        req.Market,
			Side:          req.Side,
			Price:         req.Price,
			BaseQuantity:  req.Amount,
			QuoteQuantity: req.Price.Mul(req.Amount),
		})

	case "cancel":
		if orderID == 0 {
			return fmt.Errorf("cancel requires -order")
		}
		return ad.CancelOrder(ctx, s, orderID)

	case "cancelall":
		return ad.CancelAll(ctx, s)

	case "watch":
		<-ctx.Done()
		return nil

	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func printBalances(balances adapter.Balances) {
	for cur, bal := range balances {
		fmt.Printf("%-6s amount=%s", cur, bal.Amount)
		if bal.Allowance != nil {
			fmt.Printf(" allowance=%s", bal.Allowance)
		}
		fmt.Println()
	}
}

func parseOrder(market, side, price, amount string) (order.Request, error) {
	parsedSide, err := order.ParseSide(side)
	if err != nil {
		return order.Request{}, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return order.Request{}, fmt.Errorf("price: %w", err)
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return order.Request{}, fmt.Errorf("amount: %w", err)
	}
	return order.Request{Market: market, Side: parsedSide, Price: p, Amount: a}, nil
}
