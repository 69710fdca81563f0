package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/nlanson/btc-tx/internal/metrics"
	"github.com/nlanson/btc-tx/keys"
	"github.com/nlanson/btc-tx/network"
	"github.com/nlanson/btc-tx/resolver"
	"github.com/nlanson/btc-tx/transaction"
	"github.com/nlanson/btc-tx/txbuilder"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type config struct {
	Network       string        `long:"network" env:"BTCTX_NETWORK" description:"network name (mainnet, testnet, signet, regtest)" default:"testnet"`
	Resolver      string        `long:"resolver" env:"BTCTX_RESOLVER" description:"prevout backend" choice:"static" choice:"rpc" choice:"esplora" default:"static"`
	RPCHost       string        `long:"rpc-host" env:"BTCTX_RPC_HOST" description:"bitcoind RPC host:port" default:"127.0.0.1:18332"`
	RPCUser       string        `long:"rpc-user" env:"BTCTX_RPC_USER" description:"bitcoind RPC username"`
	RPCPassword   string        `long:"rpc-password" env:"BTCTX_RPC_PASSWORD" description:"bitcoind RPC password"`
	EsploraURL    string        `long:"esplora-url" env:"BTCTX_ESPLORA_URL" description:"Esplora API base URL" default:"https://blockstream.info/testnet/api"`
	HTTPTimeout   time.Duration `long:"http-timeout" env:"BTCTX_HTTP_TIMEOUT" description:"timeout of prevout lookups" default:"30s"`
	Prevouts      []string      `long:"prevout" description:"static prevout txid:vout:script_hex:value, repeatable"`
	Inputs        []string      `long:"input" description:"input txid:vout[:sequence], repeatable" required:"true"`
	Outputs       []string      `long:"output" description:"output address:value, value in satoshis or with a btc suffix, repeatable" required:"true"`
	Keys          []string      `long:"key" env:"BTCTX_KEYS" env-delim:"," description:"WIF private key signing every input, repeatable"`
	RedeemScript  string        `long:"redeem-script" description:"p2sh redeem script hex"`
	WitnessScript string        `long:"witness-script" description:"p2wsh witness script hex"`
	NestedWitness bool          `long:"nested-witness" description:"spend the redeem script as a witness script nested in p2sh"`
	SigHash       string        `long:"sighash" description:"sighash type, e.g. ALL or SINGLE|ANYONECANPAY" default:"ALL"`
	Version       int32         `long:"tx-version" description:"transaction version" default:"2"`
	Locktime      uint32        `long:"locktime" description:"transaction locktime" default:"0"`
	MetricsAddr   string        `long:"metrics-addr" env:"BTCTX_METRICS_ADDR" description:"serve prometheus metrics on this address while running"`
	LogJSON       bool          `long:"log-json" description:"log in JSON"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogJSON)
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("btctx failed", zap.Error(err))
	}
}

func newLogger(json bool) (*zap.Logger, error) {
	if json {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	net, err := network.FromName(cfg.Network)
	if err != nil {
		return err
	}
	hashType, err := transaction.ParseSigHashType(cfg.SigHash)
	if err != nil {
		return err
	}
	data, err := signingData(cfg, net)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, logger)
		defer func() {
			_ = srv.Close()
		}()
	}

	prevouts, closeResolver, err := newResolver(cfg, net, logger)
	if err != nil {
		return fmt.Errorf("init prevout resolver: %w", err)
	}
	defer closeResolver()

	b := txbuilder.New(
		resolver.NewCached(prevouts),
		txbuilder.WithNetwork(net),
		txbuilder.WithVersion(cfg.Version),
		txbuilder.WithLocktime(cfg.Locktime),
		txbuilder.WithLogger(logger),
		txbuilder.WithMetrics(metrics.NewSigner()),
	)

	for _, arg := range cfg.Inputs {
		in, err := parseInput(arg)
		if err != nil {
			return err
		}
		if err := b.AddInputWithSequence(in.txid, in.vout, in.sequence); err != nil {
			return err
		}
	}
	for _, arg := range cfg.Outputs {
		out, err := parseOutput(arg)
		if err != nil {
			return err
		}
		if err := b.AddOutput(out.address, out.value); err != nil {
			return err
		}
	}
	for i := 0; i < b.NumInputs(); i++ {
		if err := b.SignInput(ctx, i, data, hashType); err != nil {
			return err
		}
	}

	tx, err := b.Build()
	if err != nil {
		return err
	}
	txHex, err := tx.ToHex()
	if err != nil {
		return err
	}
	txid, err := tx.TxHash()
	if err != nil {
		return err
	}

	fmt.Println(txHex)
	logger.Info("transaction signed",
		zap.Stringer("txid", txid),
		zap.Int("vsize", tx.VirtualSize()),
		zap.Int("weight", tx.Weight()),
	)
	return nil
}

func signingData(cfg config, net *network.Network) (txbuilder.SigningData, error) {
	var data txbuilder.SigningData
	for _, wif := range cfg.Keys {
		key, err := keys.FromWIF(wif, net)
		if err != nil {
			return data, err
		}
		data.Keys = append(data.Keys, key)
	}

	if cfg.RedeemScript != "" {
		redeem, err := hex.DecodeString(cfg.RedeemScript)
		if err != nil {
			return data, fmt.Errorf("parse redeem script: %w", err)
		}
		data.RedeemScript = txbuilder.Plain(redeem)
		if cfg.NestedWitness {
			data.RedeemScript = txbuilder.NestedWitnessV0(redeem)
		}
	}
	if cfg.WitnessScript != "" {
		ws, err := hex.DecodeString(cfg.WitnessScript)
		if err != nil {
			return data, fmt.Errorf("parse witness script: %w", err)
		}
		data.WitnessScript = ws
	}
	return data, nil
}

func newResolver(
	cfg config,
	net *network.Network,
	logger *zap.Logger,
) (resolver.PrevoutResolver, func(), error) {
	switch cfg.Resolver {
	case "rpc":
		client, err := resolver.DialRPC(resolver.RPCConfig{
			Host:       cfg.RPCHost,
			User:       cfg.RPCUser,
			Pass:       cfg.RPCPassword,
			DisableTLS: true,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			client.Shutdown()
			client.WaitForShutdown()
		}
		m := metrics.NewResolver("rpc", net.Name)
		return resolver.NewRPC(client, m, logger), closeFn, nil
	case "esplora":
		client := &http.Client{Timeout: cfg.HTTPTimeout}
		m := metrics.NewResolver("esplora", net.Name)
		return resolver.NewEsplora(cfg.EsploraURL, client, m, logger), func() {}, nil
	}

	static := resolver.NewStatic()
	for _, arg := range cfg.Prevouts {
		p, err := parsePrevout(arg)
		if err != nil {
			return nil, nil, err
		}
		static.Add(p.txid, p.vout, p.script, p.value)
	}
	return static, func() {}, nil
}

func serveMetrics(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return srv
}
