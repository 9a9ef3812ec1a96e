// Command tokend runs the token service: the in-memory ledger, the
// signature-authorization core and the HTTP surface.
//
// Configuration comes from the environment (a .env file is loaded when
// present):
//
//	TOKEND_ADDR       listen address (default ":8080")
//	TOKEN_NAME        token name, bound into the signing domain
//	TOKEN_SYMBOL      token symbol
//	TOKEN_DECIMALS    decimal places (default 18)
//	CHAIN_ID          chain identifier for the signing domain
//	CONTRACT_ADDRESS  contract identity for the signing domain
//	TOKEN_OWNER       administrative owner address
//	TOKEN_CAP         optional supply cap (decimal)
//	INITIAL_SUPPLY    optional supply minted to the owner at startup
package main

import (
	"context"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	_ "github.com/joho/godotenv/autoload"

	token "github.com/simpcl/generic-erc20-token"
	"github.com/simpcl/generic-erc20-token/httpapi"
	"github.com/simpcl/generic-erc20-token/ledger"
	"github.com/simpcl/generic-erc20-token/metrics"
	"github.com/simpcl/generic-erc20-token/store"
)

func main() {
	logger := log.New(os.Stdout, "tokend: ", log.LstdFlags)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatalf("configuration: %v", err)
	}

	l := ledger.New(ledger.Config{
		Name:     cfg.name,
		Symbol:   cfg.symbol,
		Decimals: cfg.decimals,
		Owner:    cfg.owner,
		Cap:      cfg.cap,
	})
	if cfg.initialSupply != nil && cfg.initialSupply.Sign() > 0 {
		if err := l.ConfigureMinter(cfg.owner, cfg.owner, cfg.initialSupply); err != nil {
			logger.Fatalf("configure minter: %v", err)
		}
		if err := l.Mint(cfg.owner, cfg.owner, cfg.initialSupply); err != nil {
			logger.Fatalf("mint initial supply: %v", err)
		}
		logger.Printf("minted initial supply %s to %s", cfg.initialSupply, cfg.owner.Hex())
	}

	t := token.New(cfg.name, cfg.chainID, cfg.contract, l, store.NewNonceStore(), store.NewAuthorizationStore())
	server := httpapi.NewServer(t, l, metrics.NewRegistry(), logger).Listen(cfg.addr)

	logger.Printf("%s (%s) listening on %s, chain %s, domain separator %s",
		cfg.name, cfg.symbol, cfg.addr, cfg.chainID, t.DomainSeparator().Hex())

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	stop()

	logger.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("forced shutdown: %v", err)
	}
	logger.Println("server exiting")
}

type config struct {
	addr          string
	name          string
	symbol        string
	decimals      uint8
	chainID       *big.Int
	contract      common.Address
	owner         common.Address
	cap           *uint256.Int
	initialSupply *big.Int
}

func loadConfig() (config, error) {
	cfg := config{
		addr:     envOr("TOKEND_ADDR", ":8080"),
		name:     envOr("TOKEN_NAME", "Generic Token"),
		symbol:   envOr("TOKEN_SYMBOL", "GEN"),
		decimals: 18,
	}

	if v := os.Getenv("TOKEN_DECIMALS"); v != "" {
		d, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return cfg, badEnv("TOKEN_DECIMALS", v)
		}
		cfg.decimals = uint8(d)
	}

	chainID, ok := new(big.Int).SetString(envOr("CHAIN_ID", "1"), 10)
	if !ok {
		return cfg, badEnv("CHAIN_ID", os.Getenv("CHAIN_ID"))
	}
	cfg.chainID = chainID

	contract := envOr("CONTRACT_ADDRESS", "0x0000000000000000000000000000000000000001")
	if !common.IsHexAddress(contract) {
		return cfg, badEnv("CONTRACT_ADDRESS", contract)
	}
	cfg.contract = common.HexToAddress(contract)

	owner := envOr("TOKEN_OWNER", "0x0000000000000000000000000000000000000002")
	if !common.IsHexAddress(owner) {
		return cfg, badEnv("TOKEN_OWNER", owner)
	}
	cfg.owner = common.HexToAddress(owner)

	if v := os.Getenv("TOKEN_CAP"); v != "" {
		cap, err := uint256.FromDecimal(v)
		if err != nil {
			return cfg, badEnv("TOKEN_CAP", v)
		}
		cfg.cap = cap
	}

	if v := os.Getenv("INITIAL_SUPPLY"); v != "" {
		supply, ok := new(big.Int).SetString(v, 10)
		if !ok || supply.Sign() < 0 {
			return cfg, badEnv("INITIAL_SUPPLY", v)
		}
		cfg.initialSupply = supply
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func badEnv(key, value string) error {
	return &configError{key: key, value: value}
}

type configError struct {
	key, value string
}

func (e *configError) Error() string {
	return "invalid " + e.key + ": " + strconv.Quote(e.value)
}
