// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Names of the environment variables read by the deploy scripts.
const (
	RouterKey         = "ROUTER"
	FactoryKey        = "FACTORY"
	FeeReceiverKey    = "FEE_RECEIVER"
	AlfajoresCeloKey  = "ALFAJORES_CELO"
	PairKey           = "PAIR"
	TokenAKey         = "TOKENA"
	TokenBKey         = "TOKENB"
	CeloMainnetURLKey = "FORNO_CELO_MAINNET"
	CeloTestnetURLKey = "FORNO_CELO_TESTNET"
	DevURLKey         = "DEV_RPC_URL"
	DeployerKeyKey    = "DEPLOYER_PRIVATE_KEY"
	OwnerKeyKey       = "OWNER_PRIVATE_KEY"
	EtherscanKey      = "ETHERSCAN_API_KEY"
)

var addressKeys = []string{RouterKey, FactoryKey, FeeReceiverKey, AlfajoresCeloKey, PairKey, TokenAKey, TokenBKey}

var (
	ErrMissingVariable = errors.New("missing environment variable")
	ErrInvalidAddress  = errors.New("invalid address")
)

// Env holds the process configuration the scripts read from the environment.
type Env struct {
	Router        string `env:"ROUTER"`
	Factory       string `env:"FACTORY"`
	FeeReceiver   string `env:"FEE_RECEIVER"`
	AlfajoresCelo string `env:"ALFAJORES_CELO"`
	Pair          string `env:"PAIR"`
	TokenA        string `env:"TOKENA"`
	TokenB        string `env:"TOKENB"`

	CeloMainnetURL string `env:"FORNO_CELO_MAINNET"`
	CeloTestnetURL string `env:"FORNO_CELO_TESTNET"`
	DevURL         string `env:"DEV_RPC_URL" envDefault:"http://127.0.0.1:8545"`

	DeployerKey     string `env:"DEPLOYER_PRIVATE_KEY"`
	OwnerKey        string `env:"OWNER_PRIVATE_KEY"`
	EtherscanAPIKey string `env:"ETHERSCAN_API_KEY"`

	vars map[string]string
}

// LoadEnv reads [envFile] (dotenv syntax, optional) and overlays the process
// environment on top of it. An empty [envFile] skips the file.
func LoadEnv(envFile string) (*Env, error) {
	vars := make(map[string]string)
	if envFile != "" {
		fileVars, err := readDotenv(envFile)
		if err != nil {
			return nil, err
		}
		for k, val := range fileVars {
			vars[k] = val
		}
	}
	for _, kv := range os.Environ() {
		k, val, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		vars[k] = val
	}
	return ParseEnv(vars)
}

// ParseEnv decodes [vars] into an Env and validates every address it holds.
func ParseEnv(vars map[string]string) (*Env, error) {
	e := &Env{vars: vars}
	if err := env.ParseWithOptions(e, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	var errs []error
	for _, key := range addressKeys {
		if val := e.Get(key); val != "" && !common.IsHexAddress(val) {
			errs = append(errs, fmt.Errorf("%w: %s=%q", ErrInvalidAddress, key, val))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return e, nil
}

// readDotenv loads a dotenv file through viper. A missing file is not an
// error: the scripts run from the process environment alone in CI.
func readDotenv(path string) (map[string]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	vars := make(map[string]string)
	for _, k := range v.AllKeys() {
		vars[strings.ToUpper(k)] = v.GetString(k)
	}
	return vars, nil
}

// Get returns the raw value of [key], or "" when it is not set.
func (e *Env) Get(key string) string {
	switch key {
	case RouterKey:
		return e.Router
	case FactoryKey:
		return e.Factory
	case FeeReceiverKey:
		return e.FeeReceiver
	case AlfajoresCeloKey:
		return e.AlfajoresCelo
	case PairKey:
		return e.Pair
	case TokenAKey:
		return e.TokenA
	case TokenBKey:
		return e.TokenB
	case CeloMainnetURLKey:
		return e.CeloMainnetURL
	case CeloTestnetURLKey:
		return e.CeloTestnetURL
	case DevURLKey:
		return e.DevURL
	case DeployerKeyKey:
		return e.DeployerKey
	case OwnerKeyKey:
		return e.OwnerKey
	case EtherscanKey:
		return e.EtherscanAPIKey
	}
	return e.vars[key]
}

// Address returns [key] as an address. Unset and zero addresses are errors.
func (e *Env) Address(key string) (common.Address, error) {
	val := e.Get(key)
	if val == "" {
		return common.Address{}, fmt.Errorf("%w: %s", ErrMissingVariable, key)
	}
	if !common.IsHexAddress(val) {
		return common.Address{}, fmt.Errorf("%w: %s=%q", ErrInvalidAddress, key, val)
	}
	addr := common.HexToAddress(val)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s is the zero address", ErrInvalidAddress, key)
	}
	return addr, nil
}

// RequireAddresses checks every key in [keys] and reports all failures at once.
func (e *Env) RequireAddresses(keys ...string) error {
	var errs []error
	for _, key := range keys {
		if _, err := e.Address(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
