// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"
	"strings"

	log "github.com/inconshreveable/log15"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/degen-vc/infinity-contracts/config"
)

// envPrefix namespaces the environment overrides of the flags, e.g.
// INFINITY_NETWORK for --network.
const envPrefix = "INFINITY"

func buildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("infinity", pflag.ContinueOnError)

	fs.String(config.NetworkKey, config.DefaultNetwork, fmt.Sprintf("Network to use %v", config.DefaultNetworks().Names()))
	fs.String(config.EnvFileKey, config.DefaultEnvFile, "Dotenv file with addresses and keys")
	fs.String(config.NetworksFileKey, "", "TOML file overriding the network profiles")
	fs.String(config.ArtifactsDirKey, config.DefaultArtifactsDir, "Hardhat artifacts directory")
	fs.String(config.DeploymentsDirKey, config.DefaultDeploymentsDir, "Deployment records directory")
	fs.Duration(config.PauseKey, config.DefaultPause, "Pause between deploy steps")
	fs.Duration(config.TimeoutKey, config.DefaultTimeout, "Timeout of a command")
	fs.String(config.LogLevelKey, config.DefaultLogLevel, "Log level (debug, info, warn, error, crit)")
	fs.Uint8(config.LiquidVaultShareKey, config.DefaultLiquidVaultShare, "FeeDistributor share of the liquid vault, in percent")
	fs.Uint8(config.BurnPercentageKey, config.DefaultBurnPercentage, "FeeDistributor burn, in percent")

	return fs
}

// getViper returns the viper environment bound to [fs]. Flags can also be set
// through INFINITY_* environment variables.
func getViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

// setupLogging sends records at [level] and above to stderr.
func setupLogging(level string) error {
	lvl, err := log.LvlFromString(level)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", config.LogLevelKey, level, err)
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.TerminalFormat())))
	return nil
}
