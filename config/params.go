// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Viper keys of the command line parameters.
const (
	NetworkKey          = "network"
	EnvFileKey          = "env-file"
	NetworksFileKey     = "networks-file"
	ArtifactsDirKey     = "artifacts"
	DeploymentsDirKey   = "deployments"
	PauseKey            = "pause"
	LiquidVaultShareKey = "liquid-vault-share"
	BurnPercentageKey   = "burn-percentage"
	LogLevelKey         = "log-level"
	OutputKey           = "output"
	TimeoutKey          = "timeout"
)

// Defaults of the deploy scripts.
const (
	DefaultNetwork          = LocalhostNetwork
	DefaultEnvFile          = ".env"
	DefaultArtifactsDir     = "artifacts"
	DefaultDeploymentsDir   = "deployments"
	DefaultPause            = 3 * time.Second
	DefaultLiquidVaultShare = 60
	DefaultBurnPercentage   = 10
	DefaultLogLevel         = "info"
	DefaultTimeout          = 10 * time.Minute
)

var ErrInvalidPercentage = errors.New("invalid percentage")

// Params are the parameters shared by every command.
type Params struct {
	Network        string
	EnvFile        string
	NetworksFile   string
	ArtifactsDir   string
	DeploymentsDir string
	Pause          time.Duration
	Timeout        time.Duration
	LogLevel       string
	Output         string

	LiquidVaultShare uint8
	BurnPercentage   uint8
}

// ParamsFromViper reads Params from [v]. The seed percentages must each be
// within 0-100 and add up to at most 100.
func ParamsFromViper(v *viper.Viper) (Params, error) {
	share, err := percentage(v, LiquidVaultShareKey)
	if err != nil {
		return Params{}, err
	}
	burn, err := percentage(v, BurnPercentageKey)
	if err != nil {
		return Params{}, err
	}
	if int(share)+int(burn) > 100 {
		return Params{}, fmt.Errorf("%w: %s %d and %s %d add up to more than 100",
			ErrInvalidPercentage, LiquidVaultShareKey, share, BurnPercentageKey, burn)
	}

	return Params{
		Network:          v.GetString(NetworkKey),
		EnvFile:          v.GetString(EnvFileKey),
		NetworksFile:     v.GetString(NetworksFileKey),
		ArtifactsDir:     v.GetString(ArtifactsDirKey),
		DeploymentsDir:   v.GetString(DeploymentsDirKey),
		Pause:            v.GetDuration(PauseKey),
		Timeout:          v.GetDuration(TimeoutKey),
		LogLevel:         v.GetString(LogLevelKey),
		Output:           v.GetString(OutputKey),
		LiquidVaultShare: share,
		BurnPercentage:   burn,
	}, nil
}

// percentage reads [key] without the wrap-around of a plain uint8 conversion.
func percentage(v *viper.Viper, key string) (uint8, error) {
	n, err := cast.ToIntE(v.Get(key))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%v", ErrInvalidPercentage, key, v.Get(key))
	}
	if n < 0 || n > 100 {
		return 0, fmt.Errorf("%w: %s=%d is outside 0-100", ErrInvalidPercentage, key, n)
	}
	return uint8(n), nil
}
