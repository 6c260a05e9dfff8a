// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract names, as they appear in artifacts and deployment records.
const (
	InfinityProtocolName      = "InfinityProtocol"
	LightningProtocolName     = "LightningProtocol"
	FeeDistributorName        = "FeeDistributor"
	PriceOracleName           = "PriceOracle"
	LiquidVaultName           = "LiquidVault"
	PowerLiquidVaultName      = "PowerLiquidVault"
	AcceleratorVaultSpaceName = "AcceleratorVaultSpace"
	HodlerVaultSpaceName      = "HodlerVaultSpace"
	MarketsHodlerVaultName    = "MarketsHodlerVault"
	MarketsRegistryFakeName   = "MarketsRegistryFake"
	UniswapV2FactoryName      = "UniswapV2Factory"
	UniswapV2PairName         = "UniswapV2Pair"
	UniswapV2Router02Name     = "UniswapV2Router02"
	WETH9Name                 = "WETH9"
)

const erc20Fragment = `
{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"sender","type":"address"},{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"indexed":true,"name":"from","type":"address"},{"indexed":true,"name":"to","type":"address"},{"indexed":false,"name":"value","type":"uint256"}]},
{"type":"event","name":"Approval","anonymous":false,"inputs":[{"indexed":true,"name":"owner","type":"address"},{"indexed":true,"name":"spender","type":"address"},{"indexed":false,"name":"value","type":"uint256"}]}`

const ownableFragment = `
{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"transferOwnership","stateMutability":"nonpayable","inputs":[{"name":"newOwner","type":"address"}],"outputs":[]},
{"type":"function","name":"renounceOwnership","stateMutability":"nonpayable","inputs":[],"outputs":[]},
{"type":"event","name":"OwnershipTransferred","anonymous":false,"inputs":[{"indexed":true,"name":"previousOwner","type":"address"},{"indexed":true,"name":"newOwner","type":"address"}]}`

const emptyConstructor = `{"type":"constructor","stateMutability":"nonpayable","inputs":[]}`

// InfinityProtocolABI is the fee/burn/rebase token.
var InfinityProtocolABI = joinABI(
	`{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"router","type":"address"}]}`,
	erc20Fragment,
	ownableFragment,
	`{"type":"function","name":"router","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}`,
	`{"type":"function","name":"setFeeReceiver","stateMutability":"nonpayable","inputs":[{"name":"receiver","type":"address"}],"outputs":[]}`,
	`{"type":"function","name":"burn","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]}`,
	`{"type":"function","name":"setFee","stateMutability":"nonpayable","inputs":[{"name":"fee","type":"uint256"}],"outputs":[]}`,
	`{"type":"function","name":"setInitialFee","stateMutability":"nonpayable","inputs":[],"outputs":[]}`,
	`{"type":"function","name":"setMaxCycles","stateMutability":"nonpayable","inputs":[{"name":"maxCycles","type":"uint256"}],"outputs":[]}`,
)

// LightningProtocolABI is the legacy token.
var LightningProtocolABI = joinABI(emptyConstructor, erc20Fragment, ownableFragment)

// FeeDistributorABI splits collected token fees.
var FeeDistributorABI = joinABI(
	emptyConstructor,
	ownableFragment,
	`{"type":"function","name":"seed","stateMutability":"nonpayable","inputs":[{"name":"infinity","type":"address"},{"name":"liquidVault","type":"address"},{"name":"secondaryAddress","type":"address"},{"name":"liquidVaultShare","type":"uint8"},{"name":"burnPercentage","type":"uint8"}],"outputs":[]}`,
	`{"type":"function","name":"recipients","stateMutability":"view","inputs":[],"outputs":[{"name":"liquidVault","type":"address"},{"name":"secondaryAddress","type":"address"},{"name":"liquidVaultShare","type":"uint8"},{"name":"burnPercentage","type":"uint8"}]}`,
	`{"type":"function","name":"infinity","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}`,
	`{"type":"function","name":"initialized","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]}`,
	`{"type":"function","name":"distributeFees","stateMutability":"nonpayable","inputs":[],"outputs":[]}`,
)

// PriceOracleABI is the TWAP oracle over the token pair.
var PriceOracleABI = joinABI(
	`{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"pair","type":"address"},{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}]}`,
)

const vaultFragment = `
{"type":"function","name":"setParameters","stateMutability":"nonpayable","inputs":[{"name":"duration","type":"uint32"},{"name":"donationShare","type":"uint8"},{"name":"purchaseFee","type":"uint8"}],"outputs":[]},
{"type":"function","name":"enableLPForceUnlock","stateMutability":"nonpayable","inputs":[],"outputs":[]},
{"type":"function","name":"forceUnlock","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"getStakeDuration","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"claimLP","stateMutability":"nonpayable","inputs":[],"outputs":[]},
{"type":"function","name":"lockedLPLength","stateMutability":"view","inputs":[{"name":"holder","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"getLockedLP","stateMutability":"view","inputs":[{"name":"holder","type":"address"},{"name":"position","type":"uint256"}],"outputs":[{"name":"","type":"address"},{"name":"","type":"uint256"},{"name":"","type":"uint256"},{"name":"","type":"bool"}]},
{"type":"event","name":"LPQueued","anonymous":false,"inputs":[{"indexed":false,"name":"holder","type":"address"},{"indexed":false,"name":"amount","type":"uint256"},{"indexed":false,"name":"eth","type":"uint256"},{"indexed":false,"name":"infinityTokens","type":"uint256"},{"indexed":false,"name":"timestamp","type":"uint256"}]},
{"type":"event","name":"LPClaimed","anonymous":false,"inputs":[{"indexed":false,"name":"holder","type":"address"},{"indexed":false,"name":"amount","type":"uint256"},{"indexed":false,"name":"timestamp","type":"uint256"},{"indexed":false,"name":"exitFee","type":"uint256"},{"indexed":false,"name":"claimed","type":"bool"}]}`

const ethPurchaseFragment = `
{"type":"function","name":"purchaseLP","stateMutability":"payable","inputs":[],"outputs":[]},
{"type":"event","name":"EthTransferred","anonymous":false,"inputs":[{"indexed":false,"name":"from","type":"address"},{"indexed":false,"name":"amount","type":"uint256"},{"indexed":false,"name":"percentageAmount","type":"uint256"}]}`

const tokenPurchaseFragment = `
{"type":"function","name":"purchaseLP","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
{"type":"event","name":"InfinityTransferred","anonymous":false,"inputs":[{"indexed":false,"name":"from","type":"address"},{"indexed":false,"name":"amount","type":"uint256"},{"indexed":false,"name":"percentageAmount","type":"uint256"}]}`

func vaultConfig(receiver string, withDistributor bool) string {
	outputs := []string{
		`{"name":"infinityToken","type":"address"}`,
		`{"name":"tokenPair","type":"address"}`,
		`{"name":"uniswapRouter","type":"address"}`,
	}
	if withDistributor {
		outputs = append(outputs, `{"name":"feeDistributor","type":"address"}`)
	}
	outputs = append(outputs,
		`{"name":"`+receiver+`","type":"address"}`,
		`{"name":"weth","type":"address"}`,
		`{"name":"stakeDuration","type":"uint32"}`,
		`{"name":"donationShare","type":"uint8"}`,
		`{"name":"purchaseFee","type":"uint8"}`,
	)
	return `{"type":"function","name":"config","stateMutability":"view","inputs":[],"outputs":[` + strings.Join(outputs, ",") + `]}`
}

func setter(name, arg string) string {
	return `{"type":"function","name":"` + name + `","stateMutability":"nonpayable","inputs":[{"name":"` + arg + `","type":"address"}],"outputs":[]}`
}

// LiquidVaultABI is the first ETH vault.
var LiquidVaultABI = joinABI(
	emptyConstructor,
	ownableFragment,
	vaultFragment,
	ethPurchaseFragment,
	`{"type":"function","name":"seed","stateMutability":"nonpayable","inputs":[{"name":"duration","type":"uint32"},{"name":"infinity","type":"address"},{"name":"uniswapPair","type":"address"},{"name":"uniswapRouter","type":"address"},{"name":"feeReceiver","type":"address"},{"name":"donationShare","type":"uint8"},{"name":"purchaseFee","type":"uint8"}],"outputs":[]}`,
	vaultConfig("feeReceiver", false),
	setter("setFeeReceiverAddress", "feeReceiver"),
)

// PowerLiquidVaultABI is the ETH vault that also drains the fee distributor.
var PowerLiquidVaultABI = joinABI(
	emptyConstructor,
	ownableFragment,
	vaultFragment,
	ethPurchaseFragment,
	`{"type":"function","name":"seed","stateMutability":"nonpayable","inputs":[{"name":"duration","type":"uint32"},{"name":"infinity","type":"address"},{"name":"uniswapPair","type":"address"},{"name":"uniswapRouter","type":"address"},{"name":"feeDistributor","type":"address"},{"name":"feeReceiver","type":"address"},{"name":"donationShare","type":"uint8"},{"name":"purchaseFee","type":"uint8"}],"outputs":[]}`,
	vaultConfig("feeReceiver", true),
	setter("setFeeReceiverAddress", "feeReceiver"),
)

// AcceleratorVaultSpaceABI sends the purchase fee to the ETH hodler.
var AcceleratorVaultSpaceABI = joinABI(
	emptyConstructor,
	ownableFragment,
	vaultFragment,
	ethPurchaseFragment,
	`{"type":"function","name":"seed","stateMutability":"nonpayable","inputs":[{"name":"duration","type":"uint32"},{"name":"infinity","type":"address"},{"name":"uniswapPair","type":"address"},{"name":"uniswapRouter","type":"address"},{"name":"feeDistributor","type":"address"},{"name":"ethHodler","type":"address"},{"name":"donationShare","type":"uint8"},{"name":"purchaseFee","type":"uint8"}],"outputs":[]}`,
	vaultConfig("ethHodler", true),
	setter("setEthHodlerAddress", "ethHodler"),
)

// HodlerVaultSpaceABI is paid in tokens instead of ETH.
var HodlerVaultSpaceABI = joinABI(
	emptyConstructor,
	ownableFragment,
	vaultFragment,
	tokenPurchaseFragment,
	`{"type":"function","name":"seed","stateMutability":"nonpayable","inputs":[{"name":"duration","type":"uint32"},{"name":"infinity","type":"address"},{"name":"uniswapPair","type":"address"},{"name":"uniswapRouter","type":"address"},{"name":"feeReceiver","type":"address"},{"name":"purchaseFee","type":"uint8"}],"outputs":[]}`,
	vaultConfig("feeReceiver", false),
	setter("setFeeReceiver", "feeReceiver"),
)

// MarketsHodlerVaultABI is the token vault topped up from the markets registry.
var MarketsHodlerVaultABI = joinABI(
	emptyConstructor,
	ownableFragment,
	vaultFragment,
	tokenPurchaseFragment,
	`{"type":"function","name":"seed","stateMutability":"nonpayable","inputs":[{"name":"duration","type":"uint32"},{"name":"infinity","type":"address"},{"name":"registry","type":"address"},{"name":"uniswapPair","type":"address"},{"name":"uniswapRouter","type":"address"},{"name":"feeReceiver","type":"address"},{"name":"purchaseFee","type":"uint8"}],"outputs":[]}`,
	vaultConfig("feeReceiver", false),
	setter("setFeeReceiver", "feeReceiver"),
	`{"type":"function","name":"registryRecover","stateMutability":"nonpayable","inputs":[],"outputs":[]}`,
)

// MarketsRegistryFakeABI is the test registry MarketsHodlerVault recovers
// WETH from.
var MarketsRegistryFakeABI = joinABI(
	emptyConstructor,
	`{"type":"function","name":"enableSecondaryReceiver","stateMutability":"nonpayable","inputs":[{"name":"receiver","type":"address"}],"outputs":[]}`,
	`{"type":"function","name":"secondaryReceiver","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}`,
)

// UniswapV2FactoryABI covers pair creation and lookup.
var UniswapV2FactoryABI = joinABI(
	`{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"_feeToSetter","type":"address"}]}`,
	`{"type":"function","name":"createPair","stateMutability":"nonpayable","inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],"outputs":[{"name":"pair","type":"address"}]}`,
	`{"type":"function","name":"getPair","stateMutability":"view","inputs":[{"name":"","type":"address"},{"name":"","type":"address"}],"outputs":[{"name":"","type":"address"}]}`,
	`{"type":"function","name":"allPairsLength","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}`,
	`{"type":"event","name":"PairCreated","anonymous":false,"inputs":[{"indexed":true,"name":"token0","type":"address"},{"indexed":true,"name":"token1","type":"address"},{"indexed":false,"name":"pair","type":"address"},{"indexed":false,"name":"","type":"uint256"}]}`,
)

// UniswapV2PairABI is the LP token.
var UniswapV2PairABI = joinABI(
	erc20Fragment,
	`{"type":"function","name":"token0","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}`,
	`{"type":"function","name":"token1","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}`,
	`{"type":"function","name":"getReserves","stateMutability":"view","inputs":[],"outputs":[{"name":"_reserve0","type":"uint112"},{"name":"_reserve1","type":"uint112"},{"name":"_blockTimestampLast","type":"uint32"}]}`,
	`{"type":"event","name":"Mint","anonymous":false,"inputs":[{"indexed":true,"name":"sender","type":"address"},{"indexed":false,"name":"amount0","type":"uint256"},{"indexed":false,"name":"amount1","type":"uint256"}]}`,
	`{"type":"event","name":"Swap","anonymous":false,"inputs":[{"indexed":true,"name":"sender","type":"address"},{"indexed":false,"name":"amount0In","type":"uint256"},{"indexed":false,"name":"amount1In","type":"uint256"},{"indexed":false,"name":"amount0Out","type":"uint256"},{"indexed":false,"name":"amount1Out","type":"uint256"},{"indexed":true,"name":"to","type":"address"}]}`,
	`{"type":"event","name":"Sync","anonymous":false,"inputs":[{"indexed":false,"name":"reserve0","type":"uint112"},{"indexed":false,"name":"reserve1","type":"uint112"}]}`,
)

// UniswapV2Router02ABI covers adding ETH liquidity.
var UniswapV2Router02ABI = joinABI(
	`{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"_factory","type":"address"},{"name":"_WETH","type":"address"}]}`,
	`{"type":"function","name":"factory","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}`,
	`{"type":"function","name":"WETH","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}`,
	`{"type":"function","name":"addLiquidityETH","stateMutability":"payable","inputs":[{"name":"token","type":"address"},{"name":"amountTokenDesired","type":"uint256"},{"name":"amountTokenMin","type":"uint256"},{"name":"amountETHMin","type":"uint256"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amountToken","type":"uint256"},{"name":"amountETH","type":"uint256"},{"name":"liquidity","type":"uint256"}]}`,
)

// WETH9ABI is wrapped ether.
var WETH9ABI = joinABI(
	emptyConstructor,
	erc20Fragment,
	`{"type":"function","name":"deposit","stateMutability":"payable","inputs":[],"outputs":[]}`,
	`{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"wad","type":"uint256"}],"outputs":[]}`,
)

// embedded maps contract names to their fallback ABI.
var embedded = map[string]string{
	InfinityProtocolName:      InfinityProtocolABI,
	LightningProtocolName:     LightningProtocolABI,
	FeeDistributorName:        FeeDistributorABI,
	PriceOracleName:           PriceOracleABI,
	LiquidVaultName:           LiquidVaultABI,
	PowerLiquidVaultName:      PowerLiquidVaultABI,
	AcceleratorVaultSpaceName: AcceleratorVaultSpaceABI,
	HodlerVaultSpaceName:      HodlerVaultSpaceABI,
	MarketsHodlerVaultName:    MarketsHodlerVaultABI,
	MarketsRegistryFakeName:   MarketsRegistryFakeABI,
	UniswapV2FactoryName:      UniswapV2FactoryABI,
	UniswapV2PairName:         UniswapV2PairABI,
	UniswapV2Router02Name:     UniswapV2Router02ABI,
	WETH9Name:                 WETH9ABI,
}

func joinABI(fragments ...string) string {
	return "[" + strings.Join(fragments, ",") + "]"
}

// EmbeddedABIJSON returns the built-in ABI of [name] as JSON.
func EmbeddedABIJSON(name string) (string, bool) {
	raw, ok := embedded[name]
	return raw, ok
}

// EmbeddedABI returns the built-in ABI of [name].
func EmbeddedABI(name string) (abi.ABI, bool) {
	raw, ok := embedded[name]
	if !ok {
		return abi.ABI{}, false
	}
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed, true
}
