// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/degen-vc/infinity-contracts/artifacts"
	"github.com/degen-vc/infinity-contracts/chain"
	"github.com/degen-vc/infinity-contracts/client"
	"github.com/degen-vc/infinity-contracts/config"
	"github.com/degen-vc/infinity-contracts/deployer"
	"github.com/degen-vc/infinity-contracts/harness"
	"github.com/degen-vc/infinity-contracts/registry"
)

const (
	checkCodeKey    = "check-code"
	remoteKey       = "remote"
	addrKey         = "addr"
	checkTimeoutKey = "check-timeout"

	defaultAddr       = "127.0.0.1:9660"
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

var (
	errBadTaskParam = errors.New("task parameters must be key=value")
	errMissingCode  = errors.New("deployments without code")
)

// app holds what every command reads before it runs.
type app struct {
	v      *viper.Viper
	params config.Params
	env    *config.Env
}

func rootCommand() (*cobra.Command, error) {
	fs := buildFlagSet()
	v, err := getViper(fs)
	if err != nil {
		return nil, err
	}
	a := &app{v: v}

	root := &cobra.Command{
		Use:           "infinity",
		Short:         "Deploys and checks the Infinity Protocol contracts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().AddFlagSet(fs)

	for _, build := range []func() (*cobra.Command, error){
		a.deployCommand,
		a.taskCommand,
		a.checkCommand,
		a.deploymentsCommand,
		a.serveCommand,
	} {
		cmd, err := build()
		if err != nil {
			return nil, err
		}
		root.AddCommand(cmd)
	}
	return root, nil
}

func (a *app) load() error {
	params, err := config.ParamsFromViper(a.v)
	if err != nil {
		return err
	}
	a.params = params
	if err := setupLogging(a.params.LogLevel); err != nil {
		return err
	}
	env, err := config.LoadEnv(a.params.EnvFile)
	if err != nil {
		return err
	}
	a.env = env
	return nil
}

func (a *app) options() deployer.Options {
	return deployer.Options{
		LiquidVaultShare: a.params.LiquidVaultShare,
		BurnPercentage:   a.params.BurnPercentage,
	}
}

// bindLocal exposes a command flag through viper as well.
func (a *app) bindLocal(cmd *cobra.Command, keys ...string) error {
	for _, key := range keys {
		if err := a.v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
			return err
		}
	}
	return nil
}

// session is a connection to the selected network.
type session struct {
	network  *config.Resolved
	client   *chain.Client
	registry *registry.Registry
	deployer *deployer.Deployer
}

// connect dials the selected network and prepares a deployer recording into
// [dir]; an empty [dir] keeps the records in memory. Dev networks get extra
// dev accounts when they configure fewer than [minSigners].
func (a *app) connect(ctx context.Context, dir string, minSigners int) (*session, error) {
	nets, err := config.LoadNetworks(a.params.NetworksFile)
	if err != nil {
		return nil, err
	}
	net, err := nets.Resolve(a.params.Network, a.env)
	if err != nil {
		return nil, err
	}
	c, err := chain.Dial(ctx, net.RPCURL)
	if err != nil {
		return nil, err
	}
	s, err := a.prepare(ctx, net, c, dir, minSigners)
	if err != nil {
		c.Close()
		return nil, err
	}
	return s, nil
}

func (a *app) prepare(ctx context.Context, net *config.Resolved, c *chain.Client, dir string, minSigners int) (*session, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain id of %s: %w", net.Name, err)
	}
	keys := net.Keys
	if !net.Live {
		keys = withDevKeys(keys, minSigners)
	}
	signers, err := chain.SignersFromKeys(chainID, net.GasPriceWei(), net.Gas, keys...)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Open(dir)
	if err != nil {
		return nil, err
	}
	d, err := deployer.New(ctx, deployer.Config{
		Network:  net.Name,
		Store:    artifacts.NewStore(a.params.ArtifactsDir),
		Backend:  c,
		Signers:  signers,
		Registry: reg,
		Pause:    a.params.Pause,
	})
	if err != nil {
		_ = reg.Close()
		return nil, err
	}
	log.Info("connected", "network", net.Name, "chainID", chainID, "deployer", d.DeployerAccount().Address.Hex())
	return &session{network: net, client: c, registry: reg, deployer: d}, nil
}

func (s *session) Close() {
	if err := s.registry.Close(); err != nil {
		log.Warn("failed to close registry", "err", err)
	}
	s.client.Close()
}

func withDevKeys(keys []string, n int) []string {
	out := append([]string(nil), keys...)
	for _, k := range config.DevKeys {
		if len(out) >= n {
			break
		}
		dup := false
		for _, have := range out {
			if strings.TrimPrefix(have, "0x") == k {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, k)
		}
	}
	return out
}

func (a *app) deployCommand() (*cobra.Command, error) {
	var long strings.Builder
	long.WriteString("Runs a deploy script. Scripts:\n")
	for _, s := range deployer.Scripts() {
		fmt.Fprintf(&long, "  %-24s %s\n", s.Name, s.Description)
	}

	cmd := &cobra.Command{
		Use:   "deploy <script>",
		Short: "Run a deploy script",
		Long:  long.String(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.params.Timeout)
			defer cancel()

			s, err := a.connect(ctx, a.params.DeploymentsDir, 1)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := deployer.RunScript(ctx, s.deployer, a.env, args[0], a.options()); err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), s.deployer.Summary(), a.params.Output)
		},
	}
	cmd.Flags().StringP(config.OutputKey, "o", "", "Write the deployment summary to this YAML file instead of stdout")
	return cmd, a.bindLocal(cmd, config.OutputKey)
}

func writeSummary(w io.Writer, summary *deployer.Summary, path string) error {
	if path != "" {
		if err := summary.WriteFile(path); err != nil {
			return err
		}
		log.Info("wrote summary", "path", path)
		return nil
	}
	b, err := summary.YAML()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func (a *app) taskCommand() (*cobra.Command, error) {
	tasks := deployer.DefaultTasks()
	var long strings.Builder
	long.WriteString("Runs a named task. Tasks:\n")
	for _, name := range tasks.Names() {
		t, _ := tasks.Get(name)
		fmt.Fprintf(&long, "  %-28s %s\n", t.Name, t.Description)
		for _, p := range t.Params {
			fmt.Fprintf(&long, "      %s=<value>  %s\n", p.Name, p.Description)
		}
	}

	return &cobra.Command{
		Use:   "task <name> [key=value...]",
		Short: "Run a named task",
		Long:  long.String(),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseTaskParams(args[1:])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.params.Timeout)
			defer cancel()
			s, err := a.connect(ctx, a.params.DeploymentsDir, 1)
			if err != nil {
				return err
			}
			defer s.Close()

			addr, err := tasks.Run(ctx, s.deployer, args[0], params)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr.Hex())
			return nil
		},
	}, nil
}

func parseTaskParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q", errBadTaskParam, arg)
		}
		params[strings.TrimPrefix(k, "--")] = v
	}
	return params, nil
}

func (a *app) checkCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "check [suite...]",
		Short: "Run the behavioural checks on a dev chain",
		Long:  fmt.Sprintf("Deploys fixtures and runs the check suites %v, all of them by default.", harness.SuiteNames()),
		RunE: func(cmd *cobra.Command, args []string) error {
			checks, err := harness.Select(args...)
			if err != nil {
				return err
			}
			perCheck, err := cmd.Flags().GetDuration(checkTimeoutKey)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.params.Timeout)
			defer cancel()
			// fixtures are not worth recording
			s, err := a.connect(ctx, "", 3)
			if err != nil {
				return err
			}
			defer s.Close()

			env, err := harness.Setup(ctx, s.deployer, s.client, a.env, a.options())
			if err != nil {
				return err
			}
			report, err := harness.NewRunner(s.client, perCheck).Run(ctx, env, checks)
			printReport(cmd.OutOrStdout(), report)
			if err != nil {
				return err
			}
			return report.Err()
		},
	}
	cmd.Flags().Duration(checkTimeoutKey, harness.DefaultCheckTimeout, "Timeout of a single check")
	return cmd, nil
}

func printReport(w io.Writer, report *harness.Report) {
	if report == nil {
		return
	}
	for _, res := range report.Results {
		if res.Passed() {
			fmt.Fprintf(w, "PASS %s (%s)\n", res.Check, res.Duration.Round(time.Millisecond))
			continue
		}
		fmt.Fprintf(w, "FAIL %s: %v\n", res.Check, res.Err)
	}
	fmt.Fprintf(w, "%d passed, %d failed\n", report.Passed(), len(report.Failed()))
}

func (a *app) deploymentsCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "deployments",
		Short: "List the recorded deployments of the network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.params.Timeout)
			defer cancel()

			remote, err := cmd.Flags().GetString(remoteKey)
			if err != nil {
				return err
			}
			checkCode, err := cmd.Flags().GetBool(checkCodeKey)
			if err != nil {
				return err
			}

			list, err := a.listDeployments(ctx, remote)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no deployments on %s\n", a.params.Network)
				return nil
			}

			var hasCode []bool
			if checkCode {
				if hasCode, err = a.checkCode(ctx, list); err != nil {
					return err
				}
			}
			return printDeployments(cmd.OutOrStdout(), list, hasCode)
		},
	}
	cmd.Flags().Bool(checkCodeKey, false, "Check that every recorded address has code on the network")
	cmd.Flags().String(remoteKey, "", "Read the records from a registry service instead of the directory, e.g. http://"+defaultAddr+"/"+registry.Name)
	return cmd, nil
}

func (a *app) listDeployments(ctx context.Context, remote string) ([]*registry.Deployment, error) {
	if remote != "" {
		list, _, err := client.New(remote).ListDeployments(ctx, a.params.Network)
		return list, err
	}
	reg, err := registry.Open(a.params.DeploymentsDir)
	if err != nil {
		return nil, err
	}
	defer reg.Close()
	return reg.List(a.params.Network)
}

// checkCode reads the code at every address concurrently.
func (a *app) checkCode(ctx context.Context, list []*registry.Deployment) ([]bool, error) {
	nets, err := config.LoadNetworks(a.params.NetworksFile)
	if err != nil {
		return nil, err
	}
	net, err := nets.Resolve(a.params.Network, a.env)
	if err != nil {
		return nil, err
	}
	c, err := chain.Dial(ctx, net.RPCURL)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	hasCode := make([]bool, len(list))
	g, gctx := errgroup.WithContext(ctx)
	for i, dep := range list {
		i, dep := i, dep
		g.Go(func() error {
			code, err := c.CodeAt(gctx, dep.Address, nil)
			if err != nil {
				return fmt.Errorf("failed to read code of %s: %w", dep.Name, err)
			}
			hasCode[i] = len(code) > 0
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hasCode, nil
}

func printDeployments(out io.Writer, list []*registry.Deployment, hasCode []bool) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := "NAME\tADDRESS\tBLOCK\tTX"
	if hasCode != nil {
		header += "\tCODE"
	}
	fmt.Fprintln(w, header)

	missing := 0
	for i, d := range list {
		line := fmt.Sprintf("%s\t%s\t%d\t%s", d.Name, d.Address.Hex(), d.Block, d.TxHash.Hex())
		if hasCode != nil {
			if hasCode[i] {
				line += "\tok"
			} else {
				line += "\tmissing"
				missing++
			}
		}
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if missing > 0 {
		return fmt.Errorf("%w: %d of %d", errMissingCode, missing, len(list))
	}
	return nil
}

func (a *app) serveCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the deployment records over JSON-RPC",
		Long:  "Serves the deployments directory at /" + registry.Name + " and reloads it when the files change.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := cmd.Flags().GetString(addrKey)
			if err != nil {
				return err
			}
			return a.serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().String(addrKey, defaultAddr, "Listen address")
	return cmd, nil
}

func (a *app) serve(ctx context.Context, addr string) error {
	reg, err := registry.Open(a.params.DeploymentsDir)
	if err != nil {
		return err
	}
	defer reg.Close()

	handler, err := registry.NewHandler(reg)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/"+registry.Name, handler)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return reg.Watch(gctx)
	})
	g.Go(func() error {
		log.Info("serving deployments", "addr", addr, "path", "/"+registry.Name, "dir", reg.Dir())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
