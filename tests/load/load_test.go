// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// load implements the load tests of the deployments service.
package load_test

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/inconshreveable/log15"
	ginkgo "github.com/onsi/ginkgo/v2"
	"github.com/onsi/ginkgo/v2/formatter"
	"github.com/onsi/gomega"
	"golang.org/x/sync/errgroup"

	"github.com/degen-vc/infinity-contracts/client"
	"github.com/degen-vc/infinity-contracts/config"
	"github.com/degen-vc/infinity-contracts/registry"
)

func TestLoad(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "infinity-contracts load test suites")
}

var (
	requestTimeout time.Duration

	registryURI string
	network     string

	workers     int
	duration    time.Duration
	records     int
	minRequests uint64
)

func init() {
	flag.DurationVar(
		&requestTimeout,
		"request-timeout",
		10*time.Second,
		"timeout of a single request",
	)

	flag.StringVar(
		&registryURI,
		"registry-uri",
		"",
		"deployments service to load, e.g. http://127.0.0.1:9660/deployments; empty serves generated records in process",
	)

	flag.StringVar(
		&network,
		"network",
		config.LocalhostNetwork,
		"network whose records are read",
	)

	flag.IntVar(
		&workers,
		"workers",
		8,
		"concurrent readers",
	)

	flag.DurationVar(
		&duration,
		"duration",
		5*time.Second,
		"how long the readers run",
	)

	flag.IntVar(
		&records,
		"records",
		50,
		"records generated for the in-process service",
	)

	flag.Uint64Var(
		&minRequests,
		"min-requests",
		100,
		"requests the readers must complete",
	)
}

var (
	server *httptest.Server
	reg    *registry.Registry
	cli    client.Client
	names  []string
)

var _ = ginkgo.BeforeSuite(func() {
	if registryURI == "" {
		outf("{{green}}serving %d generated records in process{{/}}\n", records)
		var err error
		reg, err = registry.Open("")
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Expect(reg.SetChainID(network, 1337)).Should(gomega.Succeed())
		for i := 0; i < records; i++ {
			gomega.Expect(reg.Record(&registry.Deployment{
				Network: network,
				Name:    fmt.Sprintf("Contract%03d", i),
				Address: common.BigToAddress(big.NewInt(int64(i + 1))),
				Block:   uint64(i),
				Args:    []string{},
			})).Should(gomega.Succeed())
		}

		handler, err := registry.NewHandler(reg)
		gomega.Expect(err).Should(gomega.BeNil())
		mux := http.NewServeMux()
		mux.Handle("/"+registry.Name, handler)
		server = httptest.NewServer(mux)
		registryURI = server.URL + "/" + registry.Name
	}
	outf("{{blue}}deployments service:{{/}} %s\n", registryURI)
	cli = client.New(registryURI)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	list, _, err := cli.ListDeployments(ctx, network)
	cancel()
	gomega.Expect(err).Should(gomega.BeNil())
	gomega.Expect(list).ShouldNot(gomega.BeEmpty())
	for _, d := range list {
		names = append(names, d.Name)
	}
})

var _ = ginkgo.AfterSuite(func() {
	if server != nil {
		outf("{{red}}shutting down service{{/}}\n")
		server.Close()
	}
	if reg != nil {
		gomega.Expect(reg.Close()).Should(gomega.BeNil())
	}
})

var _ = ginkgo.Describe("[Deployments]", func() {
	ginkgo.It("lists the networks", func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		networks, err := cli.Networks(ctx)
		gomega.Ω(err).Should(gomega.BeNil())
		gomega.Ω(networks).Should(gomega.ContainElement(network))
	})

	ginkgo.It("serves concurrent readers", func() {
		ctx, cancel := context.WithTimeout(context.Background(), duration)
		defer cancel()

		var done uint64
		g, gctx := errgroup.WithContext(ctx)
		for w := 0; w < workers; w++ {
			w := w
			g.Go(func() error {
				defer ginkgo.GinkgoRecover()

				for i := w; gctx.Err() == nil; i++ {
					rctx, rcancel := context.WithTimeout(gctx, requestTimeout)
					name := names[i%len(names)]
					d, err := cli.GetDeployment(rctx, network, name)
					rcancel()
					if gctx.Err() != nil {
						return nil
					}
					gomega.Ω(err).Should(gomega.BeNil())
					gomega.Ω(d.Name).Should(gomega.Equal(name))
					atomic.AddUint64(&done, 1)
				}
				return nil
			})
		}
		start := time.Now()
		g.Go(func() error {
			last := uint64(0)
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
				}
				n := atomic.LoadUint64(&done)
				log.Info("performance", "requests", n,
					"avg rps", float64(n)/time.Since(start).Seconds(),
					"last rps", n-last,
				)
				last = n
			}
		})
		gomega.Ω(g.Wait()).Should(gomega.BeNil())

		total := atomic.LoadUint64(&done)
		outf("{{green}}%d requests in %s{{/}}\n", total, duration)
		gomega.Ω(total).Should(gomega.BeNumerically(">=", minRequests))
	})
})

// Outputs to stdout.
//
// e.g.,
//
//	Out("{{green}}{{bold}}hi there %q{{/}}", "aa")
//	Out("{{magenta}}{{bold}}hi therea{{/}} {{cyan}}{{underline}}b{{/}}")
//
// ref.
// https://github.com/onsi/ginkgo/blob/v2.0.0/formatter/formatter.go#L52-L73
func outf(format string, args ...interface{}) {
	s := formatter.F(format, args...)
	fmt.Fprint(formatter.ColorableStdOut, s)
}
