// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package devnet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// node answers eth_chainId with 1337.
func node(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if req.Method != "eth_chainId" {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"error":{"code":-32601,"message":"method not found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":"0x539"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExisting(t *testing.T) {
	srv := node(t)
	c := NewExisting(srv.URL)

	require.NoError(t, c.Start(context.Background()))
	require.Equal(t, srv.URL, c.URL())
	require.NoError(t, c.Teardown(context.Background()))
}

func TestExistingNotReady(t *testing.T) {
	srv := node(t)
	url := srv.URL
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.Error(t, NewExisting(url).Start(ctx))
}

func TestProcessExits(t *testing.T) {
	p := NewProcess(ProcessConfig{
		Command:      "sh",
		Args:         []string{"-c", "exit 3"},
		URL:          "http://127.0.0.1:1",
		ReadyTimeout: 10 * time.Second,
	})
	err := p.Start(context.Background())
	require.ErrorIs(t, err, ErrExited)
	require.Contains(t, err.Error(), "exit code 3")
	require.Nil(t, p.ChainID())
}

func TestProcessStartAndTeardown(t *testing.T) {
	srv := node(t)
	p := NewProcess(ProcessConfig{
		Command: "sleep",
		Args:    []string{"30"},
		URL:     srv.URL,
	})
	require.Equal(t, DefaultReadyTimeout, p.config.ReadyTimeout)

	require.NoError(t, p.Start(context.Background()))
	require.Equal(t, int64(1337), p.ChainID().Int64())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, p.Teardown(ctx))
}

func TestTeardownNotStarted(t *testing.T) {
	require.ErrorIs(t, NewProcess(ProcessConfig{}).Teardown(context.Background()), ErrNotStarted)
}
