// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/inconshreveable/log15"
)

// reloadDelay batches the writes of one deploy into a single reload.
const reloadDelay = 100 * time.Millisecond

var errNoDir = errors.New("registry has no directory to watch")

// Watch reloads the registry whenever a record under its directory changes,
// until [ctx] is done.
func (r *Registry) Watch(ctx context.Context) error {
	if r.dir == "" {
		return errNoDir
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(r.dir); err != nil {
		return err
	}
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := w.Add(filepath.Join(r.dir, e.Name())); err != nil {
				return err
			}
		}
	}
	log.Info("watching deployments", "dir", r.dir)

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !r.relevant(w, ev) {
				continue
			}
			reload = time.After(reloadDelay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("deployments watcher error", "err", err)
		case <-reload:
			reload = nil
			if err := r.Reload(); err != nil {
				log.Warn("failed to reload deployments", "dir", r.dir, "err", err)
			}
		}
	}
}

// relevant reports whether [ev] changes a record. New network directories
// are watched as they appear.
func (r *Registry) relevant(w *fsnotify.Watcher, ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Create) && filepath.Dir(ev.Name) == filepath.Clean(r.dir) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.Add(ev.Name); err != nil {
				log.Warn("failed to watch network", "dir", ev.Name, "err", err)
			}
			return true
		}
	}
	base := filepath.Base(ev.Name)
	return base == ChainIDFile || filepath.Ext(base) == ".json"
}
