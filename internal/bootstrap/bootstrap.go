// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bootstrap wires together Store, the selected Index, the
// EventSink, and the LookupAPI http.Server from a cfg.Config.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fileid-go/fileid/cfg"
	"github.com/fileid-go/fileid/internal/api"
	"github.com/fileid-go/fileid/internal/events"
	"github.com/fileid-go/fileid/internal/fileid"
	"github.com/fileid-go/fileid/internal/logger"
	"github.com/fileid-go/fileid/internal/lookupcache"
	"github.com/fileid-go/fileid/internal/store"
)

// Bootstrap owns every long-lived component of a running service instance.
// Its Index accessor lets an embedding host (this project's own cmd/, or
// a future caller linking the package directly) reach the live index
// after Start, mirroring the original's server-extension registration.
type Bootstrap struct {
	cfg   cfg.Config
	store *store.Store
	index fileid.Index
	sink  *events.Sink
	srv   *http.Server
}

// New constructs every component but does not yet bind the HTTP listener.
func New(ctx context.Context, config cfg.Config) (*Bootstrap, error) {
	st, err := store.Open(ctx, config.Store, config.IndexBackend)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: opening store: %w", err)
	}

	var index fileid.Index
	switch config.IndexBackend {
	case cfg.LocalIndexBackend:
		index, err = fileid.NewLocalIndex(ctx, st, string(config.RootDir), config.AutosyncIntervalSecs)
	case cfg.ArbitraryIndexBackend:
		index = fileid.NewArbitraryIndex(st, string(config.RootDir))
	default:
		err = fmt.Errorf("bootstrap: unrecognized index backend %q", config.IndexBackend)
	}
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("bootstrap: constructing index: %w", err)
	}

	cache := lookupcache.New()
	sink := events.NewSink(index, nil, cache)

	return &Bootstrap{
		cfg:   config,
		store: st,
		index: index,
		sink:  sink,
		srv:   &http.Server{Addr: config.ListenAddr, Handler: api.NewHandler(index, cache)},
	}, nil
}

// Index returns the live Index, for hosts that want direct API access
// alongside (or instead of) the HTTP surface.
func (b *Bootstrap) Index() fileid.Index {
	return b.index
}

// HandleEvent dispatches a contents-service event through the EventSink.
func (b *Bootstrap) HandleEvent(ctx context.Context, event events.Event) error {
	return b.sink.Handle(ctx, event)
}

// Start blocks serving the LookupAPI until ctx is cancelled, then shuts
// the HTTP server down gracefully and closes the store.
func (b *Bootstrap) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("bootstrap: LookupAPI listening on %s", b.cfg.ListenAddr)
		if err := b.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		if err := b.srv.Shutdown(context.Background()); err != nil {
			logger.Warnf("bootstrap: error shutting down LookupAPI: %v", err)
		}
		<-errCh
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	return b.store.Close()
}
