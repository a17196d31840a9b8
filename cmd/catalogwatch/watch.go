package main

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"
)

// watchedView is the part of view.List and view.Detail the watcher drives.
type watchedView interface {
	Mount(ctx context.Context) error
	Close()
	Reload() error
	Changes() <-chan struct{}
}

// watch mounts v, starts the stream and re-renders on every change until ctx
// is done. The status server runs alongside unless disabled.
func (a *app) watch(ctx context.Context, name string, v watchedView, render func(stream string), debug func() any, status bool) error {
	if err := v.Mount(ctx); err != nil {
		return err
	}
	defer v.Close()

	a.poller.Add(name, v)
	if err := a.start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if status {
		h := newStatusHandler(statusDeps{
			Stream:      a.manager.Stats,
			Router:      a.router.Stats,
			Ping:        a.pingFunc(),
			View:        debug,
			Metrics:     a.metrics.Handler(),
			MetricsPath: a.cfg.Metrics.Path,
		})
		g.Go(func() error {
			return serveStatus(gctx, a.cfg.Metrics.Port, h, a.logger)
		})
	}

	g.Go(func() error {
		changes := v.Changes()
		for {
			select {
			case <-gctx.Done():
				return nil
			case _, ok := <-changes:
				if !ok {
					return nil
				}
				render(a.manager.State().String())
			}
		}
	})

	return g.Wait()
}

func (a *app) pingFunc() func(context.Context) error {
	if a.pool == nil {
		return nil
	}
	return a.ping
}

// frame separates successive renders.
func frame(w io.Writer) {
	io.WriteString(w, "\n")
}
