package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"github.com/partsportal/catalog-sync/internal/model"
	"github.com/partsportal/catalog-sync/internal/view"
)

type listOptions struct {
	query model.ListQuery
}

func newListCommand(root *rootOptions) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Watch a page of catalog offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.query.Page, "page", 1, "page number")
	f.IntVar(&opts.query.Limit, "limit", 0, "page size (views.page_limit when 0)")
	f.StringVarP(&opts.query.Q, "query", "q", "", "free-text search")
	f.StringVar(&opts.query.Brand, "brand", "", "part brand")
	f.StringVar(&opts.query.Make, "make", "", "vehicle make")
	f.StringVar(&opts.query.Model, "model", "", "vehicle model")
	f.IntVar(&opts.query.Year, "year", 0, "vehicle year")

	return cmd
}

// normalizeQuery fills the page size and puts text filters in NFC so
// accented input matches the catalog regardless of how it was typed.
func normalizeQuery(q model.ListQuery, defaultLimit int) model.ListQuery {
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	q.Q = norm.NFC.String(q.Q)
	q.Brand = norm.NFC.String(q.Brand)
	q.Make = norm.NFC.String(q.Make)
	q.Model = norm.NFC.String(q.Model)
	return q
}

func runList(cmd *cobra.Command, root *rootOptions, opts *listOptions) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, root.cfg, root.NoStream, root.logger)
	if err != nil {
		return err
	}
	defer a.stop()

	q := normalizeQuery(opts.query, root.cfg.Views.PageLimit)
	v := view.NewList(a.client, a.router, q, root.logger, view.WithMetrics(a.metrics))

	r := newRenderer(cmd.OutOrStdout())
	render := func(stream string) {
		frame(r.w)
		r.list(v.Snapshot(), stream)
	}
	debug := func() any { return listDebugOf(v.Snapshot()) }

	return a.watch(ctx, "list", v, render, debug, !root.NoStatus)
}
