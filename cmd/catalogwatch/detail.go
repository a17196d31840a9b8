package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/partsportal/catalog-sync/internal/view"
)

func newDetailCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detail <sku>",
		Short: "Watch one product and its offers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetail(cmd, root, strings.TrimSpace(args[0]))
		},
	}
}

func runDetail(cmd *cobra.Command, root *rootOptions, sku string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, root.cfg, root.NoStream, root.logger)
	if err != nil {
		return err
	}
	defer a.stop()

	v := view.NewDetail(a.client, a.router, sku, root.logger, view.WithMetrics(a.metrics))

	r := newRenderer(cmd.OutOrStdout())
	render := func(stream string) {
		frame(r.w)
		r.detail(v.Snapshot(), stream)
	}
	debug := func() any { return detailDebugOf(v.Snapshot()) }

	return a.watch(ctx, "detail:"+sku, v, render, debug, !root.NoStatus)
}
