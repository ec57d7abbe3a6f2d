package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/born-ml/grad/internal/engine"
)

func newDevicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List backends and whether their device opens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BACKEND\tDEVICE\tSTATUS")
			for _, d := range engine.Devices(a.cfg.DeviceIndex) {
				status := "ok"
				if d.Err != nil {
					status = d.Err.Error()
				}
				name := d.Name
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.Backend, name, status)
			}
			return w.Flush()
		},
	}
}
