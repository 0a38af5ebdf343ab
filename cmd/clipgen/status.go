package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapetech/clipgen/internal/health"
)

func newStatusCmd(a *app) *cobra.Command {
	var endpoint string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report readiness, missing clips and encoder health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()
			c := s.c
			out := cmd.OutOrStdout()

			c.Adopt()
			fmt.Fprintf(out, "storage: %s\n", c.StorageRoot())
			fmt.Fprintf(out, "ready:   %t\n", c.IsContentReady())
			for _, t := range c.Missing() {
				fmt.Fprintf(out, "missing: %s\n", c.Catalog().Label(t))
			}
			for _, ar := range c.Artifacts() {
				fmt.Fprintf(out, "clip:    %s (%d bytes, %s)\n", ar.Name, ar.Size, ar.GeneratedAt.Format("2006-01-02 15:04:05"))
			}

			if v, err := health.CheckEncoder(cmd.Context(), a.cfg.FFmpegPath); err != nil {
				fmt.Fprintf(out, "encoder: %v\n", err)
			} else {
				fmt.Fprintf(out, "encoder: %s\n", v)
			}
			if endpoint != "" {
				if err := health.CheckEndpoints(cmd.Context(), endpoint); err != nil {
					fmt.Fprintf(out, "server:  %v\n", err)
					return err
				}
				fmt.Fprintf(out, "server:  ok\n")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&endpoint, "check", "", "also probe a running server at this base URL")
	return cmd
}
