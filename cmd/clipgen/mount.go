package main

import (
	"github.com/spf13/cobra"

	"github.com/snapetech/clipgen/internal/clipfs"
)

func newMountCmd(a *app) *cobra.Command {
	var (
		dir        string
		allowOther bool
	)
	cmd := &cobra.Command{
		Use:   "mount",
		Short: "Mount the generated clips read-only via FUSE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir != "" {
				a.cfg.MountPoint = dir
			}
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()
			a.ensureReady(s.c)
			return clipfs.Serve(cmd.Context(), a.cfg.MountPoint, s.c, clipfs.Options{AllowOther: allowOther, Log: a.log.Named("clipfs")})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "mount point (overrides config)")
	cmd.Flags().BoolVar(&allowOther, "allow-other", false, "let other users read the mount")
	return cmd
}
