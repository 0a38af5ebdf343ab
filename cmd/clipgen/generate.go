package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapetech/clipgen/internal/content"
	"github.com/snapetech/clipgen/internal/tui"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		force bool
		tags  []string
		noTUI bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build missing clips, or all of them with --force",
		Long: `Builds the clip catalog under the storage root. Without --force nothing
happens when every clip is already on disk. --tag limits the run to the
given clips (index, name or file name) and always rebuilds them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()
			c := s.c
			out := cmd.OutOrStdout()

			want := c.Catalog().Tags()
			if len(tags) > 0 {
				want = nil
				for _, arg := range tags {
					t, err := c.Catalog().ParseTag(arg)
					if err != nil {
						return err
					}
					want = append(want, t)
				}
			} else if !force && c.IsContentReady() {
				fmt.Fprintf(out, "content ready in %s\n", c.StorageRoot())
				return nil
			}

			if !noTUI && a.interactive() {
				err = tui.Run(c, want, nil)
			} else {
				err = c.RequestGeneration(want, content.NewLogSink(a.log.Named("generate"), c.Catalog())).Wait()
			}
			if err != nil {
				return err
			}
			for _, ar := range c.Artifacts() {
				fmt.Fprintf(out, "%-24s %10d bytes  %s\n", ar.Name, ar.Size, ar.Path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "rebuild every clip even if present")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "clip to build (repeatable)")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "log progress instead of drawing a progress bar")
	return cmd
}
