package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapetech/clipgen/internal/journal"
)

func newRunsCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent generation runs from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.JournalPath == "" {
				return fmt.Errorf("journal disabled: set journal_path or CLIPGEN_JOURNAL")
			}
			j, err := journal.Open(a.cfg.JournalPath, a.log.Named("journal"))
			if err != nil {
				return err
			}
			defer j.Close()
			entries, err := j.Recent(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if entries == nil {
					entries = []journal.Entry{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tTAGS\tRESULT")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Started.Format("2006-01-02 15:04:05"), tagList(e), result(e))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func tagList(e journal.Entry) string {
	parts := make([]string, len(e.Tags))
	for i, t := range e.Tags {
		parts[i] = strconv.Itoa(int(t))
	}
	return strings.Join(parts, ",")
}

func result(e journal.Entry) string {
	switch {
	case !e.Done():
		return "running"
	case e.Error != "":
		return "failed: " + e.Error
	default:
		return "ok (" + e.Finished.Sub(e.Started).Round(time.Millisecond).String() + ")"
	}
}
