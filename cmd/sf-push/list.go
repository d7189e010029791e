package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tdambrin/sf-push/config"
)

func (a *app) listCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Reconcile and print worksheets without uploading them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(a.v)
			if err := cfg.ValidateSource(); err != nil {
				return err
			}

			worksheets, err := a.loadWorksheets(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(worksheets)
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FOLDER\tNAME\tTYPE\tID\tBYTES")
			for _, ws := range worksheets {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
					ws.FolderName, ws.Name, ws.ContentType, ws.ID, len(ws.Content))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print worksheets, content included, as JSON")

	return cmd
}
