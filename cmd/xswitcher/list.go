package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/xswitcher/internal/switcher"
)

func newListCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List visible windows",
		Long: "List windows that are not hidden from pagers or task lists. An optional query keeps\n" +
			"windows whose title, workspace or application contain it, case-insensitively.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return a.withAPI(cmd, func(ctx context.Context, api switcher.API) error {
				items, err := api.Query(ctx, query)
				if err != nil {
					return err
				}
				return printItems(cmd.OutOrStdout(), items, format)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, yaml")
	return cmd
}

func printItems(w io.Writer, items []switcher.Item, format string) error {
	if items == nil {
		items = []switcher.Item{}
	}
	switch strings.ToLower(format) {
	case "", "text":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tWORKSPACE\tAPP\tTITLE")
		for _, it := range items {
			fmt.Fprintf(tw, "0x%08x\t%s\t%s\t%s\n", uint32(it.WindowID), it.Subtext, it.AppKey, it.Title)
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(items)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format: %s (use text, json or yaml)", format)
	}
}
