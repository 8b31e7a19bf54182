package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newReportCmd(dataDir *string) *cobra.Command {
	report := &cobra.Command{Use: "report", Short: "Render or export session reports"}

	for _, kind := range []struct{ name, short string }{
		{"summary", "Plain-text summary"},
		{"table", "Per-lap CSV table"},
		{"note", "Markdown note with YAML frontmatter"},
	} {
		var locale string
		var export bool
		cmd := &cobra.Command{
			Use:   kind.name,
			Short: kind.short,
			RunE: func(cmd *cobra.Command, _ []string) error {
				app, err := openSession(*dataDir)
				if err != nil {
					return err
				}
				defer func() { _ = app.Close() }()
				ctx := context.Background()
				if export {
					out, err := app.ReportCLI.Export(ctx, kind.name, locale)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out.Path, out.Bytes)
					return nil
				}
				out, err := app.ReportCLI.Preview(ctx, kind.name, locale)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), out.Content)
				return nil
			},
		}
		cmd.Flags().StringVar(&locale, "locale", "", "report language: en|ru (default from config)")
		cmd.Flags().BoolVar(&export, "export", false, "write the report to the report dir instead of stdout")
		report.AddCommand(cmd)
	}

	return report
}
