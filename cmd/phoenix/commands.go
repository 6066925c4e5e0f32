package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sppas/phoenix/internal/aio"
	"github.com/sppas/phoenix/internal/licenses"
	"github.com/sppas/phoenix/internal/version"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newFormatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List the annotation file extensions the editor reads and writes",
		Run: func(cmd *cobra.Command, args []string) {
			r := aio.NewRegistry()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Annotation formats:")
			for _, ext := range r.Extensions() {
				fmt.Fprintf(out, "  %-8s %s\n", ext, r.Software(ext))
			}
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newLicensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "licenses",
		Short: "Show third-party license notices",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := licenses.NoticesText()
			if text == "" {
				return fmt.Errorf("embedded THIRD_PARTY_NOTICES is empty")
			}
			_, err := cmd.OutOrStdout().Write([]byte(text))
			return err
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
