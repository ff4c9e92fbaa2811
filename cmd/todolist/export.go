package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"todolist/internal/service"
)

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write today's report as CSV",
		Long: `Write today's report (every task created today) as CSV.

With --out pointing at a directory the file gets the default report name;
"-" or no flag writes to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tasks, closeDB, err := a.openTasks()
			if err != nil {
				return err
			}
			defer closeDB()

			name, data, err := service.NewReportJob(tasks, "", nil, a.logger).Build(cmd.Context())
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), out, name, data)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file or directory")
	return cmd
}

func writeReport(stdout io.Writer, out, name string, data []byte) error {
	if out == "" || out == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		out = filepath.Join(out, name)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
