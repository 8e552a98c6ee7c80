package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/yurifrl/sheetload/pkg/config"
	"github.com/yurifrl/sheetload/pkg/importer"
	"github.com/yurifrl/sheetload/pkg/parser"
)

// inspectView is what inspect dumps for one source file.
type inspectView struct {
	File    string
	Type    parser.FileType
	Header  []string
	Rows    int
	Sample  [][]string
	Mapping map[string]string
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] source_file",
	Short: "Show the header and first rows of a spreadsheet and check the column mapping",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return report(err)
		}
		logger := newLogger(cfg)

		limit, _ := cmd.Flags().GetInt("rows")
		path := args[0]

		table, fileType, err := parser.New(logger).WithCharset(cfg.Source.Charset).Load(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				err = fmt.Errorf("%w at %s", importer.ErrSourceNotFound, path)
			}
			return report(err)
		}

		view := inspectView{
			File:    path,
			Type:    fileType,
			Header:  table.Header,
			Rows:    len(table.Rows),
			Sample:  table.Rows[:max(0, min(limit, len(table.Rows)))],
			Mapping: map[string]string{},
		}
		columns := cfg.Source.Columns
		for field, name := range map[string]string{
			"event_date":  columns.EventDate,
			"description": columns.Description,
			"volume":      columns.Volume,
		} {
			if idx, ok := table.Column(name); ok {
				view.Mapping[field] = fmt.Sprintf("%s (column %d)", name, idx+1)
			} else {
				view.Mapping[field] = fmt.Sprintf("%s (missing)", name)
			}
		}

		pp.Println(view)

		if _, err := columns.Transform(table, cfg.Source.DateLayouts); err != nil {
			return report(err)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().Int("rows", 5, "Number of data rows to show")
}
