package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/johannst/fun-with-elf/dynlink"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the modules of the link chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := inspectProcess()
		if err != nil {
			return err
		}
		renderList(cmd.OutOrStdout(), report, cfg.file.Inspect.VirtualDSOMarkers, listAll)
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listAll, "all", false, "show load base, dynamic section and parse status")
}

func moduleStatus(report *dynlink.Report, d *dynlink.Descriptor, markers []string) string {
	if dynlink.IsVirtualDSO(d, markers...) {
		return "virtual DSO, skipped"
	}
	parsed := lo.ContainsBy(report.Modules, func(idx *dynlink.Index) bool {
		return idx.Descriptor().Addr.Address() == d.Addr.Address()
	})
	if !parsed {
		return "skipped"
	}
	return "parsed"
}

func renderList(w io.Writer, report *dynlink.Report, markers []string, all bool) {
	if !all {
		for _, d := range report.Walked {
			if dynlink.IsVirtualDSO(d, markers...) {
				fmt.Fprintf(w, "%s (skipped)\n", d.DisplayName())
				continue
			}
			fmt.Fprintln(w, d.DisplayName())
		}
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Module", "Base", "Dynamic", "Status"})
	for _, d := range report.Walked {
		table.Append([]string{
			d.DisplayName(),
			"0x" + strconv.FormatUint(d.Base, 16),
			"0x" + strconv.FormatUint(d.Dynamic.Address(), 16),
			moduleStatus(report, d, markers),
		})
	}
	table.Render()
}
