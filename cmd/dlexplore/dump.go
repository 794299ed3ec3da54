package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/ianlancetaylor/demangle"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/johannst/fun-with-elf/dynlink"
)

var dumpDemangle bool

var dumpCmd = &cobra.Command{
	Use:   "dump [module...]",
	Short: "Dump the hash tables of the modules",
	Long: `dump prints the SysV hash table of every parsed module, or of the named
modules, with the exported names grouped by bucket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := inspectProcess()
		if err != nil {
			return err
		}
		modules, err := selectModules(report.Modules, args)
		if err != nil {
			return err
		}
		renderDump(cmd.OutOrStdout(), modules, dumpDemangle)
		return nil
	},
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpDemangle, "demangle", false, "demangle C++ and Rust symbol names")
}

func selectModules(modules dynlink.Modules, names []string) (dynlink.Modules, error) {
	if len(names) == 0 {
		return modules, nil
	}
	selected := make(dynlink.Modules, 0, len(names))
	for _, name := range names {
		idx, err := modules.Find(name)
		if err != nil {
			return nil, errors.Wrap(err, name)
		}
		selected = append(selected, idx)
	}
	return selected, nil
}

func renderDump(w io.Writer, modules dynlink.Modules, demangleNames bool) {
	for _, idx := range modules {
		fmt.Fprintf(w, "HashTable for %s\n", idx.Name())
		fmt.Fprintf(w, "NumBuckets: %d NumChains: %d\n", idx.NumBuckets(), idx.NumChains())

		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Bucket", "Index", "Symbol"})
		table.SetAutoMergeCells(true)
		table.SetRowLine(true)
		for bucket, symbols := range idx.Buckets {
			for _, sym := range symbols {
				name := sym.Name
				if demangleNames {
					name = demangle.Filter(name)
				}
				table.Append([]string{
					strconv.FormatUint(uint64(bucket), 10),
					strconv.FormatUint(uint64(sym.Index), 10),
					name,
				})
			}
		}
		table.Render()
	}
}
