package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/johannst/fun-with-elf/dynlink"
)

var hasCmd = &cobra.Command{
	Use:   "has [symbol...]",
	Short: "Ask every module whether it exports the symbols",
	Long: `has asks every parsed module whether it exports each symbol and reports the
module the global lookup scope binds the symbol to. Without arguments the
symbols of the [query] configuration section are used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		symbols := args
		if len(symbols) == 0 {
			symbols = cfg.file.Query.Symbols
		}
		report, err := inspectProcess()
		if err != nil {
			return err
		}
		renderHas(cmd.OutOrStdout(), report.Modules, symbols, cfg.metrics)
		return nil
	},
}

var (
	foundClr    = color.New(color.FgGreen)
	notFoundClr = color.New(color.FgRed)
)

func renderHas(w io.Writer, modules dynlink.Modules, symbols []string, metrics *dynlink.Metrics) {
	symbols = lo.Uniq(symbols)
	for _, idx := range modules {
		fmt.Fprintf(w, "Found %s\n", idx.Name())
		for _, symbol := range symbols {
			found := idx.Contains(symbol)
			metrics.ObserveLookup(found)
			result := notFoundClr.Sprint("not found")
			if found {
				result = foundClr.Sprint("found")
			}
			fmt.Fprintf(w, "\thas symbol=%s ? %s\n", symbol, result)
		}
	}
	for _, symbol := range symbols {
		idx, i, err := modules.FindSymbol(symbol)
		if err != nil {
			fmt.Fprintf(w, "%s: %s\n", symbol, notFoundClr.Sprint("unresolved"))
			continue
		}
		fmt.Fprintf(w, "%s: resolves to %s [%d]\n", symbol, idx.Name(), i)
	}
}
