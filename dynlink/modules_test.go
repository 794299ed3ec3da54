package dynlink_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/johannst/fun-with-elf/dynlink"
	"github.com/johannst/fun-with-elf/internal/elftest"
)

func TestModulesFindSymbol(t *testing.T) {
	b := elftest.NewBuilder(8)
	addrs := processChain(b,
		fixtureModule{name: "libpreload.so", exports: []string{"recv"}},
		fixtureModule{name: "libc.so.6", exports: []string{"recv", "send"}},
	)
	report, err := dynlink.NewInspector(elftest.TestLogger(t), nil, dynlink.InspectOptions{}).Inspect(b.Head(addrs))
	require.NoError(t, err)

	idx, i, err := report.Modules.FindSymbol("recv")
	require.NoError(t, err)
	require.Equal(t, "libpreload.so", idx.Name())
	require.Equal(t, uint32(1), i)

	idx, _, err = report.Modules.FindSymbol("send")
	require.NoError(t, err)
	require.Equal(t, "libc.so.6", idx.Name())

	_, i, err = report.Modules.FindSymbol("connect")
	require.ErrorIs(t, err, dynlink.ErrSymbolNotFound)
	require.Equal(t, uint32(dynlink.UndefinedIndex), i)

	idx, err = report.Modules.Find("libc.so.6")
	require.NoError(t, err)
	require.True(t, idx.Contains("send"))
	_, err = report.Modules.Find("libz.so.1")
	require.ErrorIs(t, err, dynlink.ErrModuleNotFound)
}

func TestObserveLookup(t *testing.T) {
	metrics := dynlink.NewMetrics(prometheus.NewRegistry())
	metrics.ObserveLookup(true)
	metrics.ObserveLookup(false)
	metrics.ObserveLookup(false)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.SymbolLookups.WithLabelValues("found")))
	require.Equal(t, 2.0, testutil.ToFloat64(metrics.SymbolLookups.WithLabelValues("not_found")))
}
