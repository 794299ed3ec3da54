//go:build linux

package discover_test

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johannst/fun-with-elf/discover"
	"github.com/johannst/fun-with-elf/dynlink"
	"github.com/johannst/fun-with-elf/internal/elftest"
	"github.com/johannst/fun-with-elf/memory"
)

func TestFirstModuleSelf(t *testing.T) {
	proc, err := memory.Self()
	if err != nil {
		t.Skipf("procfs unavailable: %v", err)
	}
	head, err := discover.FirstModule(os.DirFS("/"), proc.Pid(), proc)
	if errors.Is(err, discover.ErrNoDynamicSection) {
		t.Skip("test binary is statically linked")
	} else if err != nil {
		t.Skipf("cannot read own address space: %v", err)
	}

	in := dynlink.NewInspector(elftest.TestLogger(t), nil, dynlink.InspectOptions{SkipMissing: true})
	report, err := in.Inspect(head)
	require.NoError(t, err)
	require.NotEmpty(t, report.Walked)
	require.Equal(t, "", report.Walked[0].Name)
}
