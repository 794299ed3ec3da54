package discover_test

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/johannst/fun-with-elf/discover"
	"github.com/johannst/fun-with-elf/dynlink"
	"github.com/johannst/fun-with-elf/internal/elftest"
)

const (
	testPid   = 4242
	phdrVaddr = 0x40
)

type executable struct {
	b       *elftest.Builder
	auxv    []byte
	head    uint64
	dynamic uint64
}

// newExecutable maps the program headers and dynamic section of a position
// independent executable, and the auxv the kernel would pass it.
func newExecutable(t *testing.T, ptrSize uint64, progs []elf.ProgType, dynamic []elftest.Dyn) *executable {
	b := elftest.NewBuilder(ptrSize)
	exe := &executable{b: b}
	exe.dynamic = b.Dynamic(dynamic, true)

	// the load bias follows from where the headers land
	phdr := b.Alloc(make([]byte, 0x200))
	bias := phdr - phdrVaddr
	var buf bytes.Buffer
	for _, typ := range progs {
		var vaddr uint64
		switch typ {
		case elf.PT_PHDR:
			vaddr = phdrVaddr
		case elf.PT_DYNAMIC:
			vaddr = exe.dynamic - bias
		}
		if ptrSize == 4 {
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, elf.Prog32{Type: uint32(typ), Vaddr: uint32(vaddr)}))
		} else {
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, elf.Prog64{Type: uint32(typ), Vaddr: vaddr}))
		}
	}
	b.Image.Unmap(phdr)
	if buf.Len() != 0 {
		require.NoError(t, b.Image.Map(phdr, buf.Bytes()))
	}

	phent := uint64(56)
	if ptrSize == 4 {
		phent = 32
	}
	exe.auxv = b.Words(
		33, 0x7ffd0000,
		3, phdr,
		4, phent,
		5, uint64(len(progs)),
		9, 0x1000,
		0, 0,
	)
	return exe
}

func (exe *executable) fs() fstest.MapFS {
	return fstest.MapFS{
		fmt.Sprintf("proc/%d/auxv", testPid): &fstest.MapFile{Data: exe.auxv},
	}
}

func TestParseAuxv(t *testing.T) {
	b := elftest.NewBuilder(8)
	raw := b.Words(33, 0x7ffd0000, 3, 0x400040, 4, 56, 5, 13, 7, 0x7f000000, 9, 0x401000, 0, 0, 3, 0xdead)
	auxv := discover.ParseAuxv(raw, 8, binary.LittleEndian)
	require.Equal(t, discover.Auxv{
		Phdr:  0x400040,
		Phent: 56,
		Phnum: 13,
		Base:  0x7f000000,
		Entry: 0x401000,
		Vdso:  0x7ffd0000,
	}, auxv)

	b = elftest.NewBuilder(4)
	auxv = discover.ParseAuxv(b.Words(3, 0x8048034, 5, 9), 4, binary.LittleEndian)
	require.Equal(t, uint64(0x8048034), auxv.Phdr)
	require.Equal(t, uint64(9), auxv.Phnum)
}

func TestFirstModule(t *testing.T) {
	for _, ptrSize := range []uint64{4, 8} {
		t.Run(fmt.Sprint(ptrSize), func(t *testing.T) {
			exe := newExecutable(t, ptrSize,
				[]elf.ProgType{elf.PT_PHDR, elf.PT_INTERP, elf.PT_LOAD, elf.PT_DYNAMIC},
				nil,
			)
			addrs := exe.b.Chain(elftest.Module{Name: ""}, elftest.Module{Name: "/lib/ld-linux.so.2"})
			debug := exe.b.Alloc(exe.b.Words(1, addrs[0]))
			exe.setDynamic(t, []elftest.Dyn{{Tag: elf.DT_NEEDED, Val: 1}, {Tag: elf.DT_DEBUG, Val: debug}})

			head, err := discover.FirstModule(exe.fs(), testPid, exe.b.Image)
			require.NoError(t, err)
			require.Equal(t, addrs[0], head.Address())

			descs, err := dynlink.Walk(head)
			require.NoError(t, err)
			var names []string
			for d, err := range descs {
				require.NoError(t, err)
				names = append(names, d.DisplayName())
			}
			require.Equal(t, []string{dynlink.NoName, "/lib/ld-linux.so.2"}, names)
		})
	}
}

// setDynamic rewrites the executable's dynamic section in place.
func (exe *executable) setDynamic(t *testing.T, entries []elftest.Dyn) {
	var values []uint64
	for _, e := range entries {
		values = append(values, uint64(e.Tag), e.Val)
	}
	values = append(values, uint64(elf.DT_NULL), 0)
	exe.b.Image.Unmap(exe.dynamic)
	require.NoError(t, exe.b.Image.Map(exe.dynamic, exe.b.Words(values...)))
}

func TestFirstModuleErrors(t *testing.T) {
	t.Run("static", func(t *testing.T) {
		exe := newExecutable(t, 8, []elf.ProgType{elf.PT_PHDR, elf.PT_LOAD}, nil)
		_, err := discover.FirstModule(exe.fs(), testPid, exe.b.Image)
		require.ErrorIs(t, err, discover.ErrNoDynamicSection)
	})

	t.Run("no program headers", func(t *testing.T) {
		exe := newExecutable(t, 8, nil, nil)
		_, err := discover.FirstModule(exe.fs(), testPid, exe.b.Image)
		require.ErrorIs(t, err, discover.ErrNoProgramHeaders)
	})

	t.Run("no auxv", func(t *testing.T) {
		exe := newExecutable(t, 8, []elf.ProgType{elf.PT_PHDR, elf.PT_DYNAMIC}, nil)
		_, err := discover.FirstModule(fstest.MapFS{}, testPid, exe.b.Image)
		require.Error(t, err)
	})

	t.Run("no debug entry", func(t *testing.T) {
		exe := newExecutable(t, 8, []elf.ProgType{elf.PT_PHDR, elf.PT_DYNAMIC}, []elftest.Dyn{{Tag: elf.DT_NEEDED, Val: 1}})
		_, err := discover.FirstModule(exe.fs(), testPid, exe.b.Image)
		require.ErrorIs(t, err, discover.ErrNoDebugEntry)
	})

	t.Run("debug entry unset", func(t *testing.T) {
		exe := newExecutable(t, 8, []elf.ProgType{elf.PT_PHDR, elf.PT_DYNAMIC}, []elftest.Dyn{{Tag: elf.DT_DEBUG, Val: 0}})
		_, err := discover.FirstModule(exe.fs(), testPid, exe.b.Image)
		require.ErrorIs(t, err, discover.ErrNotInitialized)
	})

	t.Run("empty r_map", func(t *testing.T) {
		exe := newExecutable(t, 8, []elf.ProgType{elf.PT_PHDR, elf.PT_DYNAMIC}, nil)
		debug := exe.b.Alloc(exe.b.Words(1, 0))
		exe.setDynamic(t, []elftest.Dyn{{Tag: elf.DT_DEBUG, Val: debug}})
		_, err := discover.FirstModule(exe.fs(), testPid, exe.b.Image)
		require.ErrorIs(t, err, discover.ErrNotInitialized)
	})

	t.Run("unterminated dynamic", func(t *testing.T) {
		b := elftest.NewBuilder(8)
		dynamic := b.Dynamic([]elftest.Dyn{{Tag: elf.DT_NEEDED, Val: 1}}, false)
		_, err := discover.HeadFromDynamic(b.Pointer(dynamic))
		require.ErrorIs(t, err, dynlink.ErrMalformedDynamicSection)
	})
}

func TestDynamicSectionBelowHeaders(t *testing.T) {
	for _, ptrSize := range []uint64{4, 8} {
		t.Run(fmt.Sprint(ptrSize), func(t *testing.T) {
			// the dynamic section is mapped before the headers, so its vaddr
			// is negative relative to the load bias
			exe := newExecutable(t, ptrSize, []elf.ProgType{elf.PT_PHDR, elf.PT_DYNAMIC}, nil)
			auxv := discover.ParseAuxv(exe.auxv, int(ptrSize), binary.LittleEndian)
			require.Greater(t, auxv.Phdr, exe.dynamic)

			dynamic, err := discover.DynamicSection(exe.b.Image, auxv)
			require.NoError(t, err)
			require.Equal(t, exe.dynamic, dynamic.Address())
		})
	}
}
