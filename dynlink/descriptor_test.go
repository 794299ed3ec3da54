package dynlink_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johannst/fun-with-elf/dynlink"
	"github.com/johannst/fun-with-elf/internal/elftest"
)

func walkNames(t *testing.T, b *elftest.Builder, addrs []uint64) []string {
	descs, err := dynlink.Walk(b.Head(addrs))
	require.NoError(t, err)
	var names []string
	for d, err := range descs {
		require.NoError(t, err)
		names = append(names, d.DisplayName())
	}
	return names
}

func TestWalk(t *testing.T) {
	for _, ptrSize := range []uint64{4, 8} {
		b := elftest.NewBuilder(ptrSize)
		addrs := b.Chain(
			elftest.Module{Name: "", Base: 0, Dynamic: 0x4000},
			elftest.Module{Name: "linux-vdso.so.1", Base: 0x7000},
			elftest.Module{Name: "/lib/libc.so.6", Base: 0x7f0000},
		)
		require.Equal(t, []string{dynlink.NoName, "linux-vdso.so.1", "/lib/libc.so.6"}, walkNames(t, b, addrs))

		d, err := dynlink.ReadDescriptor(b.Pointer(addrs[2]))
		require.NoError(t, err)
		require.Equal(t, uint64(0x7f0000), d.Base)
		require.Equal(t, addrs[1], d.Prev.Address())
		require.True(t, d.Next.IsNil())
		require.True(t, d.Dynamic.IsNil())

		d, err = dynlink.ReadDescriptor(b.Pointer(addrs[0]))
		require.NoError(t, err)
		require.Equal(t, uint64(0x4000), d.Dynamic.Address())
		require.True(t, d.Prev.IsNil())
	}
}

func TestWalkSingle(t *testing.T) {
	b := elftest.NewBuilder(8)
	addrs := b.Chain(elftest.Module{Name: "a.out"})
	require.Equal(t, []string{"a.out"}, walkNames(t, b, addrs))
}

func TestWalkNullName(t *testing.T) {
	b := elftest.NewBuilder(8)
	addrs := b.Chain(elftest.Module{NullName: true}, elftest.Module{Name: "libm.so.6"})
	require.Equal(t, []string{dynlink.NoName, "libm.so.6"}, walkNames(t, b, addrs))
}

func TestWalkNilHead(t *testing.T) {
	b := elftest.NewBuilder(8)
	_, err := dynlink.Walk(b.Pointer(0))
	require.ErrorIs(t, err, dynlink.ErrInvalidHandle)
	_, err = dynlink.ReadDescriptor(b.Pointer(0))
	require.ErrorIs(t, err, dynlink.ErrInvalidHandle)
}

func TestWalkUnreadableLink(t *testing.T) {
	b := elftest.NewBuilder(8)
	descs, err := dynlink.Walk(b.Pointer(0xdead0000))
	require.NoError(t, err)
	var got []error
	for d, err := range descs {
		require.Nil(t, d)
		got = append(got, err)
	}
	require.Len(t, got, 1)
	require.ErrorIs(t, got[0], dynlink.ErrInvalidHandle)
}

func TestWalkStop(t *testing.T) {
	b := elftest.NewBuilder(8)
	addrs := b.Chain(elftest.Module{Name: "a"}, elftest.Module{Name: "b"}, elftest.Module{Name: "c"})
	descs, err := dynlink.Walk(b.Head(addrs))
	require.NoError(t, err)
	count := 0
	for range descs {
		count++
		if count == 2 {
			break
		}
	}
	require.Equal(t, 2, count)
}

func TestIsVirtualDSO(t *testing.T) {
	require.True(t, dynlink.IsVirtualDSO(&dynlink.Descriptor{Name: "linux-vdso.so.1"}))
	require.True(t, dynlink.IsVirtualDSO(&dynlink.Descriptor{Name: "linux-gate.so.1"}))
	require.False(t, dynlink.IsVirtualDSO(&dynlink.Descriptor{Name: "/lib/libc.so.6"}))
	require.False(t, dynlink.IsVirtualDSO(&dynlink.Descriptor{Name: ""}))
	require.True(t, dynlink.IsVirtualDSO(&dynlink.Descriptor{Name: "custom-vdso"}, "custom"))
	require.False(t, dynlink.IsVirtualDSO(&dynlink.Descriptor{Name: "linux-vdso.so.1"}, "custom"))
}
