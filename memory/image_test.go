package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImageMap(t *testing.T) {
	img := NewImage(8)
	require.NoError(t, img.Map(0x1000, []byte("hello\x00")))
	require.ErrorIs(t, img.Map(0x1004, []byte{1, 2}), ErrRegionOverlap)
	require.ErrorIs(t, img.Map(0, []byte{1}), ErrAddressInvalid)
	require.ErrorIs(t, img.Map(0x3000, nil), ErrAddressInvalid)
	require.NoError(t, img.Map(0x2000, []byte{1, 2, 3, 4}))

	regions, err := img.MemRegions()
	require.NoError(t, err)
	require.Len(t, regions, 2)
	require.Equal(t, uint64(0x1000), regions[0].Addr)
	require.Equal(t, uint64(6), regions[0].Size)
	require.Equal(t, uint64(0x2000), regions[1].Addr)

	img.Unmap(0x2000)
	_, err = img.MemRead(0x2000, 1)
	require.ErrorIs(t, err, ErrAddressInvalid)
}

func TestImageRead(t *testing.T) {
	img := NewImage(4)
	require.NoError(t, img.Map(0x1000, []byte{1, 2, 3, 4}))
	require.NoError(t, img.Map(0x1004, []byte{5, 6, 7, 8}))

	data, err := img.MemRead(0x1001, 3)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3, 4}, data)

	// adjacent regions are still separate mappings
	_, err = img.MemRead(0x1002, 4)
	require.ErrorIs(t, err, ErrAddressInvalid)
	_, err = img.MemRead(0xfff, 2)
	require.ErrorIs(t, err, ErrAddressInvalid)
}

func TestRegionContains(t *testing.T) {
	r := Region{Addr: 0x1000, Size: 0x10}
	require.True(t, r.Contains(0x1000, 0x10))
	require.True(t, r.Contains(0x100f, 1))
	require.False(t, r.Contains(0x100f, 2))
	require.False(t, r.Contains(0xfff, 1))
	require.False(t, r.Contains(0x1000, 0x11))

	_, ok := FindRegion([]Region{r}, 0x1008, 8)
	require.True(t, ok)
	_, ok = FindRegion([]Region{r}, 0x1010, 1)
	require.False(t, ok)
}

func TestAlign(t *testing.T) {
	require.Equal(t, uint64(0x10), Align(uint64(1), 0x10))
	require.Equal(t, uint64(0x10), Align(uint64(0x10), 0x10))
	require.Equal(t, 24, Align(17, 8))
	require.Equal(t, uint32(0), Align(uint32(0), 4))
}
