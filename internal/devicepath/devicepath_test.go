package devicepath_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/fwforge/fwsched/internal/devicepath"
)

// pciPath builds Pci(func, dev) chains terminated by an end node.
func pciPath(pairs ...[2]byte) []byte {
	b := devicepath.NewBuilder()
	for _, p := range pairs {
		b.Append(devicepath.TypeHardware, devicepath.HardwarePCI, []byte{p[0], p[1]})
	}
	return b.Finish()
}

func TestNodeCount(t *testing.T) {
	path := pciPath([2]byte{0x0, 0x1C}, [2]byte{0x0, 0x0}, [2]byte{0x2, 0x0})

	nodes, size, err := devicepath.NodeCount(path)
	require.NoError(t, err)
	require.Equal(t, 4, nodes, "the end node counts")
	require.Equal(t, len(path), size)
}

func TestNodeCount_Malformed(t *testing.T) {
	t.Run("truncated header", func(t *testing.T) {
		_, _, err := devicepath.NodeCount([]byte{devicepath.TypeHardware, devicepath.HardwarePCI})
		require.ErrorIs(t, err, devicepath.ErrMalformed)
	})

	t.Run("length below header size", func(t *testing.T) {
		_, _, err := devicepath.NodeCount([]byte{devicepath.TypeHardware, devicepath.HardwarePCI, 0x02, 0x00})
		require.ErrorIs(t, err, devicepath.ErrMalformed)
	})

	t.Run("length past the buffer", func(t *testing.T) {
		_, _, err := devicepath.NodeCount([]byte{devicepath.TypeHardware, devicepath.HardwarePCI, 0x10, 0x00})
		require.ErrorIs(t, err, devicepath.ErrMalformed)
	})

	t.Run("missing end node", func(t *testing.T) {
		path := pciPath([2]byte{0x0, 0x1C})
		_, _, err := devicepath.NodeCount(path[:len(path)-4])
		require.ErrorIs(t, err, devicepath.ErrMalformed)
	})
}

func TestCopy_TrimsTrailingBytes(t *testing.T) {
	path := pciPath([2]byte{0x0, 0x1C})
	padded := append(append([]byte{}, path...), 0xDE, 0xAD)

	out, err := devicepath.Copy(padded)
	require.NoError(t, err)
	require.Equal(t, path, out)

	// The copy must not alias the input.
	padded[0] = 0xFF
	require.Equal(t, uint8(devicepath.TypeHardware), out[0])
}

func TestWalker(t *testing.T) {
	path := pciPath([2]byte{0x0, 0x1C}, [2]byte{0x0, 0x0}, [2]byte{0x2, 0x0})
	w := devicepath.NewWalker(path)

	var nodes []devicepath.Node
	for {
		n, ok := w.Next()
		if !ok {
			break
		}
		nodes = append(nodes, n)
	}
	require.NoError(t, w.Err())
	require.Len(t, nodes, 4)

	require.Equal(t, []byte{0x0, 0x1C}, nodes[0].Data)
	require.Equal(t, []byte{0x0, 0x0}, nodes[1].Data)
	require.Equal(t, []byte{0x2, 0x0}, nodes[2].Data)
	require.True(t, nodes[3].IsEnd())
	require.Empty(t, nodes[3].Data)

	require.True(t, nodes[0].Equal(nodes[0]))
	require.False(t, nodes[0].Equal(nodes[1]))
	require.False(t, nodes[0].Equal(nodes[3]))
}

func TestWalker_StopsOnFramingError(t *testing.T) {
	path := pciPath([2]byte{0x0, 0x1C})
	w := devicepath.NewWalker(path[:len(path)-4])

	_, ok := w.Next()
	require.True(t, ok)
	_, ok = w.Next()
	require.False(t, ok)
	require.ErrorIs(t, w.Err(), devicepath.ErrMalformed)
}

func TestRemaining(t *testing.T) {
	a := pciPath([2]byte{0x0, 0x1C}, [2]byte{0x0, 0x0})
	b := pciPath([2]byte{0x0, 0x1C}, [2]byte{0x0, 0x0}, [2]byte{0x2, 0x0})
	c := pciPath([2]byte{0x0, 0x0A})

	t.Run("a is a prefix of b", func(t *testing.T) {
		rest, common, ok, err := devicepath.Remaining(a, b)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, 2, common)
		require.Equal(t, b[len(a)-4:], rest, "rest starts where a's nodes end")
	})

	t.Run("b equals b", func(t *testing.T) {
		rest, common, ok, err := devicepath.Remaining(b, b)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, 3, common)
		require.True(t, devicepath.IsEnd(rest))
	})

	t.Run("a is not a prefix of c", func(t *testing.T) {
		_, _, ok, err := devicepath.Remaining(a, c)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("b is not a prefix of a", func(t *testing.T) {
		_, _, ok, err := devicepath.Remaining(b, a)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestConcat(t *testing.T) {
	a := pciPath([2]byte{0x0, 0x1C})
	b := pciPath([2]byte{0x2, 0x0})

	out, err := devicepath.Concat(a, b)
	require.NoError(t, err)

	nodes, size, err := devicepath.NodeCount(out)
	require.NoError(t, err)
	require.Equal(t, 3, nodes)
	require.Equal(t, len(a)+len(b)-4, size)

	rest, common, ok, err := devicepath.Remaining(a, out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, common)
	require.Equal(t, b, rest)
}

func TestIsEnd(t *testing.T) {
	require.True(t, devicepath.IsEnd(devicepath.NewBuilder().Finish()))
	require.True(t, devicepath.IsEnd(nil))
	require.False(t, devicepath.IsEnd(pciPath([2]byte{0x0, 0x0})))
}

func TestVendorGUID_RoundTrip(t *testing.T) {
	id := uuid.MustParse("d3b36f2c-d551-11d4-9a46-0090273fc14d") // EFI console GUID

	path := devicepath.NewBuilder().
		AppendVendor(devicepath.TypeHardware, devicepath.HardwareVendor, id, []byte{0x01}).
		Finish()

	w := devicepath.NewWalker(path)
	n, ok := w.Next()
	require.True(t, ok)
	require.Equal(t, uint8(devicepath.HardwareVendor), n.SubType)

	got, err := devicepath.VendorGUID(n)
	require.NoError(t, err)
	require.Equal(t, id, got)

	// Mixed-endian layout on the wire: the first field is little-endian.
	require.Equal(t, []byte{0x2c, 0x6f, 0xb3, 0xd3}, n.Data[:4])
}

func TestVendorGUID_ShortData(t *testing.T) {
	n := devicepath.Node{Type: devicepath.TypeHardware, SubType: devicepath.HardwareVendor, Data: []byte{1, 2, 3}}
	_, err := devicepath.VendorGUID(n)
	require.ErrorIs(t, err, devicepath.ErrMalformed)
}

func TestString_Golden(t *testing.T) {
	path := devicepath.NewBuilder().
		Append(devicepath.TypeHardware, devicepath.HardwarePCI, []byte{0x00, 0x1C}).
		Append(devicepath.TypeACPI, 0x00, []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}).
		Finish()

	require.Equal(t,
		"Pci: 0x00,0x1c/Acpi: 0x00,0x01,0x02,0x03,0x04,0x05,0x06,0x07/",
		devicepath.String(path))

	g := goldie.New(t, goldie.WithNameSuffix(".golden"))
	g.Assert(t, "render", []byte(devicepath.String(path)))
}

func TestSubTypeName(t *testing.T) {
	cases := []struct {
		typ, sub uint8
		want     string
	}{
		{devicepath.TypeHardware, devicepath.HardwarePCI, "Pci"},
		{devicepath.TypeHardware, devicepath.HardwarePCCard, "PcCard"},
		{devicepath.TypeHardware, devicepath.HardwareMemMap, "MemMap"},
		{devicepath.TypeHardware, devicepath.HardwareVendor, "Vendor"},
		{devicepath.TypeHardware, devicepath.HardwareController, "Controller"},
		{devicepath.TypeHardware, devicepath.HardwareBMC, "Bmc"},
		{devicepath.TypeHardware, 99, "UnknownHardware"},
		{devicepath.TypeACPI, 0, "Acpi"},
		{devicepath.TypeMessaging, 0, "Msg"},
		{devicepath.TypeBIOS, 0, "Bios"},
		{devicepath.TypeMedia, devicepath.MediaHardDrive, "HardDrive"},
		{devicepath.TypeMedia, devicepath.MediaFirmwareVolume, "FirmwareVolume"},
		{devicepath.TypeMedia, 99, "UnknownMedia"},
		{devicepath.TypeEnd, devicepath.EndInstance, "EndInstance"},
		{devicepath.TypeEnd, devicepath.EndEntire, "EndEntire"},
		{devicepath.TypeEnd, 0, "UnknownEnd"},
		{99, 0, "UnknownType"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, devicepath.SubTypeName(tc.typ, tc.sub))
	}
}
