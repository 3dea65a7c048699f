package serial_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fwforge/fwsched/components/hobparser"
	"github.com/fwforge/fwsched/components/serial"
	"github.com/fwforge/fwsched/internal/component"
	"github.com/fwforge/fwsched/internal/devicepath"
	"github.com/fwforge/fwsched/internal/dispatch"
	"github.com/fwforge/fwsched/internal/storage"
)

func TestInitAndBanner_EndToEnd(t *testing.T) {
	hobList := hobparser.NewBuilder().
		AppendResource(uuid.New(), hobparser.ResourceSystemMemory, 0x7, 0x0, 0x1000).
		AppendResource(uuid.New(), hobparser.ResourceSystemMemory, 0x7, 0x100000, 0x2000).
		Finish()

	s := storage.New()
	s.AddConfig(serial.Config{Port: "COM1", BaudRate: 115200, Enabled: true})

	var out bytes.Buffer
	d := dispatch.New()
	d.Register(
		hobparser.New(hobList),
		serial.NewInit(&out),
		serial.NewBanner(),
	)

	stalled, err := d.Run(context.Background(), s)
	require.NoError(t, err)
	require.Empty(t, stalled)

	require.Contains(t, out.String(), "[COM1] console on Acpi:")
	require.Contains(t, out.String(), "[COM1] memory: 2 ranges, 12288 bytes")
}

func TestInit_DisabledPublishesNothing(t *testing.T) {
	s := storage.New()
	s.AddConfig(serial.Config{Port: "COM1", Enabled: false})

	var out bytes.Buffer
	d := dispatch.New()
	d.Register(serial.NewInit(&out), serial.NewBanner())

	stalled, err := d.Run(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, []dispatch.Stalled{{
		Name:  "boot-banner",
		Param: "Service[serial.Console]",
	}}, stalled)
	require.Empty(t, out.String())
}

func TestBanner_WithoutMemoryMapProducer(t *testing.T) {
	s := storage.New()
	s.AddConfig(serial.Config{Port: "ttyS0", BaudRate: 9600, Enabled: true})

	var out bytes.Buffer
	d := dispatch.New()
	d.Register(serial.NewInit(&out), serial.NewBanner())

	stalled, err := d.Run(context.Background(), s)
	require.NoError(t, err)
	require.Empty(t, stalled)
	require.Contains(t, out.String(), "[ttyS0] memory: 0 ranges, 0 bytes")
}

func TestUART_DevicePathShape(t *testing.T) {
	var out bytes.Buffer
	rec := struct{ path []byte }{}

	grab := component.NewFunc("path-grabber",
		func(con component.Service[serial.Console]) error {
			rec.path = con.Get().DevicePath()
			return nil
		},
		component.UseService[serial.Console]())

	s := storage.New()
	s.AddConfig(serial.Config{Port: "COM2", BaudRate: 19200, Enabled: true})
	d := dispatch.New()
	d.Register(serial.NewInit(&out), grab)

	stalled, err := d.Run(context.Background(), s)
	require.NoError(t, err)
	require.Empty(t, stalled)

	nodes, _, err := devicepath.NodeCount(rec.path)
	require.NoError(t, err)
	require.Equal(t, 4, nodes, "Acpi, Uart, Vendor, End")

	w := devicepath.NewWalker(rec.path)
	acpi, _ := w.Next()
	require.Equal(t, uint8(devicepath.TypeACPI), acpi.Type)

	uartNode, _ := w.Next()
	require.Equal(t, uint8(devicepath.TypeMessaging), uartNode.Type)

	vendor, _ := w.Next()
	id, err := devicepath.VendorGUID(vendor)
	require.NoError(t, err)
	require.Equal(t, "e0c14753-f9be-11d2-9a0c-0090273fc14d", id.String())
}
