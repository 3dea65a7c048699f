// Package serial brings up the platform console: it turns the manifest's
// serial config into a published Console service, and prints the boot banner
// once the console and the memory map are available.
package serial

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/fwforge/fwsched/components/hobparser"
	"github.com/fwforge/fwsched/internal/component"
	"github.com/fwforge/fwsched/internal/devicepath"
	"github.com/fwforge/fwsched/internal/manifest"
)

// Config selects and configures the console UART. Seeded from the manifest's
// `config "serial"` block.
type Config struct {
	Port     string `fw:"port"`
	BaudRate int    `fw:"baud_rate"`
	Enabled  bool
}

// Console is the service published once the UART is up.
type Console interface {
	// WriteLine emits one line on the console.
	WriteLine(line string) error
	// DevicePath returns the UEFI device path of the underlying device.
	DevicePath() []byte
}

// Messaging subtype of a UART device path node.
const msgUART = 0x0E

// pnp0501 is the EISA ID of a 16550-compatible UART (PNP0501).
const pnp0501 = 0x050cd041

// pcAnsiGUID identifies the PC-ANSI terminal type in a vendor messaging node.
var pcAnsiGUID = uuid.MustParse("e0c14753-f9be-11d2-9a0c-0090273fc14d")

type uart struct {
	out  io.Writer
	port string
	path []byte
}

func newUART(out io.Writer, cfg Config) *uart {
	// Acpi(PNP0501) / Uart(baud, 8N1) / Vendor(PC-ANSI)
	acpi := binary.LittleEndian.AppendUint32(nil, pnp0501)
	acpi = binary.LittleEndian.AppendUint32(acpi, 0) // UID

	uartData := binary.LittleEndian.AppendUint32(nil, 0) // reserved
	uartData = binary.LittleEndian.AppendUint64(uartData, uint64(cfg.BaudRate))
	uartData = append(uartData, 8, 1, 1) // data bits, no parity, one stop bit

	path := devicepath.NewBuilder().
		Append(devicepath.TypeACPI, 0x01, acpi).
		Append(devicepath.TypeMessaging, msgUART, uartData).
		AppendVendor(devicepath.TypeMessaging, 0x0A, pcAnsiGUID, nil).
		Finish()

	return &uart{out: out, port: cfg.Port, path: path}
}

func (u *uart) WriteLine(line string) error {
	_, err := fmt.Fprintf(u.out, "[%s] %s\n", u.port, line)
	return err
}

func (u *uart) DevicePath() []byte {
	return u.path
}

// NewInit returns the component that publishes the Console service. It waits
// for the serial config slot to be locked, builds the UART and queues the
// publication; a disabled config publishes nothing, leaving console
// consumers stalled by design of the platform description.
func NewInit(out io.Writer) component.Component {
	return component.NewFunc("serial-init",
		func(cfg component.Config[Config], cmd component.Commands) error {
			c := cfg.Get()
			if !c.Enabled {
				return nil
			}
			component.AddService[Console](cmd, newUART(out, c))
			return nil
		},
		component.UseConfig[Config](),
		component.UseCommands())
}

// NewBanner returns the component that prints the boot banner on the
// published console. The memory map is optional: the banner still prints
// when no HOB parser ran.
func NewBanner() component.Component {
	return component.NewFunc("boot-banner",
		func(con component.Service[Console], mem component.Option[component.Config[hobparser.MemoryMap]]) error {
			c := con.Get()
			if err := c.WriteLine("console on " + devicepath.String(c.DevicePath())); err != nil {
				return err
			}
			if h, ok := mem.Get(); ok {
				m := h.Get()
				return c.WriteLine(fmt.Sprintf("memory: %d ranges, %d bytes", len(m.Ranges), m.TotalBytes))
			}
			return c.WriteLine("memory: map not available")
		},
		component.UseService[Console](),
		component.Opt(component.UseConfig[hobparser.MemoryMap]()))
}

// Module wires the serial console into a manifest catalog.
type Module struct {
	// Out receives console output; the demo driver passes the process stdout.
	Out io.Writer
}

// Register implements the catalog module contract.
func (m *Module) Register(cat *manifest.Catalog) {
	cat.RegisterConfig("serial", Config{})
	cat.RegisterComponent("serial_init", func() component.Component {
		return NewInit(m.Out)
	})
	cat.RegisterComponent("boot_banner", func() component.Component {
		return NewBanner()
	})
}
