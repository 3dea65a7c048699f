package app

import (
	"io"

	"github.com/google/uuid"

	"github.com/fwforge/fwsched/components/hobparser"
	"github.com/fwforge/fwsched/components/serial"
	"github.com/fwforge/fwsched/internal/manifest"
)

// Module registers config prototypes and component factories with a catalog.
type Module interface {
	Register(cat *manifest.Catalog)
}

// demoOwner tags the synthetic HOB ranges produced for host-side runs.
var demoOwner = uuid.MustParse("4f2c8a3d-91b7-4e60-a5c4-7d3e2f1b0a96")

// coreModules is the definitive list of component packages compiled into the
// fwsched binary. On real firmware the HOB list would come from the previous
// boot phase; the host-side demo synthesizes one.
func coreModules(outW io.Writer) []Module {
	hobList := hobparser.NewBuilder().
		AppendResource(demoOwner, hobparser.ResourceSystemMemory, 0x7, 0x0, 0x80000).
		AppendResource(demoOwner, hobparser.ResourceSystemMemory, 0x7, 0x100000, 0x3FF00000).
		AppendResource(demoOwner, hobparser.ResourceIO, 0x0, 0x3F8, 0x8).
		Finish()

	return []Module{
		&hobparser.Module{HOBList: hobList},
		&serial.Module{Out: outW},
	}
}
