// Package hobparser consumes a hand-off block (HOB) list produced by the
// previous boot phase and turns its resource descriptors into the MemoryMap
// configuration.
//
// The HOB list is a one-shot input: once parsed it is handed over and the
// component never runs again. The resulting MemoryMap slot is locked
// explicitly, so readers become runnable the moment parsing succeeds.
package hobparser

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fwforge/fwsched/internal/component"
	"github.com/fwforge/fwsched/internal/manifest"
)

// HOB types (PI spec volume 3).
const (
	TypeHandoff            = 0x0001
	TypeResourceDescriptor = 0x0003
	TypeEndOfList          = 0xFFFF
)

// Resource types carried by resource descriptor HOBs.
const (
	ResourceSystemMemory = 0x00000000
	ResourceMemoryMapped = 0x00000001
	ResourceIO           = 0x00000002
)

const (
	// hobHeaderSize is type(2) + length(2) + reserved(4).
	hobHeaderSize = 8
	// resourceHOBSize is the full resource descriptor HOB: header, owner
	// GUID(16), resource type(4), attributes(4), start(8), length(8).
	resourceHOBSize = hobHeaderSize + 40
)

// ErrMalformed reports a HOB list whose framing is inconsistent.
var ErrMalformed = errors.New("hobparser: malformed hob list")

// Range is one usable region reported by a resource descriptor HOB.
type Range struct {
	Start      uint64
	Length     uint64
	Attributes uint32
	Owner      uuid.UUID
}

// MemoryMap is the configuration produced from the HOB list: every system
// memory resource descriptor, in list order.
type MemoryMap struct {
	Ranges     []Range
	TotalBytes uint64
}

// Parse walks the HOB list and collects its system memory descriptors.
// Non-memory resources and unrecognized HOB types are skipped.
func Parse(hobList []byte) (MemoryMap, error) {
	var m MemoryMap
	off := 0
	for {
		if len(hobList)-off < hobHeaderSize {
			return MemoryMap{}, fmt.Errorf("%w: %d bytes left at offset %d, need a %d-byte header",
				ErrMalformed, len(hobList)-off, off, hobHeaderSize)
		}
		hobType := binary.LittleEndian.Uint16(hobList[off:])
		hobLen := int(binary.LittleEndian.Uint16(hobList[off+2:]))
		if hobLen < hobHeaderSize || off+hobLen > len(hobList) {
			return MemoryMap{}, fmt.Errorf("%w: hob at offset %d declares length %d", ErrMalformed, off, hobLen)
		}

		if hobType == TypeEndOfList {
			return m, nil
		}
		if hobType == TypeResourceDescriptor {
			if hobLen < resourceHOBSize {
				return MemoryMap{}, fmt.Errorf("%w: resource descriptor at offset %d is %d bytes, need %d",
					ErrMalformed, off, hobLen, resourceHOBSize)
			}
			body := hobList[off+hobHeaderSize:]
			owner, err := uuid.FromBytes(body[:16])
			if err != nil {
				return MemoryMap{}, fmt.Errorf("%w: resource descriptor at offset %d: %v", ErrMalformed, off, err)
			}
			resType := binary.LittleEndian.Uint32(body[16:])
			if resType == ResourceSystemMemory {
				r := Range{
					Owner:      owner,
					Attributes: binary.LittleEndian.Uint32(body[20:]),
					Start:      binary.LittleEndian.Uint64(body[24:]),
					Length:     binary.LittleEndian.Uint64(body[32:]),
				}
				m.Ranges = append(m.Ranges, r)
				m.TotalBytes += r.Length
			}
		}

		off += hobLen
	}
}

// New wraps a HOB list into the hob-parser component. The list is consumed
// on the first successful run.
func New(hobList []byte) component.Component {
	return component.NewFuncOnce("hob-parser", hobList, run,
		component.UseConfigMut[MemoryMap]())
}

func run(hobList []byte, cfg component.ConfigMut[MemoryMap]) error {
	m, err := Parse(hobList)
	if err != nil {
		return fmt.Errorf("parse hob list: %w", err)
	}
	cfg.Set(m)
	cfg.Lock()
	return nil
}

// Module wires the hob parser into a manifest catalog.
type Module struct {
	// HOBList is the raw list handed over by the boot loader.
	HOBList []byte
}

// Register implements the catalog module contract.
func (m *Module) Register(cat *manifest.Catalog) {
	cat.RegisterComponent("hob_parser", func() component.Component {
		return New(m.HOBList)
	})
}

// Builder assembles HOB lists, mostly for tests and host-side demos.
type Builder struct {
	buf []byte
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AppendResource adds one resource descriptor HOB.
func (b *Builder) AppendResource(owner uuid.UUID, resType, attrs uint32, start, length uint64) *Builder {
	b.buf = appendHeader(b.buf, TypeResourceDescriptor, resourceHOBSize)
	b.buf = append(b.buf, owner[:]...)
	b.buf = binary.LittleEndian.AppendUint32(b.buf, resType)
	b.buf = binary.LittleEndian.AppendUint32(b.buf, attrs)
	b.buf = binary.LittleEndian.AppendUint64(b.buf, start)
	b.buf = binary.LittleEndian.AppendUint64(b.buf, length)
	return b
}

// Finish appends the end-of-list HOB and returns the encoded list.
func (b *Builder) Finish() []byte {
	out := make([]byte, 0, len(b.buf)+hobHeaderSize)
	out = append(out, b.buf...)
	return appendHeader(out, TypeEndOfList, hobHeaderSize)
}

func appendHeader(buf []byte, hobType uint16, length int) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, hobType)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(length))
	return binary.LittleEndian.AppendUint32(buf, 0) // reserved
}
