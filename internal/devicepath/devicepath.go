// Package devicepath provides utilities for UEFI device paths held in byte
// slices: walking nodes, counting and sizing, prefix matching, concatenation
// and text rendering (UEFI spec 2.11 section 10).
//
// A well-formed path is a sequence of variable-length nodes, each with a
// 4-byte header (type, subtype, 16-bit little-endian total length), closed by
// an end-entire node. Every operation validates the framing and reports
// ErrMalformed instead of walking off the slice.
package devicepath

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Node types.
const (
	TypeHardware  = 0x01
	TypeACPI      = 0x02
	TypeMessaging = 0x03
	TypeMedia     = 0x04
	TypeBIOS      = 0x05
	TypeEnd       = 0x7F
)

// Hardware subtypes.
const (
	HardwarePCI        = 0x01
	HardwarePCCard     = 0x02
	HardwareMemMap     = 0x03
	HardwareVendor     = 0x04
	HardwareController = 0x05
	HardwareBMC        = 0x06
)

// Media subtypes.
const (
	MediaHardDrive           = 0x01
	MediaCDROM               = 0x02
	MediaVendor              = 0x03
	MediaFilePath            = 0x04
	MediaProtocol            = 0x05
	MediaFirmwareFile        = 0x06
	MediaFirmwareVolume      = 0x07
	MediaRelativeOffsetRange = 0x08
	MediaRAMDisk             = 0x09
)

// End subtypes.
const (
	EndInstance = 0x01
	EndEntire   = 0xFF
)

const (
	// headerSize is the fixed node header: type, subtype, length[2].
	headerSize = 4
	// endNodeSize is the size of an end node (header only).
	endNodeSize = 4
	// guidSize is the encoded size of a vendor GUID.
	guidSize = 16
)

// ErrMalformed reports a device path whose framing is inconsistent: a
// truncated node, a length below the header size, or a missing end node.
var ErrMalformed = errors.New("devicepath: malformed device path")

// Node is one decoded device path node. Data excludes the 4-byte header.
type Node struct {
	Type    uint8
	SubType uint8
	Data    []byte
}

// Len returns the node's encoded length in bytes.
func (n Node) Len() int {
	return headerSize + len(n.Data)
}

// IsEnd reports whether the node terminates the entire device path.
func (n Node) IsEnd() bool {
	return n.Type == TypeEnd && n.SubType == EndEntire
}

// Equal reports whether two nodes have identical type, subtype and data.
func (n Node) Equal(other Node) bool {
	return n.Type == other.Type &&
		n.SubType == other.SubType &&
		string(n.Data) == string(other.Data)
}

// decodeNode reads one node from the front of buf.
func decodeNode(buf []byte) (Node, error) {
	if len(buf) < headerSize {
		return Node{}, fmt.Errorf("%w: %d bytes left, need a %d-byte header", ErrMalformed, len(buf), headerSize)
	}
	length := int(binary.LittleEndian.Uint16(buf[2:4]))
	if length < headerSize {
		return Node{}, fmt.Errorf("%w: node length %d below header size", ErrMalformed, length)
	}
	if length > len(buf) {
		return Node{}, fmt.Errorf("%w: node length %d exceeds %d remaining bytes", ErrMalformed, length, len(buf))
	}
	return Node{Type: buf[0], SubType: buf[1], Data: buf[headerSize:length]}, nil
}

// NodeCount returns the number of nodes and the total size in bytes of the
// device path. Both include the terminating end node.
func NodeCount(path []byte) (nodes, size int, err error) {
	for {
		n, err := decodeNode(path[size:])
		if err != nil {
			return 0, 0, err
		}
		nodes++
		size += n.Len()
		if n.Type == TypeEnd {
			return nodes, size, nil
		}
	}
}

// Copy returns a freshly allocated copy of the device path, trimmed to its
// end node.
func Copy(path []byte) ([]byte, error) {
	_, size, err := NodeCount(path)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, path[:size])
	return out, nil
}

// IsEnd reports whether the path starts with an end-entire node. An empty
// path counts as ended.
func IsEnd(path []byte) bool {
	n, err := decodeNode(path)
	if err != nil {
		return true
	}
	return n.IsEnd()
}

// Remaining strips the prefix a from b. If a is a prefix of (or identical
// to) b it returns the portion of b after a's nodes and the number of nodes
// in common, not counting a's end node. If a is not a prefix of b it returns
// ok == false.
func Remaining(a, b []byte) (rest []byte, common int, ok bool, err error) {
	for {
		an, err := decodeNode(a)
		if err != nil {
			return nil, 0, false, err
		}
		if an.IsEnd() {
			return b, common, true, nil
		}
		bn, err := decodeNode(b)
		if err != nil {
			return nil, 0, false, err
		}
		if !an.Equal(bn) {
			return nil, 0, false, nil
		}
		common++
		a = a[an.Len():]
		b = b[bn.Len():]
	}
}

// Concat returns a new device path holding every node of a followed by all
// of b, with a's end node dropped.
func Concat(a, b []byte) ([]byte, error) {
	_, aSize, err := NodeCount(a)
	if err != nil {
		return nil, err
	}
	_, bSize, err := NodeCount(b)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, aSize+bSize-endNodeSize)
	out = append(out, a[:aSize-endNodeSize]...)
	out = append(out, b[:bSize]...)
	return out, nil
}

// Walker iterates the nodes of a device path in order, the end node
// included. A framing error stops iteration and is reported by Err.
type Walker struct {
	rest []byte
	done bool
	err  error
}

// NewWalker creates a Walker over the given path.
func NewWalker(path []byte) *Walker {
	return &Walker{rest: path}
}

// Next returns the next node. It returns ok == false once the end node has
// been yielded or a framing error was found.
func (w *Walker) Next() (Node, bool) {
	if w.done {
		return Node{}, false
	}
	n, err := decodeNode(w.rest)
	if err != nil {
		w.err = err
		w.done = true
		return Node{}, false
	}
	if n.IsEnd() {
		w.done = true
	} else {
		w.rest = w.rest[n.Len():]
	}
	return n, true
}

// Err returns the framing error that stopped iteration, if any.
func (w *Walker) Err() error {
	return w.err
}

// String renders the device path as text: one segment per node, the subtype
// name followed by the node's data bytes in hex. The end node is omitted.
func String(path []byte) string {
	var sb strings.Builder
	w := NewWalker(path)
	for {
		n, ok := w.Next()
		if !ok || n.IsEnd() {
			break
		}
		sb.WriteString(SubTypeName(n.Type, n.SubType))
		if len(n.Data) > 0 {
			sb.WriteString(": ")
			for i, b := range n.Data {
				if i > 0 {
					sb.WriteByte(',')
				}
				fmt.Fprintf(&sb, "0x%02x", b)
			}
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// SubTypeName returns a short display name for a node type/subtype pair.
func SubTypeName(typ, subType uint8) string {
	switch typ {
	case TypeHardware:
		switch subType {
		case HardwarePCI:
			return "Pci"
		case HardwarePCCard:
			return "PcCard"
		case HardwareMemMap:
			return "MemMap"
		case HardwareVendor:
			return "Vendor"
		case HardwareController:
			return "Controller"
		case HardwareBMC:
			return "Bmc"
		default:
			return "UnknownHardware"
		}
	case TypeACPI:
		return "Acpi"
	case TypeMessaging:
		return "Msg"
	case TypeBIOS:
		return "Bios"
	case TypeMedia:
		switch subType {
		case MediaHardDrive:
			return "HardDrive"
		case MediaCDROM:
			return "CdRom"
		case MediaVendor:
			return "Vendor"
		case MediaFilePath:
			return "FilePath"
		case MediaProtocol:
			return "MediaProtocol"
		case MediaFirmwareFile:
			return "FirmwareFile"
		case MediaFirmwareVolume:
			return "FirmwareVolume"
		case MediaRelativeOffsetRange:
			return "RelativeOffsetRange"
		case MediaRAMDisk:
			return "RamDisk"
		default:
			return "UnknownMedia"
		}
	case TypeEnd:
		switch subType {
		case EndInstance:
			return "EndInstance"
		case EndEntire:
			return "EndEntire"
		default:
			return "UnknownEnd"
		}
	default:
		return "UnknownType"
	}
}

// VendorGUID decodes the GUID of a vendor-defined node (hardware, messaging
// or media vendor subtypes), whose data starts with a 16-byte GUID in UEFI
// mixed-endian layout.
func VendorGUID(n Node) (uuid.UUID, error) {
	if len(n.Data) < guidSize {
		return uuid.Nil, fmt.Errorf("%w: vendor node data is %d bytes, GUID needs %d",
			ErrMalformed, len(n.Data), guidSize)
	}
	var raw [guidSize]byte
	copy(raw[:], n.Data[:guidSize])
	swapGUIDEndianness(&raw)
	return uuid.FromBytes(raw[:])
}

// EncodeGUID renders id in UEFI mixed-endian layout: the first three fields
// little-endian, the rest as-is.
func EncodeGUID(id uuid.UUID) [guidSize]byte {
	raw := [guidSize]byte(id)
	swapGUIDEndianness(&raw)
	return raw
}

func swapGUIDEndianness(raw *[guidSize]byte) {
	raw[0], raw[1], raw[2], raw[3] = raw[3], raw[2], raw[1], raw[0]
	raw[4], raw[5] = raw[5], raw[4]
	raw[6], raw[7] = raw[7], raw[6]
}

// Builder assembles a device path node by node.
type Builder struct {
	buf []byte
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Append adds one node with the given raw data.
func (b *Builder) Append(typ, subType uint8, data []byte) *Builder {
	length := headerSize + len(data)
	b.buf = append(b.buf, typ, subType, byte(length), byte(length>>8))
	b.buf = append(b.buf, data...)
	return b
}

// AppendVendor adds a vendor-defined node carrying the GUID (mixed-endian)
// followed by vendor data.
func (b *Builder) AppendVendor(typ, subType uint8, id uuid.UUID, data []byte) *Builder {
	guid := EncodeGUID(id)
	payload := make([]byte, 0, guidSize+len(data))
	payload = append(payload, guid[:]...)
	payload = append(payload, data...)
	return b.Append(typ, subType, payload)
}

// Finish appends the end-entire node and returns the encoded path. The
// builder can keep appending; Finish does not consume it.
func (b *Builder) Finish() []byte {
	out := make([]byte, 0, len(b.buf)+endNodeSize)
	out = append(out, b.buf...)
	return append(out, TypeEnd, EndEntire, endNodeSize, 0x00)
}
