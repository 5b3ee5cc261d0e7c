package sslog

import (
	"math"

	"github.com/sslog-project/sslog/internal/strtab"
	"github.com/sslog-project/sslog/internal/wire"
)

// ArgType tags the runtime representation of an Arg. The numeric values
// are also the on-disk type tag written into each argument slot of a
// record frame (§4.2 of the format spec), so they must never be
// renumbered once a format version ships.
type ArgType uint8

const (
	ArgS32 ArgType = iota
	ArgU32
	ArgS64
	ArgU64
	ArgFloat
	ArgDouble
	ArgStringIdx
)

// Arg is a single logged value, tagged with its runtime type. Exactly one
// of the typed fields is meaningful, selected by Type.
type Arg struct {
	Type      ArgType
	S32       int32
	U32       uint32
	S64       int64
	U64       uint64
	Float32   float32
	Float64   float64
	StringIdx uint32 // valid when Type == ArgStringIdx; id into the indexed-string table
}

// NewS32 builds an Arg carrying a signed 32-bit value.
func NewS32(v int32) Arg { return Arg{Type: ArgS32, S32: v} }

// NewU32 builds an Arg carrying an unsigned 32-bit value.
func NewU32(v uint32) Arg { return Arg{Type: ArgU32, U32: v} }

// NewS64 builds an Arg carrying a signed 64-bit value.
func NewS64(v int64) Arg { return Arg{Type: ArgS64, S64: v} }

// NewU64 builds an Arg carrying an unsigned 64-bit value.
func NewU64(v uint64) Arg { return Arg{Type: ArgU64, U64: v} }

// NewFloat builds an Arg carrying a 32-bit float.
func NewFloat(v float32) Arg { return Arg{Type: ArgFloat, Float32: v} }

// NewDouble builds an Arg carrying a 64-bit float.
func NewDouble(v float64) Arg { return Arg{Type: ArgDouble, Float64: v} }

// NewStringIdx builds an Arg referring to an interned string.
func NewStringIdx(id uint32) Arg { return Arg{Type: ArgStringIdx, StringIdx: id} }

// argFromValue widens a Go value into an Arg the way the collector does
// at a log call site: the compile-time value type selects the variant,
// with int-typed values defaulting to the signed 32-bit widening the
// format spec calls for. A raw string value is interned on the spot
// under the ArgValue role so the frame can carry a StringIdx like every
// other argument type; stringIsNew reports whether this call assigned a
// brand new id, so the caller knows whether it needs staging.
func argFromValue(v interface{}, table *strtab.Table) (a Arg, stringIsNew bool) {
	switch x := v.(type) {
	case int:
		return NewS32(int32(x)), false
	case int32:
		return NewS32(x), false
	case int64:
		return NewS64(x), false
	case uint:
		return NewU32(uint32(x)), false
	case uint32:
		return NewU32(x), false
	case uint64:
		return NewU64(x), false
	case float32:
		return NewFloat(x), false
	case float64:
		return NewDouble(x), false
	case string:
		id, isNew := table.Intern([]byte(x), strtab.RoleArgValue)
		return NewStringIdx(id), isNew
	default:
		return NewS32(0), false
	}
}

// toWireArg widens a runtime Arg into its on-disk representation (§4.2).
// The ArgType ordinals match wire.ArgTag exactly, so only the payload
// needs repacking into Bits' low N bytes.
func (a Arg) toWireArg() wire.Arg {
	switch a.Type {
	case ArgS32:
		return wire.Arg{Tag: wire.TagS32, Bits: uint64(uint32(a.S32))}
	case ArgU32:
		return wire.Arg{Tag: wire.TagU32, Bits: uint64(a.U32)}
	case ArgS64:
		return wire.Arg{Tag: wire.TagS64, Bits: uint64(a.S64)}
	case ArgU64:
		return wire.Arg{Tag: wire.TagU64, Bits: a.U64}
	case ArgFloat:
		return wire.Arg{Tag: wire.TagFloat, Bits: uint64(math.Float32bits(a.Float32))}
	case ArgDouble:
		return wire.Arg{Tag: wire.TagDouble, Bits: math.Float64bits(a.Float64)}
	case ArgStringIdx:
		return wire.Arg{Tag: wire.TagStringIdx, Bits: uint64(a.StringIdx)}
	default:
		return wire.Arg{Tag: wire.TagS32, Bits: 0}
	}
}
