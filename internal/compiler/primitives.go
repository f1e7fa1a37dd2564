package compiler

import (
	"math"

	"github.com/monoteny-lang/monoteny/internal/types"
	"github.com/monoteny-lang/monoteny/internal/vm"
)

// primitiveTagOf translates the resolver's types.PrimitiveTag to the
// VM's single-byte operand encoding (spec.md §4.7: "a typed opcode
// tagged with a 1-byte primitive enum").
func primitiveTagOf(t types.PrimitiveTag) vm.PrimitiveTag {
	switch t {
	case types.Bool:
		return vm.TagBool
	case types.Int8:
		return vm.TagInt8
	case types.Int16:
		return vm.TagInt16
	case types.Int32:
		return vm.TagInt32
	case types.Int64:
		return vm.TagInt64
	case types.UInt8:
		return vm.TagUInt8
	case types.UInt16:
		return vm.TagUInt16
	case types.UInt32:
		return vm.TagUInt32
	case types.UInt64:
		return vm.TagUInt64
	case types.Float32:
		return vm.TagFloat32
	default:
		return vm.TagFloat64
	}
}

// intBits/floatBits produce the zero-extended 64-bit slot pattern a
// LOAD64 immediate must carry so the VM's typed arithmetic later
// reinterprets the low bits correctly for the literal's pinned tag.
func intBits(v int64, tag types.PrimitiveTag) uint64 {
	switch tag {
	case types.Int8:
		return uint64(uint8(int8(v)))
	case types.Int16:
		return uint64(uint16(int16(v)))
	case types.Int32:
		return uint64(uint32(int32(v)))
	case types.UInt8:
		return uint64(uint8(v))
	case types.UInt16:
		return uint64(uint16(v))
	case types.UInt32:
		return uint64(uint32(v))
	case types.Bool:
		if v != 0 {
			return 1
		}
		return 0
	case types.Float32:
		return uint64(math.Float32bits(float32(v)))
	case types.Float64:
		return math.Float64bits(float64(v))
	default:
		return uint64(v)
	}
}

func floatBits(v float64, tag types.PrimitiveTag) uint64 {
	if tag == types.Float32 {
		return uint64(math.Float32bits(float32(v)))
	}
	return math.Float64bits(v)
}
