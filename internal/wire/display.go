package wire

import (
	"math"
	"strconv"
)

// DisplayString renders a's value as text, the typed half of
// vsnprintf-style substitution. resolve is only called for a StringIdx
// argument, to look up the indexed string it names; it may be nil if the
// caller knows the frame carries no string arguments.
func (a Arg) DisplayString(resolve func(id uint32) string) string {
	switch a.Tag {
	case TagS32:
		return strconv.FormatInt(int64(int32(uint32(a.Bits))), 10)
	case TagU32:
		return strconv.FormatUint(uint64(uint32(a.Bits)), 10)
	case TagS64:
		return strconv.FormatInt(int64(a.Bits), 10)
	case TagU64:
		return strconv.FormatUint(a.Bits, 10)
	case TagFloat:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(a.Bits))), 'g', -1, 32)
	case TagDouble:
		return strconv.FormatFloat(math.Float64frombits(a.Bits), 'g', -1, 64)
	case TagStringIdx:
		if resolve != nil {
			return resolve(uint32(a.Bits))
		}
		return ""
	default:
		return ""
	}
}

// Float returns a's value widened to float64, for numeric argument
// predicates (§4.5). ok is false for a StringIdx argument.
func (a Arg) Float() (value float64, ok bool) {
	switch a.Tag {
	case TagS32:
		return float64(int32(uint32(a.Bits))), true
	case TagU32:
		return float64(uint32(a.Bits)), true
	case TagS64:
		return float64(int64(a.Bits)), true
	case TagU64:
		return float64(a.Bits), true
	case TagFloat:
		return float64(math.Float32frombits(uint32(a.Bits))), true
	case TagDouble:
		return math.Float64frombits(a.Bits), true
	default:
		return 0, false
	}
}
