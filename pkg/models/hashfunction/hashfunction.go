package hashfunction

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/go-faster/city"
	"github.com/spaolacci/murmur3"
)

type HashFunctionType int

/* Pre-defined hash functions */
const (
	HashFunctionIdent  = HashFunctionType(0)
	HashFunctionMurmur = HashFunctionType(1)
	HashFunctionCity   = HashFunctionType(2)
)

var (
	errUnknownValueType = func(v any, hf HashFunctionType) error {
		return fmt.Errorf("unknown type of value that the hash will be calculated from: %T for %s hash", v, ToString(hf))
	}
)

// EncodeUInt64 produces the byte representation integers are hashed from.
func EncodeUInt64(input uint64) []byte {
	const ENCODING_BYTES_BIG = binary.MaxVarintLen64
	const ENCODING_BYTES = 8
	const BOUND = 1 << 56 /* 72057594037927936 */

	sz := ENCODING_BYTES
	if input >= BOUND {
		sz = ENCODING_BYTES_BIG
	}

	buf := make([]byte, sz)
	binary.PutUvarint(buf, input)
	return buf
}

// ToInt64 converts a routing value to an integer if it has an integral representation.
func ToInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int64(x), true
	case float32:
		if float64(x) != math.Trunc(float64(x)) {
			return 0, false
		}
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	case []byte:
		n, err := strconv.ParseInt(string(x), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func bytesOf(input any, hf HashFunctionType) ([]byte, error) {
	if n, ok := ToInt64(input); ok {
		return EncodeUInt64(uint64(n)), nil
	}
	switch v := input.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case fmt.Stringer:
		return []byte(v.String()), nil
	default:
		return nil, errUnknownValueType(input, hf)
	}
}

// ApplyHashFunction maps a routing value to the non-negative integer its shard is
// computed from. Identity keeps integers as they are, so modulo routing on an
// integer key is plain `value mod N`. Negative integers have no identity
// remainder and are refused.
func ApplyHashFunction(input any, hf HashFunctionType) (uint64, error) {
	switch hf {
	case HashFunctionIdent:
		if n, ok := ToInt64(input); ok {
			if n < 0 {
				return 0, fmt.Errorf("negative value %d cannot be routed by %s hash", n, ToString(hf))
			}
			return uint64(n), nil
		}
		return 0, errUnknownValueType(input, hf)
	case HashFunctionMurmur:
		buf, err := bytesOf(input, hf)
		if err != nil {
			return 0, err
		}
		return uint64(murmur3.Sum32(buf)), nil
	case HashFunctionCity:
		buf, err := bytesOf(input, hf)
		if err != nil {
			return 0, err
		}
		return uint64(city.Hash32(buf)), nil
	default:
		return 0, fmt.Errorf("unknown hash function type: %d", hf)
	}
}

// HashFunctionByName returns the hash function for a configuration name.
func HashFunctionByName(hfn string) (HashFunctionType, error) {
	switch hfn {
	case "identity", "ident":
		return HashFunctionIdent, nil
	case "murmur", "":
		return HashFunctionMurmur, nil
	case "city":
		return HashFunctionCity, nil
	default:
		return 0, fmt.Errorf("unknown hash function type: %s", hfn)
	}
}

func ToString(hf HashFunctionType) string {
	switch hf {
	case HashFunctionIdent:
		return "identity"
	case HashFunctionMurmur:
		return "murmur"
	case HashFunctionCity:
		return "city"
	}
	return ""
}
