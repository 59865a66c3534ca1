package hardwood

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rionmonster/hardwood/format"
)

// Decimal is a fixed-point decimal value: Unscaled scaled down by 10^Scale.
type Decimal struct {
	Unscaled  *big.Int
	Precision int
	Scale     int
}

// String renders the decimal with its scale applied, e.g. 123456 at scale 2
// renders as "1234.56".
func (d Decimal) String() string {
	s := d.Unscaled.String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if d.Scale > 0 {
		for len(s) <= d.Scale {
			s = "0" + s
		}
		s = s[:len(s)-d.Scale] + "." + s[len(s)-d.Scale:]
	}
	if neg {
		s = "-" + s
	}
	return s
}

// Rat returns the value as an exact rational number.
func (d Decimal) Rat() *big.Rat {
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.Scale)), nil)
	return new(big.Rat).SetFrac(new(big.Int).Set(d.Unscaled), denom)
}

// Float64 returns the value as a float64, possibly losing precision.
func (d Decimal) Float64() float64 {
	f, _ := d.Rat().Float64()
	return f
}

// timeUnit is the resolution of TIME and TIMESTAMP columns.
type timeUnit int

const (
	unitMillis timeUnit = iota
	unitMicros
	unitNanos
)

// Logical type classification; the logical type annotation wins over the
// legacy converted type when both are present.

func isString(n *SchemaNode) bool {
	if lt := n.LogicalType; lt != nil {
		return lt.UTF8 != nil || lt.Enum != nil || lt.Json != nil
	}
	if ct := n.ConvertedType; ct != nil {
		return *ct == format.UTF8 || *ct == format.Enum || *ct == format.Json
	}
	return false
}

func isDate(n *SchemaNode) bool {
	if lt := n.LogicalType; lt != nil {
		return lt.Date != nil
	}
	if ct := n.ConvertedType; ct != nil {
		return *ct == format.Date
	}
	return false
}

func isUUID(n *SchemaNode) bool {
	return n.LogicalType != nil && n.LogicalType.UUID != nil
}

func isDecimal(n *SchemaNode) bool {
	if lt := n.LogicalType; lt != nil {
		return lt.Decimal != nil
	}
	if ct := n.ConvertedType; ct != nil {
		return *ct == format.Decimal
	}
	return false
}

func decimalScale(n *SchemaNode) (precision, scale int) {
	if lt := n.LogicalType; lt != nil && lt.Decimal != nil {
		return int(lt.Decimal.Precision), int(lt.Decimal.Scale)
	}
	return n.Precision, n.Scale
}

func timestampUnit(n *SchemaNode) (timeUnit, bool) {
	if lt := n.LogicalType; lt != nil {
		if lt.Timestamp == nil {
			return 0, false
		}
		return unitOf(&lt.Timestamp.Unit), true
	}
	if ct := n.ConvertedType; ct != nil {
		switch *ct {
		case format.TimestampMillis:
			return unitMillis, true
		case format.TimestampMicros:
			return unitMicros, true
		}
	}
	return 0, false
}

func timeOfDayUnit(n *SchemaNode) (timeUnit, bool) {
	if lt := n.LogicalType; lt != nil {
		if lt.Time == nil {
			return 0, false
		}
		return unitOf(&lt.Time.Unit), true
	}
	if ct := n.ConvertedType; ct != nil {
		switch *ct {
		case format.TimeMillis:
			return unitMillis, true
		case format.TimeMicros:
			return unitMicros, true
		}
	}
	return 0, false
}

func unitOf(u *format.TimeUnit) timeUnit {
	switch {
	case u.Micros != nil:
		return unitMicros
	case u.Nanos != nil:
		return unitNanos
	default:
		return unitMillis
	}
}

func integerType(n *SchemaNode) *format.IntType {
	if lt := n.LogicalType; lt != nil {
		return lt.Integer
	}
	if ct := n.ConvertedType; ct != nil {
		switch *ct {
		case format.Int8:
			return &format.IntType{BitWidth: 8, IsSigned: true}
		case format.Int16:
			return &format.IntType{BitWidth: 16, IsSigned: true}
		case format.Int32Type:
			return &format.IntType{BitWidth: 32, IsSigned: true}
		case format.Int64Type:
			return &format.IntType{BitWidth: 64, IsSigned: true}
		case format.Uint8:
			return &format.IntType{BitWidth: 8, IsSigned: false}
		case format.Uint16:
			return &format.IntType{BitWidth: 16, IsSigned: false}
		case format.Uint32:
			return &format.IntType{BitWidth: 32, IsSigned: false}
		case format.Uint64:
			return &format.IntType{BitWidth: 64, IsSigned: false}
		}
	}
	return nil
}

// Conversion primitives. Each is a pure function from the raw stored value
// and the column's logical type parameters to the canonical value.

func convertDate(days int32) time.Time {
	return time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(days))
}

func convertTimestamp(v int64, unit timeUnit) time.Time {
	switch unit {
	case unitMicros:
		return time.UnixMicro(v).UTC()
	case unitNanos:
		return time.Unix(0, v).UTC()
	default:
		return time.UnixMilli(v).UTC()
	}
}

func convertTimeOfDay(v int64, unit timeUnit) time.Duration {
	switch unit {
	case unitMicros:
		return time.Duration(v) * time.Microsecond
	case unitNanos:
		return time.Duration(v)
	default:
		return time.Duration(v) * time.Millisecond
	}
}

// convertDecimalBytes decodes a two's-complement big-endian unscaled value.
func convertDecimalBytes(b []byte, precision, scale int) Decimal {
	z := new(big.Int).SetBytes(b)
	if len(b) > 0 && (b[0]&0x80) != 0 {
		z.Sub(z, new(big.Int).Lsh(big.NewInt(1), uint(8*len(b))))
	}
	return Decimal{Unscaled: z, Precision: precision, Scale: scale}
}

func convertDecimalInt(v int64, precision, scale int) Decimal {
	return Decimal{Unscaled: big.NewInt(v), Precision: precision, Scale: scale}
}

func convertUUID(b []byte) (uuid.UUID, error) {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%s: %w", err, ErrTypeMismatch)
	}
	return u, nil
}

func convertInteger32(v int32, it *format.IntType) interface{} {
	switch {
	case it.BitWidth == 8 && it.IsSigned:
		return int8(v)
	case it.BitWidth == 8:
		return uint8(v)
	case it.BitWidth == 16 && it.IsSigned:
		return int16(v)
	case it.BitWidth == 16:
		return uint16(v)
	case !it.IsSigned:
		return uint32(v)
	default:
		return v
	}
}

func convertInteger64(v int64, it *format.IntType) interface{} {
	if !it.IsSigned {
		return uint64(v)
	}
	return v
}

// convertLeaf converts a raw stored value to its logical representation for
// storage in an assembled record. Values without an applicable annotation
// are returned as-is.
func convertLeaf(col *ColumnSchema, raw interface{}) interface{} {
	n := col.Node
	switch v := raw.(type) {
	case []byte:
		switch {
		case isString(n):
			return string(v)
		case isUUID(n):
			if u, err := convertUUID(v); err == nil {
				return u
			}
			return v
		case isDecimal(n):
			precision, scale := decimalScale(n)
			return convertDecimalBytes(v, precision, scale)
		default:
			return v
		}
	case int32:
		switch {
		case isDate(n):
			return convertDate(v)
		case isDecimal(n):
			precision, scale := decimalScale(n)
			return convertDecimalInt(int64(v), precision, scale)
		default:
			if unit, ok := timeOfDayUnit(n); ok {
				return convertTimeOfDay(int64(v), unit)
			}
			if it := integerType(n); it != nil {
				return convertInteger32(v, it)
			}
			return v
		}
	case int64:
		if unit, ok := timestampUnit(n); ok {
			return convertTimestamp(v, unit)
		}
		if unit, ok := timeOfDayUnit(n); ok {
			return convertTimeOfDay(v, unit)
		}
		if isDecimal(n) {
			precision, scale := decimalScale(n)
			return convertDecimalInt(v, precision, scale)
		}
		if it := integerType(n); it != nil {
			return convertInteger64(v, it)
		}
		return v
	default:
		return raw
	}
}
