// Package thrift implements the subset of the thrift compact protocol needed
// to decode parquet file metadata and page headers.
//
// https://github.com/apache/thrift/blob/master/doc/specs/thrift-compact-protocol.md
package thrift

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Type is a thrift compact protocol field type code.
type Type int8

const (
	STOP   Type = 0
	TRUE   Type = 1
	FALSE  Type = 2
	BYTE   Type = 3
	I16    Type = 4
	I32    Type = 5
	I64    Type = 6
	DOUBLE Type = 7
	BINARY Type = 8
	LIST   Type = 9
	SET    Type = 10
	MAP    Type = 11
	STRUCT Type = 12
)

func (t Type) String() string {
	switch t {
	case STOP:
		return "STOP"
	case TRUE:
		return "BOOL_TRUE"
	case FALSE:
		return "BOOL_FALSE"
	case BYTE:
		return "BYTE"
	case I16:
		return "I16"
	case I32:
		return "I32"
	case I64:
		return "I64"
	case DOUBLE:
		return "DOUBLE"
	case BINARY:
		return "BINARY"
	case LIST:
		return "LIST"
	case SET:
		return "SET"
	case MAP:
		return "MAP"
	case STRUCT:
		return "STRUCT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int8(t))
	}
}

var (
	// ErrUnknownType is returned when a field header carries a type code that
	// is not part of the compact protocol.
	ErrUnknownType = errors.New("thrift: unknown field type")

	// ErrVarintOverflow is returned when a varint spans more than 10 bytes
	// with the continuation bit still set.
	ErrVarintOverflow = errors.New("thrift: varint overflow")
)

const maxVarintLen = 10

// Reader is a streaming decoder over a byte buffer holding thrift compact
// protocol data.
//
// The zero value is not usable; construct readers with NewReader. Struct
// nesting is tracked with a field-id stack so that each struct's field-id
// deltas restart from zero.
type Reader struct {
	buf     []byte
	off     int
	lastID  int16
	idStack []int16
}

// NewReader constructs a Reader decoding the given buffer.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of bytes left to decode.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) errEOF(what string) error {
	return fmt.Errorf("thrift: reading %s at offset %d: %w", what, r.off, io.ErrUnexpectedEOF)
}

// ReadByte reads one raw byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, r.errEOF("byte")
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

// ReadUvarint reads an unsigned little-endian base-128 varint.
func (r *Reader) ReadUvarint() (uint64, error) {
	var v uint64
	var shift uint
	for i := 0; i < maxVarintLen; i++ {
		if r.off >= len(r.buf) {
			return 0, r.errEOF("varint")
		}
		b := r.buf[r.off]
		r.off++
		v |= uint64(b&0x7f) << shift
		if (b & 0x80) == 0 {
			return v, nil
		}
		shift += 7
	}
	return 0, ErrVarintOverflow
}

// ReadVarint reads a zigzag-encoded signed varint.
func (r *Reader) ReadVarint() (int64, error) {
	u, err := r.ReadUvarint()
	if err != nil {
		return 0, err
	}
	return int64(u>>1) ^ -int64(u&1), nil
}

// ReadI16 reads a zigzag varint narrowed to 16 bits.
func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadVarint()
	return int16(v), err
}

// ReadI32 reads a zigzag varint narrowed to 32 bits.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadVarint()
	return int32(v), err
}

// ReadI64 reads a zigzag varint.
func (r *Reader) ReadI64() (int64, error) {
	return r.ReadVarint()
}

// ReadDouble reads a little-endian 64-bit floating point value.
func (r *Reader) ReadDouble() (float64, error) {
	if r.Remaining() < 8 {
		return 0, r.errEOF("double")
	}
	bits := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return math.Float64frombits(bits), nil
}

// ReadBytes reads a length-prefixed binary value. The returned slice aliases
// the underlying buffer.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Remaining()) {
		return nil, r.errEOF("binary")
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}

// ReadString reads a length-prefixed UTF-8 string.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	return string(b), err
}

// ReadStructBegin pushes a new field-id scope for a nested struct.
func (r *Reader) ReadStructBegin() {
	r.idStack = append(r.idStack, r.lastID)
	r.lastID = 0
}

// ReadStructEnd pops the field-id scope entered by ReadStructBegin.
func (r *Reader) ReadStructEnd() {
	n := len(r.idStack) - 1
	r.lastID = r.idStack[n]
	r.idStack = r.idStack[:n]
}

// ReadFieldHeader reads the next field header of the current struct. It
// returns STOP as the type when the end of the struct is reached. Bool fields
// carry their value in the type code (TRUE or FALSE) and have no payload.
func (r *Reader) ReadFieldHeader() (Type, int16, error) {
	b, err := r.ReadByte()
	if err != nil {
		return STOP, 0, err
	}
	if b == 0 {
		return STOP, 0, nil
	}
	typ := Type(b & 0x0f)
	if typ > STRUCT {
		return STOP, 0, fmt.Errorf("%w: %d", ErrUnknownType, typ)
	}
	if delta := int16(b >> 4); delta != 0 {
		r.lastID += delta
	} else {
		id, err := r.ReadI16()
		if err != nil {
			return STOP, 0, err
		}
		r.lastID = id
	}
	return typ, r.lastID, nil
}

// ReadListHeader reads the header of a list or set value, returning the
// element type and count.
func (r *Reader) ReadListHeader() (Type, int, error) {
	b, err := r.ReadByte()
	if err != nil {
		return STOP, 0, err
	}
	typ := Type(b & 0x0f)
	if typ > STRUCT {
		return STOP, 0, fmt.Errorf("%w: %d", ErrUnknownType, typ)
	}
	n := int(b >> 4)
	if n == 0x0f {
		u, err := r.ReadUvarint()
		if err != nil {
			return STOP, 0, err
		}
		n = int(u)
	}
	return typ, n, nil
}

// ReadMapHeader reads the header of a map value, returning the key and value
// types and the entry count. Empty maps carry no type byte.
func (r *Reader) ReadMapHeader() (Type, Type, int, error) {
	u, err := r.ReadUvarint()
	if err != nil {
		return STOP, STOP, 0, err
	}
	if u == 0 {
		return STOP, STOP, 0, nil
	}
	b, err := r.ReadByte()
	if err != nil {
		return STOP, STOP, 0, err
	}
	keyType, valueType := Type(b>>4), Type(b&0x0f)
	if keyType > STRUCT || valueType > STRUCT {
		return STOP, STOP, 0, fmt.Errorf("%w: %d", ErrUnknownType, b)
	}
	return keyType, valueType, int(u), nil
}

// Skip consumes and discards a value of the given type. It is used to ignore
// struct fields that the decoder does not recognize.
func (r *Reader) Skip(typ Type) error {
	switch typ {
	case TRUE, FALSE:
		return nil
	case BYTE:
		_, err := r.ReadByte()
		return err
	case I16, I32, I64:
		_, err := r.ReadUvarint()
		return err
	case DOUBLE:
		_, err := r.ReadDouble()
		return err
	case BINARY:
		_, err := r.ReadBytes()
		return err
	case LIST, SET:
		elemType, n, err := r.ReadListHeader()
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := r.skipElem(elemType); err != nil {
				return err
			}
		}
		return nil
	case MAP:
		keyType, valueType, n, err := r.ReadMapHeader()
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := r.skipElem(keyType); err != nil {
				return err
			}
			if err := r.skipElem(valueType); err != nil {
				return err
			}
		}
		return nil
	case STRUCT:
		r.ReadStructBegin()
		defer r.ReadStructEnd()
		for {
			fieldType, _, err := r.ReadFieldHeader()
			if err != nil {
				return err
			}
			if fieldType == STOP {
				return nil
			}
			if err := r.Skip(fieldType); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownType, typ)
	}
}

// skipElem skips a list or map element. Unlike struct fields, bool elements
// occupy one payload byte.
func (r *Reader) skipElem(typ Type) error {
	if typ == TRUE || typ == FALSE {
		_, err := r.ReadByte()
		return err
	}
	return r.Skip(typ)
}

// ReadBoolElem reads a bool encoded as a list or map element.
func (r *Reader) ReadBoolElem() (bool, error) {
	b, err := r.ReadByte()
	return b == byte(TRUE), err
}
