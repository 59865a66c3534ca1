package thrift

import (
	"errors"
	"io"
	"testing"
)

func TestReadUvarint(t *testing.T) {
	tests := []struct {
		input []byte
		value uint64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xac, 0x02}, 300},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xffffffff},
	}
	for _, test := range tests {
		r := NewReader(test.input)
		v, err := r.ReadUvarint()
		if err != nil {
			t.Fatalf("reading %x: %v", test.input, err)
		}
		if v != test.value {
			t.Errorf("reading %x: got %d, want %d", test.input, v, test.value)
		}
		if r.Remaining() != 0 {
			t.Errorf("reading %x: %d bytes left unconsumed", test.input, r.Remaining())
		}
	}
}

func TestReadUvarintOverflow(t *testing.T) {
	input := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	r := NewReader(input)
	if _, err := r.ReadUvarint(); !errors.Is(err, ErrVarintOverflow) {
		t.Errorf("got %v, want ErrVarintOverflow", err)
	}
}

func TestReadUvarintTruncated(t *testing.T) {
	r := NewReader([]byte{0x80})
	if _, err := r.ReadUvarint(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("got %v, want unexpected EOF", err)
	}
}

func TestReadVarint(t *testing.T) {
	tests := []struct {
		input []byte
		value int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, -1},
		{[]byte{0x02}, 1},
		{[]byte{0x03}, -2},
		{[]byte{0x04}, 2},
		{[]byte{0xfe, 0xff, 0x03}, 32767},
		{[]byte{0xff, 0xff, 0x03}, -32768},
	}
	for _, test := range tests {
		r := NewReader(test.input)
		v, err := r.ReadVarint()
		if err != nil {
			t.Fatalf("reading %x: %v", test.input, err)
		}
		if v != test.value {
			t.Errorf("reading %x: got %d, want %d", test.input, v, test.value)
		}
	}
}

func TestReadFieldHeaderShortForm(t *testing.T) {
	// Field id delta 1, type I32 (5).
	r := NewReader([]byte{0x15, 0x02})
	r.ReadStructBegin()
	typ, id, err := r.ReadFieldHeader()
	if err != nil {
		t.Fatal(err)
	}
	if typ != I32 || id != 1 {
		t.Errorf("got (%s, %d), want (I32, 1)", typ, id)
	}
	if v, _ := r.ReadI32(); v != 1 {
		t.Errorf("got %d, want 1", v)
	}
}

func TestReadFieldHeaderLongForm(t *testing.T) {
	// Delta 0 means the id follows as a zigzag varint: id 100, type I64.
	r := NewReader([]byte{0x06, 0xc8, 0x01})
	r.ReadStructBegin()
	typ, id, err := r.ReadFieldHeader()
	if err != nil {
		t.Fatal(err)
	}
	if typ != I64 || id != 100 {
		t.Errorf("got (%s, %d), want (I64, 100)", typ, id)
	}
}

func TestReadFieldHeaderDeltaAccumulates(t *testing.T) {
	// Two fields with deltas 2 and 3 land on ids 2 and 5.
	r := NewReader([]byte{0x25, 0x02, 0x35, 0x04, 0x00})
	r.ReadStructBegin()
	_, id1, _ := r.ReadFieldHeader()
	r.ReadI32()
	_, id2, _ := r.ReadFieldHeader()
	r.ReadI32()
	typ, _, _ := r.ReadFieldHeader()
	if id1 != 2 || id2 != 5 || typ != STOP {
		t.Errorf("got ids (%d, %d) and trailing %s", id1, id2, typ)
	}
}

func TestFieldIDStack(t *testing.T) {
	// Outer field 1 is a struct holding field 1; the field after the nested
	// struct must resume from the outer scope's last id.
	input := []byte{
		0x1c,       // outer field 1, STRUCT
		0x15, 0x02, // inner field 1, I32, value 1
		0x00,       // inner STOP
		0x15, 0x04, // outer field 2, I32, value 2
		0x00, // outer STOP
	}
	r := NewReader(input)
	r.ReadStructBegin()
	typ, id, _ := r.ReadFieldHeader()
	if typ != STRUCT || id != 1 {
		t.Fatalf("got (%s, %d), want (STRUCT, 1)", typ, id)
	}
	r.ReadStructBegin()
	if _, id, _ := r.ReadFieldHeader(); id != 1 {
		t.Fatalf("inner field id: got %d, want 1", id)
	}
	if v, _ := r.ReadI32(); v != 1 {
		t.Fatalf("inner value: got %d", v)
	}
	if typ, _, _ := r.ReadFieldHeader(); typ != STOP {
		t.Fatal("missing inner STOP")
	}
	r.ReadStructEnd()
	if _, id, _ := r.ReadFieldHeader(); id != 2 {
		t.Fatalf("outer field id after nested struct: got %d, want 2", id)
	}
}

func TestBoolFieldsCarryValueInHeader(t *testing.T) {
	r := NewReader([]byte{0x11, 0x22, 0x00})
	r.ReadStructBegin()
	typ1, _, _ := r.ReadFieldHeader()
	typ2, _, _ := r.ReadFieldHeader()
	if typ1 != TRUE || typ2 != FALSE {
		t.Errorf("got (%s, %s), want (BOOL_TRUE, BOOL_FALSE)", typ1, typ2)
	}
}

func TestReadListHeader(t *testing.T) {
	// 3 elements of type I32 in the short form.
	r := NewReader([]byte{0x35})
	typ, n, err := r.ReadListHeader()
	if err != nil {
		t.Fatal(err)
	}
	if typ != I32 || n != 3 {
		t.Errorf("got (%s, %d), want (I32, 3)", typ, n)
	}

	// 20 elements of type BINARY in the long form.
	r = NewReader([]byte{0xf8, 0x14})
	typ, n, err = r.ReadListHeader()
	if err != nil {
		t.Fatal(err)
	}
	if typ != BINARY || n != 20 {
		t.Errorf("got (%s, %d), want (BINARY, 20)", typ, n)
	}
}

func TestReadBytes(t *testing.T) {
	r := NewReader([]byte{0x05, 'h', 'e', 'l', 'l', 'o'})
	b, err := r.ReadBytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "hello" {
		t.Errorf("got %q", b)
	}
}

func TestSkipStruct(t *testing.T) {
	// A struct holding an i32, a binary, a list of i32 and a nested struct;
	// skipping it must consume the whole input.
	input := []byte{
		0x15, 0x54, // field 1, I32
		0x28, 0x02, 'h', 'i', // field 3 (delta 2), BINARY
		0x39, 0x25, 0x02, 0x04, // field 6 (delta 3), LIST of 2 x I32
		0x1c, 0x11, 0x00, // field 7, STRUCT{field 1: BOOL_TRUE}
		0x00, // STOP
	}
	r := NewReader(input)
	if err := r.Skip(STRUCT); err != nil {
		t.Fatal(err)
	}
	if r.Remaining() != 0 {
		t.Errorf("%d bytes left unconsumed", r.Remaining())
	}
}

func TestSkipUnknownType(t *testing.T) {
	r := NewReader([]byte{0x00})
	if err := r.Skip(Type(13)); !errors.Is(err, ErrUnknownType) {
		t.Errorf("got %v, want ErrUnknownType", err)
	}
}
