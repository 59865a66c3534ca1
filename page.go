package hardwood

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/rionmonster/hardwood/encoding/bytestreamsplit"
	"github.com/rionmonster/hardwood/encoding/delta"
	"github.com/rionmonster/hardwood/encoding/rle"
	"github.com/rionmonster/hardwood/format"
	"github.com/rionmonster/hardwood/internal/bits"
)

// Page is one decoded data page: the value stream aligned with the level
// streams, with default values at null positions. A page owns freshly
// allocated arrays; nothing aliases the file mapping except byte array
// values, which reference the page's decompressed body.
type Page struct {
	column    *ColumnSchema
	numValues int
	defLevels []byte
	repLevels []byte
	values    vector
}

// decodePage decodes one data page: decompress the body, split the level
// streams from the values, decode the values with the declared encoding, and
// align them with the levels.
func (c *chunkPages) decodePage(info *PageInfo) (*Page, error) {
	switch info.header.Type {
	case format.DataPage:
		return c.decodeDataPageV1(info)
	case format.DataPageV2:
		return c.decodeDataPageV2(info)
	default:
		return nil, errUnsupportedf("column %q: page type %s", c.column.Name(), info.header.Type)
	}
}

func (c *chunkPages) decodeDataPageV1(info *PageInfo) (*Page, error) {
	col := c.column
	hdr := info.header.DataPageHeader
	if hdr == nil {
		return nil, errMalformedf("column %q: DATA_PAGE without a data page header", col.Name())
	}
	if err := c.validateCRC(info); err != nil {
		return nil, err
	}

	body, err := c.decompress(info.body, int(info.header.UncompressedPageSize))
	if err != nil {
		return nil, err
	}

	numValues := int(hdr.NumValues)
	p := &Page{column: col, numValues: numValues}

	// The level streams precede the values, each a 4-byte little-endian
	// length followed by a hybrid run. Repetition levels come first.
	if col.MaxRepetitionLevel > 0 {
		stream, rest, err := splitLevelStream(body)
		if err != nil {
			return nil, errMalformedf("column %q: repetition levels: %s", col.Name(), err)
		}
		body = rest
		width := uint(bits.Len(col.MaxRepetitionLevel))
		if p.repLevels, err = rle.DecodeLevels(nil, stream, width, numValues); err != nil {
			return nil, errMalformedf("column %q: repetition levels: %s", col.Name(), err)
		}
	}

	numPresent := numValues
	if col.MaxDefinitionLevel > 0 {
		stream, rest, err := splitLevelStream(body)
		if err != nil {
			return nil, errMalformedf("column %q: definition levels: %s", col.Name(), err)
		}
		body = rest
		width := uint(bits.Len(col.MaxDefinitionLevel))
		p.defLevels, numPresent, err = rle.DecodeLevelsCount(nil, stream, width, numValues, byte(col.MaxDefinitionLevel))
		if err != nil {
			return nil, errMalformedf("column %q: definition levels: %s", col.Name(), err)
		}
	}

	if err := p.decodeValues(c, hdr.Encoding, body, numPresent); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *chunkPages) decodeDataPageV2(info *PageInfo) (*Page, error) {
	col := c.column
	hdr := info.header.DataPageHeaderV2
	if hdr == nil {
		return nil, errMalformedf("column %q: DATA_PAGE_V2 without a data page header", col.Name())
	}
	if err := c.validateCRC(info); err != nil {
		return nil, err
	}

	body := info.body
	repLength := int(hdr.RepetitionLevelsByteLength)
	defLength := int(hdr.DefinitionLevelsByteLength)
	if repLength+defLength > len(body) {
		return nil, errMalformedf("column %q: %d bytes of levels overflow the %d byte page body", col.Name(), repLength+defLength, len(body))
	}

	numValues := int(hdr.NumValues)
	p := &Page{column: col, numValues: numValues}

	// V2 level streams are never compressed and carry no length prefix; the
	// byte lengths come from the page header.
	var err error
	if col.MaxRepetitionLevel > 0 {
		width := uint(bits.Len(col.MaxRepetitionLevel))
		if p.repLevels, err = rle.DecodeLevels(nil, body[:repLength], width, numValues); err != nil {
			return nil, errMalformedf("column %q: repetition levels: %s", col.Name(), err)
		}
	}
	numPresent := numValues
	if col.MaxDefinitionLevel > 0 {
		width := uint(bits.Len(col.MaxDefinitionLevel))
		p.defLevels, numPresent, err = rle.DecodeLevelsCount(nil, body[repLength:repLength+defLength], width, numValues, byte(col.MaxDefinitionLevel))
		if err != nil {
			return nil, errMalformedf("column %q: definition levels: %s", col.Name(), err)
		}
	}

	values := body[repLength+defLength:]
	if hdr.IsCompressed == nil || *hdr.IsCompressed {
		size := int(info.header.UncompressedPageSize) - repLength - defLength
		if values, err = c.decompress(values, size); err != nil {
			return nil, err
		}
	}

	if err := p.decodeValues(c, hdr.Encoding, values, numPresent); err != nil {
		return nil, err
	}
	return p, nil
}

// splitLevelStream slices the 4-byte length prefixed level stream from the
// head of a v1 page body.
func splitLevelStream(body []byte) (stream, rest []byte, err error) {
	if len(body) < 4 {
		return nil, body, errMalformedf("%d bytes cannot hold a level stream length", len(body))
	}
	n := int(binary.LittleEndian.Uint32(body))
	body = body[4:]
	if n < 0 || n > len(body) {
		return nil, body, errMalformedf("level stream of %d bytes overflows the %d byte page body", n, len(body))
	}
	return body[:n], body[n:], nil
}

// decodeValues decodes the value region with the declared encoding and
// aligns the resulting dense values with the level streams.
func (p *Page) decodeValues(c *chunkPages, enc format.Encoding, data []byte, numPresent int) error {
	col := p.column
	var dense vector
	var err error

	switch enc {
	case format.Plain:
		dense, err = decodePlain(col, data, numPresent)

	case format.PlainDictionary, format.RLEDictionary:
		dict, derr := c.dictionary()
		if derr != nil {
			return derr
		}
		if dict == nil {
			return errMalformedf("column %q: %s page without a dictionary", col.Name(), enc)
		}
		indexes, ierr := rle.DecodeIndexes(nil, data, numPresent)
		if ierr != nil {
			return errMalformedf("column %q: %s", col.Name(), ierr)
		}
		dense, err = dict.lookup(indexes)

	case format.RLE:
		if col.PhysicalType() != format.Boolean {
			return errUnsupportedf("column %q: RLE values of type %s", col.Name(), col.PhysicalType())
		}
		dense.booleans, err = rle.DecodeBoolean(nil, data, numPresent)

	case format.DeltaBinaryPacked:
		switch col.PhysicalType() {
		case format.Int32:
			dense.int32s, _, err = delta.DecodeInt32(nil, data)
		case format.Int64:
			dense.int64s, _, err = delta.DecodeInt64(nil, data)
		default:
			return errUnsupportedf("column %q: DELTA_BINARY_PACKED values of type %s", col.Name(), col.PhysicalType())
		}

	case format.DeltaLengthByteArray:
		if col.PhysicalType() != format.ByteArray {
			return errUnsupportedf("column %q: DELTA_LENGTH_BYTE_ARRAY values of type %s", col.Name(), col.PhysicalType())
		}
		dense.byteArrays, err = delta.DecodeLengthByteArray(nil, data)

	case format.DeltaByteArray:
		switch col.PhysicalType() {
		case format.ByteArray, format.FixedLenByteArray:
			dense.byteArrays, err = delta.DecodeByteArray(nil, data)
		default:
			return errUnsupportedf("column %q: DELTA_BYTE_ARRAY values of type %s", col.Name(), col.PhysicalType())
		}

	case format.ByteStreamSplit:
		switch col.PhysicalType() {
		case format.Float:
			dense.floats, err = bytestreamsplit.DecodeFloat(nil, data)
		case format.Double:
			dense.doubles, err = bytestreamsplit.DecodeDouble(nil, data)
		case format.FixedLenByteArray:
			dense.byteArrays, err = bytestreamsplit.DecodeFixedLenByteArray(nil, data, col.Node.TypeLength)
		default:
			return errUnsupportedf("column %q: BYTE_STREAM_SPLIT values of type %s", col.Name(), col.PhysicalType())
		}

	default:
		return errUnsupportedf("column %q: encoding %s", col.Name(), enc)
	}

	if err != nil {
		var derr *DecompressionError
		if errors.As(err, &derr) || errors.Is(err, ErrMalformed) || errors.Is(err, ErrUnsupported) {
			return err
		}
		return errMalformedf("column %q: %s", col.Name(), err)
	}

	typ := col.PhysicalType()
	if n := dense.len(typ); n != numPresent {
		return errMalformedf("column %q: page holds %d values, its levels announce %d", col.Name(), n, numPresent)
	}

	// With definition levels present, values only exist at positions where
	// the level equals the column's max; scatter them into an array aligned
	// with the levels.
	if p.defLevels == nil || numPresent == p.numValues {
		p.values = dense
		return nil
	}
	aligned := vector{}
	aligned.alloc(typ, p.numValues)
	maxDef := byte(col.MaxDefinitionLevel)
	j := 0
	for i, level := range p.defLevels {
		if level == maxDef {
			aligned.move(typ, i, &dense, j)
			j++
		}
	}
	p.values = aligned
	return nil
}

func (c *chunkPages) validateCRC(info *PageInfo) error {
	if !c.config.CRCValidation || info.header.CRC == 0 {
		return nil
	}
	if sum := crc32.ChecksumIEEE(info.body); sum != uint32(info.header.CRC) {
		return errMalformedf("column %q: page body checksum %#x does not match the header's %#x", c.column.Name(), sum, uint32(info.header.CRC))
	}
	return nil
}

// decompress inflates a page body with the chunk's codec. The destination is
// sized from the page header's uncompressed size.
func (c *chunkPages) decompress(body []byte, uncompressedSize int) ([]byte, error) {
	codec, err := c.config.Decompressors.Lookup(c.meta.Codec)
	if err != nil {
		return nil, errUnsupportedf("column %q: %s", c.column.Name(), err)
	}
	if uncompressedSize < 0 {
		uncompressedSize = 0
	}
	out, err := codec.Decode(make([]byte, uncompressedSize), body)
	if err != nil {
		return nil, &DecompressionError{
			Codec:            c.meta.Codec,
			UncompressedSize: uncompressedSize,
			Err:              err,
		}
	}
	return out, nil
}
