// Package delta implements the DELTA_BINARY_PACKED, DELTA_LENGTH_BYTE_ARRAY
// and DELTA_BYTE_ARRAY parquet encodings.
//
// https://github.com/apache/parquet-format/blob/master/Encodings.md#delta-encoding-delta_binary_packed--5
package delta

import (
	"encoding/binary"
	"io"

	"github.com/rionmonster/hardwood/encoding"
	"github.com/rionmonster/hardwood/format"
	"github.com/rionmonster/hardwood/internal/bitpack"
)

// The parquet spec does not enforce a limit to the block size, but we need
// one otherwise invalid inputs may result in unbounded memory allocations.
//
// 65K+ values should be enough for any valid use case.
const maxSupportedBlockSize = 65536

// DecodeInt32 decodes one DELTA_BINARY_PACKED run of 32-bit integers from
// src, returning the decoded values and the input bytes following the run.
func DecodeInt32(dst []int32, src []byte) ([]int32, []byte, error) {
	dst = dst[:0]
	rest, err := decode(src, func(v int64) {
		dst = append(dst, int32(v))
	})
	if err != nil {
		return dst, rest, encoding.Error(format.DeltaBinaryPacked, err)
	}
	return dst, rest, nil
}

// DecodeInt64 decodes one DELTA_BINARY_PACKED run of 64-bit integers from
// src, returning the decoded values and the input bytes following the run.
func DecodeInt64(dst []int64, src []byte) ([]int64, []byte, error) {
	dst = dst[:0]
	rest, err := decode(src, func(v int64) {
		dst = append(dst, v)
	})
	if err != nil {
		return dst, rest, encoding.Error(format.DeltaBinaryPacked, err)
	}
	return dst, rest, nil
}

// decode runs the block/miniblock decode loop, calling observe for each
// reconstructed value, and returns the unconsumed tail of src.
func decode(src []byte, observe func(int64)) ([]byte, error) {
	blockSize, numMiniBlocks, totalValues, firstValue, src, err := decodeHeader(src)
	if err != nil {
		return src, err
	}
	if totalValues == 0 {
		return src, nil
	}

	observe(firstValue)
	totalValues--
	lastValue := firstValue
	numValuesInMiniBlock := blockSize / numMiniBlocks

	block := make([]int64, blockSize)
	miniBlock := make([]int64, numValuesInMiniBlock)

	for totalValues > 0 {
		var minDelta int64
		var bitWidths []byte
		minDelta, bitWidths, src, err = decodeBlockHeader(src, numMiniBlocks)
		if err != nil {
			return src, err
		}

		blockOffset := 0
		for i := range block {
			block[i] = 0
		}

		for _, bitWidth := range bitWidths {
			if totalValues == 0 {
				break
			}
			n := numValuesInMiniBlock
			if bitWidth == 0 {
				// All deltas of the miniblock equal minDelta; no payload.
				if n > totalValues {
					n = totalValues
				}
				blockOffset += n
				totalValues -= n
				continue
			}
			if bitWidth > 64 {
				return src, encoding.ErrInvalidBitWidth(format.DeltaBinaryPacked, uint(bitWidth))
			}
			size := (numValuesInMiniBlock * int(bitWidth)) / 8
			if len(src) < size {
				return src, io.ErrUnexpectedEOF
			}
			bitpack.UnpackInt64(miniBlock, src[:size], uint(bitWidth))
			src = src[size:]
			if n > totalValues {
				n = totalValues
			}
			copy(block[blockOffset:blockOffset+n], miniBlock[:n])
			blockOffset += n
			totalValues -= n
		}

		// Deltas become values by adding the block's min delta and taking the
		// prefix sum seeded with the previous value.
		values := block[:blockOffset]
		for i := range values {
			values[i] += minDelta
		}
		if len(values) > 0 {
			values[0] += lastValue
			for i := 1; i < len(values); i++ {
				values[i] += values[i-1]
			}
			for _, v := range values {
				observe(v)
			}
			lastValue = values[len(values)-1]
		}
	}

	return src, nil
}

func decodeHeader(src []byte) (blockSize, numMiniBlocks, totalValues int, firstValue int64, rest []byte, err error) {
	u, n := binary.Uvarint(src)
	if n <= 0 {
		return 0, 0, 0, 0, src, io.ErrUnexpectedEOF
	}
	blockSize, src = int(u), src[n:]

	u, n = binary.Uvarint(src)
	if n <= 0 {
		return 0, 0, 0, 0, src, io.ErrUnexpectedEOF
	}
	numMiniBlocks, src = int(u), src[n:]

	u, n = binary.Uvarint(src)
	if n <= 0 {
		return 0, 0, 0, 0, src, io.ErrUnexpectedEOF
	}
	totalValues, src = int(u), src[n:]

	v, n := binary.Varint(src)
	if n <= 0 {
		return 0, 0, 0, 0, src, io.ErrUnexpectedEOF
	}
	firstValue, src = v, src[n:]

	switch {
	case blockSize <= 0 || (blockSize%128) != 0 || blockSize > maxSupportedBlockSize:
		err = encoding.Errorf(format.DeltaBinaryPacked, "invalid block size: %d: %w", blockSize, encoding.ErrInvalidArgument)
	case numMiniBlocks <= 0 || numMiniBlocks > blockSize:
		err = encoding.Errorf(format.DeltaBinaryPacked, "invalid number of miniblocks: %d: %w", numMiniBlocks, encoding.ErrInvalidArgument)
	case (blockSize % numMiniBlocks) != 0 || ((blockSize/numMiniBlocks)%32) != 0:
		err = encoding.Errorf(format.DeltaBinaryPacked, "invalid miniblock size: %d/%d: %w", blockSize, numMiniBlocks, encoding.ErrInvalidArgument)
	}
	return blockSize, numMiniBlocks, totalValues, firstValue, src, err
}

func decodeBlockHeader(src []byte, numMiniBlocks int) (minDelta int64, bitWidths, rest []byte, err error) {
	v, n := binary.Varint(src)
	if n <= 0 {
		return 0, nil, src, io.ErrUnexpectedEOF
	}
	src = src[n:]
	if len(src) < numMiniBlocks {
		return 0, nil, src, io.ErrUnexpectedEOF
	}
	return v, src[:numMiniBlocks], src[numMiniBlocks:], nil
}
