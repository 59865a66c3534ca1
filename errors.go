package hardwood

import (
	"errors"
	"fmt"

	"github.com/rionmonster/hardwood/format"
)

var (
	// ErrMalformed is wrapped by all errors caused by input that does not
	// follow the parquet format: bad magic bytes, truncated footers or pages,
	// varint overflows, mismatched value counts, out of range dictionary
	// indexes or levels.
	ErrMalformed = errors.New("malformed parquet file")

	// ErrUnsupported is wrapped by errors caused by files using features the
	// reader does not implement, such as unknown encodings, codecs or page
	// types.
	ErrUnsupported = errors.New("unsupported parquet feature")

	// ErrProjection is wrapped by errors caused by a projection naming
	// columns that do not exist or navigating into a primitive.
	ErrProjection = errors.New("invalid projection")

	// ErrTypeMismatch is wrapped by errors returned by typed accessors called
	// on a column of an incompatible physical or logical type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrCursorClosed is returned by operations on a closed row cursor.
	ErrCursorClosed = errors.New("row cursor is closed")

	// ErrEndOfRecords is returned by Next when the cursor is exhausted.
	ErrEndOfRecords = errors.New("end of records")

	// ErrMissingRootColumn is returned when opening a file whose metadata
	// carries an empty schema.
	ErrMissingRootColumn = errors.New("parquet file is missing a root column")
)

func errMalformedf(msg string, args ...interface{}) error {
	args = append(args, ErrMalformed)
	return fmt.Errorf(msg+": %w", args...)
}

func errUnsupportedf(msg string, args ...interface{}) error {
	args = append(args, ErrUnsupported)
	return fmt.Errorf(msg+": %w", args...)
}

func errProjectionf(msg string, args ...interface{}) error {
	args = append(args, ErrProjection)
	return fmt.Errorf(msg+": %w", args...)
}

func errTypeMismatchf(msg string, args ...interface{}) error {
	args = append(args, ErrTypeMismatch)
	return fmt.Errorf(msg+": %w", args...)
}

// DecompressionError carries errors surfaced by a decompressor, along with
// the codec id and the uncompressed size the page header announced.
type DecompressionError struct {
	Codec            format.CompressionCodec
	UncompressedSize int
	Err              error
}

func (e *DecompressionError) Error() string {
	return fmt.Sprintf("decompressing %s page body to %d bytes: %s", e.Codec, e.UncompressedSize, e.Err)
}

func (e *DecompressionError) Unwrap() error {
	return e.Err
}
