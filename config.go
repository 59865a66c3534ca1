package hardwood

import (
	"fmt"

	"github.com/rionmonster/hardwood/compress"
	"github.com/rionmonster/hardwood/compress/brotli"
	"github.com/rionmonster/hardwood/compress/gzip"
	"github.com/rionmonster/hardwood/compress/lz4"
	"github.com/rionmonster/hardwood/compress/snappy"
	"github.com/rionmonster/hardwood/compress/uncompressed"
	"github.com/rionmonster/hardwood/compress/zstd"
)

const (
	// DefaultBatchSize is the number of records loaded per column batch.
	DefaultBatchSize = 8192

	// MaxBatchSize is the upper bound accepted for the BatchSize option.
	MaxBatchSize = 1 << 20

	// DefaultCRCValidation controls whether page body checksums are verified.
	DefaultCRCValidation = false
)

// defaultDecompressors registers the standard codec set.
func defaultDecompressors() *compress.Registry {
	return compress.NewRegistry(
		new(uncompressed.Codec),
		new(snappy.Codec),
		new(gzip.Codec),
		new(brotli.Codec),
		new(lz4.Codec),
		new(lz4.LegacyCodec),
		new(zstd.Codec),
	)
}

// The FileConfig type carries configuration options for parquet files.
type FileConfig struct {
	Decompressors *compress.Registry
	CRCValidation bool
}

// DefaultFileConfig returns a new FileConfig value initialized with the
// default file configuration.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Decompressors: defaultDecompressors(),
		CRCValidation: DefaultCRCValidation,
	}
}

// NewFileConfig constructs a file configuration from the given options.
func NewFileConfig(options ...Option) (*FileConfig, error) {
	c := DefaultFileConfig()
	for _, opt := range options {
		opt.configureFile(c)
	}
	return c, c.Validate()
}

// Validate returns a non-nil error if the configuration of c is invalid.
func (c *FileConfig) Validate() error {
	if c.Decompressors == nil {
		return fmt.Errorf("file configuration with nil decompressor registry")
	}
	return nil
}

// The CursorConfig type carries configuration options for row cursors.
type CursorConfig struct {
	BatchSize  int
	Projection []string
}

// DefaultCursorConfig returns a new CursorConfig value initialized with the
// default cursor configuration. A nil projection selects every column.
func DefaultCursorConfig() *CursorConfig {
	return &CursorConfig{
		BatchSize: DefaultBatchSize,
	}
}

// NewCursorConfig constructs a cursor configuration from the given options.
func NewCursorConfig(options ...Option) (*CursorConfig, error) {
	c := DefaultCursorConfig()
	for _, opt := range options {
		opt.configureCursor(c)
	}
	return c, c.Validate()
}

// Validate returns a non-nil error if the configuration of c is invalid.
func (c *CursorConfig) Validate() error {
	if c.BatchSize <= 0 || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch size out of range [1,%d]: %d", MaxBatchSize, c.BatchSize)
	}
	return nil
}

// Option configures the opening of files and the construction of row
// cursors. Options that do not apply to the receiving operation are ignored.
type Option interface {
	configureFile(*FileConfig)
	configureCursor(*CursorConfig)
}

type fileOption func(*FileConfig)

func (opt fileOption) configureFile(c *FileConfig)   { opt(c) }
func (opt fileOption) configureCursor(*CursorConfig) {}

type cursorOption func(*CursorConfig)

func (opt cursorOption) configureFile(*FileConfig)       {}
func (opt cursorOption) configureCursor(c *CursorConfig) { opt(c) }

// Decompressors replaces the registry of decompression codecs used to read
// page bodies.
func Decompressors(registry *compress.Registry) Option {
	return fileOption(func(c *FileConfig) { c.Decompressors = registry })
}

// CRCValidation enables or disables verification of the optional CRC32
// checksum carried by page headers.
func CRCValidation(enabled bool) Option {
	return fileOption(func(c *FileConfig) { c.CRCValidation = enabled })
}

// BatchSize sets the number of records loaded per column batch.
func BatchSize(numRecords int) Option {
	return cursorOption(func(c *CursorConfig) { c.BatchSize = numRecords })
}

// Projection restricts the cursor to the given columns. Each path is either a
// top-level field name or a dotted path navigating into groups; naming a
// group selects every primitive column below it.
func Projection(paths ...string) Option {
	return cursorOption(func(c *CursorConfig) { c.Projection = paths })
}
