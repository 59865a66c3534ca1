// Package hardwood is a from-scratch reader for Apache Parquet files.
//
// The package decodes the parquet binary format without depending on the
// reference parquet or thrift libraries: footer and page headers are parsed
// by a hand-written thrift compact protocol reader, page bodies are decoded
// by the encoding sub-packages, and nested records are reconstructed from
// the per-column definition and repetition level streams.
//
// Typical usage:
//
//	f, err := hardwood.Open("records.parquet")
//	if err != nil {
//		...
//	}
//	defer f.Close()
//
//	cur, err := f.RowCursor(hardwood.Projection("id", "name"))
//	if err != nil {
//		...
//	}
//	defer cur.Close()
//
//	for cur.HasNext() {
//		if err := cur.Next(); err != nil {
//			...
//		}
//		id, _ := cur.Int64("id")
//		name, _ := cur.String("name")
//		...
//	}
//	if err := cur.Err(); err != nil {
//		...
//	}
package hardwood

// OpenAll opens the ordered list of parquet files and returns a row cursor
// iterating all of their rows in order. The files must agree on the columns
// named by the projection. The cursor owns the files and closes them with
// Close; the metadata and page layout of each file is prepared while the
// previous one is still being consumed.
func OpenAll(paths []string, options ...Option) (*RowCursor, error) {
	return openAll(paths, options...)
}
