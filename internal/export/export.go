// Package export serializes a filtered view back to CSV.
//
// The output starts with a UTF-8 byte-order mark so spreadsheet tools pick
// the right encoding. Every field, headers included, is double-quoted with
// inner quotes doubled; fields are comma-separated and rows are separated by
// "\n" with no trailing newline.
package export

import (
	"bytes"
	"context"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/imgajeed76/csvview/internal/dataset"
)

// BOM is the UTF-8 byte-order mark written before the header row.
const BOM = "\uFEFF"

// DefaultChunkRows is the number of rows each worker renders at a time.
const DefaultChunkRows = 5000

// FileName returns the default export file name for t: export_YYYY-MM-DD.csv,
// using the UTC calendar date.
func FileName(t time.Time) string {
	return "export_" + t.UTC().Format("2006-01-02") + ".csv"
}

// Bytes renders the view synchronously. A nil view exports every record.
func Bytes(ds *dataset.Dataset, view []int) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, ds.Headers)
	writeRows(&buf, ds, view, 0, viewLen(ds, view))
	return buf.Bytes()
}

// Write renders the view to w.
func Write(w io.Writer, ds *dataset.Dataset, view []int) error {
	_, err := w.Write(Bytes(ds, view))
	return err
}

// Chunked renders the view with rows split into chunks of chunkRows rendered
// concurrently by up to workers goroutines. The bytes are identical to Bytes.
func Chunked(ctx context.Context, ds *dataset.Dataset, view []int, chunkRows, workers int) ([]byte, error) {
	if chunkRows <= 0 {
		chunkRows = DefaultChunkRows
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	n := viewLen(ds, view)
	chunks := (n + chunkRows - 1) / chunkRows
	parts := make([]bytes.Buffer, chunks)

	jobs := make(chan int, chunks)
	for c := 0; c < chunks; c++ {
		jobs <- c
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers && w < chunks; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				if ctx.Err() != nil {
					return
				}
				from := c * chunkRows
				to := from + chunkRows
				if to > n {
					to = n
				}
				writeRows(&parts[c], ds, view, from, to)
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	size := 0
	for i := range parts {
		size += parts[i].Len()
	}
	out.Grow(size + 64*len(ds.Headers))
	writeHeader(&out, ds.Headers)
	for i := range parts {
		out.Write(parts[i].Bytes())
	}
	return out.Bytes(), nil
}

func viewLen(ds *dataset.Dataset, view []int) int {
	if view == nil {
		return ds.Len()
	}
	return len(view)
}

func writeHeader(buf *bytes.Buffer, headers []string) {
	buf.WriteString(BOM)
	for i, h := range headers {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeQuoted(buf, h)
	}
}

// writeRows renders view positions [from, to), each preceded by a newline.
func writeRows(buf *bytes.Buffer, ds *dataset.Dataset, view []int, from, to int) {
	for pos := from; pos < to; pos++ {
		idx := pos
		if view != nil {
			idx = view[pos]
		}
		rec := ds.Records[idx]

		buf.WriteByte('\n')
		for i, h := range ds.Headers {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeQuoted(buf, rec[h])
		}
	}
}

func writeQuoted(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	buf.WriteString(strings.ReplaceAll(s, `"`, `""`))
	buf.WriteByte('"')
}
