package dataset

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// DefaultChunkSize is the number of data lines parsed between progress
	// callbacks and cancellation checks.
	DefaultChunkSize = 1000

	// rowTolerance is how far a row's field count may drift from the header's
	// before the row is dropped. Short rows are padded, long rows truncated.
	rowTolerance = 2
)

// Progress reports how many data lines have been processed.
type Progress struct {
	Processed int
	Total     int
}

// Fraction returns progress in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 1
	}
	return float64(p.Processed) / float64(p.Total)
}

// Options configures a Parser.
type Options struct {
	// ChunkSize is the number of data lines per chunk. Zero means DefaultChunkSize.
	ChunkSize int

	// OnProgress, if set, is called after every chunk.
	OnProgress func(Progress)

	// Logger receives malformed-row diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Parser parses delimited text in fixed-size chunks. The output does not
// depend on the chunk size.
type Parser struct {
	opts Options
}

// NewParser returns a Parser with the given options.
func NewParser(opts Options) *Parser {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &Parser{opts: opts}
}

// Parse parses text in one go with default options.
func Parse(text string) (*Dataset, error) {
	return NewParser(Options{}).Parse(context.Background(), text)
}

// Parse parses text into a Dataset. The context is checked between chunks;
// a cancelled parse returns the context's error and no Dataset.
func (p *Parser) Parse(ctx context.Context, text string) (*Dataset, error) {
	lines := nonBlankLines(text)
	switch len(lines) {
	case 0:
		return nil, ErrEmptyFile
	case 1:
		return nil, ErrHeaderOnly
	}

	delim := DetectDelimiter(lines[0])
	ds := &Dataset{
		Headers:   SplitLine(lines[0], delim),
		Delimiter: delim,
		Lines:     len(lines),
	}

	data := lines[1:]
	total := len(data)
	ds.Records = make([]Record, 0, total)
	log := p.logger()

	for start := 0; start < total; start += p.opts.ChunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + p.opts.ChunkSize
		if end > total {
			end = total
		}
		for i := start; i < end; i++ {
			// +2: 1-based, and the header occupies line 1
			p.parseRow(ds, i+2, data[i], log)
		}

		if p.opts.OnProgress != nil {
			p.opts.OnProgress(Progress{Processed: end, Total: total})
		}
	}

	if len(ds.Records) == 0 {
		return nil, ErrNoDataRows
	}
	return ds, nil
}

func (p *Parser) parseRow(ds *Dataset, lineNo int, line string, log *slog.Logger) {
	fields := SplitLine(line, ds.Delimiter)
	want := len(ds.Headers)

	diff := len(fields) - want
	if diff < 0 {
		diff = -diff
	}
	if diff > rowTolerance {
		ds.Skipped = append(ds.Skipped, SkippedRow{Line: lineNo, Fields: len(fields), Expected: want})
		log.Debug("malformed row skipped",
			"line", lineNo,
			"fields", len(fields),
			"expected", want,
		)
		return
	}

	rec := make(Record, want)
	for i, h := range ds.Headers {
		if i < len(fields) {
			rec[h] = fields[i]
		} else {
			rec[h] = ""
		}
	}
	ds.Records = append(ds.Records, rec)
}

func (p *Parser) logger() *slog.Logger {
	if p.opts.Logger != nil {
		return p.opts.Logger
	}
	return slog.Default()
}

// nonBlankLines normalizes line endings, drops a leading byte-order mark and
// returns the lines that contain something other than whitespace.
func nonBlankLines(text string) []string {
	text = strings.TrimPrefix(text, string(bom))
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	raw := strings.Split(text, "\n")
	lines := raw[:0]
	for _, line := range raw {
		if !isBlank(line) {
			lines = append(lines, line)
		}
	}
	return lines
}
