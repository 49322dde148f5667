package dataset

import (
	"fmt"
	"io"
	"os"

	"github.com/imgajeed76/csvview/internal/util"
)

// Source is raw file content ready for parsing.
type Source struct {
	Name string
	Size int64
	Text string
}

// ReadFile reads path and decodes it to valid UTF-8.
func ReadFile(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	src.Name = path
	return src, nil
}

// Read consumes r and decodes it to valid UTF-8. Input that is not valid
// UTF-8 is decoded as Latin-1.
func Read(r io.Reader) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &Source{
		Size: int64(len(data)),
		Text: string(util.ToValidUTF8Bytes(data)),
	}, nil
}
