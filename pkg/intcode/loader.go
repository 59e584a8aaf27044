package intcode

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Parse converts program text into a memory image.
//
// Only the first line is read. It must be a comma-separated list of
// non-negative decimal integers; whitespace around each token is ignored.
// The first invalid token aborts the load with a *ParseError.
func Parse(text string) (*Memory, error) {
	line, _, _ := strings.Cut(text, "\n")
	tokens := strings.Split(line, ",")

	cells := make([]Cell, 0, len(tokens))
	for i, raw := range tokens {
		tok := strings.TrimSpace(raw)
		v, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return nil, &ParseError{Token: tok, Index: i, Err: err}
		}
		cells = append(cells, Cell(v))
	}
	return &Memory{cells: cells}, nil
}

// Load reads program text from r and parses it.
func Load(r io.Reader) (*Memory, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}
	return Parse(string(data))
}

// LoadFile reads and parses the program stored at path.
func LoadFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	mem, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mem, nil
}
