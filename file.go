package bffnt

import (
	"fmt"
	"os"
)

// Open reads and parses a BFFNT file from disk.
func Open(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenFile, err)
	}

	return Parse(data)
}

// Save encodes the font and writes it to path.
func (f *Font) Save(path string) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrCreateFile, err)
	}

	return nil
}
