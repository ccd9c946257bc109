package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFile creates file, along with its directory, and fills it with
// write. Use it with the Write* and Render* functions of this package.
func WriteFile(file string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", file, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", file, err)
	}
	return f.Close()
}
