package media

import (
	"fmt"
	"io"
	"os"
)

// FileCopier copies a media file byte-for-byte. Used when no silence was
// detected and the input can pass through without re-encoding.
type FileCopier struct{}

// NewFileCopier creates a new FileCopier.
func NewFileCopier() *FileCopier {
	return &FileCopier{}
}

// Copy copies src to dst, overwriting dst if it exists.
func (FileCopier) Copy(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copy file: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close destination file: %w", err)
	}
	return nil
}
