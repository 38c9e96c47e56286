//go:build !windows

package storage

import (
	"os"

	"github.com/google/renameio/v2"
)

// writeFileAtomic writes through a temp file and rename so readers never see a truncated file
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(filename, data, perm)
}
