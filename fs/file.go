// Package fs defines the filesystem abstraction the repository layer works
// through. Worksheet sources are only ever read through git, so the surface
// is limited to an existence check plus the few writes fixtures need.
package fs

import "os"

// Filesystem is the native filesystem contract used by the git facade.
type Filesystem interface {
	// Exists reports whether a file or directory exists at path.
	Exists(path string) (bool, error)

	// MkdirAll creates path and any missing parents.
	MkdirAll(path string, perm os.FileMode) error

	// WriteFile writes data to filename, creating it if needed.
	WriteFile(filename string, data []byte, perm os.FileMode) error
}
