package staticfile

import (
	"os"
	"path/filepath"
)

// FileStatus is the outcome of a filesystem probe. It is a diagnostic
// aid, surfaced in log entries; the serving path is gated on the read
// itself, not on this value.
type FileStatus int

const (
	Exists FileStatus = iota
	ExistsNoPermission
	DoesNotExist
	IsDirectory
	ParentDirectoryDoesNotExist
	UnknownError
)

func (s FileStatus) String() string {
	switch s {
	case Exists:
		return "exists"
	case ExistsNoPermission:
		return "exists-no-permission"
	case DoesNotExist:
		return "does-not-exist"
	case IsDirectory:
		return "is-directory"
	case ParentDirectoryDoesNotExist:
		return "parent-directory-does-not-exist"
	default:
		return "unknown-error"
	}
}

// Probe classifies the state of a filesystem path.
func Probe(path string) FileStatus {
	fi, err := os.Stat(path)
	if err == nil {
		if fi.IsDir() {
			return IsDirectory
		}
		f, openErr := os.Open(path)
		if openErr != nil {
			if os.IsPermission(openErr) {
				return ExistsNoPermission
			}
			return UnknownError
		}
		f.Close()
		return Exists
	}
	if os.IsPermission(err) {
		return ExistsNoPermission
	}
	if os.IsNotExist(err) {
		if _, perr := os.Stat(filepath.Dir(path)); os.IsNotExist(perr) {
			return ParentDirectoryDoesNotExist
		}
		return DoesNotExist
	}
	return UnknownError
}
