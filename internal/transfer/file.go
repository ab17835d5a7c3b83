package transfer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// MaxFileSize is the largest file accepted for transfer, in bytes.
const MaxFileSize = 10_000_000

// AllowedTypes lists the file extensions accepted for transfer.
var AllowedTypes = []string{".jpg", ".jpeg", ".png", ".mp3", ".wav"}

// ErrNotFound is returned by FromPath when the path does not point to a regular file.
var ErrNotFound = errors.New("file not found")

// File is a file in flight between two chat participants.
// Name excludes the extension, Type is the extension including the dot.
type File struct {
	Buffer []byte `json:"buffer"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Type   string `json:"type"`
}

// HasValidSize reports whether 0 < Size <= MaxFileSize.
func (f *File) HasValidSize() bool {
	return f.Size > 0 && f.Size <= MaxFileSize
}

// HasValidType reports whether Type is one of AllowedTypes.
func (f *File) HasValidType() bool {
	return slices.Contains(AllowedTypes, f.Type)
}

// Valid combines the size and type checks.
func (f *File) Valid() bool {
	return f.HasValidSize() && f.HasValidType()
}

// FileName returns the on-disk name of the file.
func (f *File) FileName() string {
	return f.Name + f.Type
}

// AllowedTypesList renders AllowedTypes for user-facing messages.
func AllowedTypesList() string {
	return strings.Join(AllowedTypes, ", ")
}

// FromPath reads a local file into a File.
func FromPath(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotFound
	}

	f := &File{
		Size: info.Size(),
		Type: filepath.Ext(abs),
	}
	f.Name = strings.TrimSuffix(filepath.Base(abs), f.Type)

	// Skip reading oversized files; callers reject them on size alone.
	if !f.HasValidSize() {
		return f, nil
	}

	f.Buffer, err = os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return f, nil
}

// Save writes the file into dir, creating dir if needed, and returns the written path.
// An existing file with the same name is overwritten.
func (f *File) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}
	// Strip any directory components a peer may have put into the name.
	name := filepath.Base(filepath.Clean("/" + f.FileName()))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, f.Buffer, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}
