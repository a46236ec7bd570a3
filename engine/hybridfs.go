package engine

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// HybridFS implements fs.FS over an ordered list of disk roots, then falls
// back to an embedded fs.FS if provided. An empty root means the name is
// used as is, relative to the working directory.
type HybridFS struct {
	roots    []string
	embedded fs.FS
}

// NewHybridFS creates a HybridFS searching roots in order. If embedded is nil,
// it behaves like a disk FS.
func NewHybridFS(embedded fs.FS, roots ...string) *HybridFS {
	return &HybridFS{roots: roots, embedded: embedded}
}

// Open tries every disk root first, then embedded.
func (h *HybridFS) Open(name string) (fs.File, error) {
	if p, ok := h.Locate(filepath.FromSlash(name)); ok {
		return os.Open(p)
	}

	if h.embedded != nil && fs.ValidPath(name) {
		return h.embedded.Open(name)
	}

	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// ReadFile reads name from the first location that has it.
// fs.ReadFile would call back into this method, so the file is read here.
func (h *HybridFS) ReadFile(name string) ([]byte, error) {
	f, err := h.Open(filepath.ToSlash(name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// Locate returns the absolute disk path of the first candidate that is a
// regular file. An absolute name is only checked as is.
func (h *HybridFS) Locate(name string) (string, bool) {
	if filepath.IsAbs(name) {
		return regularFile(name)
	}
	for _, root := range h.roots {
		if p, ok := regularFile(filepath.Join(root, name)); ok {
			return p, true
		}
	}
	return "", false
}

func regularFile(p string) (string, bool) {
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", false
	}
	return abs, true
}
