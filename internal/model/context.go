package model

import (
	"path/filepath"
	"strings"
	"time"
)

// GenerationContext carries read-only hints about the target archive.
// Every generator receives it and must still produce generic candidates
// when any field is empty.
type GenerationContext struct {
	// FilePath is the archive path as given by the user.
	FilePath string `json:"filePath,omitempty"`

	// FileName is the base name of the archive including its extension.
	// NewGenerationContext derives it from FilePath.
	FileName string `json:"fileName,omitempty"`

	// FileSize is the archive size in bytes. Zero means unknown.
	FileSize int64 `json:"fileSize,omitempty"`

	// Created is the best known creation time of the archive.
	// The zero value means unknown.
	Created time.Time `json:"created,omitempty"`

	// Keywords are extra tokens supplied by the user or harvested from
	// metadata (EXIF authors, configured keywords).
	Keywords []string `json:"keywords,omitempty"`

	// Dates are points in time harvested from metadata, for example the
	// capture date of photos stored next to the archive.
	Dates []time.Time `json:"dates,omitempty"`
}

// NewGenerationContext creates a context for the archive at path.
// It does not touch the file system; size and time are filled in by callers
// that can stat the file.
func NewGenerationContext(path string) GenerationContext {
	ctx := GenerationContext{FilePath: path}
	if path != "" {
		ctx.FileName = filepath.Base(path)
	}
	return ctx
}

// BaseName returns the file name without its extension.
// For "backup.tar.gz" it returns "backup.tar".
func (c GenerationContext) BaseName() string {
	name := c.FileName
	if name == "" && c.FilePath != "" {
		name = filepath.Base(c.FilePath)
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Extension returns the lower-cased file extension without the dot.
func (c GenerationContext) Extension() string {
	name := c.FileName
	if name == "" {
		name = c.FilePath
	}
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// HasCreated reports whether a creation time is known.
func (c GenerationContext) HasCreated() bool {
	return !c.Created.IsZero()
}

// HasSize reports whether the archive size is known.
func (c GenerationContext) HasSize() bool {
	return c.FileSize > 0
}

// PathComponents returns the directory names above the archive, closest first,
// skipping empty and dot components.
func (c GenerationContext) PathComponents() []string {
	if c.FilePath == "" {
		return nil
	}
	dir := filepath.Dir(filepath.Clean(c.FilePath))
	parts := make([]string, 0)
	for dir != "" && dir != "." && dir != string(filepath.Separator) {
		base := filepath.Base(dir)
		if base != "" && base != "." && base != string(filepath.Separator) {
			parts = append(parts, base)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return parts
}
