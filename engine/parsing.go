package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"asg/engine/parse"
)

// TemplateExtensions are the file types run through the template compiler.
// Every other file is copied verbatim.
var TemplateExtensions = []string{".html", ".md", ".css", ".js", ".txt", ".asg"}

// IsTemplate reports whether path has a template extension.
func IsTemplate(path string) bool {
	return slices.Contains(TemplateExtensions, filepath.Ext(path))
}

// resolve finds path as is, then under searchRoot, the executable directory
// and the assets directory.
func (s *Session) resolve(path, searchRoot string) (string, bool) {
	return NewHybridFS(nil, "", searchRoot, s.cfg.ExeDir, s.cfg.AssetDir).Locate(path)
}

// GetOrParse returns the chunks of path, parsing it unless the cached entry
// is still fresh. An entry is reused only when the file was modified strictly
// before it was parsed.
func (s *Session) GetOrParse(path, searchRoot string) (*PartialParse, error) {
	resolved, ok := s.resolve(path, searchRoot)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", resolved, err)
	}

	if p, ok := s.cache.Get(resolved); ok && info.ModTime().Before(p.Timestamp) {
		s.cache.recordLookup(true)
		s.log.Debug("parse cache hit", "path", resolved)
		return p, nil
	}
	s.cache.recordLookup(false)

	p, err := parseFile(resolved, s.cfg.Clock())
	if err != nil {
		return nil, err
	}
	s.log.Debug("parsed",
		"path", resolved,
		"chunks", len(p.Chunks),
		"duration", p.ParseDuration,
	)
	if !s.cache.Set(resolved, p) {
		s.log.Debug("file too large for parse cache", "path", resolved, "size", p.Size)
	}
	return p, nil
}

func parseFile(path string, now time.Time) (*PartialParse, error) {
	start := time.Now()
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var chunks []parse.Chunk
	switch {
	case IsTemplate(path):
		chunks = parse.Classify(string(src))
	case filepath.Ext(path) == ".lua":
		chunks = []parse.Chunk{{Content: string(src), Kind: parse.ControlStatement}}
	default:
		chunks = []parse.Chunk{{Content: string(src), Kind: parse.RawText}}
	}

	return &PartialParse{
		Chunks:        chunks,
		Timestamp:     now,
		SourcePath:    path,
		ParseDuration: time.Since(start),
		Size:          int64(len(src)),
	}, nil
}
