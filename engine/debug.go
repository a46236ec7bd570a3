package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"asg/engine/parse"
)

// DebugFile prints the tokens and chunks of a template, and its delimiter
// problems if any. Nothing is executed.
func (s *Session) DebugFile(path string) error {
	resolved, ok := s.resolve(path, s.cfg.InputDir)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if !IsTemplate(resolved) {
		return fmt.Errorf("%w: %s", ErrNotTemplate, resolved)
	}
	src, err := os.ReadFile(resolved)
	if err != nil {
		return err
	}

	w := s.cfg.Stdout
	fmt.Fprintf(w, "=== DEBUG TEMPLATE: %s ===\n", resolved)

	fmt.Fprintln(w, "--- tokens ---")
	for tok := range parse.Tokens(string(src)) {
		fmt.Fprintf(w, "%-12s %q\n", tok.Typ, tok.Val)
	}

	chunks := parse.Classify(string(src))
	fmt.Fprintln(w, "--- chunks ---")
	for i, c := range chunks {
		fmt.Fprintf(w, "[%d] %-16s %q\n", i, c.Kind, c.Content)
	}

	if err := parse.Validate(string(src)); err != nil {
		fmt.Fprintln(w, "--- problems ---")
		fmt.Fprintln(w, err)
	}
	fmt.Fprintln(w, "=== END DEBUG ===")
	return nil
}

// ValidateAll checks the delimiters of every template of the input
// directory. Problems of all files are joined, prefixed with the file path.
func (s *Session) ValidateAll() error {
	var errs []error
	err := filepath.WalkDir(s.cfg.InputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if d.IsDir() {
			if path == s.cfg.OutputDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsTemplate(path) {
			return nil
		}

		rel, err := filepath.Rel(s.cfg.InputDir, path)
		if err != nil {
			rel = path
		}
		src, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rel, err))
			return nil
		}
		if err := parse.Validate(string(src)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rel, err))
		}
		return nil
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("walk %s: %w", s.cfg.InputDir, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n%w", errors.Join(errs...))
	}
	return nil
}
