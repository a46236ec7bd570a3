package engine

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"asg/engine/parse"
)

// compile is the recursive step behind Compile. stack holds the resolved
// paths of the files being compiled, outermost first. s.mu must be held.
func (s *Session) compile(path, searchRoot string, stack []string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compile %s: panic: %v", path, r)
		}
	}()

	if len(stack) >= s.cfg.MaxLayoutDepth {
		return "", fmt.Errorf("%w: %s", ErrLayoutDepth, strings.Join(stack, ","))
	}

	pp, err := s.GetOrParse(path, searchRoot)
	if err != nil {
		return "", err
	}
	file := pp.SourcePath
	stack = append(stack, file)

	info, err := os.Stat(file)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", file, err)
	}
	ft := s.fileTimes(file, info)
	s.env.SetGlobal("file", ft.table(s.env.L, file, info.Size()))

	out = s.executeChunks(file, pp.Chunks)

	if strings.HasSuffix(file, ".md") {
		html, err := RenderMarkdown(out)
		if err != nil {
			s.display.Error(file, err.Error(), "")
		} else {
			out = html
		}
	}

	cfg := s.configSnapshot()
	title, description, words, tags := deriveMetadata(StripHTML(out), cfg)

	if layout := cfg["layout"]; layout != "" {
		resolved, ok := s.resolve(layout, searchRoot)
		if !ok {
			return "", fmt.Errorf("layout %s of %s: %w", layout, file, ErrNotFound)
		}
		if slices.Contains(stack, resolved) {
			s.display.LayoutCycle(append(slices.Clone(stack), resolved))
			s.log.Warn(ErrLayoutCycle.Error(), "file", file, "layout", resolved)
		} else {
			s.env.SetGlobal("body", lua.LString(out))
			// the layout sets its own layout, if any
			s.SetConfig("layout", "")
			res, err := s.compile(resolved, searchRoot, stack)
			if err != nil {
				return "", fmt.Errorf("layout %s of %s: %w", layout, file, err)
			}
			out = res
		}
	}

	// recorded under the path as requested, layouts included
	s.cache.SetFile(path, FileMetadata{
		Filename:       file,
		URL:            DestinationURL(file, s.cfg.InputDir),
		Size:           info.Size(),
		WordCount:      words,
		LastModifiedOS: ft.modifiedOS.Format(dateFormat),
		LastModified:   ft.modified.Format(dateFormat),
		CreatedAt:      ft.created.Format(dateFormat),
		Title:          title,
		Description:    description,
		Tags:           tags,
		ModTime:        info.ModTime(),
	})
	return out, nil
}

// executeChunks runs chunks in order and concatenates their output. Script
// failures are displayed and leave a gap, they never abort the file.
func (s *Session) executeChunks(file string, chunks []parse.Chunk) string {
	var b strings.Builder
	name := "@" + file
	for _, c := range chunks {
		switch c.Kind {
		case parse.RawText:
			b.WriteString(c.Content)
		case parse.ControlStatement:
			if err := s.env.Exec(c.Content, name); err != nil {
				s.reportScriptError(&ScriptError{File: file, Fragment: c.Content, Err: err})
			}
		case parse.ValueExpression:
			v, err := s.env.Call(c.Content, name)
			if err != nil {
				s.reportScriptError(&ScriptError{File: file, Fragment: c.Content, Err: err})
				continue
			}
			b.WriteString(s.env.valueString(v))
		}
	}
	return b.String()
}

func (s *Session) reportScriptError(e *ScriptError) {
	s.log.Debug("script error", "file", e.File, "error", e.Err)
	s.display.Error(e.File, e.Err.Error(), e.Fragment)
}

type fileTimes struct {
	modifiedOS time.Time
	modified   time.Time // newest commit
	created    time.Time // oldest commit
}

func (s *Session) fileTimes(path string, info os.FileInfo) fileTimes {
	now := s.cfg.Clock()
	commits, err := s.cfg.History.Blame(path)
	if err != nil {
		s.log.Debug("no history", "path", path, "error", err)
		commits = nil
	}
	return fileTimes{
		modifiedOS: info.ModTime().Local(),
		modified:   ModificationTime(commits, now).Local(),
		created:    CreationTime(commits, now).Local(),
	}
}

// table is the `file` global seen by the chunks of the file being compiled.
func (ft fileTimes) table(L *lua.LState, name string, size int64) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("name", lua.LString(name))
	t.RawSetString("size", lua.LNumber(size))
	t.RawSetString("last_modified_os", lua.LString(ft.modifiedOS.Format(dateFormat)))
	t.RawSetString("last_modified", lua.LString(ft.modified.Format(dateFormat)))
	t.RawSetString("created_at", lua.LString(ft.created.Format(dateFormat)))
	return t
}
