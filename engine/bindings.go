package engine

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	lua "github.com/yuin/gopher-lua"
)

// dataDir holds the files read by read_data, read_csv and read_yaml. It is
// never copied to the output.
const dataDir = "data"

// registerBindings exposes the site helpers to templates.
func (s *Session) registerBindings() {
	L := s.env.L
	funcs := map[string]lua.LGFunction{
		"setvar":            s.luaSetvar,
		"include_asset":     s.luaIncludeAsset,
		"tostring":          luaTostring,
		"posts":             s.luaPosts,
		"read_data":         s.luaReadData,
		"read_csv":          s.luaReadCSV,
		"read_yaml":         s.luaReadYAML,
		"get_body":          s.luaGetBody,
		"parse_html":        luaParseHTML,
		"highlight_syntax":  luaHighlightSyntax,
		"to_rfc2822_date":   luaToRFC2822Date,
		"humanize_bytes":    luaHumanizeBytes,
		"livereload_script": s.luaLivereloadScript,
	}
	for name, fn := range funcs {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	bi := ReadBuildInfo()
	L.SetGlobal("asg_version", lua.LString(bi.Version))
	L.SetGlobal("asg_commit_hash", lua.LString(bi.CommitHash))
}

func (s *Session) dataPath(name string) string {
	return filepath.Join(s.cfg.InputDir, dataDir, name)
}

// setvar(key, value)
func (s *Session) luaSetvar(L *lua.LState) int {
	key := L.CheckString(1)
	s.SetConfig(key, stringify(L.CheckAny(2)))
	return 0
}

// include_asset(path) returns the content of an asset file, or "".
func (s *Session) luaIncludeAsset(L *lua.LState) int {
	data, err := s.assets.ReadFile(L.CheckString(1))
	if err != nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(data))
	return 1
}

func luaTostring(L *lua.LState) int {
	L.Push(lua.LString(stringify(L.Get(1))))
	return 1
}

// posts() returns an iterator over the metadata of the compiled files under
// posts/, oldest modification first. Each call of the iterator yields one
// entry, then nil.
func (s *Session) luaPosts(L *lua.LState) int {
	entries := s.cache.FilesUnder(filepath.Join(s.cfg.InputDir, "posts"))
	next := 0
	L.Push(L.NewFunction(func(L *lua.LState) int {
		if next >= len(entries) {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(entries[next].LTable(L))
		next++
		return 1
	}))
	return 1
}

// read_data(name) returns data/<name> as a string, or "".
func (s *Session) luaReadData(L *lua.LState) int {
	data, err := os.ReadFile(s.dataPath(L.CheckString(1)))
	if err != nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(data))
	return 1
}

// read_csv(name) returns data/<name> as an array of rows.
func (s *Session) luaReadCSV(L *lua.LState) int {
	L.Push(toLValue(L, readCSV(s.dataPath(L.CheckString(1)))))
	return 1
}

// read_yaml(name) returns data/<name> decoded, or nil.
func (s *Session) luaReadYAML(L *lua.LState) int {
	v, err := readYAML(s.dataPath(L.CheckString(1)))
	if err != nil {
		s.log.Debug("read_yaml", "error", err)
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLValue(L, v))
	return 1
}

// get_body(filename) returns the source of the first compiled file with that
// base name, or "".
func (s *Session) luaGetBody(L *lua.LState) int {
	name := L.CheckString(1)
	for _, p := range s.cache.FilePaths() {
		m, _ := s.cache.File(p)
		if filepath.Base(m.Filename) != name {
			continue
		}
		if data, err := os.ReadFile(m.Filename); err == nil {
			L.Push(lua.LString(data))
			return 1
		}
	}
	L.Push(lua.LString(""))
	return 1
}

// parse_html(html) returns {{rank=1, title="..."}, ...}.
func luaParseHTML(L *lua.LState) int {
	headings := ParseHeadings(L.CheckString(1))
	t := L.CreateTable(len(headings), 0)
	for _, h := range headings {
		ht := L.CreateTable(0, 2)
		ht.RawSetString("rank", lua.LNumber(h.Rank))
		ht.RawSetString("title", lua.LString(h.Title))
		t.Append(ht)
	}
	L.Push(t)
	return 1
}

func luaHighlightSyntax(L *lua.LState) int {
	L.Push(lua.LString(HighlightSyntax(L.CheckString(1), L.CheckString(2))))
	return 1
}

// to_rfc2822_date converts a template timestamp for RSS feeds. Unparsable
// input is returned unchanged.
func luaToRFC2822Date(L *lua.LState) int {
	s := L.CheckString(1)
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		L.Push(lua.LString(s))
		return 1
	}
	L.Push(lua.LString(t.UTC().Format(time.RFC1123Z)))
	return 1
}

func luaHumanizeBytes(L *lua.LState) int {
	n := L.CheckNumber(1)
	if n < 0 {
		n = 0
	}
	L.Push(lua.LString(humanize.Bytes(uint64(n))))
	return 1
}

// livereload_script() returns the client of the reload channel when
// livereload is enabled, "" otherwise.
func (s *Session) luaLivereloadScript(L *lua.LState) int {
	if !s.IsEnabled("livereload") {
		L.Push(lua.LString(""))
		return 1
	}
	js, err := s.assets.ReadFile("livereload.js")
	if err != nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString("<script>" + string(js) + "</script>"))
	return 1
}
