package engine

import (
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// dateFormat is the day-first layout of every timestamp exposed to templates.
const dateFormat = "02/01/2006 15:04:05"

// FileMetadata describes a compiled file. It is consumed by later
// compilations through posts().
type FileMetadata struct {
	Filename       string
	URL            string
	Size           int64
	WordCount      int
	LastModifiedOS string
	LastModified   string
	CreatedAt      string
	Title          string
	Description    string
	Tags           []string

	ModTime time.Time `json:"-"`
}

// LTable converts m to the table shape seen by templates.
func (m FileMetadata) LTable(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("filename", lua.LString(m.Filename))
	t.RawSetString("url", lua.LString(m.URL))
	t.RawSetString("size", lua.LNumber(m.Size))
	t.RawSetString("word_count", lua.LNumber(m.WordCount))
	t.RawSetString("last_modified_os", lua.LString(m.LastModifiedOS))
	t.RawSetString("last_modified", lua.LString(m.LastModified))
	t.RawSetString("created_at", lua.LString(m.CreatedAt))
	t.RawSetString("title", lua.LString(m.Title))
	t.RawSetString("description", lua.LString(m.Description))
	t.RawSetString("tags", toLValue(L, m.Tags))
	return t
}

// deriveMetadata fills the text-derived fields from the tag-stripped output
// and the current configuration. Explicit title and description values win
// over the first and second non-blank lines.
func deriveMetadata(plain string, cfg map[string]string) (title, description string, words int, tags []string) {
	var lines []string
	for _, l := range strings.Split(plain, "\n") {
		l = strings.TrimSuffix(l, "\r")
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
		if len(lines) == 2 {
			break
		}
	}

	if v, ok := cfg["title"]; ok {
		title = v
	} else if len(lines) > 0 {
		title = lines[0]
	}
	if v, ok := cfg["description"]; ok {
		description = v
	} else if len(lines) > 1 {
		description = lines[1]
	}

	words = len(strings.Fields(plain))
	// an empty value still yields one empty tag
	tags = strings.Split(cfg["tags"], ",")
	return title, description, words, tags
}

// DestinationURL maps a source file to its output location relative to the
// output directory: "./<rel>", with .md becoming .html.
func DestinationURL(file, inputDir string) string {
	rel, err := filepath.Rel(inputDir, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(file)
	}
	if strings.HasSuffix(rel, ".md") {
		rel = strings.TrimSuffix(rel, ".md") + ".html"
	}
	return "./" + filepath.ToSlash(rel)
}
