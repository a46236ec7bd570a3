package engine

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"asg/engine/parse"
)

// PartialParse là kết quả parse của một file, chưa thực thi Lua
type PartialParse struct {
	Chunks        []parse.Chunk
	Timestamp     time.Time // thời điểm parse
	SourcePath    string    // đường dẫn đã resolve
	ParseDuration time.Duration
	Size          int64
}

// ParsingCache quản lý cache parse và metadata của file
type ParsingCache struct {
	parses  map[string]*PartialParse
	files   map[string]FileMetadata
	mutex   sync.RWMutex // Bảo vệ truy cập đồng thời
	maxSize int64        // file >= maxSize không được cache
	size    int64        // tổng kích thước source đang cache
	hits    int
	misses  int
}

// NewParsingCache tạo cache mới
func NewParsingCache(maxSize int64) *ParsingCache {
	return &ParsingCache{
		parses:  make(map[string]*PartialParse),
		files:   make(map[string]FileMetadata),
		maxSize: maxSize,
	}
}

// Get lấy kết quả parse theo đường dẫn đã resolve
func (pc *ParsingCache) Get(path string) (*PartialParse, bool) {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()

	p, ok := pc.parses[path]
	return p, ok
}

// Set thêm kết quả parse vào cache. Trả về false nếu file vượt quá giới hạn.
func (pc *ParsingCache) Set(path string, p *PartialParse) bool {
	if p.Size >= pc.maxSize {
		return false
	}

	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	if old, ok := pc.parses[path]; ok {
		pc.size -= old.Size
	}
	pc.parses[path] = p
	pc.size += p.Size
	return true
}

// Remove xóa kết quả parse khỏi cache
func (pc *ParsingCache) Remove(path string) {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	if old, ok := pc.parses[path]; ok {
		pc.size -= old.Size
		delete(pc.parses, path)
	}
}

// Clear xóa toàn bộ kết quả parse. Metadata được giữ lại cho đến hết session.
func (pc *ParsingCache) Clear() {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	pc.parses = make(map[string]*PartialParse)
	pc.size = 0
}

func (pc *ParsingCache) recordLookup(hit bool) {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	if hit {
		pc.hits++
	} else {
		pc.misses++
	}
}

// SetFile records the metadata of a compiled file.
func (pc *ParsingCache) SetFile(path string, m FileMetadata) {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	pc.files[path] = m
}

func (pc *ParsingCache) File(path string) (FileMetadata, bool) {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()

	m, ok := pc.files[path]
	return m, ok
}

// FilePaths returns the source paths with recorded metadata, sorted.
func (pc *ParsingCache) FilePaths() []string {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()

	paths := make([]string, 0, len(pc.files))
	for p := range pc.files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// FileByFilename returns the metadata of the resolved file filename,
// whatever path it was requested with.
func (pc *ParsingCache) FileByFilename(filename string) (FileMetadata, bool) {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()

	for _, m := range pc.files {
		if m.Filename == filename {
			return m, true
		}
	}
	return FileMetadata{}, false
}

// FilesUnder returns the metadata recorded for resolved files inside dir,
// oldest modification time first. A file requested under several paths is
// listed once.
func (pc *ParsingCache) FilesUnder(dir string) []FileMetadata {
	prefix := filepath.Clean(dir) + string(filepath.Separator)

	pc.mutex.RLock()
	seen := make(map[string]bool)
	var out []FileMetadata
	for _, m := range pc.files {
		if strings.HasPrefix(m.Filename, prefix) && !seen[m.Filename] {
			seen[m.Filename] = true
			out = append(out, m)
		}
	}
	pc.mutex.RUnlock()

	slices.SortStableFunc(out, func(a, b FileMetadata) int {
		if c := a.ModTime.Compare(b.ModTime); c != 0 {
			return c
		}
		return strings.Compare(a.Filename, b.Filename)
	})
	return out
}

// Stats trả về thống kê cache
func (pc *ParsingCache) Stats() map[string]interface{} {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()

	ratio := "n/a"
	if total := pc.hits + pc.misses; total > 0 {
		ratio = fmt.Sprintf("%.1f%%", float64(pc.hits)/float64(total)*100)
	}
	return map[string]interface{}{
		"parsed_files":   len(pc.parses),
		"metadata_files": len(pc.files),
		"cached_source":  humanize.IBytes(uint64(pc.size)),
		"max_file_size":  humanize.IBytes(uint64(pc.maxSize)),
		"hits":           pc.hits,
		"misses":         pc.misses,
		"hit_ratio":      ratio,
	}
}

// GetKeys trả về danh sách đường dẫn đang có trong cache parse
func (pc *ParsingCache) GetKeys() []string {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()

	keys := make([]string, 0, len(pc.parses))
	for key := range pc.parses {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
