package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"asg/assets"
	"asg/engine/parse"
)

// Session owns the caches and the Lua state of one compilation run. Every
// compile goes through the same Lua state, so globals set by one file are
// seen by the next one.
type Session struct {
	cfg     Config
	log     *slog.Logger
	cache   *ParsingCache
	env     *LuaEnv
	assets  *HybridFS
	display *display

	mu sync.Mutex // serializes access to env

	cfgMu    sync.RWMutex
	config   map[string]string // values set with setvar
	defaults map[string]string // from asg.yaml
}

// NewSession creates a session for cfg.InputDir: it registers the template
// bindings, runs std.lua, loads asg.yaml and runs config.lua once.
func NewSession(cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()

	in, err := filepath.Abs(cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if info, err := os.Stat(in); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("input directory %s: %w", in, ErrNotFound)
	}
	cfg.InputDir = in
	if cfg.OutputDir != "" {
		if cfg.OutputDir, err = filepath.Abs(cfg.OutputDir); err != nil {
			return nil, fmt.Errorf("output directory: %w", err)
		}
	}

	s := &Session{
		cfg:    cfg,
		log:    cfg.Logger.With("component", "session"),
		cache:  NewParsingCache(cfg.MaxCachedFileSize),
		env:    NewLuaEnv(),
		assets: NewHybridFS(assets.FS, cfg.AssetDir),
		config: map[string]string{},
	}
	s.display = newDisplay(cfg.Stdout, func() bool {
		v, ok := s.ConfigValue("coloredErrors")
		return !ok || v != "false"
	})
	s.registerBindings()

	std, err := s.assets.ReadFile("std.lua")
	if err != nil {
		s.env.Close()
		return nil, fmt.Errorf("std.lua not found in %s: %w", cfg.AssetDir, err)
	}
	if err := s.env.Exec(string(std), "@std.lua"); err != nil {
		s.display.Error("std.lua", err.Error(), "")
	}

	if s.defaults, err = loadSiteDefaults(in); err != nil {
		s.env.Close()
		return nil, err
	}
	s.ResetConfig()
	s.RunConfigScript()

	s.log.Debug("session ready",
		"input", cfg.InputDir,
		"output", cfg.OutputDir,
		"assets", cfg.AssetDir,
	)
	return s, nil
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env.Close()
}

func (s *Session) Config() Config { return s.cfg }

func (s *Session) Logger() *slog.Logger { return s.log }

// Compile compiles path, searching it relative to the input directory, and
// wraps it in its layouts. Metadata is recorded under path as given.
func (s *Session) Compile(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compile(path, s.cfg.InputDir, nil)
}

// EvalTemplate runs template source against the session state without
// touching the caches.
func (s *Session) EvalTemplate(src string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executeChunks("<eval>", parse.Classify(src))
}

// GlobalNames lists the global Lua names, bindings included.
func (s *Session) GlobalNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env.GlobalNames()
}

// Metadata returns what the last compile of path recorded. path is looked
// up as given first, then by the file it resolves to.
func (s *Session) Metadata(path string) (FileMetadata, bool) {
	if m, ok := s.cache.File(path); ok {
		return m, true
	}
	if p, ok := s.resolve(path, s.cfg.InputDir); ok {
		return s.cache.FileByFilename(p)
	}
	return FileMetadata{}, false
}

// CacheStats trả về thống kê cache
func (s *Session) CacheStats() map[string]interface{} {
	return s.cache.Stats()
}

// CachedPaths returns the resolved paths held by the parse cache.
func (s *Session) CachedPaths() []string {
	return s.cache.GetKeys()
}

// ClearCache drops every parse. Metadata survives until the session ends.
func (s *Session) ClearCache() {
	s.cache.Clear()
}

// ClearCacheFor drops the parse of one file.
func (s *Session) ClearCacheFor(path string) {
	if p, ok := s.resolve(path, s.cfg.InputDir); ok {
		s.cache.Remove(p)
	}
}

// ConfigValue returns a value set with setvar or asg.yaml.
func (s *Session) ConfigValue(key string) (string, bool) {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	v, ok := s.config[key]
	return v, ok
}

// IsEnabled reports whether key is set to "true".
func (s *Session) IsEnabled(key string) bool {
	v, ok := s.ConfigValue(key)
	return ok && v == "true"
}

func (s *Session) SetConfig(key, value string) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.config[key] = value
}

// ResetConfig restores the values of asg.yaml, dropping everything set since.
func (s *Session) ResetConfig() {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.config = maps.Clone(s.defaults)
	if s.config == nil {
		s.config = map[string]string{}
	}
}

func (s *Session) configSnapshot() map[string]string {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return maps.Clone(s.config)
}

// RunConfigScript runs config.lua from the input root, if present. Script
// errors are displayed and otherwise ignored.
func (s *Session) RunConfigScript() {
	path := filepath.Join(s.cfg.InputDir, ConfigScript)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		s.log.Debug("no config script", "path", path)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.env.RunFile(path); err != nil {
		s.display.Error(path, err.Error(), "")
	}
}
