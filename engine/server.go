package engine

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// keepAlive is the interval of comment lines sent on idle reload streams.
const keepAlive = 15 * time.Second

// ReloadHub fans a reload notification out to every connected browser.
type ReloadHub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func NewReloadHub() *ReloadHub {
	return &ReloadHub{subs: make(map[chan struct{}]struct{})}
}

// Subscribe registers a listener. cancel must be called once the listener
// is gone.
func (h *ReloadHub) Subscribe() (ch <-chan struct{}, cancel func()) {
	c := make(chan struct{}, 1)
	h.mu.Lock()
	h.subs[c] = struct{}{}
	h.mu.Unlock()
	return c, func() {
		h.mu.Lock()
		delete(h.subs, c)
		h.mu.Unlock()
	}
}

// Broadcast notifies every listener. A listener that has not consumed the
// previous notification is not sent a second one.
func (h *ReloadHub) Broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.subs {
		select {
		case c <- struct{}{}:
		default:
		}
	}
}

func (h *ReloadHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Server serves the output directory of a session with live reload.
type Server struct {
	app *fiber.App
	s   *Session
	hub *ReloadHub
	log *slog.Logger
}

func NewServer(s *Session, hub *ReloadHub) *Server {
	srv := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		s:   s,
		hub: hub,
		log: s.cfg.Logger.With("component", "server"),
	}
	srv.routes()
	return srv
}

func (srv *Server) routes() {
	srv.app.Get("/livereload", srv.handleLivereload)

	// Endpoint để xem cache stats
	srv.app.Get("/cache-stats", func(c *fiber.Ctx) error {
		stats := srv.s.CacheStats()
		keys := make([]string, 0, len(stats))
		for k := range stats {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		out := "Cache Statistics:\n"
		for _, k := range keys {
			out += fmt.Sprintf("%s: %v\n", k, stats[k])
		}
		return c.SendString(out)
	})

	srv.app.Static("/", srv.s.cfg.OutputDir)
	srv.app.Use(srv.handleNotFound)
}

// handleLivereload streams a server-sent "reload" event after every
// regeneration.
func (srv *Server) handleLivereload(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	ch, cancel := srv.hub.Subscribe()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()
		for {
			select {
			case <-ch:
				fmt.Fprint(w, "data: reload\n\n")
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}

// handleNotFound answers with the site's 404.html when there is one.
func (srv *Server) handleNotFound(c *fiber.Ctx) error {
	page, err := os.ReadFile(filepath.Join(srv.s.cfg.OutputDir, "404.html"))
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}
	c.Type("html")
	return c.Status(fiber.StatusNotFound).Send(page)
}

// App exposes the underlying fiber app, mostly for app.Test.
func (srv *Server) App() *fiber.App { return srv.app }

func (srv *Server) Listen(addr string) error {
	srv.log.Info("listening", "addr", addr)
	return srv.app.Listen(addr)
}

func (srv *Server) Shutdown() error {
	return srv.app.Shutdown()
}
