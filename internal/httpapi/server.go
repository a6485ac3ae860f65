// Package httpapi serves a board over HTTP with gin. One board backs every
// request, so requests are serialized and switching sheets flushes the one
// being left.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aretw0/sticky/pkg/board"
	"github.com/aretw0/sticky/pkg/core"
)

// CookieName carries the remembered sheet id.
const CookieName = "sheetId"

// cookieMaxAge keeps the remembered sheet for a year.
const cookieMaxAge = 365 * 24 * 60 * 60

// Server routes HTTP requests to a board.
type Server struct {
	board  *board.Board
	logger *slog.Logger
	router *gin.Engine

	mu     sync.Mutex
	opened bool
}

// New builds the server and its routes.
func New(b *board.Board, logger *slog.Logger) *Server {
	s := &Server{board: b, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests())

	router.GET("/healthz", s.health)
	router.GET("/", s.index)
	router.DELETE("/session", s.forget)

	sheets := router.Group("/sheets/:id", s.withSheet())
	{
		sheets.GET("", s.export)
		sheets.PUT("", s.importSheet)
		sheets.POST("/notes", s.addNote)
		sheets.DELETE("/notes/:note", s.removeNote)
		sheets.PATCH("/notes/:note", s.patchNote)
		sheets.POST("/notes/:note/toggle-text", s.toggleText)
		sheets.POST("/notes/:note/image", s.pasteImage)
		sheets.DELETE("/notes/:note/image", s.removeImage)
		sheets.POST("/gestures", s.gesture)
		sheets.POST("/undo", s.undo)
		sheets.POST("/touch", s.touch)
	}

	s.router = router
	return s
}

// Handler returns the http.Handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down and flushes the
// active sheet.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.warn("shutdown failed", "error", err)
	}
	return s.flush(shutdownCtx)
}

func (s *Server) flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return nil
	}
	return s.board.Flush(ctx)
}

// open makes id the board's active sheet. Callers hold s.mu.
func (s *Server) open(ctx context.Context, id string) error {
	if s.opened && s.board.ID() == id {
		return nil
	}
	// The flush only survives when id is already stored. Opening an unknown
	// id clears the store, which carries just the active sheet.
	if s.opened {
		if err := s.board.Flush(ctx); err != nil {
			s.warn("flush before switching sheets failed", "sheet", s.board.ID(), "error", err)
		}
	}
	if err := s.board.Open(ctx, id); err != nil {
		return err
	}
	s.opened = true
	return nil
}

// withSheet serializes the request and opens the sheet named in the path.
func (s *Server) withSheet() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if err := s.open(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// index applies the routing rule: an explicit ?id= wins and is remembered,
// otherwise the cookie, otherwise a fresh sheet, both by redirect.
func (s *Server) index(c *gin.Context) {
	remembered, _ := c.Cookie(CookieName)
	route := board.ResolveSheet(c.Query("id"), remembered)

	if err := core.ValidateID(route.ID); err != nil {
		respondError(c, err)
		return
	}
	if route.Remember {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, route.ID, cookieMaxAge, "/", "", false, true)
	}
	if route.Redirect {
		c.Redirect(http.StatusFound, "/?id="+url.QueryEscape(route.ID))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(c.Request.Context(), route.ID); err != nil {
		respondError(c, err)
		return
	}
	s.writeSheet(c)
}

func (s *Server) forget(c *gin.Context) {
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"board":  s.board.State(),
	})
}

func (s *Server) writeSheet(c *gin.Context) {
	data, err := s.board.Export()
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if s.logger != nil {
			s.logger.Debug("request",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"status", c.Writer.Status(),
				"duration", time.Since(start),
			)
		}
	}
}

// respondError maps domain errors to status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNoteNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateNote):
		status = http.StatusConflict
	case errors.Is(err, core.ErrReadOnly):
		status = http.StatusForbidden
	case errors.Is(err, core.ErrEmptyID),
		errors.Is(err, core.ErrInvalidID),
		errors.Is(err, core.ErrInvalidDimensions),
		errors.Is(err, core.ErrMalformedSaveFile):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Server) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
