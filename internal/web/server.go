// Package web serves the Focus Flow JSON API.
package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/baiirun/focusflow/internal/quota"
	"github.com/baiirun/focusflow/internal/repo"
	"github.com/baiirun/focusflow/internal/triage"
)

// Server is the Focus Flow web server
type Server struct {
	repo   *repo.Repository
	wizard *triage.Wizard
	gate   *quota.Gate
	router *gin.Engine
}

// NewServer wires the API routes.
func NewServer(r *repo.Repository, w *triage.Wizard, gate *quota.Gate) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{
		repo:   r,
		wizard: w,
		gate:   gate,
		router: router,
	}

	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", s.handleCreateTask)
		api.GET("/tasks/:id", s.handleGetTask)
		api.PATCH("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.POST("/tasks/:id/move", s.handleMoveTask)
		api.POST("/tasks/:id/restore", s.handleRestoreTask)
		api.POST("/tasks/:id/convert", s.handleConvertTask)

		api.GET("/trash", s.handleListTrash)
		api.DELETE("/trash", s.handleEmptyTrash)
		api.POST("/trash/restore", s.handleRestoreTrash)

		api.GET("/projects", s.handleListProjects)
		api.POST("/projects", s.handleCreateProject)
		api.GET("/projects/:id", s.handleGetProject)
		api.PATCH("/projects/:id", s.handleUpdateProject)
		api.DELETE("/projects/:id", s.handleDeleteProject)
		api.POST("/projects/:id/inbox", s.handleProjectToInbox)
		api.POST("/projects/:id/complete", s.handleCompleteProject)
		api.POST("/projects/:id/breakdown", s.handleBreakdownProject)

		api.GET("/triage", s.handleTriageSession)
		api.POST("/triage", s.handleTriageStart)
		api.POST("/triage/step", s.handleTriageStep)
		api.DELETE("/triage", s.handleTriageCancel)

		api.GET("/summary", s.handleSummary)
		api.GET("/usage", s.handleUsage)
		api.GET("/export", s.handleExport)
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("web: listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if gin.Mode() == gin.TestMode {
			return
		}
		log.Printf("web: %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
