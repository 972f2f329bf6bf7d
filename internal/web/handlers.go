package web

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/baiirun/focusflow/internal/export"
	"github.com/baiirun/focusflow/internal/model"
	"github.com/baiirun/focusflow/internal/quota"
)

const maxBodySize = 1 << 20 // 1MB

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrCapacityExceeded), errors.Is(err, quota.ErrPlanFeature):
		return http.StatusForbidden
	case errors.Is(err, model.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("web: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func bindJSON(c *gin.Context, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// Tasks

func (s *Server) handleListTasks(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.gate.Plan().CheckSearch(f); err != nil {
		writeError(c, err)
		return
	}
	if len(f.Statuses) == 0 {
		f.Statuses = model.ListedStatuses()
	}

	tasks, err := s.repo.SearchTasks(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	draft, err := req.task()
	if err != nil {
		writeError(c, err)
		return
	}

	task, err := s.repo.AddTask(c.Request.Context(), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.repo.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := req.update()
	if err != nil {
		writeError(c, err)
		return
	}

	task, err := s.repo.UpdateTask(c.Request.Context(), c.Param("id"), u)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.repo.PermanentlyDeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleMoveTask(c *gin.Context) {
	var req moveRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := s.repo.MoveTaskToStatus(c.Request.Context(), c.Param("id"), model.Status(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleRestoreTask(c *gin.Context) {
	task, err := s.repo.RestoreTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleConvertTask(c *gin.Context) {
	project, task, err := s.repo.ConvertToProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": project, "task": task})
}

// Trash

func (s *Server) handleListTrash(c *gin.Context) {
	tasks, err := s.repo.TasksByStatus(c.Request.Context(), model.StatusDeleted)
	if err != nil {
		writeError(c, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

func (s *Server) handleEmptyTrash(c *gin.Context) {
	n, err := s.repo.PermanentlyDeleteAllTasks(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

func (s *Server) handleRestoreTrash(c *gin.Context) {
	n, err := s.repo.RestoreAllTasks(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": n})
}

// Projects

func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.repo.ListProjects(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "count": len(projects)})
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req projectRequest
	if !bindJSON(c, &req) {
		return
	}
	var draft model.Project
	if req.Title != nil {
		draft.Title = *req.Title
	}
	if req.Description != nil {
		draft.Description = *req.Description
	}

	project, err := s.repo.AddProject(c.Request.Context(), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (s *Server) handleGetProject(c *gin.Context) {
	ctx := c.Request.Context()
	project, err := s.repo.GetProject(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	tasks, err := s.repo.ProjectTasks(ctx, project.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	c.JSON(http.StatusOK, gin.H{"project": project, "tasks": tasks})
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	var req projectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := s.repo.UpdateProject(c.Request.Context(), c.Param("id"), model.ProjectUpdate{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	task, err := s.repo.DeleteProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleProjectToInbox(c *gin.Context) {
	task, err := s.repo.MoveProjectToInbox(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleCompleteProject(c *gin.Context) {
	task, err := s.repo.CompleteProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleBreakdownProject(c *gin.Context) {
	var req breakdownRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := s.repo.BreakdownProject(c.Request.Context(), c.Param("id"), req.Titles)
	if created == nil {
		created = []model.Task{}
	}
	if err != nil {
		// Tasks created before the failure are kept and reported.
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "tasks": created})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tasks": created, "count": len(created)})
}

// Triage

func (s *Server) handleTriageSession(c *gin.Context) {
	session, ok := s.wizard.Session()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":   true,
		"session":  session,
		"question": session.Step.Question(),
	})
}

func (s *Server) handleTriageStart(c *gin.Context) {
	var req startRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := s.wizard.StartProcessing(c.Request.Context(), req.TaskID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":   true,
		"session":  session,
		"question": session.Step.Question(),
	})
}

func (s *Server) handleTriageStep(c *gin.Context) {
	var req stepRequest
	if !bindJSON(c, &req) {
		return
	}
	d, err := req.decision()
	if err != nil {
		writeError(c, err)
		return
	}

	out, err := s.wizard.CompleteStep(c.Request.Context(), d.Step(), d)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"done": out.Done}
	if out.Task != nil {
		resp["task"] = out.Task
	}
	if out.Project != nil {
		resp["project"] = out.Project
	}
	if !out.Done {
		resp["session"] = out.Next
		resp["question"] = out.Next.Step.Question()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleTriageCancel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cancelled": s.wizard.CancelProcessing()})
}

// Reports

func (s *Server) handleSummary(c *gin.Context) {
	summary, err := s.repo.Summary(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleUsage(c *gin.Context) {
	report, err := s.gate.Report(c.Request.Context())
	if err != nil {
		writeError(c, &model.PersistenceError{Op: "load usage", Err: err})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleExport(c *gin.Context) {
	snapshot, err := export.Build(c.Request.Context(), s.repo, s.gate.Plan())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Type", "application/yaml")
	c.Header("Content-Disposition", `attachment; filename="focusflow.yaml"`)
	c.Status(http.StatusOK)
	if err := export.Write(c.Writer, snapshot); err != nil {
		log.Printf("web: export: %v", err)
	}
}
