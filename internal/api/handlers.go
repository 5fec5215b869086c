package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/addy0032/hate-speech-detection/internal/platform"
	"github.com/addy0032/hate-speech-detection/internal/task"
)

// ScrapeRequest is the body of POST /scrape
type ScrapeRequest struct {
	URLs []string `json:"urls"`
	Days int      `json:"days"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hate speech detection API is running"})
}

func (s *Server) bindScrape(c *gin.Context) (ScrapeRequest, bool) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body", "error": err.Error()})
		return req, false
	}
	return req, true
}

func (s *Server) scrape(c *gin.Context) {
	req, ok := s.bindScrape(c)
	if !ok {
		return
	}
	if len(req.URLs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "No URLs provided"})
		return
	}
	s.submit(c, req.URLs, req.Days)
}

// scrapeYouTube treats the first URL as a channel
func (s *Server) scrapeYouTube(c *gin.Context) {
	req, ok := s.bindScrape(c)
	if !ok {
		return
	}
	if len(req.URLs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "No channel URL provided"})
		return
	}
	s.submit(c, []string{platform.YouTubeChannel(req.URLs[0])}, req.Days)
}

func (s *Server) submit(c *gin.Context, sources []string, days int) {
	id, err := s.tasks.Submit(sources, days)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, task.ErrShuttingDown) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"detail": err.Error()})
		return
	}

	snap, ok := s.tasks.Status(id)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Task disappeared after submission"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) status(c *gin.Context) {
	snap, ok := s.tasks.Status(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) list(c *gin.Context) {
	snaps := s.tasks.List()
	// Progress and results can be large; the list only summarizes
	out := make([]gin.H, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, gin.H{
			"task_id":    snap.ID,
			"status":     snap.Status,
			"error":      snap.Error,
			"sources":    snap.Sources,
			"items":      len(snap.Results),
			"comments":   snap.CommentCount(),
			"created_at": snap.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"tasks": out, "total": len(out)})
}

func (s *Server) cancel(c *gin.Context) {
	id := c.Param("id")
	err := s.tasks.Cancel(id)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"task_id": id, "message": "Cancellation requested"})
	case errors.Is(err, task.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Task not found"})
	case errors.Is(err, task.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"detail": "Task already finished"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
	}
}

func (s *Server) export(c *gin.Context) {
	id := c.Param("id")
	rows, err := s.tasks.Export(id)
	if err != nil || len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Task not ready or not found"})
		return
	}

	var buf bytes.Buffer
	if err := task.WriteCSV(&buf, rows); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to write CSV"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=comments_%s.csv", id))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func (s *Server) report(c *gin.Context) {
	snap, ok := s.tasks.Status(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Task not found"})
		return
	}
	if !snap.Status.Terminal() {
		c.JSON(http.StatusConflict, gin.H{"detail": "Task still running", "status": snap.Status})
		return
	}

	r, err := s.reports.Build(snap)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to render report"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(r.HTMLBody))
}

func (s *Server) loadExisting(c *gin.Context) {
	snap, err := s.tasks.LoadExisting()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "No existing data found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}
