// Package judgetest runs an in-process fake of the judge platform for tests:
// the REST surface plus the live event stream, with scriptable event
// sequences and injectable disconnections.
package judgetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"judgeview/internal/api"
	"judgeview/internal/stream"

	"github.com/gin-gonic/gin"
)

// Server is the scriptable fake platform.
type Server struct {
	mu sync.Mutex

	httpServer *httptest.Server

	submissions map[string]api.Submission
	scripts     map[string][]stream.LifecycleEvent
	history     map[string][]api.Submission
	languages   map[string]struct{}

	// dropAfter[id] closes the event stream after that many events, once.
	dropAfter map[string]int

	requiredToken string
	nextID        int

	createCalls int
	listCalls   int
	eventCalls  int
	cancels     []string
}

// NewServer starts the fake platform.
func NewServer() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		submissions: make(map[string]api.Submission),
		scripts:     make(map[string][]stream.LifecycleEvent),
		history:     make(map[string][]api.Submission),
		dropAfter:   make(map[string]int),
		languages:   map[string]struct{}{"python": {}, "cpp": {}, "go": {}},
	}

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.Use(s.authMiddleware)

	v1.POST("/users/login", s.handleLogin)
	v1.POST("/users/register", s.handleRegister)
	v1.POST("/submissions", s.handleCreate)
	v1.GET("/submissions/:id", s.handleGet)
	v1.GET("/submissions/:id/events", s.handleEvents)
	v1.POST("/submissions/:id/cancel", s.handleCancel)
	v1.GET("/submissions/problems/:problemId", s.handleList)
	v1.GET("/problems/", s.handleProblems)
	v1.GET("/problems/:problemId", s.handleProblem)
	v1.GET("/problems/:problemId/test-cases", s.handleTestCases)
	v1.GET("/problems/:problemId/test-cases/public", s.handlePublicTestCases)

	s.httpServer = httptest.NewServer(router)
	return s
}

// URL returns the platform base URL.
func (s *Server) URL() string { return s.httpServer.URL }

// Close shuts the fake platform down.
func (s *Server) Close() { s.httpServer.Close() }

// RequireToken makes every route except login demand this bearer token.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requiredToken = token
}

// SeedSubmission installs a submission snapshot.
func (s *Server) SeedSubmission(sub api.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[sub.ID] = sub
}

// ScriptEvents sets the event sequence streamed for a submission.
func (s *Server) ScriptEvents(submissionID string, events []stream.LifecycleEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[submissionID] = events
}

// DropAfter closes the next event stream for the submission after n events.
func (s *Server) DropAfter(submissionID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropAfter[submissionID] = n
}

// SetHistory installs the full submission history for a problem, newest
// first, which the list endpoint slices into pages.
func (s *Server) SetHistory(problemID string, subs []api.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[problemID] = subs
}

// ListCalls reports how many history list requests were served.
func (s *Server) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

// CreateCalls reports how many create requests were served.
func (s *Server) CreateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createCalls
}

// EventCalls reports how many event stream connections were accepted.
func (s *Server) EventCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventCalls
}

// Canceled reports the submission ids that received a cancel request.
func (s *Server) Canceled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cancels...)
}

func (s *Server) authMiddleware(c *gin.Context) {
	s.mu.Lock()
	required := s.requiredToken
	s.mu.Unlock()

	if required == "" || strings.Contains(c.FullPath(), "/users/") {
		c.Next()
		return
	}
	if c.GetHeader("Authorization") != "Bearer "+required {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}
	c.Next()
}

func (s *Server) handleLogin(c *gin.Context) {
	var payload api.UserLogin
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid payload"})
		return
	}
	if payload.Username != "demo" || payload.Password != "secret" {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, api.Token{AccessToken: "test-token", TokenType: "bearer"})
}

func (s *Server) handleRegister(c *gin.Context) {
	var payload api.UserCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid payload"})
		return
	}
	if payload.Username == "" || payload.Email == "" || payload.Password == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "missing required fields"})
		return
	}
	c.JSON(http.StatusCreated, api.User{
		ID:        "user-1",
		Username:  payload.Username,
		Email:     payload.Email,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	})
}

func (s *Server) handleCreate(c *gin.Context) {
	s.mu.Lock()
	s.createCalls++
	s.mu.Unlock()

	var payload api.SubmissionCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid payload"})
		return
	}
	if payload.ProblemID == "" || payload.SourceCode == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "missing required fields"})
		return
	}

	s.mu.Lock()
	if _, ok := s.languages[payload.Language]; !ok {
		s.mu.Unlock()
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": fmt.Sprintf("Unsupported language: '%s'", payload.Language)})
		return
	}
	s.nextID++
	now := time.Now().UTC()
	sub := api.Submission{
		ID:          fmt.Sprintf("sub-%d", s.nextID),
		UserID:      "user-1",
		ProblemID:   payload.ProblemID,
		Language:    payload.Language,
		SourceCode:  payload.SourceCode,
		Stdin:       payload.Stdin,
		Status:      api.StatusQueued,
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.submissions[sub.ID] = sub
	s.mu.Unlock()

	c.JSON(http.StatusAccepted, sub)
}

func (s *Server) handleGet(c *gin.Context) {
	s.mu.Lock()
	sub, ok := s.submissions[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Submission not found"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (s *Server) handleCancel(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	_, ok := s.submissions[id]
	if ok {
		s.cancels = append(s.cancels, id)
	}
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Submission not found"})
		return
	}
	c.Status(http.StatusAccepted)
}

func (s *Server) handleList(c *gin.Context) {
	s.mu.Lock()
	s.listCalls++
	subs := s.history[c.Param("problemId")]
	s.mu.Unlock()

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if page < 1 || limit < 1 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "`page` and `limit` must be positive integers"})
		return
	}

	start := (page - 1) * limit
	end := start + limit
	if start > len(subs) {
		start = len(subs)
	}
	if end > len(subs) {
		end = len(subs)
	}
	c.JSON(http.StatusOK, api.SubmissionPage{
		Submissions: subs[start:end],
		Total:       len(subs),
		Page:        page,
		Limit:       limit,
	})
}

func (s *Server) handleProblems(c *gin.Context) {
	c.JSON(http.StatusOK, api.ProblemList{
		Total:    1,
		Page:     1,
		PageSize: 10,
		Items: []api.ProblemSummary{
			{PID: 1, Title: "Two Sum", Slug: "two-sum", Difficulty: "easy"},
		},
	})
}

func (s *Server) handleProblem(c *gin.Context) {
	if c.Param("problemId") != "p1" {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Problem not found"})
		return
	}
	c.JSON(http.StatusOK, api.ProblemDetail{
		ProblemSummary: api.ProblemSummary{PID: 1, Title: "Two Sum", Slug: "two-sum", Difficulty: "easy"},
		Constraints:    api.ProblemConstraints{TimeLimitMs: 2000, MemoryLimitMB: 256},
		Visibility:     "public",
	})
}

func sampleTestCases() []api.TestCase {
	input := "1 2"
	output := "3"
	return []api.TestCase{
		{CaseID: "t1", Input: &input, ExpectedOutput: &output},
		{CaseID: "t2", IsHidden: true},
	}
}

func (s *Server) handleTestCases(c *gin.Context) {
	cases := sampleTestCases()
	if c.Query("includeHidden") != "true" {
		cases = cases[:1]
	}
	c.JSON(http.StatusOK, gin.H{"testCases": cases})
}

func (s *Server) handlePublicTestCases(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"testCases": sampleTestCases()[:1]})
}

// handleEvents streams the scripted events as SSE frames, honoring
// Last-Event-ID for resumption and DropAfter for injected disconnections.
func (s *Server) handleEvents(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	s.eventCalls++
	events := s.scripts[id]
	drop, hasDrop := s.dropAfter[id]
	if hasDrop {
		delete(s.dropAfter, id)
	}
	s.mu.Unlock()

	lastSeq := uint64(0)
	if raw := c.GetHeader("Last-Event-ID"); raw != "" {
		if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			lastSeq = n
		}
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	sent := 0
	for _, ev := range events {
		if ev.Seq <= lastSeq {
			continue
		}
		if hasDrop && sent >= drop {
			return
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(c.Writer, "id: %d\nevent: status\ndata: %s\n\n", ev.Seq, payload)
		c.Writer.Flush()
		sent++
	}
}
