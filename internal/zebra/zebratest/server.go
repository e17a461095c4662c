// Package zebratest runs an in-memory Zebra API for tests.
package zebratest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"zebracli/internal/zebra"
)

// Server is a fake Zebra instance. Requests must carry Token as a bearer
// token, or a JWT signed with JWTSecret whose subject is a user id.
type Server struct {
	*httptest.Server

	Token     string
	JWTSecret string
	Now       func() time.Time

	mu         sync.Mutex
	projects   []zebra.Project
	users      map[int]zebra.User
	timesheets map[int]zebra.Timesheet
	nextID     int
	requests   []string
}

// DefaultToken is the static token accepted by servers built with NewServer.
const DefaultToken = "test-token"

// NewServer starts a server; callers must Close it.
func NewServer() *Server {
	s := &Server{
		Token:      DefaultToken,
		JWTSecret:  "test-secret",
		users:      make(map[int]zebra.User),
		timesheets: make(map[int]zebra.Timesheet),
		nextID:     1000,
	}
	s.Server = httptest.NewServer(s.Handler())
	return s
}

// New starts a server closed at the end of the test.
func New(t testing.TB) *Server {
	t.Helper()
	s := NewServer()
	t.Cleanup(s.Close)
	return s
}

// ZebraClient returns a client authenticated with the static token.
func (s *Server) ZebraClient() *zebra.Client {
	c := zebra.New(s.URL, s.Token)
	c.HTTPClient = s.Client()
	return c
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

type principalKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()

		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || token == "" {
			http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
			return
		}
		userID := 0
		if token != s.Token {
			id, err := verifyToken(token, s.JWTSecret)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			userID = id
		}
		ctx := context.WithValue(r.Context(), principalKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func principal(ctx context.Context) int {
	id, _ := ctx.Value(principalKey{}).(int)
	return id
}

// Handler builds the router. It is exported for servers not started by NewServer.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(s.authenticate)
	cfg := huma.DefaultConfig("Zebra API (fake)", "2.0.0")
	cfg.OpenAPIPath = ""
	cfg.DocsPath = ""
	cfg.SchemasPath = ""
	api := humachi.New(router, cfg)
	registerProjects(api, s)
	registerTimesheets(api, s)
	registerUsers(api, s)
	return router
}

// AddProject seeds a project.
func (s *Server) AddProject(p zebra.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append(s.projects, p)
}

// AddUser seeds a user.
func (s *Server) AddUser(u zebra.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// PutTimesheet seeds or replaces a timesheet. A zero id gets a fresh one and
// an empty UpdatedAt is set to now.
func (s *Server) PutTimesheet(ts zebra.Timesheet) zebra.Timesheet {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ts.ID == 0 {
		s.nextID++
		ts.ID = s.nextID
	}
	if ts.UpdatedAt == "" {
		ts.UpdatedAt = s.now().Format(time.RFC3339)
	}
	s.timesheets[ts.ID] = ts
	return ts
}

func (s *Server) Timesheet(id int) (zebra.Timesheet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.timesheets[id]
	return ts, ok
}

// Timesheets lists stored timesheets by id.
func (s *Server) Timesheets() []zebra.Timesheet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]zebra.Timesheet, 0, len(s.timesheets))
	for _, ts := range s.timesheets {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) RemoveTimesheet(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timesheets, id)
}

// Requests returns "METHOD /path" for every request received.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) validate(ts zebra.Timesheet) error {
	for _, p := range s.projects {
		if p.ID != ts.ProjectID {
			continue
		}
		for _, a := range p.Activities {
			if a.ID == ts.ActivityID {
				return nil
			}
		}
		return huma.Error422UnprocessableEntity(fmt.Sprintf("activity %d is not part of project %d", ts.ActivityID, ts.ProjectID))
	}
	return huma.Error422UnprocessableEntity(fmt.Sprintf("unknown project %d", ts.ProjectID))
}

func inRange(date, start, end string) bool {
	if start != "" && date < start {
		return false
	}
	if end != "" && date > end {
		return false
	}
	return true
}

func itoa(id int) string {
	return strconv.Itoa(id)
}
