package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboard-dev/taskboard/internal/cli/client"
	"github.com/taskboard-dev/taskboard/internal/cli/notify"
	"github.com/taskboard-dev/taskboard/internal/cli/output"
	"github.com/taskboard-dev/taskboard/internal/cli/session"
)

const (
	testToken    = "tok123"
	testEmail    = "ada@example.com"
	testPassword = "secret"
)

var testIdentity = session.Identity{ID: "u1", Name: "Ada", Email: testEmail}

// fakeAPI is an in-memory Taskboard API
type fakeAPI struct {
	mu            sync.Mutex
	rejectTokens  bool
	protectedHits int
	registered    []client.RegisterRequest
	projectWrites []client.ProjectInput
	taskWrites    []client.TaskInput
}

const projectsJSON = `[
	{"_id":"p1","title":"Website","description":"Redesign the marketing site","owner":"u1","createdAt":"2024-04-01T10:00:00Z","updatedAt":"2024-04-02T10:00:00Z"},
	{"_id":"p2","title":"Mobile","description":"Ship the app","owner":"u1","createdAt":"2024-04-01T10:00:00Z","updatedAt":"2024-04-01T10:00:00Z"}
]`

const tasksJSON = `[
	{"_id":"t1","title":"Design mockups","description":"Landing page","status":"To-Do","deadline":"2024-05-01T00:00:00.000Z","assignedUser":{"_id":"u1","name":"Ada","email":"ada@example.com"},"project":{"_id":"p1","title":"Website"}},
	{"_id":"t2","title":"Ship release","description":"Store submission","status":"Completed","deadline":"2024-05-03T00:00:00.000Z","assignedUser":"u2","project":"p2"},
	{"_id":"t3","title":"Write docs","description":"API reference","status":"In Progress","deadline":"2024-05-01T00:00:00.000Z","assignedUser":"u1","project":"p1"}
]`

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req client.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Email != testEmail || req.Password != testPassword {
			writeJSON(w, http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"data":{"_id":"u1","name":"Ada","email":"ada@example.com"},"tokenDetails":{"token":"tok123"}}`)
	})

	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req client.RegisterRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.mu.Lock()
		f.registered = append(f.registered, req)
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, `{"message":"User created"}`)
	})

	mux.Handle("GET /api/project", f.protected(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"projects":`+projectsJSON+`}`)
	}))
	mux.Handle("GET /api/project/{id}", f.protected(func(w http.ResponseWriter, r *http.Request) {
		var projects []json.RawMessage
		assert.NoError(t, json.Unmarshal([]byte(projectsJSON), &projects))
		for _, raw := range projects {
			if strings.Contains(string(raw), `"_id":"`+r.PathValue("id")+`"`) {
				writeJSON(w, http.StatusOK, `{"project":`+string(raw)+`}`)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, `{"message":"Project not found"}`)
	}))
	projectWrite := f.protected(func(w http.ResponseWriter, r *http.Request) {
		var input client.ProjectInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		f.mu.Lock()
		f.projectWrites = append(f.projectWrites, input)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, `{"project":{"_id":"p9","title":"`+input.Title+`"}}`)
	})
	mux.Handle("POST /api/project", projectWrite)
	mux.Handle("PUT /api/project/{id}", projectWrite)

	mux.Handle("GET /api/task", f.protected(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"tasks":`+tasksJSON+`}`)
	}))
	mux.Handle("GET /api/task/{id}", f.protected(func(w http.ResponseWriter, r *http.Request) {
		var tasks []json.RawMessage
		assert.NoError(t, json.Unmarshal([]byte(tasksJSON), &tasks))
		for _, raw := range tasks {
			if strings.Contains(string(raw), `"_id":"`+r.PathValue("id")+`"`) {
				writeJSON(w, http.StatusOK, `{"task":`+string(raw)+`}`)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, `{"message":"Task not found"}`)
	}))
	taskWrite := f.protected(func(w http.ResponseWriter, r *http.Request) {
		var input client.TaskInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		f.mu.Lock()
		f.taskWrites = append(f.taskWrites, input)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, `{"task":{"_id":"t9","title":"`+input.Title+`"}}`)
	})
	mux.Handle("POST /api/task", taskWrite)
	mux.Handle("PUT /api/task/{id}", taskWrite)

	return mux
}

func (f *fakeAPI) protected(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.protectedHits++
		reject := f.rejectTokens
		f.mu.Unlock()

		if reject || r.Header.Get("Authorization") != "Bearer "+testToken {
			writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthorized"}`)
			return
		}
		next(w, r)
	})
}

func (f *fakeAPI) hits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.protectedHits
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// scriptedPrompter answers prompts from fixed lists
type scriptedPrompter struct {
	interactive bool
	inputs      []string
	passwords   []string
	selections  []int
	labels      []string
}

func (p *scriptedPrompter) Interactive() bool { return p.interactive }

func (p *scriptedPrompter) Input(label, defaultValue string) (string, error) {
	p.labels = append(p.labels, label)
	if len(p.inputs) == 0 {
		return defaultValue, nil
	}
	v := p.inputs[0]
	p.inputs = p.inputs[1:]
	return v, nil
}

func (p *scriptedPrompter) Password(label string) (string, error) {
	p.labels = append(p.labels, label)
	if len(p.passwords) == 0 {
		return "", nil
	}
	v := p.passwords[0]
	p.passwords = p.passwords[1:]
	return v, nil
}

func (p *scriptedPrompter) Select(label string, items []string) (int, error) {
	p.labels = append(p.labels, label)
	if len(p.selections) == 0 {
		return 0, nil
	}
	v := p.selections[0]
	p.selections = p.selections[1:]
	return v, nil
}

// harness wires the views to a fake API and an in-memory session
type harness struct {
	t        *testing.T
	api      *fakeAPI
	backend  *session.MemoryBackend
	svc      *session.Service
	env      *Env
	prompter *scriptedPrompter
	out      *bytes.Buffer
	errOut   *bytes.Buffer

	skipHydrate bool
}

type harnessOption func(h *harness)

// withStoredSession starts with a session persisted by an earlier run
func withStoredSession() harnessOption {
	return func(h *harness) {
		store := session.NewStore(h.backend, h.backend, zerolog.Nop())
		require.NoError(h.t, store.Save(testIdentity, testToken))
	}
}

// withoutHydration leaves the session service loading
func withoutHydration() harnessOption {
	return func(h *harness) { h.skipHydrate = true }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	t.Setenv("TASKBOARD_EMAIL", "")
	t.Setenv("TASKBOARD_PASSWORD", "")

	h := &harness{
		t:        t,
		api:      &fakeAPI{},
		backend:  session.NewMemoryBackend(),
		prompter: &scriptedPrompter{},
		out:      &bytes.Buffer{},
		errOut:   &bytes.Buffer{},
	}

	for _, opt := range opts {
		opt(h)
	}

	server := httptest.NewServer(h.api.handler(t))
	t.Cleanup(server.Close)

	h.svc = session.New(session.NewStore(h.backend, h.backend, zerolog.Nop()), zerolog.Nop())
	t.Cleanup(h.svc.Dispose)
	if !h.skipHydrate {
		require.NoError(t, h.svc.Hydrate(context.Background()))
	}

	h.env = &Env{
		Client:   client.New(server.URL+"/api", 5*time.Second, h.svc),
		Notifier: notify.New(h.errOut),
		Prompter: h.prompter,
		Format:   output.Table,
		Out:      h.out,
		Err:      h.errOut,
		Logger:   zerolog.Nop(),
	}
	return h
}

func newTestRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewLoginCmd())
	root.AddCommand(NewRegisterCmd())
	root.AddCommand(NewLogoutCmd())
	root.AddCommand(NewWhoamiCmd())
	root.AddCommand(NewDashCmd())
	root.AddCommand(NewProjectsCmd())
	root.AddCommand(NewTasksCmd())
	root.AddCommand(NewOpenCmd())
	return root
}

// run executes one command line against a fresh command tree
func (h *harness) run(args ...string) error {
	h.t.Helper()
	h.out.Reset()
	h.errOut.Reset()

	root := newTestRoot()
	root.SetArgs(args)
	root.SetOut(h.out)
	root.SetErr(h.errOut)

	ctx := WithEnv(session.WithService(context.Background(), h.svc), h.env)
	return root.ExecuteContext(ctx)
}
