package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/notely/internal/auth"
	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/notes"
	"github.com/starford/notely/internal/testutil"
)

type stubSummarizer struct {
	summary string
	err     error
}

func (s stubSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	return s.summary, s.err
}

// testEnv sets up a temp SQLite store, service and router.
// devUser is the identity every request runs as; empty means anonymous.
func testEnv(t *testing.T, devUser string, sum notes.Summarizer) http.Handler {
	t.Helper()
	svc := notes.NewService(testutil.TestStore(t), sum)
	return NewRouter(svc, auth.Options{Mode: auth.ModeDisabled, DevUserID: devUser}, nil, nil)
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createNote(t *testing.T, router http.Handler, title, content string) models.Note {
	t.Helper()
	w := do(t, router, http.MethodPost, "/notes", map[string]string{"title": title, "content": content})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var n models.Note
	if err := json.NewDecoder(w.Body).Decode(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestCreateAndGetNote(t *testing.T) {
	router := testEnv(t, "u1", nil)

	created := createNote(t, router, "Hello", "World")
	if created.ID == "" || created.UserID != "u1" {
		t.Fatalf("created = %+v", created)
	}
	if created.Summary != nil {
		t.Errorf("summary = %q, want nil", *created.Summary)
	}

	w := do(t, router, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got models.Note
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Title != "Hello" || got.Content != "World" {
		t.Errorf("got = %+v", got)
	}
}

func TestCreateValidation(t *testing.T) {
	router := testEnv(t, "u1", nil)

	for name, body := range map[string]any{
		"blank title":   map[string]string{"title": "  ", "content": "x"},
		"blank content": map[string]string{"title": "x", "content": ""},
		"bad json":      "{not json",
	} {
		t.Run(name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/notes", body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestAnonymousCaller(t *testing.T) {
	router := testEnv(t, "", nil)

	w := do(t, router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list NoteListResponse
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 0 || list.Notes == nil {
		t.Errorf("list = %+v, want empty non-nil", list)
	}

	w = do(t, router, http.MethodPost, "/notes", map[string]string{"title": "a", "content": "b"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("create status = %d, want 401", w.Code)
	}

	w = do(t, router, http.MethodGet, "/notes/anything", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get status = %d, want 404", w.Code)
	}
}

func TestListNotesNewestFirst(t *testing.T) {
	router := testEnv(t, "u1", nil)

	first := createNote(t, router, "first", "a")
	second := createNote(t, router, "second", "b")

	// Touching the first note moves it to the top.
	w := do(t, router, http.MethodPatch, "/notes/"+first.ID, map[string]string{"content": "a2"})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/notes", nil)
	var list NoteListResponse
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 2 {
		t.Fatalf("total = %d, want 2", list.Total)
	}
	if list.Notes[0].ID != first.ID || list.Notes[1].ID != second.ID {
		t.Errorf("order = [%s %s], want [%s %s]", list.Notes[0].Title, list.Notes[1].Title, "first", "second")
	}
}

func TestUpdateNote(t *testing.T) {
	router := testEnv(t, "u1", nil)
	n := createNote(t, router, "title", "body")

	w := do(t, router, http.MethodPatch, "/notes/"+n.ID, map[string]string{"summary": "short"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got models.Note
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Summary == nil || *got.Summary != "short" || got.Title != "title" {
		t.Errorf("got = %+v", got)
	}

	// Explicit null clears the summary.
	w = do(t, router, http.MethodPatch, "/notes/"+n.ID, `{"summary":null}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got = models.Note{}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Summary != nil {
		t.Errorf("summary = %q, want cleared", *got.Summary)
	}

	w = do(t, router, http.MethodPatch, "/notes/"+n.ID, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty patch status = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodPatch, "/notes/missing", map[string]string{"title": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", w.Code)
	}
}

func TestDeleteNote(t *testing.T) {
	router := testEnv(t, "u1", nil)
	n := createNote(t, router, "title", "body")

	w := do(t, router, http.MethodDelete, "/notes/"+n.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/notes/"+n.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	w = do(t, router, http.MethodDelete, "/notes/"+n.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestOwnership(t *testing.T) {
	st := testutil.TestStore(t)
	svc := notes.NewService(st, nil)
	alice := NewRouter(svc, auth.Options{Mode: auth.ModeDisabled, DevUserID: "alice"}, nil, nil)
	bob := NewRouter(svc, auth.Options{Mode: auth.ModeDisabled, DevUserID: "bob"}, nil, nil)

	n := createNote(t, alice, "secret", "mine")

	if w := do(t, bob, http.MethodGet, "/notes/"+n.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("bob get = %d, want 404", w.Code)
	}
	if w := do(t, bob, http.MethodDelete, "/notes/"+n.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("bob delete = %d, want 404", w.Code)
	}
	if w := do(t, alice, http.MethodGet, "/notes/"+n.ID, nil); w.Code != http.StatusOK {
		t.Errorf("alice get = %d, want 200", w.Code)
	}
}

func TestSummarizeNote(t *testing.T) {
	router := testEnv(t, "u1", stubSummarizer{summary: "  A short summary.  "})
	n := createNote(t, router, "title", "long body text")

	w := do(t, router, http.MethodPost, "/notes/"+n.ID+"/summarize", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SummarizeNoteResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Summarized || resp.Note.Summary == nil || *resp.Note.Summary != "A short summary." {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSummarizeNoteDegrades(t *testing.T) {
	router := testEnv(t, "u1", stubSummarizer{summary: ""})
	n := createNote(t, router, "title", "body")

	w := do(t, router, http.MethodPost, "/notes/"+n.ID+"/summarize", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SummarizeNoteResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Summarized || resp.Note.Summary != nil {
		t.Errorf("resp = %+v, want unchanged note", resp)
	}
}

func TestTokenModeRejectsMissingToken(t *testing.T) {
	svc := notes.NewService(testutil.TestStore(t), nil)
	router := NewRouter(svc, auth.Options{Mode: auth.ModeToken, Token: "secret", DevUserID: "u1"}, nil, nil)

	if w := do(t, router, http.MethodGet, "/notes", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("with token = %d, want 200", w.Code)
	}
}

func TestOptionalRoutesMounted(t *testing.T) {
	svc := notes.NewService(testutil.TestStore(t), nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	router := NewRouter(svc, auth.Options{Mode: auth.ModeDisabled, DevUserID: "u1"}, ok, ok)

	if w := do(t, router, http.MethodPost, "/summarize", nil); w.Code != http.StatusTeapot {
		t.Errorf("summarize = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusTeapot {
		t.Errorf("events = %d", w.Code)
	}
}

func TestGetNoteETag(t *testing.T) {
	router := testEnv(t, "u1", nil)
	n := createNote(t, router, "title", "body")

	w := do(t, router, http.MethodGet, "/notes/"+n.ID, nil)
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/notes/"+n.ID, nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Errorf("conditional get = %d, want 304", w.Code)
	}

	do(t, router, http.MethodPatch, "/notes/"+n.ID, map[string]string{"title": "changed"})
	req = httptest.NewRequest(http.MethodGet, "/notes/"+n.ID, nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("get after update = %d, want 200", w.Code)
	}
}

func TestStoreFailureIsInternalError(t *testing.T) {
	st := testutil.TestStore(t)
	svc := notes.NewService(st, nil)
	router := NewRouter(svc, auth.Options{Mode: auth.ModeDisabled, DevUserID: "u1"}, nil, nil)
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	w := do(t, router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body errResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "internal error" {
		t.Errorf("error = %q, want generic message", body.Error)
	}
}

func TestOversizedBodyIsRejected(t *testing.T) {
	router := testEnv(t, "u1", nil)
	big := `{"title":"t","content":"` + strings.Repeat("a", maxBodyBytes) + `"}`

	w := do(t, router, http.MethodPost, "/notes", big)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
