package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/apvtools/signscan/internal/config"
	"github.com/apvtools/signscan/internal/pipeline"
)

// fakeProcessor records what it was asked to process and returns a
// canned result.
type fakeProcessor struct {
	pdfPath  string
	signsDir string
	result   *pipeline.Result
	err      error
}

func (f *fakeProcessor) ProcessDocument(pdfPath string) (*pipeline.Result, error) {
	f.pdfPath = pdfPath
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testServer(t *testing.T, proc *fakeProcessor) *Server {
	t.Helper()
	s := New(config.Default(), t.TempDir(), log.New(io.Discard, "", 0))
	s.newProcessor = func(mapsDir, signsDir string) Processor {
		proc.signsDir = signsDir
		return proc
	}
	return s
}

// uploadPDF builds a multipart request carrying a small fake PDF.
func uploadPDF(t *testing.T, filename string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 fake")); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandleUpload(t *testing.T) {
	proc := &fakeProcessor{result: &pipeline.Result{
		PagesTotal: 3,
		PagesKept:  2,
		Signs: []pipeline.SignResult{
			{Filename: "page_1_000.png", PredictedClass: "no_entry", Confidence: 0.91},
		},
	}}
	s := testServer(t, proc)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadPDF(t, "karte.pdf"))

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
		Signs     []struct {
			Filename  string `json:"filename"`
			ImagePath string `json:"image_path"`
		} `json:"signs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if _, err := uuid.Parse(resp.SessionID); err != nil {
		t.Errorf("session_id is not a UUID: %q", resp.SessionID)
	}
	if len(resp.Signs) != 1 || resp.Signs[0].ImagePath != "signs/page_1_000.png" {
		t.Errorf("unexpected signs payload: %+v", resp.Signs)
	}

	// The PDF must land inside the session directory before processing.
	if filepath.Base(proc.pdfPath) != "karte.pdf" {
		t.Errorf("processed path %q should keep the upload name", proc.pdfPath)
	}
	if _, err := os.Stat(proc.pdfPath); err != nil {
		t.Errorf("uploaded PDF should exist on disk: %v", err)
	}
	if filepath.Base(proc.signsDir) != "signs" {
		t.Errorf("signs dir %q should live inside the session", proc.signsDir)
	}
}

func TestHandleUpload_NoSigns(t *testing.T) {
	proc := &fakeProcessor{result: &pipeline.Result{PagesTotal: 1, PagesKept: 1}}
	s := testServer(t, proc)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadPDF(t, "empty.pdf"))

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No signs detected") {
		t.Errorf("expected empty-result message, got %s", rec.Body.String())
	}
}

func TestHandleUpload_RejectsNonPDF(t *testing.T) {
	s := testServer(t, &fakeProcessor{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadPDF(t, "photo.png"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Errorf("error body must carry the error envelope: %s", rec.Body.String())
	}
}

func TestHandleUpload_NoFile(t *testing.T) {
	s := testServer(t, &fakeProcessor{})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", rec.Code)
	}
}

func TestHandleUpload_ProcessingError(t *testing.T) {
	s := testServer(t, &fakeProcessor{err: os.ErrPermission})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadPDF(t, "karte.pdf"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("got status %d, want 500", rec.Code)
	}
}

func TestHandleUpload_MethodNotAllowed(t *testing.T) {
	s := testServer(t, &fakeProcessor{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/upload", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("got status %d, want 405", rec.Code)
	}
}

func TestHandleSignImage(t *testing.T) {
	s := testServer(t, &fakeProcessor{})

	sessionID := uuid.NewString()
	signsDir := filepath.Join(s.uploadDir, sessionID, "signs")
	if err := os.MkdirAll(signsDir, 0o755); err != nil {
		t.Fatalf("failed to create session dir: %v", err)
	}
	crop := filepath.Join(signsDir, "page_1_000.png")
	if err := os.WriteFile(crop, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("failed to write crop: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sign-image/"+sessionID+"/signs/page_1_000.png", nil)
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if rec.Body.String() != "png-bytes" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestHandleSignImage_RejectsTraversalAndBadSession(t *testing.T) {
	s := testServer(t, &fakeProcessor{})

	secret := filepath.Join(s.uploadDir, "secret.txt")
	if err := os.WriteFile(secret, []byte("nope"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	for _, target := range []string{
		"/api/sign-image/not-a-uuid/signs/x.png",
		"/api/sign-image/" + uuid.NewString() + "/missing.png",
		"/api/sign-image/" + uuid.NewString(),
	} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: got status %d, want 404", target, rec.Code)
		}
	}

	// ServeMux redirects dot-dot paths before they reach the handler;
	// either way the file outside the session must never be served.
	rec := httptest.NewRecorder()
	traversal := "/api/sign-image/" + uuid.NewString() + "/../secret.txt"
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, traversal, nil))
	if rec.Code == http.StatusOK || strings.Contains(rec.Body.String(), "nope") {
		t.Errorf("traversal request must not serve files outside the session: %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandleResults_ReplaysStoredUpload(t *testing.T) {
	proc := &fakeProcessor{result: &pipeline.Result{
		PagesTotal: 1,
		PagesKept:  1,
		Signs:      []pipeline.SignResult{{Filename: "page_1_000.png"}},
	}}
	s := testServer(t, proc)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadPDF(t, "karte.pdf"))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: got status %d", rec.Code)
	}
	var uploaded struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &uploaded); err != nil {
		t.Fatalf("failed to decode upload response: %v", err)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results/"+uploaded.SessionID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("results: got status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "page_1_000.png") {
		t.Errorf("stored results should name the crop: %s", rec.Body.String())
	}
}

func TestHandleResults_UnknownSession(t *testing.T) {
	s := testServer(t, &fakeProcessor{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", rec.Code)
	}
}

func TestHandleSession_Delete(t *testing.T) {
	s := testServer(t, &fakeProcessor{})

	sessionID := uuid.NewString()
	sessionDir := filepath.Join(s.uploadDir, sessionID)
	if err := os.MkdirAll(filepath.Join(sessionDir, "signs"), 0o755); err != nil {
		t.Fatalf("failed to create session dir: %v", err)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/session/"+sessionID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := os.Stat(sessionDir); !os.IsNotExist(err) {
		t.Error("session directory must be removed")
	}

	// A second delete finds nothing.
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/session/"+sessionID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat delete: got status %d, want 404", rec.Code)
	}
}

func TestHandleSession_MethodNotAllowed(t *testing.T) {
	s := testServer(t, &fakeProcessor{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session/"+uuid.NewString(), nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("got status %d, want 405", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t, &fakeProcessor{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status: got %v, want healthy", resp["status"])
	}
	if _, ok := resp["pdftoppm"]; !ok {
		t.Error("health must report pdftoppm availability")
	}
}
