package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/apvtools/signscan/internal/ocr"
	"github.com/apvtools/signscan/internal/pipeline"
)

// maxUploadBytes caps PDF uploads at 50 MB.
const maxUploadBytes = 50 << 20

// uploadResponse is the body of a successful POST /api/upload.
type uploadResponse struct {
	Message   string              `json:"message"`
	SessionID string              `json:"session_id"`
	Result    *pipeline.Result    `json:"result"`
	Signs     []uploadSignSummary `json:"signs"`
}

// uploadSignSummary mirrors one crop with a session-relative image path
// the client can feed back into /api/sign-image.
type uploadSignSummary struct {
	Filename       string  `json:"filename"`
	PredictedClass string  `json:"predicted_class,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	Swatch         string  `json:"swatch,omitempty"`
	ImagePath      string  `json:"image_path"`
}

// handleUpload receives one PDF, runs the full pipeline in a fresh
// session directory, and returns the extraction results.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, "Failed to parse form, is the upload under 50MB?", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	if name == "" {
		respondError(w, "No file selected", http.StatusBadRequest)
		return
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		respondError(w, "Invalid file type. Please upload a PDF file.", http.StatusBadRequest)
		return
	}

	sessionID := uuid.NewString()
	sessionDir := filepath.Join(s.uploadDir, sessionID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		respondError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	pdfPath := filepath.Join(sessionDir, name)
	if err := saveUpload(pdfPath, file); err != nil {
		s.log.Printf("Failed to save upload for session %s: %v", sessionID, err)
		respondError(w, "Failed to save upload", http.StatusInternalServerError)
		return
	}

	proc := s.newProcessor(filepath.Join(sessionDir, "maps"), filepath.Join(sessionDir, "signs"))
	result, err := proc.ProcessDocument(pdfPath)
	if err != nil {
		s.log.Printf("Processing failed for session %s: %v", sessionID, err)
		respondError(w, fmt.Sprintf("Processing failed: %v", err), http.StatusInternalServerError)
		return
	}

	resp := uploadResponse{
		Message:   fmt.Sprintf("Successfully processed %d signs", len(result.Signs)),
		SessionID: sessionID,
		Result:    result,
		Signs:     make([]uploadSignSummary, 0, len(result.Signs)),
	}
	if len(result.Signs) == 0 {
		resp.Message = "No signs detected in the PDF"
	}
	for _, sign := range result.Signs {
		resp.Signs = append(resp.Signs, uploadSignSummary{
			Filename:       sign.Filename,
			PredictedClass: sign.PredictedClass,
			Confidence:     sign.Confidence,
			Swatch:         sign.Swatch,
			ImagePath:      path.Join("signs", sign.Filename),
		})
	}
	// Persist the response so results stay retrievable for the session's
	// lifetime without reprocessing.
	if data, err := json.Marshal(resp); err == nil {
		if err := os.WriteFile(filepath.Join(sessionDir, "results.json"), data, 0o644); err != nil {
			s.log.Printf("Failed to persist results for session %s: %v", sessionID, err)
		}
	}

	respondJSON(w, resp, http.StatusOK)
}

// handleResults replays a stored upload response:
// GET /api/results/{session}.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID, ok := s.sessionFromPath(r.URL.Path, "/api/results/")
	if !ok {
		respondError(w, "Session not found", http.StatusNotFound)
		return
	}

	data, err := os.ReadFile(filepath.Join(s.uploadDir, sessionID, "results.json"))
	if err != nil {
		respondError(w, "Session not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleSession deletes a session and everything under it:
// DELETE /api/session/{session}.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID, ok := s.sessionFromPath(r.URL.Path, "/api/session/")
	if !ok {
		respondError(w, "Session not found", http.StatusNotFound)
		return
	}

	sessionDir := filepath.Join(s.uploadDir, sessionID)
	if _, err := os.Stat(sessionDir); err != nil {
		respondError(w, "Session not found", http.StatusNotFound)
		return
	}
	if err := os.RemoveAll(sessionDir); err != nil {
		s.log.Printf("Failed to delete session %s: %v", sessionID, err)
		respondError(w, "Failed to delete session", http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]string{"message": "Session deleted"}, http.StatusOK)
}

// sessionFromPath extracts and validates the UUID segment after prefix.
func (s *Server) sessionFromPath(urlPath, prefix string) (string, bool) {
	sessionID := strings.TrimPrefix(urlPath, prefix)
	if strings.Contains(sessionID, "/") {
		return "", false
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return "", false
	}
	return sessionID, true
}

// handleSignImage serves one exported crop:
// GET /api/sign-image/{session}/signs/{file}.
func (s *Server) handleSignImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/sign-image/")
	sessionID, imagePath, ok := strings.Cut(rest, "/")
	if !ok || imagePath == "" {
		respondError(w, "Image not found", http.StatusNotFound)
		return
	}

	// The session id must be a UUID we minted and the rest a clean
	// relative path, so requests cannot walk out of the upload tree.
	if _, err := uuid.Parse(sessionID); err != nil {
		respondError(w, "Image not found", http.StatusNotFound)
		return
	}
	if imagePath != path.Clean(imagePath) || strings.HasPrefix(imagePath, "..") {
		respondError(w, "Image not found", http.StatusNotFound)
		return
	}

	full := filepath.Join(s.uploadDir, sessionID, filepath.FromSlash(imagePath))
	if _, err := os.Stat(full); err != nil {
		respondError(w, "Image not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, full)
}

// handleHealth reports service status plus the availability of the two
// external binaries the pipeline shells out to.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	_, tesseractOK := ocr.Available()
	_, popplerErr := exec.LookPath("pdftoppm")

	respondJSON(w, map[string]interface{}{
		"status":    "healthy",
		"tesseract": tesseractOK,
		"pdftoppm":  popplerErr == nil,
	}, http.StatusOK)
}

// sanitizeFilename strips any directory components from a client
// supplied file name.
func sanitizeFilename(name string) string {
	name = filepath.Base(filepath.FromSlash(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

func saveUpload(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return out.Close()
}

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}
