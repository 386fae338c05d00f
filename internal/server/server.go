package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/apvtools/signscan/internal/config"
	"github.com/apvtools/signscan/internal/pipeline"
)

// Processor runs the extraction pipeline for one document.
type Processor interface {
	ProcessDocument(pdfPath string) (*pipeline.Result, error)
}

// Server handles PDF uploads and serves extracted crops.
type Server struct {
	cfg       config.Config
	uploadDir string
	log       *log.Logger

	// newProcessor builds the per-session pipeline. Swapped out in tests.
	newProcessor func(mapsDir, signsDir string) Processor
}

// New creates a server that stores sessions under uploadDir.
func New(cfg config.Config, uploadDir string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:       cfg,
		uploadDir: uploadDir,
		log:       logger,
		newProcessor: func(mapsDir, signsDir string) Processor {
			return pipeline.New(cfg, mapsDir, signsDir)
		},
	}
}

// Handler returns the route table for the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/sign-image/", s.handleSignImage)
	mux.HandleFunc("/api/results/", s.handleResults)
	mux.HandleFunc("/api/session/", s.handleSession)
	mux.HandleFunc("/api/health", s.handleHealth)
	return mux
}

// ListenAndServe starts the HTTP server on addr and blocks until it
// exits.
func (s *Server) ListenAndServe(addr string) error {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Printf("Listening on %s, sessions under %s", addr, s.uploadDir)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}
