package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/apvtools/signscan/internal/config"
	"github.com/apvtools/signscan/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("signscand %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		}
	}

	fs := flag.NewFlagSet("signscand", flag.ExitOnError)
	addr := fs.String("addr", ":5000", "listen address")
	uploadDir := fs.String("uploads", "temp_uploads", "directory for per-session upload data")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "signscand - HTTP upload API for the sign extraction pipeline")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Usage: signscand [options]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Endpoints:")
		fmt.Fprintln(os.Stderr, "  POST /api/upload                       multipart PDF upload")
		fmt.Fprintln(os.Stderr, "  GET  /api/sign-image/{session}/{file}  extracted crop images")
		fmt.Fprintln(os.Stderr, "  GET  /api/health                       dependency status")
	}
	_ = fs.Parse(os.Args[1:])

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	srv := server.New(config.Load(), *uploadDir, log.Default())
	if err := srv.ListenAndServe(*addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
