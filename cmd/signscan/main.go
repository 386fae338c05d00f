package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/apvtools/signscan/internal/config"
	"github.com/apvtools/signscan/internal/pipeline"
	"github.com/apvtools/signscan/internal/report"
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
			fmt.Printf("signscan %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		}
	}

	fs := flag.NewFlagSet("signscan", flag.ExitOnError)
	outDir := fs.String("out", "output", "directory for map pages, crops and reports")
	xlsx := fs.Bool("xlsx", false, "additionally write an XLSX report next to the CSV")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "signscan - extract traffic signs from map-page PDFs")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Usage: signscan [options] <document.pdf>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "All pipeline thresholds are tunable via SIGNSCAN_* environment")
		fmt.Fprintln(os.Stderr, "variables; set SIGNSCAN_INFERENCE_URL to enable classification.")
	}
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	pdfPath := fs.Arg(0)

	// Logging goes to stderr, the summary to stdout.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg := config.Load()
	mapsDir := filepath.Join(*outDir, "maps")
	signsDir := filepath.Join(*outDir, "signs")

	p := pipeline.New(cfg, mapsDir, signsDir)
	result, err := p.ProcessDocument(pdfPath)
	if err != nil {
		log.Fatalf("Processing failed: %v", err)
	}

	csvPath := filepath.Join(*outDir, "signs.csv")
	if err := report.WriteCSV(csvPath, result.Signs); err != nil {
		log.Fatalf("Report failed: %v", err)
	}
	if *xlsx {
		if err := report.WriteXLSX(filepath.Join(*outDir, "signs.xlsx"), result.Signs); err != nil {
			log.Fatalf("Report failed: %v", err)
		}
	}

	fmt.Printf("Pages: %d rendered, %d kept (%d text-heavy, %d duplicates dropped)\n",
		result.PagesTotal, result.PagesKept, result.DroppedText, result.DroppedDuplicate)
	fmt.Printf("Signs: %d exported to %s\n", len(result.Signs), signsDir)
	fmt.Printf("Report: %s\n", csvPath)
}
