package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fit-decoder/pipeline"
)

func main() {
	var (
		fitPath   = flag.String("fit", "", "Path to input .fit file")
		outDir    = flag.String("out", "", "Output directory")
		ftp       = flag.Float64("ftp", 0, "FTP override in watts")
		format    = flag.String("format", "parquet", "Canonical sample format: parquet|csv")
		overwrite = flag.Bool("overwrite", true, "Allow writing into non-empty output directories")
		strict    = flag.Bool("strict", false, "Abort on the first malformed record instead of best-effort decoding")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --fit input.fit --out outdir [--ftp 223] [--format parquet|csv]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*fitPath) == "" || strings.TrimSpace(*outDir) == "" {
		flag.Usage()
		os.Exit(2)
	}

	result, err := pipeline.Run(pipeline.Options{
		FitPath:    *fitPath,
		OutDir:     *outDir,
		FTPWatts:   *ftp,
		Format:     *format,
		Overwrite:  *overwrite,
		CopySource: true,
		Force:      !*strict,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitpipeline failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("fitpipeline complete\n")
	fmt.Printf("Output dir:          %s\n", result.OutputDir)
	fmt.Printf("records.jsonl:       %s\n", result.RecordsPath)
	fmt.Printf("manifest.json:       %s\n", result.ManifestPath)
	fmt.Printf("canonical samples:   %s\n", result.CanonicalSamplesPath)
	fmt.Printf("messages index:      %s\n", result.MessagesIndexPath)
	fmt.Printf("activity summary:    %s\n", result.ActivitySummaryPath)
	if result.SourceCopyPath != "" {
		fmt.Printf("source copy:         %s\n", result.SourceCopyPath)
	}
}
