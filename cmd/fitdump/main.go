package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fit-decoder/export"
	"fit-decoder/fitproto"
	"fit-decoder/profile"
)

func main() {
	var (
		outDir      = flag.String("out-dir", "", "Output directory for manifest.json and records.jsonl")
		overwrite   = flag.Bool("overwrite", true, "Allow writing to non-empty output directories")
		copySource  = flag.Bool("copy-source", true, "Copy original FIT file into export directory as source.fit")
		strict      = flag.Bool("strict", false, "Abort on the first malformed record instead of best-effort decoding")
		profilePath = flag.String("profile", "", "Optional YAML dictionary merged over the built-in message profile")
		speedUnit   = flag.String("speed-unit", "", "Convert speed fields (m/s|km/h|mph)")
		lengthUnit  = flag.String("length-unit", "", "Convert distance fields (m|km|mi|ft)")
		tempUnit    = flag.String("temp-unit", "", "Convert temperature fields (celsius|fahrenheit)")
	)

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path-to-fit-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	inputPath := flag.Arg(0)
	if strings.TrimSpace(*outDir) == "" {
		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		*outDir = filepath.Join(".", "exports", base+"_"+export.FormatVersion)
	}

	prof := profile.Default()
	if *profilePath != "" {
		loaded, err := profile.Load(*profilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load profile: %v\n", err)
			os.Exit(1)
		}
		prof = loaded
	}

	decodeOpts := fitproto.Options{
		Force:           !*strict,
		SpeedUnit:       *speedUnit,
		LengthUnit:      *lengthUnit,
		TemperatureUnit: *tempUnit,
	}

	result, err := export.Export(inputPath, *outDir, prof, decodeOpts, export.Options{
		Overwrite:      *overwrite,
		CopySourceFile: *copySource,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Export complete\n")
	fmt.Printf("Output dir: %s\n", result.OutputDir)
	fmt.Printf("Manifest:   %s\n", result.ManifestPath)
	fmt.Printf("Records:    %s\n", result.RecordsPath)
	if result.SourceCopyPath != "" {
		fmt.Printf("Source fit: %s\n", result.SourceCopyPath)
	}
	fmt.Printf("Records:    %d (%d definitions, %d data messages)\n", result.RecordCount, result.DefinitionCount, result.DataMessageCount)
	fmt.Printf("CRC valid:  header=%t file=%t\n", result.HeaderCRCValid, result.FileCRCValid)
	if result.LeftoverBytes > 0 {
		fmt.Printf("Leftover:   %d bytes after file CRC (chained data not decoded)\n", result.LeftoverBytes)
	}
}
