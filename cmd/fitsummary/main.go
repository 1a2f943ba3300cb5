package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	fitactivity "fit-decoder"
	"fit-decoder/fitproto"
	"fit-decoder/profile"
)

func main() {
	var (
		ftp         = flag.Float64("ftp", 0, "FTP in watts (optional; if omitted the tool estimates FTP from best 20-minute power)")
		jsonOut     = flag.Bool("json", false, "Emit full summary as JSON")
		showLaps    = flag.Bool("laps", false, "Include lap-by-lap summary in text output")
		strict      = flag.Bool("strict", false, "Abort on the first malformed record instead of best-effort decoding")
		profilePath = flag.String("profile", "", "Optional YAML dictionary merged over the built-in message profile")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path-to-fit-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
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

	filePath := flag.Arg(0)
	summary, err := fitactivity.AnalyzeFile(filePath, fitactivity.Config{
		FTPWatts: *ftp,
		Profile:  prof,
		Options:  fitproto.Options{Force: !*strict},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(summary.Notes)
	if *showLaps && len(summary.Laps) > 0 {
		fmt.Println()
		fmt.Println("Lap Summary")
		for _, lap := range summary.Laps {
			fmt.Printf(
				"- Lap %02d | %-10s | %6.0f W | %5.0f bpm | %5.0f rpm | %6.1fs\n",
				lap.Index,
				lap.Label,
				lap.AvgPowerWatts,
				lap.AvgHeartRate,
				lap.AvgCadence,
				lap.DurationSeconds,
			)
		}
	}
}
