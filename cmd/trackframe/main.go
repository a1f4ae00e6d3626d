package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lucasjlepore/trackframe"
	"github.com/lucasjlepore/trackframe/export"
	"github.com/lucasjlepore/trackframe/ingest"
)

func main() {
	var (
		inPath    = flag.String("in", "", "Path to input activity file (.tcx|.gpx|.fit)")
		outPath   = flag.String("out", "", "Optional canonical-samples output file")
		format    = flag.String("format", "parquet", "Canonical sample format: parquet|csv")
		correct   = flag.Bool("correct-distance", false, "Correct haversine distance by altitude change")
		threshold = flag.Float64("moving-threshold", trackframe.StoppedThreshold, "Speed (m/s) below which a sample counts as stopped")
		zones     = flag.String("hr-zones", "", "Heart-rate zone boundaries, e.g. 0,100,140,160,999")
		labels    = flag.String("hr-labels", "", "Heart-rate zone labels, e.g. Z1,Z2,Z3,Z4")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --in activity.fit [--out samples.parquet] [--format parquet|csv]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*inPath) == "" {
		flag.Usage()
		os.Exit(2)
	}

	activity, err := ingest.NewRegistry().ReadFile(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trackframe failed: %v\n", err)
		os.Exit(1)
	}
	for _, w := range activity.Warnings() {
		fmt.Printf("warning:             %s\n", w)
	}

	computeMetrics(activity, *correct, *threshold)

	fmt.Print(trackframe.BuildSummary(activity))

	if *zones != "" {
		printTimeInZone(activity, *zones, *labels)
	}

	if *outPath != "" {
		if err := export.WriteCanonical(activity, *outPath, *format); err != nil {
			fmt.Fprintf(os.Stderr, "trackframe failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("canonical samples:   %s\n", *outPath)
	}
}

// computeMetrics derives every metric the input columns support. Missing
// sensors are fine; the metric is just skipped.
func computeMetrics(a *trackframe.Activity, correctDistance bool, threshold float64) {
	compute := a.Compute()

	if distpos, err := compute.Distance(correctDistance); err == nil {
		a.SetCol(distpos)
		if !a.HasCol("dist") {
			if dist, err := distpos.ToDistance(); err == nil {
				a.SetCol(dist)
			}
		}
	}
	if !a.HasCol("speed") {
		if speed, err := compute.Speed(true); err == nil {
			a.SetCol(speed)
		}
	}
	if moving, err := compute.OnlyMoving(threshold); err == nil {
		a.SetCol(moving)
	}
	if pace, err := compute.Pace(); err == nil {
		a.SetCol(pace)
	}
	if vam, err := compute.VerticalSpeed(); err == nil {
		a.SetCol(vam)
	}
	if grad, err := compute.Gradient(); err == nil {
		a.SetCol(grad)
	}
}

func printTimeInZone(a *trackframe.Activity, zoneSpec, labelSpec string) {
	bins, err := parseBins(zoneSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trackframe failed: %v\n", err)
		os.Exit(1)
	}
	labels := parseLabels(labelSpec, len(bins)-1)
	inZone, err := a.Compute().TimeInZone(bins, labels)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trackframe failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nTime in zone\n")
	for _, z := range inZone {
		fmt.Printf("  %-14s %s\n", z.Zone, z.Duration)
	}
}

func parseBins(spec string) ([]float64, error) {
	parts := strings.Split(spec, ",")
	bins := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad heart-rate zone boundary %q", p)
		}
		bins = append(bins, v)
	}
	return bins, nil
}

func parseLabels(spec string, n int) []string {
	if spec == "" {
		labels := make([]string, n)
		for i := range labels {
			labels[i] = fmt.Sprintf("Z%d", i+1)
		}
		return labels
	}
	labels := strings.Split(spec, ",")
	for i := range labels {
		labels[i] = strings.TrimSpace(labels[i])
	}
	return labels
}
