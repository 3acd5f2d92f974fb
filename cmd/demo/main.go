package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/aaronlmathis/vizstream/internal/generator"
	"github.com/aaronlmathis/vizstream/internal/render"
	"github.com/aaronlmathis/vizstream/internal/timeseries"
)

// Runs the ingest and render path without a terminal or a server and prints
// how much work each frame costs at the stress test sizes.
func main() {
	capacity := flag.Int("capacity", timeseries.DefaultCapacity, "Window capacity")
	live := flag.Int("live", 1000, "Live points appended after each bulk load")
	flag.Parse()

	fmt.Println("vizstream pipeline demo")
	fmt.Println("=======================")

	gen := generator.New()
	window := timeseries.NewWindow(*capacity)
	renderer := render.NewRenderer()
	surface := render.NewRecorder()

	fmt.Printf("Configuration:\n")
	fmt.Printf("  Window capacity:   %d\n", window.Cap())
	fmt.Printf("  Decimation budget: %d\n", renderer.DecimationBudget)
	fmt.Printf("  Bar sample budget: %d\n", render.BarSampleBudget)
	fmt.Println()

	for _, count := range []int{10000, 25000, 50000, 100000} {
		start := time.Now()
		window.ReplaceAll(gen.Series(count, time.Minute))
		for i := 0; i < *live; i++ {
			window.Append(gen.Live())
		}
		ingest := time.Since(start)

		fmt.Printf("Stress %d points (window holds %d, ingest %s)\n", count, window.Len(), ingest.Round(time.Microsecond))

		snapshot := window.Snapshot()
		for _, agg := range []timeseries.AggregationPeriod{timeseries.AggregateNone, timeseries.Aggregate1Min} {
			settings := timeseries.DefaultSettings()
			settings.Aggregation = agg
			display := timeseries.Process(snapshot, settings, time.Now())

			for _, kind := range render.ChartKinds() {
				stats := renderer.Draw(surface, kind, display, render.LightTheme(), render.DefaultViewport())
				fmt.Printf("  %-8s agg=%-5s points=%-6d drawn=%-5d ops=%-5d %s\n",
					kind, agg, stats.Points, stats.Drawn, len(surface.Ops), stats.Duration.Round(time.Microsecond))
			}
		}
		fmt.Println()
	}

	stats := window.Stats().Snapshot()
	fmt.Printf("Ingest: appended=%d evicted=%d replaced=%d status=%s\n",
		stats.Appended, stats.Evicted, stats.Replaced, stats.GetStatus())
}
