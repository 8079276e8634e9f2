// Command analysis renders comparison charts from scenario_sweep JSONL
// output: prover and verifier time versus credential count, one series per
// scenario, one chart pair per attribute count.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

type sweepRow struct {
	Scenario    string  `json:"scenario"`
	Credentials int     `json:"credentials"`
	Attributes  int     `json:"attributes"`
	Issuers     int     `json:"issuers"`
	Rep         int     `json:"rep"`
	ProveSec    float64 `json:"prove_sec"`
	VerifySec   float64 `json:"verify_sec"`
}

type gridKey struct {
	scenario    string
	credentials int
	attributes  int
}

type gridMean struct {
	count     int
	proveSec  float64
	verifySec float64
}

func main() {
	var (
		inPath  = flag.String("in", "sweep.jsonl", "scenario_sweep jsonl input")
		outPath = flag.String("out", "scenario_comparison.html", "output html path")
	)
	flag.Parse()

	rows, err := readRows(*inPath)
	if err != nil {
		log.Fatalf("read rows: %v", err)
	}
	if len(rows) == 0 {
		log.Fatalf("no rows in %s", *inPath)
	}
	log.Printf("[analysis] loaded %d rows from %s", len(rows), *inPath)

	means := make(map[gridKey]gridMean)
	for _, r := range rows {
		k := gridKey{r.Scenario, r.Credentials, r.Attributes}
		m := means[k]
		m.count++
		m.proveSec += r.ProveSec
		m.verifySec += r.VerifySec
		means[k] = m
	}

	page := components.NewPage().SetPageTitle("Scenario comparison")
	for _, attrs := range attributeCounts(means) {
		page.AddCharts(
			buildChart(means, attrs, "verify", func(m gridMean) float64 { return m.verifySec / float64(m.count) }),
			buildChart(means, attrs, "prove", func(m gridMean) float64 { return m.proveSec / float64(m.count) }),
		)
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("render: %v", err)
	}
	log.Printf("[analysis] wrote %s", *outPath)
}

func readRows(path string) ([]sweepRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []sweepRow
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<16), 1<<22)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var r sweepRow
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			return nil, fmt.Errorf("bad row %q: %w", line, err)
		}
		rows = append(rows, r)
	}
	return rows, sc.Err()
}

func attributeCounts(means map[gridKey]gridMean) []int {
	seen := map[int]bool{}
	var out []int
	for k := range means {
		if !seen[k.attributes] {
			seen[k.attributes] = true
			out = append(out, k.attributes)
		}
	}
	sort.Ints(out)
	return out
}

func buildChart(means map[gridKey]gridMean, attrs int, phase string, pick func(gridMean) float64) *charts.Line {
	scenarios := map[string]bool{}
	credSet := map[int]bool{}
	for k := range means {
		if k.attributes == attrs {
			scenarios[k.scenario] = true
			credSet[k.credentials] = true
		}
	}
	var credCounts []int
	for c := range credSet {
		credCounts = append(credCounts, c)
	}
	sort.Ints(credCounts)
	var names []string
	for s := range scenarios {
		names = append(names, s)
	}
	sort.Strings(names)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s time, %d attribute slots", phase, attrs),
			Subtitle: "mean seconds over repetitions",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "credentials"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "seconds", AxisLabel: &opts.AxisLabel{Formatter: "{value}"}}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)

	xLabels := make([]string, len(credCounts))
	for i, c := range credCounts {
		xLabels[i] = fmt.Sprintf("%d", c)
	}
	line.SetXAxis(xLabels)
	for _, name := range names {
		items := make([]opts.LineData, 0, len(credCounts))
		for _, c := range credCounts {
			m, ok := means[gridKey{name, c, attrs}]
			if !ok {
				items = append(items, opts.LineData{Value: nil})
				continue
			}
			items = append(items, opts.LineData{Value: pick(m)})
		}
		line.AddSeries(name, items)
	}
	return line
}
