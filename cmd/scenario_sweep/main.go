// Command scenario_sweep runs the comparison scenarios over a
// (credential count x attribute count) grid and writes timing rows as
// JSONL and/or CSV for the analysis tool.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"mimc-abc/prof"
	"mimc-abc/scenario"
)

type sweepRow struct {
	scenario.Result
	Rep int `json:"rep"`
}

type sweepWriter struct {
	csv      *csv.Writer
	csvFile  *os.File
	jsonEnc  *json.Encoder
	jsonFile *os.File
	wroteHdr bool
}

func main() {
	var (
		scenarios = flag.String("scenarios", strings.Join(scenario.Names, ","), "comma-separated scenario names")
		credsSpec = flag.String("creds", "1,4,16,64", "comma-separated credential counts")
		attrsSpec = flag.String("attrs", "2,4,8,16", "comma-separated attribute counts (incl. identifier slot)")
		issuers   = flag.Int("issuers", 0, "issuer count for multi-issuer (0 = credential count)")
		reps      = flag.Int("reps", 3, "repetitions per grid point")
		maxRuns   = flag.Int("max", 0, "max grid points to run (0 = all)")
		csvPath   = flag.String("csv", "", "write csv results to path")
		jsonPath  = flag.String("jsonl", "", "write jsonl results to path")
		profile   = flag.Bool("profile", false, "print per-operation timing summary at exit")
		verbose   = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	credList, err := parseIntList(*credsSpec)
	if err != nil {
		log.Fatalf("parse creds: %v", err)
	}
	attrList, err := parseIntList(*attrsSpec)
	if err != nil {
		log.Fatalf("parse attrs: %v", err)
	}
	names := splitNames(*scenarios)
	if len(names) == 0 || len(credList) == 0 || len(attrList) == 0 {
		log.Fatalf("empty grid")
	}

	runner, err := scenario.NewRunner()
	if err != nil {
		log.Fatalf("init runner: %v", err)
	}
	writer, err := newSweepWriter(*csvPath, *jsonPath)
	if err != nil {
		log.Fatalf("init writer: %v", err)
	}
	defer writer.Close()

	runs := 0
	for _, m := range credList {
		for _, n := range attrList {
			if *maxRuns > 0 && runs >= *maxRuns {
				log.Printf("[sweep] reached max=%d grid points", *maxRuns)
				return
			}
			runs++
			cfg := scenario.Config{Credentials: m, Attributes: n, Issuers: *issuers}
			for _, name := range names {
				for rep := 0; rep < *reps; rep++ {
					if *verbose {
						log.Printf("[sweep] run scenario=%s creds=%d attrs=%d rep=%d", name, m, n, rep)
					}
					res, err := runner.Run(name, cfg)
					if err != nil {
						log.Printf("[sweep] %s failed (creds=%d attrs=%d): %v", name, m, n, err)
						continue
					}
					if err := writer.Write(sweepRow{Result: res, Rep: rep}); err != nil {
						log.Printf("[sweep] write row: %v", err)
					}
				}
			}
		}
	}

	if *profile {
		for label, s := range prof.Summarize(prof.SnapshotAndReset()) {
			log.Printf("[prof] %-24s count=%-5d total=%-12s mean=%s", label, s.Count, s.Total, s.Mean)
		}
	}
}

func splitNames(spec string) []string {
	var out []string
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIntList(spec string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		val, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
	return out, nil
}

func newSweepWriter(csvPath, jsonPath string) (*sweepWriter, error) {
	w := &sweepWriter{}
	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return nil, fmt.Errorf("create csv: %w", err)
		}
		w.csvFile = f
		w.csv = csv.NewWriter(f)
	}
	if jsonPath != "" {
		f, err := os.Create(jsonPath)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("create jsonl: %w", err)
		}
		w.jsonFile = f
		w.jsonEnc = json.NewEncoder(f)
	}
	if w.csv == nil && w.jsonEnc == nil {
		w.jsonEnc = json.NewEncoder(os.Stdout)
	}
	return w, nil
}

func (w *sweepWriter) Write(row sweepRow) error {
	if w.csv != nil {
		if !w.wroteHdr {
			if err := w.csv.Write([]string{"scenario", "credentials", "attributes", "issuers", "rep", "prove_sec", "verify_sec"}); err != nil {
				return err
			}
			w.wroteHdr = true
		}
		rec := []string{
			row.Scenario,
			strconv.Itoa(row.Credentials),
			strconv.Itoa(row.Attributes),
			strconv.Itoa(row.Issuers),
			strconv.Itoa(row.Rep),
			strconv.FormatFloat(row.ProveSec, 'g', -1, 64),
			strconv.FormatFloat(row.VerifySec, 'g', -1, 64),
		}
		if err := w.csv.Write(rec); err != nil {
			return err
		}
		w.csv.Flush()
		if err := w.csv.Error(); err != nil {
			return err
		}
	}
	if w.jsonEnc != nil {
		if err := w.jsonEnc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func (w *sweepWriter) Close() {
	if w.csv != nil {
		w.csv.Flush()
	}
	if w.csvFile != nil {
		w.csvFile.Close()
	}
	if w.jsonFile != nil {
		w.jsonFile.Close()
	}
}
