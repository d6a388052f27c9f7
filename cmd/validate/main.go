// Command validate checks an artifact tree written by chlfetch: directory
// layout, artifact decoding and formatting, sample validity, and that every
// sample falls inside its lake's query box. It also prints per-lake month
// coverage for the configured range.
//
// Usage:
//
//	go run ./cmd/validate -dir data -start 2018-05 -end 2024-05
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
)

// boundsSlack allows grid cell centers reported just outside the query box.
const boundsSlack = 0.05

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// rawSample keeps pointers so missing and null fields are distinguishable
// from zero.
type rawSample struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Value *float64 `json:"value"`
}

// artifactFile is one discovered artifact.
type artifactFile struct {
	region domain.Region
	month  domain.MonthKey
	path   string
}

func main() {
	dir := flag.String("dir", "data", "artifact root directory")
	start := flag.String("start", "2018-05", "first month of the coverage report")
	end := flag.String("end", "2024-05", "last month of the coverage report")
	flag.Parse()

	startMonth, err := domain.ParseMonthKey(*start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -start: %v\n", err)
		os.Exit(2)
	}
	endMonth, err := domain.ParseMonthKey(*end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -end: %v\n", err)
		os.Exit(2)
	}

	os.Exit(run(*dir, domain.MonthRange(startMonth, endMonth)))
}

func run(root string, months []domain.MonthKey) int {
	fmt.Println("=== Chlorophyll Artifact Validation ===")
	fmt.Println()

	layout, files := validateLayout(root)
	phases := []*phase{
		layout,
		validateArtifacts(files),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	printCoverage(files, months)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Layout ──

// validateLayout walks {root}/{region}/{YYYY-MM}.json and reports anything
// else found in the tree, including staging files left by a killed writer.
func validateLayout(root string) (*phase, []artifactFile) {
	p := &phase{name: "Layout"}

	entries, err := os.ReadDir(root)
	if err != nil {
		p.errorf("read root: %v", err)
		return p, nil
	}

	var files []artifactFile
	for _, e := range entries {
		if !e.IsDir() {
			p.errorf("%s: unexpected file at root", e.Name())
			continue
		}
		region, ok := domain.LookupRegion(e.Name())
		if !ok || region.Name != e.Name() {
			p.errorf("%s: not a region directory", e.Name())
			continue
		}

		children, err := os.ReadDir(filepath.Join(root, e.Name()))
		if err != nil {
			p.errorf("%s: %v", e.Name(), err)
			continue
		}
		for _, c := range children {
			rel := filepath.Join(e.Name(), c.Name())
			name, isJSON := strings.CutSuffix(c.Name(), ".json")
			if c.IsDir() || !isJSON {
				p.errorf("%s: unexpected entry", rel)
				continue
			}
			month, err := domain.ParseMonthKey(name)
			if err != nil {
				p.errorf("%s: name is not YYYY-MM.json", rel)
				continue
			}
			files = append(files, artifactFile{region: region, month: month, path: filepath.Join(root, rel)})
		}
	}
	return p, files
}

// ── Artifacts ──

func validateArtifacts(files []artifactFile) *phase {
	p := &phase{name: "Artifact integrity"}
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			p.errorf("%s: %v", f.path, err)
			continue
		}
		checkArtifact(p, f, data)
	}
	return p
}

func checkArtifact(p *phase, f artifactFile, data []byte) {
	var samples []rawSample
	if err := json.Unmarshal(data, &samples); err != nil {
		p.errorf("%s: decode: %v", f.path, err)
		return
	}
	if len(samples) == 0 {
		p.errorf("%s: artifact has no samples", f.path)
	}
	if !isPretty(data) {
		p.errorf("%s: not two-space indented JSON", f.path)
	}

	box := f.region.Bounds
	for i, s := range samples {
		if s.Lat == nil || s.Lng == nil || s.Value == nil {
			p.errorf("%s[%d]: missing or null field", f.path, i)
			continue
		}
		if math.IsNaN(*s.Value) || math.IsInf(*s.Value, 0) {
			p.errorf("%s[%d]: non-finite value", f.path, i)
		}
		if *s.Lat < box.LatMin-boundsSlack || *s.Lat > box.LatMax+boundsSlack ||
			*s.Lng < box.LonMin-boundsSlack || *s.Lng > box.LonMax+boundsSlack {
			p.errorf("%s[%d]: (%g, %g) outside %s box", f.path, i, *s.Lat, *s.Lng, f.region.Name)
		}
	}
}

// isPretty reports whether data is exactly its own two-space re-indentation.
func isPretty(data []byte) bool {
	var compact, indented bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return false
	}
	if err := json.Indent(&indented, compact.Bytes(), "", "  "); err != nil {
		return false
	}
	return bytes.Equal(bytes.TrimRight(data, "\n"), indented.Bytes())
}

// ── Coverage ──

func printCoverage(files []artifactFile, months []domain.MonthKey) {
	have := make(map[string]bool, len(files))
	for _, f := range files {
		have[f.region.Name+"/"+f.month.String()] = true
	}

	fmt.Printf("Coverage %s..%s (%d months):\n", first(months), last(months), len(months))
	for _, r := range domain.Regions() {
		n := 0
		for _, m := range months {
			if have[r.Name+"/"+m.String()] {
				n++
			}
		}
		fmt.Printf("  %-10s %4d / %d\n", r.Name, n, len(months))
	}
}

func first(ms []domain.MonthKey) string {
	if len(ms) == 0 {
		return "-"
	}
	return ms[0].String()
}

func last(ms []domain.MonthKey) string {
	if len(ms) == 0 {
		return "-"
	}
	return ms[len(ms)-1].String()
}
