// Command mutate-summary renders one or more mutate-fuzz JSON stats files
// (and optionally a resumed session file) into a short Markdown summary
// suitable for posting as a CI job summary.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/orizon-lang/orizon-mutator/internal/cliutil"
	"github.com/orizon-lang/orizon-mutator/internal/corpus"
	"github.com/orizon-lang/orizon-mutator/internal/session"
)

type fuzzStats struct {
	Executions uint64 `json:"executions"`
	Crashes    uint64 `json:"crashes"`
	DurationMs int64  `json:"duration_ms"`
}

func readFileIfPresent(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if len(strings.TrimSpace(string(b))) == 0 {
		return nil, nil
	}

	return b, nil
}

func main() {
	var (
		statsList   string
		outPath     string
		title       string
		sessionPath string
		corpusDir   string
		showVer     bool
	)

	flag.BoolVar(&showVer, "version", false, "print version information and exit")
	flag.StringVar(&statsList, "stats", "", "comma-separated paths to mutate-fuzz --json-stats files")
	flag.StringVar(&outPath, "out", "", "optional output markdown path")
	flag.StringVar(&title, "title", "Mutation Fuzzing Summary", "summary title")
	flag.StringVar(&sessionPath, "session", "", "optional mutate-fuzz --session file to report on")
	flag.StringVar(&corpusDir, "corpus-dir", "", "optional corpus directory to report entry count for")
	flag.Parse()

	if showVer {
		cliutil.PrintVersion("mutate-summary", false)

		return
	}

	var sb strings.Builder

	sb.WriteString("### ")
	sb.WriteString(title)
	sb.WriteString("\n\n")

	writeFuzzSection(&sb, statsList)
	writeSessionSection(&sb, sessionPath)
	writeCorpusSection(&sb, corpusDir)

	out := sb.String()

	if outPath != "" {
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			cliutil.ExitWithError("creating output directory: %v", err)
		}

		if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
			cliutil.ExitWithError("writing summary: %v", err)
		}
	}

	fmt.Print(out)
}

func writeFuzzSection(sb *strings.Builder, statsList string) {
	if strings.TrimSpace(statsList) == "" {
		return
	}

	wroteHeader := false

	var totalExec, totalCrash uint64

	for _, p := range strings.Split(statsList, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		b, err := readFileIfPresent(p)
		if err != nil || len(b) == 0 {
			continue
		}

		var fs fuzzStats
		if err := json.Unmarshal(b, &fs); err != nil {
			continue
		}

		if !wroteHeader {
			sb.WriteString("#### Fuzzing\n\n")
			sb.WriteString("| run | executions | crashes | duration |\n")
			sb.WriteString("|---|---|---|---|\n")

			wroteHeader = true
		}

		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		fmt.Fprintf(sb, "| %s | %d | %d | %dms |\n", name, fs.Executions, fs.Crashes, fs.DurationMs)

		totalExec += fs.Executions
		totalCrash += fs.Crashes
	}

	if wroteHeader {
		fmt.Fprintf(sb, "\n**Total:** %d executions, %d crashes\n\n", totalExec, totalCrash)
	}
}

func writeSessionSection(sb *strings.Builder, sessionPath string) {
	if strings.TrimSpace(sessionPath) == "" {
		return
	}

	state, err := session.Load(sessionPath)
	if err != nil {
		return
	}

	sb.WriteString("#### Campaign State\n\n")
	fmt.Fprintf(sb, "- corpus_dir: `%s`\n", state.CorpusDir)
	fmt.Fprintf(sb, "- executions (cumulative): %d\n", state.Executions)
	fmt.Fprintf(sb, "- last_coverage_update_ms: %d\n\n", state.LastCoverageUpdateMillis)
}

func writeCorpusSection(sb *strings.Builder, corpusDir string) {
	if strings.TrimSpace(corpusDir) == "" {
		return
	}

	set, err := corpus.LoadDir(corpusDir, 1)
	if err != nil {
		return
	}

	harvested := corpus.Harvest(set)

	sb.WriteString("#### Corpus\n\n")
	fmt.Fprintf(sb, "- entries: %d\n", set.Len())
	fmt.Fprintf(sb, "- harvested integers: %d\n", len(harvested.Integers))
	fmt.Fprintf(sb, "- harvested strings: %d\n\n", len(harvested.Strings))
}
