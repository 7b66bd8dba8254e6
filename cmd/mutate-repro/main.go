// Command mutate-repro deterministically reproduces a single crashing input
// against a target, and optionally minimizes it before writing the result.
package main

import (
	"bytes"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/orizon-lang/orizon-mutator/internal/cliutil"
	"github.com/orizon-lang/orizon-mutator/internal/corpus"
)

type target func(data []byte) error

func main() {
	var (
		in          string
		logPath     string
		lineNum     int
		out         string
		seed        int64
		lang        string
		budget      time.Duration
		targetKind  string
		execCmd     string
		stderrMatch string
		showVer     bool
	)

	flag.BoolVar(&showVer, "version", false, "print version information and exit")
	flag.StringVar(&in, "in", "", "input file to reproduce")
	flag.StringVar(&logPath, "log", "", "optional crash log (timestamp\\thex\\tmessage lines) to read from")
	flag.IntVar(&lineNum, "line", 0, "1-based line number in --log to reproduce (default=last non-empty line)")
	flag.StringVar(&out, "out", "", "optional minimized output path")
	flag.Int64Var(&seed, "seed", 0, "random seed for minimization (0=time)")
	flag.StringVar(&lang, "lang", "en", "message language (ja|en)")
	flag.DurationVar(&budget, "budget", 3*time.Second, "minimization time budget")
	flag.StringVar(&targetKind, "target", "noop", "target selector (noop|exec)")
	flag.StringVar(&execCmd, "exec", "", "subprocess command for --target exec (input piped to stdin)")
	flag.StringVar(&stderrMatch, "stderr-match", "", "treat a zero-exit run as a crash if stderr contains this substring")
	flag.Parse()

	if showVer {
		cliutil.PrintVersion("mutate-repro", false)

		return
	}

	L := getLocale(lang)

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	data, err := loadInput(in, logPath, lineNum)
	if err != nil {
		fatal(L, err)
	}

	tgt, err := buildTarget(targetKind, execCmd, stderrMatch)
	if err != nil {
		fatal(L, err)
	}

	crashErr := runTarget(tgt, data)
	if crashErr == nil {
		fmt.Println(L.ok())

		return
	}

	fmt.Println(L.fail(crashErr.Error()))

	if out != "" {
		minimized := corpus.Minimize(seed, data, func(cand []byte) bool {
			return runTarget(tgt, cand) != nil
		}, budget)

		if err := os.WriteFile(out, minimized, 0o644); err != nil {
			fatal(L, fmt.Errorf("writing minimized output: %w", err))
		}

		fmt.Println(L.minDone(out, len(data), len(minimized)))
	}
}

// runTarget recovers a panic the same way a crashing target would be
// reported: as an error, not a process exit.
func runTarget(tgt target, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return tgt(data)
}

func buildTarget(kind, execCmd, stderrMatch string) (target, error) {
	switch strings.ToLower(kind) {
	case "noop":
		return func(data []byte) error { return nil }, nil
	case "exec":
		if execCmd == "" {
			return nil, fmt.Errorf("--target exec requires --exec")
		}

		parts := strings.Fields(execCmd)

		return func(data []byte) error {
			cmd := exec.Command(parts[0], parts[1:]...)
			cmd.Stdin = bytes.NewReader(data)

			var stderr bytes.Buffer
			cmd.Stderr = &stderr

			runErr := cmd.Run()

			if stderrMatch != "" && strings.Contains(stderr.String(), stderrMatch) {
				return fmt.Errorf("stderr matched %q: %s", stderrMatch, firstLine(stderr.String()))
			}

			if runErr != nil {
				return fmt.Errorf("exit error: %w (stderr: %s)", runErr, firstLine(stderr.String()))
			}

			return nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown --target %q (want noop|exec)", kind)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}

	return s
}

// loadInput resolves the input to reproduce from --in, or a line of --log
// (a mutate-fuzz crash log: "timestamp\t0xHEX\tmessage" per line).
func loadInput(in, logPath string, lineNum int) ([]byte, error) {
	if logPath != "" {
		raw, err := os.ReadFile(logPath)
		if err != nil {
			return nil, fmt.Errorf("reading log: %w", err)
		}

		lines := strings.Split(string(raw), "\n")

		pick := -1

		if lineNum > 0 {
			if lineNum-1 < len(lines) {
				pick = lineNum - 1
			}
		} else {
			for i := len(lines) - 1; i >= 0; i-- {
				if strings.TrimSpace(lines[i]) != "" {
					pick = i

					break
				}
			}
		}

		if pick < 0 {
			return nil, fmt.Errorf("no usable lines in %s", logPath)
		}

		parts := strings.SplitN(strings.TrimSpace(lines[pick]), "\t", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("malformed crash log line: %q", lines[pick])
		}

		h := strings.TrimPrefix(strings.TrimPrefix(parts[1], "0x"), "0X")

		dec, err := hex.DecodeString(h)
		if err != nil || len(dec) == 0 {
			return nil, fmt.Errorf("decoding crash log hex: %w", err)
		}

		return dec, nil
	}

	if in == "" {
		return nil, fmt.Errorf("--in or --log is required")
	}

	b, err := os.ReadFile(in)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	return b, nil
}

type locale struct {
	ok      func() string
	fail    func(msg string) string
	minDone func(path string, before, after int) string
}

func getLocale(lang string) locale {
	switch strings.ToLower(lang) {
	case "ja", "jp", "japanese":
		return locale{
			ok:   func() string { return "再現に失敗（問題なし）" },
			fail: func(msg string) string { return "再現成功: " + msg },
			minDone: func(p string, before, after int) string {
				return fmt.Sprintf("最小化完了: %s (%d -> %d bytes)", p, before, after)
			},
		}
	default:
		return locale{
			ok:   func() string { return "Reproduction failed (no issue)" },
			fail: func(msg string) string { return "Reproduced: " + msg },
			minDone: func(p string, before, after int) string {
				return fmt.Sprintf("Minimized written: %s (%d -> %d bytes)", p, before, after)
			},
		}
	}
}

func fatal(L locale, a ...any) {
	cliutil.ExitWithError("%s", fmt.Sprint(a...))
}
