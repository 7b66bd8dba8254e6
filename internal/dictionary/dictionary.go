// Package dictionary loads the user dictionary consulted by the mutation
// engine's DictionaryOverwrite/Insert operators, and optionally watches it
// on disk for live updates during a long-running campaign.
package dictionary

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/tailscale/hujson"
)

// file is the on-disk shape: a JSONC (JSON-with-comments) document so
// dictionaries can be hand-annotated. Each entry in "tokens" is either a
// literal byte string, or, when prefixed with "0x", a hex-encoded byte
// sequence (e.g. "0xDEADBEEF" decodes to the 4 bytes 0xDE 0xAD 0xBE 0xEF).
type file struct {
	Tokens []string `json:"tokens"`
}

// Dictionary is a hot-swappable token list. The zero value is a valid,
// empty dictionary. It implements internal/mutate.DictionarySource.
type Dictionary struct {
	tokens atomic.Pointer[[][]byte]
}

// Tokens returns the current token list. Safe for concurrent use while a
// Watcher is swapping it out from under a running mutation engine.
func (d *Dictionary) Tokens() [][]byte {
	p := d.tokens.Load()
	if p == nil {
		return nil
	}

	return *p
}

// set atomically replaces the token list.
func (d *Dictionary) set(tokens [][]byte) {
	d.tokens.Store(&tokens)
}

// Load parses a JSONC dictionary document and returns a populated
// Dictionary. An empty or missing "tokens" section is not an error: the
// engine's dictionary operators simply fall back to a different operator
// when the dictionary is empty (spec §4.3).
func Load(data []byte) (*Dictionary, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("dictionary: invalid JSONC: %w", err)
	}

	var f file
	if err := json.Unmarshal(standardized, &f); err != nil {
		return nil, fmt.Errorf("dictionary: invalid JSON: %w", err)
	}

	tokens := make([][]byte, 0, len(f.Tokens))

	for _, s := range f.Tokens {
		b, err := decodeToken(s)
		if err != nil {
			return nil, fmt.Errorf("dictionary: token %q: %w", s, err)
		}

		tokens = append(tokens, b)
	}

	d := &Dictionary{}
	d.set(tokens)

	return d, nil
}

// decodeToken decodes a single "tokens" entry: "0x"-prefixed entries are
// hex, everything else is a literal byte string.
func decodeToken(s string) ([]byte, error) {
	rest, ok := cutHexPrefix(s)
	if !ok {
		return []byte(s), nil
	}

	b, err := hex.DecodeString(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}

	return b, nil
}

func cutHexPrefix(s string) (string, bool) {
	const prefix = "0x"
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}

	return s[len(prefix):], true
}
