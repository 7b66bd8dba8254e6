package dictionary

import "testing"

func TestLoadParsesJSONCWithComments(t *testing.T) {
	doc := []byte(`{
		// plain string tokens
		"tokens": ["GET", "POST", " "],
	}`)

	d, err := Load(doc)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tokens := d.Tokens()
	if len(tokens) != 3 {
		t.Fatalf("Tokens() returned %d entries, want 3", len(tokens))
	}

	if string(tokens[0]) != "GET" {
		t.Fatalf("tokens[0] = %q, want %q", tokens[0], "GET")
	}
}

func TestLoadEmptyDocumentYieldsNoTokens(t *testing.T) {
	d, err := Load([]byte(`{}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if tokens := d.Tokens(); len(tokens) != 0 {
		t.Fatalf("Tokens() = %v, want empty", tokens)
	}
}

func TestLoadInvalidJSONCIsError(t *testing.T) {
	if _, err := Load([]byte(`{ not json`)); err == nil {
		t.Fatal("Load() with malformed input should error")
	}
}

func TestLoadHexPrefixedTokensDecodeAsBytes(t *testing.T) {
	doc := []byte(`{"tokens": ["0xDEADBEEF", "plain"]}`)

	d, err := Load(doc)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tokens := d.Tokens()
	if len(tokens) != 2 {
		t.Fatalf("Tokens() returned %d entries, want 2", len(tokens))
	}

	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	if len(tokens[0]) != len(want) {
		t.Fatalf("hex token = %v, want %v", tokens[0], want)
	}

	for i := range want {
		if tokens[0][i] != want[i] {
			t.Fatalf("hex token = %v, want %v", tokens[0], want)
		}
	}

	if string(tokens[1]) != "plain" {
		t.Fatalf("tokens[1] = %q, want %q", tokens[1], "plain")
	}
}

func TestLoadInvalidHexTokenIsError(t *testing.T) {
	if _, err := Load([]byte(`{"tokens": ["0xZZ"]}`)); err == nil {
		t.Fatal("Load() with invalid hex token should error")
	}
}

func TestZeroValueDictionaryIsEmpty(t *testing.T) {
	var d Dictionary
	if tokens := d.Tokens(); len(tokens) != 0 {
		t.Fatalf("zero-value Tokens() = %v, want empty", tokens)
	}
}
