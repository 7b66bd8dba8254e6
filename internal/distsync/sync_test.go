package distsync

import (
	"testing"
	"time"

	"github.com/orizon-lang/orizon-mutator/internal/corpus"
	"github.com/orizon-lang/orizon-mutator/internal/dictionary"
)

func TestSyncPullCorpusAndDictionary(t *testing.T) {
	serverCorpus := corpus.New(1)
	serverCorpus.Add([]byte("seed-one"))
	serverCorpus.Add([]byte("seed-two"))

	dict, err := dictionary.Load([]byte(`{"tokens": ["alpha", "beta"]}`))
	if err != nil {
		t.Fatalf("dictionary.Load() error = %v", err)
	}

	srv, err := NewServer("127.0.0.1:0", "localhost", Peer{Corpus: serverCorpus, Dictionary: dict})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	addr, err := srv.Start()
	if err != nil {
		t.Skip("http3 not supported here:", err)
	}
	defer srv.Stop()

	cli := NewClient(addr)
	defer cli.Close()

	localCorpus := corpus.New(2)

	added, err := cli.PullCorpus(localCorpus)
	if err != nil {
		t.Skip("http3 dial failed:", err)
	}

	if added != 2 {
		t.Fatalf("PullCorpus() added %d entries, want 2", added)
	}

	tokens, err := cli.PullDictionary()
	if err != nil {
		t.Fatalf("PullDictionary() error = %v", err)
	}

	if len(tokens) != 2 {
		t.Fatalf("PullDictionary() returned %d tokens, want 2", len(tokens))
	}
}

func TestSyncPushCorpus(t *testing.T) {
	serverCorpus := corpus.New(1)

	srv, err := NewServer("127.0.0.1:0", "localhost", Peer{Corpus: serverCorpus})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	addr, err := srv.Start()
	if err != nil {
		t.Skip("http3 not supported here:", err)
	}
	defer srv.Stop()

	cli := NewClient(addr)
	defer cli.Close()

	err = cli.PushCorpus([][]byte{[]byte("pushed-one"), []byte("pushed-two")})
	if err != nil {
		t.Skip("http3 dial failed:", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && serverCorpus.Len() < 2 {
		time.Sleep(10 * time.Millisecond)
	}

	if serverCorpus.Len() != 2 {
		t.Fatalf("server corpus Len() = %d, want 2 after push", serverCorpus.Len())
	}
}
