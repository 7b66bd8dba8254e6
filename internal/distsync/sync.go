// Package distsync lets independent mutate-fuzz workers (on the same host
// or across a fleet) share their corpus and dictionary over QUIC/HTTP3,
// so one worker's discoveries become another's splice/dictionary material
// without a shared filesystem.
package distsync

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/orizon-lang/orizon-mutator/internal/corpus"
	"github.com/orizon-lang/orizon-mutator/internal/dictionary"
)

const (
	corpusPath     = "/corpus"
	dictionaryPath = "/dictionary"
	clientTimeout  = 10 * time.Second
)

// Peer is the set of local stores a sync server exposes to, and a sync
// client pulls from, the rest of the fleet.
type Peer struct {
	Corpus     *corpus.Set
	Dictionary *dictionary.Dictionary
}

// NewServer builds an HTTP/3 server exposing peer's corpus for GET/POST and
// its dictionary for GET, over a self-signed TLS 1.3 certificate covering
// host. Call Start to begin listening.
func NewServer(addr, host string, peer Peer) (*SyncTransport, error) {
	tlsCfg, err := generateFleetCert([]string{host}, 30*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("distsync: generating server cert: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(corpusPath, corpusHandler(peer.Corpus))
	mux.HandleFunc(dictionaryPath, dictionaryHandler(peer.Dictionary))

	return newSyncTransport(addr, tlsCfg, mux), nil
}

func corpusHandler(set *corpus.Set) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSONEntries(w, set.All())
		case http.MethodPost:
			entries, err := readJSONEntries(r.Body)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)

				return
			}

			added := 0

			for _, e := range entries {
				if set.Add(e) {
					added++
				}
			}

			w.Header().Set("X-Added-Count", fmt.Sprint(added))
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func dictionaryHandler(dict *dictionary.Dictionary) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

			return
		}

		var tokens [][]byte
		if dict != nil {
			tokens = dict.Tokens()
		}

		writeJSONEntries(w, tokens)
	}
}

func writeJSONEntries(w http.ResponseWriter, entries [][]byte) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(entries); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func readJSONEntries(r io.Reader) ([][]byte, error) {
	var entries [][]byte
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("distsync: decoding entries: %w", err)
	}

	return entries, nil
}

// Client pulls corpus entries and dictionary tokens from a peer's sync
// server, and can push locally-discovered interesting inputs back to it.
type Client struct {
	http *http.Client
	base string
}

// NewClient dials addr (host:port) over HTTP/3, trusting any self-signed
// certificate: fleet sync is meant to run on a private network, not to
// authenticate peers via a public CA chain.
func NewClient(addr string) *Client {
	tlsCfg := &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS13, NextProtos: []string{"h3"}} //nolint:gosec // private fleet-sync network, see doc comment

	return &Client{
		http: newPeerHTTPClient(tlsCfg, clientTimeout),
		base: "https://" + addr,
	}
}

// PullCorpus fetches the peer's full corpus and adds every entry to set,
// returning how many were new.
func (c *Client) PullCorpus(set *corpus.Set) (int, error) {
	entries, err := c.getEntries(corpusPath)
	if err != nil {
		return 0, err
	}

	added := 0

	for _, e := range entries {
		if set.Add(e) {
			added++
		}
	}

	return added, nil
}

// PullDictionary fetches the peer's dictionary tokens.
func (c *Client) PullDictionary() ([][]byte, error) {
	return c.getEntries(dictionaryPath)
}

// PushCorpus sends entries to the peer's corpus.
func (c *Client) PushCorpus(entries [][]byte) error {
	body, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("distsync: encoding entries: %w", err)
	}

	resp, err := c.http.Post(c.base+corpusPath, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("distsync: pushing corpus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("distsync: peer rejected push: %s", resp.Status)
	}

	return nil
}

func (c *Client) getEntries(path string) ([][]byte, error) {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return nil, fmt.Errorf("distsync: fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("distsync: %s: unexpected status %s", path, resp.Status)
	}

	return readJSONEntries(resp.Body)
}

// Close releases the client's underlying HTTP/3 transport.
func (c *Client) Close() { closePeerHTTPClient(c.http) }
