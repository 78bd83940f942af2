// Package httpcache caches successful upstream HTTP responses in badger so that
// repeated refreshes within a TTL do not spend the upstream API's daily quota.
package httpcache

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// DefaultTTL is how long a cached response stays valid.
const DefaultTTL = 12 * time.Hour

// Transport implements http.RoundTripper with a badger-backed response cache.
// Only 2xx responses are stored. Cache errors never fail a request.
type Transport struct {
	base   http.RoundTripper
	db     *badger.DB
	ttl    time.Duration
	accept func(content []byte) bool
}

// Open opens (or creates) a badger cache in dir. An empty dir opens an in-memory cache.
func Open(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open response cache: %w", err)
	}
	return db, nil
}

// New wraps base with the cache. A nil base uses http.DefaultTransport; ttl <= 0 uses DefaultTTL.
func New(base http.RoundTripper, db *badger.DB, ttl time.Duration) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Transport{base: base, db: db, ttl: ttl}
}

// WithAccept restricts caching to responses whose dumped content satisfies fn.
// Upstreams that report failures inside a 200 answer need this.
func (t *Transport) WithAccept(fn func(content []byte) bool) *Transport {
	t.accept = fn
	return t
}

// RoundTrip serves the request from the cache when a fresh entry exists, and
// otherwise forwards it and caches a successful answer. req is never modified.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out, body, err := replayable(req)
	if err != nil {
		return nil, err
	}
	key := requestKey(out, body)

	if resp, err := t.get(key, out); err == nil {
		if out.Body != nil {
			out.Body.Close()
		}
		return resp, nil
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		log.Printf("WARN: response cache read err (ignored): %v", err)
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	log.Printf("DEBUG: upstream %v %v%v %v", out.Method, out.URL.Host, out.URL.Path, resp.Status)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}

	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return nil, err
	}
	if t.accept != nil && !t.accept(content) {
		return resp, nil
	}
	if err := t.put(key, content); err != nil {
		log.Printf("WARN: response cache write err (ignored): %v", err)
	}
	return resp, nil
}

// replayable returns the request body and a request that can still send it.
// With GetBody the body is read from a fresh copy and req is forwarded as is;
// otherwise req.Body is consumed and a clone carrying the buffered body is returned.
func replayable(req *http.Request) (*http.Request, []byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil, nil
	}

	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return nil, nil, err
		}
		defer rc.Close()
		body, err := io.ReadAll(rc)
		if err != nil {
			return nil, nil, err
		}
		return req, body, nil
	}

	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, nil, err
	}
	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return out, body, nil
}

// requestKey hashes method, URL and body.
func requestKey(req *http.Request, body []byte) []byte {
	h := sha1.New()
	fmt.Fprintf(h, "%s %s\n", req.Method, req.URL.String())
	h.Write(body)
	return []byte(fmt.Sprintf("resp/%x", h.Sum(nil)))
}

func (t *Transport) get(key []byte, req *http.Request) (*http.Response, error) {
	var content []byte
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		content, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

func (t *Transport) put(key, content []byte) error {
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, content).WithTTL(t.ttl))
	})
}
