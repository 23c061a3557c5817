// Package stream implements the Raw Stream Reader (spec §4.4): it
// drains a child process's stdout and stderr concurrently into a single
// ordered line channel, while also accumulating every line into an
// append-only transcript for post-mortem diagnostics.
package stream

import (
	"bufio"
	"io"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

// Reader drains one or more byte sources (production: child pipes; tests:
// in-memory pipes pre-filled with scripted output, per spec §9 "The Raw
// Stream Reader is generic over 'a byte source producing lines'") and
// exposes their lines on a single multi-producer channel plus a shared
// transcript.
type Reader struct {
	mu         sync.Mutex
	transcript []byte
}

// New returns an empty Reader.
func New() *Reader {
	return &Reader{}
}

// Transcript returns a snapshot of everything read so far, in the exact
// byte order lines were appended across both streams.
func (r *Reader) Transcript() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.transcript)
}

func (r *Reader) append(line string) {
	r.mu.Lock()
	r.transcript = append(r.transcript, line...)
	r.transcript = append(r.transcript, '\n')
	r.mu.Unlock()
}

// Drain spawns one worker per source, each scanning newline-terminated
// chunks and forwarding them, in that source's emission order, onto the
// returned channel. Interleaving between sources is unordered by design
// (spec §4.4). The channel closes once every worker has reached
// end-of-stream. Lines that are not valid UTF-8 are dropped from the
// channel but still appended to the transcript (best-effort decoding).
func (r *Reader) Drain(sources ...io.Reader) <-chan string {
	out := make(chan string)

	var eg errgroup.Group
	for _, src := range sources {
		src := src
		eg.Go(func() error {
			r.drainOne(src, out)
			return nil
		})
	}

	go func() {
		_ = eg.Wait()
		close(out)
	}()

	return out
}

func (r *Reader) drainOne(src io.Reader, out chan<- string) {
	scanner := bufio.NewScanner(src)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			r.append(line)
			out <- line
			continue
		}
		if !utf8.ValidString(line) {
			r.append(line)
			continue
		}
		r.append(line)
		out <- line
	}
}
