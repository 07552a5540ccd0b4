// Package wiki bulk-imports a MediaWiki XML dump into the engine. It is
// a direct generalization of the teacher's LoadWikiXML
// (zhaoyao-tns/wiki.go): same streaming encoding/xml.Decoder over a
// <page><revision><text> shape, same channel-of-entries design, but
// emitting engine.Document values (with a url built from the page
// title) instead of the teacher's raw map[string]string fields, and a
// bounded worker pool (golang.org/x/sync/errgroup) fanning decoded
// pages out into engine.UpsertBatch calls instead of the teacher's
// single-goroutine direct-to-bolt indexer.
package wiki

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"sync/atomic"

	metrics "github.com/rcrowley/go-metrics"
	"golang.org/x/sync/errgroup"

	"github.com/arterning/gofts/internal/engine"
)

var pagesParsed = metrics.NewRegisteredMeter("gofts.wiki_pages_parsed", nil)

// Page mirrors the subset of MediaWiki's export XML schema the engine
// cares about: a title and the latest revision's text.
type Page struct {
	Title string `xml:"title"`
	Text  string `xml:"revision>text"`
}

// Entry is one decoded page, or the error encountered decoding it.
type Entry struct {
	Page *Page
	Err  error
}

// LoadXML streams at most limit <page> elements from the dump at path
// onto the returned channel. limit <= 0 means no limit. The channel is
// closed when the file is exhausted or limit pages have been emitted.
func LoadXML(path string, limit int) (<-chan Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wiki: open %s: %w", path, err)
	}

	dec := xml.NewDecoder(f)
	ch := make(chan Entry)

	go func() {
		defer f.Close()
		defer close(ch)

		count := 0
		for limit <= 0 || count < limit {
			tok, err := dec.Token()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					ch <- Entry{Err: err}
				}
				return
			}

			se, ok := tok.(xml.StartElement)
			if !ok || se.Name.Local != "page" {
				continue
			}

			p := &Page{}
			if err := dec.DecodeElement(p, &se); err != nil {
				ch <- Entry{Err: err}
				continue
			}
			pagesParsed.Mark(1)
			ch <- Entry{Page: p}
			count++
		}
	}()

	return ch, nil
}

// ToDocument converts a decoded wiki page into the document shape the
// engine indexes, building a stable id and a conventional permalink
// URL from the page title.
func ToDocument(p *Page) engine.Document {
	id := url.PathEscape(p.Title)
	return engine.Document{
		ID:      id,
		Title:   p.Title,
		Content: p.Text,
		URL:     "https://en.wikipedia.org/wiki/" + id,
	}
}

// Import drains entries from ch, batching documents in groups of
// batchSize and upserting each batch concurrently across workers
// goroutines. It supplements the teacher's single-threaded import loop
// (zhaoyao-tns/cmd/main.go's buildIndex) with the bounded fan-out the
// spec leaves unspecified but a bulk importer of this shape needs.
func Import(ctx context.Context, eng *engine.Engine, ch <-chan Entry, batchSize, workers int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	if workers <= 0 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	batches := make(chan []engine.Document, workers)

	g.Go(func() error {
		defer close(batches)
		buf := make([]engine.Document, 0, batchSize)
		for entry := range ch {
			if entry.Err != nil {
				return fmt.Errorf("wiki: decode: %w", entry.Err)
			}
			buf = append(buf, ToDocument(entry.Page))
			if len(buf) >= batchSize {
				select {
				case batches <- buf:
				case <-ctx.Done():
					return ctx.Err()
				}
				buf = make([]engine.Document, 0, batchSize)
			}
		}
		if len(buf) > 0 {
			select {
			case batches <- buf:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var imported int64
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for batch := range batches {
				if err := eng.UpsertBatch(batch); err != nil {
					return err
				}
				atomic.AddInt64(&imported, int64(len(batch)))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(atomic.LoadInt64(&imported)), err
	}
	return int(atomic.LoadInt64(&imported)), nil
}
