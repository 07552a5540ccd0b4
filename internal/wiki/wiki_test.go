package wiki_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arterning/gofts/internal/engine"
	"github.com/arterning/gofts/internal/wiki"
)

const sampleDump = `<mediawiki>
  <page>
    <title>Go (programming language)</title>
    <revision><text>Go is a statically typed, compiled language.</text></revision>
  </page>
  <page>
    <title>Rust (programming language)</title>
    <revision><text>Rust is a systems programming language.</text></revision>
  </page>
</mediawiki>`

func writeDump(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDump), 0o600))
	return path
}

func TestLoadXMLStreamsPages(t *testing.T) {
	path := writeDump(t)
	ch, err := wiki.LoadXML(path, 0)
	require.NoError(t, err)

	var titles []string
	for entry := range ch {
		require.NoError(t, entry.Err)
		titles = append(titles, entry.Page.Title)
	}
	assert.Equal(t, []string{"Go (programming language)", "Rust (programming language)"}, titles)
}

func TestLoadXMLRespectsLimit(t *testing.T) {
	path := writeDump(t)
	ch, err := wiki.LoadXML(path, 1)
	require.NoError(t, err)

	count := 0
	for range ch {
		count++
	}
	assert.Equal(t, 1, count)
}

func TestToDocumentBuildsPermalink(t *testing.T) {
	doc := wiki.ToDocument(&wiki.Page{Title: "Go (programming language)", Text: "body"})
	assert.Equal(t, "Go%20%28programming%20language%29", doc.ID)
	assert.Contains(t, doc.URL, "en.wikipedia.org/wiki/")
	assert.Equal(t, "body", doc.Content)
}

func TestImportUpsertsAllPages(t *testing.T) {
	path := writeDump(t)
	ch, err := wiki.LoadXML(path, 0)
	require.NoError(t, err)

	eng, err := engine.Open(filepath.Join(t.TempDir(), "gofts.db"))
	require.NoError(t, err)
	defer eng.Close()

	count, err := wiki.Import(context.Background(), eng, ch, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stats, err := eng.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.DocumentCount)
}
