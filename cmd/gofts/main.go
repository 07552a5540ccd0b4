// Command gofts is the CLI front-end collaborator described by
// spec.md §6: serve, insert, search, get, delete, stats, import-wiki,
// each a thin wrapper calling into internal/engine. Grounded on the
// teacher's cmd/main.go (plain os.Args/flag dispatch, no CLI
// framework) — nothing in the example pack besides
// bureau-foundation-bureau's pflag (used there for plain long-flag
// parsing, not subcommand routing) suggests a heavier CLI library, so
// this keeps the teacher's unadorned per-subcommand flag.FlagSet style.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/arterning/gofts/internal/config"
	"github.com/arterning/gofts/internal/engine"
	"github.com/arterning/gofts/internal/httpapi"
	"github.com/arterning/gofts/internal/wiki"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := logrus.NewEntry(logrus.StandardLogger())

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(logger, os.Args[2:])
	case "insert":
		err = runInsert(logger, os.Args[2:])
	case "search":
		err = runSearch(logger, os.Args[2:])
	case "get":
		err = runGet(logger, os.Args[2:])
	case "delete":
		err = runDelete(logger, os.Args[2:])
	case "stats":
		err = runStats(logger, os.Args[2:])
	case "import-wiki":
		err = runImportWiki(logger, os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		logger.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: gofts <serve|insert|search|get|delete|stats|import-wiki> [flags]")
}

func dataDirFlag(fs *flag.FlagSet) *string {
	return fs.String("data", "", "data directory (overrides GOFTS_DATA_DIR)")
}

func openEngine(logger *logrus.Entry, dataDirOverride string) (*engine.Engine, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	dataDir := cfg.Storage.DataDir
	if dataDirOverride != "" {
		dataDir = dataDirOverride
	}
	return engine.OpenWithLogger(dataDir, logger)
}

func runServe(logger *logrus.Entry, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	data := dataDirFlag(fs)
	host := fs.String("host", "", "listen host (overrides GOFTS_HOST)")
	port := fs.Int("port", 0, "listen port (overrides GOFTS_PORT)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *data != "" {
		cfg.Storage.DataDir = *data
	}

	eng, err := engine.OpenWithLogger(cfg.Storage.DataDir, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	server := httpapi.NewServer(eng, logger)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	return server.ListenAndServe(addr)
}

func runInsert(logger *logrus.Entry, args []string) error {
	fs := flag.NewFlagSet("insert", flag.ExitOnError)
	data := dataDirFlag(fs)
	id := fs.String("id", "", "document id (required)")
	title := fs.String("title", "", "document title")
	content := fs.String("content", "", "document content")
	docURL := fs.String("url", "", "document url")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("insert: -id is required")
	}

	eng, err := openEngine(logger, *data)
	if err != nil {
		return err
	}
	defer eng.Close()

	doc := engine.Document{ID: *id, Title: *title, Content: *content, URL: *docURL}
	if err := eng.UpsertDocument(doc); err != nil {
		return err
	}
	fmt.Printf("inserted %s\n", *id)
	return nil
}

func runSearch(logger *logrus.Entry, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	data := dataDirFlag(fs)
	query := fs.String("query", "", "query string")
	limit := fs.Int("limit", 10, "max results")
	offset := fs.Int("offset", 0, "pagination offset")
	mode := fs.String("mode", "AND", "AND or OR")
	ranked := fs.Bool("ranked", true, "rank by BM25")
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := openEngine(logger, *data)
	if err != nil {
		return err
	}
	defer eng.Close()

	opts := engine.SearchOptions{Limit: *limit, Offset: *offset, Ranked: *ranked}
	if *mode == "OR" {
		opts.Mode = engine.ModeOR
	}

	results, err := eng.Search(*query, opts)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runGet(logger *logrus.Entry, args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	data := dataDirFlag(fs)
	id := fs.String("id", "", "document id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("get: -id is required")
	}

	eng, err := openEngine(logger, *data)
	if err != nil {
		return err
	}
	defer eng.Close()

	doc, found, err := eng.GetDocument(*id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("get: document %q not found", *id)
	}
	return printJSON(doc)
}

func runDelete(logger *logrus.Entry, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	data := dataDirFlag(fs)
	id := fs.String("id", "", "document id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("delete: -id is required")
	}

	eng, err := openEngine(logger, *data)
	if err != nil {
		return err
	}
	defer eng.Close()

	removed, err := eng.DeleteDocument(*id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("delete: document %q not found", *id)
	}
	fmt.Printf("deleted %s\n", *id)
	return nil
}

func runStats(logger *logrus.Entry, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	data := dataDirFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := openEngine(logger, *data)
	if err != nil {
		return err
	}
	defer eng.Close()

	stats, err := eng.Stats()
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func runImportWiki(logger *logrus.Entry, args []string) error {
	fs := flag.NewFlagSet("import-wiki", flag.ExitOnError)
	data := dataDirFlag(fs)
	path := fs.String("path", "", "path to MediaWiki export XML (required)")
	limit := fs.Int("limit", 0, "max pages to import, 0 = no limit")
	batch := fs.Int("batch", 500, "documents per upsert batch")
	workers := fs.Int("workers", 4, "concurrent upsert workers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("import-wiki: -path is required")
	}

	eng, err := openEngine(logger, *data)
	if err != nil {
		return err
	}
	defer eng.Close()

	ch, err := wiki.LoadXML(*path, *limit)
	if err != nil {
		return err
	}

	count, err := wiki.Import(context.Background(), eng, ch, *batch, *workers)
	logger.WithField("imported", count).Info("import-wiki finished")
	return err
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
