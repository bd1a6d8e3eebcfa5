// Command doctext prints the plain text of one or more documents, or sends
// it to the clipboard, a file, pathstore or S3.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/doctext/internal/config"
	"github.com/dgallion1/doctext/internal/doctree"
	"github.com/dgallion1/doctext/internal/extract"
	"github.com/dgallion1/doctext/internal/parser"
	"github.com/dgallion1/doctext/internal/pathstore"
	"github.com/dgallion1/doctext/internal/pipeline"
	"github.com/dgallion1/doctext/internal/sink"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitBusy  = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("doctext", flag.ContinueOnError)
	fs.SetOutput(stderr)
	scopeFlag := fs.String("scope", "", "extraction scope: all, region or auto")
	sinkFlag := fs.String("sink", "", "output: stdout, clipboard, file, pathstore, s3 or discard")
	outPath := fs.String("o", "", "output path for the file sink")
	verbose := fs.Bool("v", false, "log extraction details to stderr")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: doctext [-scope all|region|auto] [-sink name] [-o path] file...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitError
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return exitError
	}

	scopeName := *scopeFlag
	if scopeName == "" {
		scopeName = cfg.DefaultScope
	}
	scope, err := doctree.ParseScope(scopeName)
	if err != nil {
		fmt.Fprintf(stderr, "doctext: %v\n", err)
		return exitError
	}

	sinkName := cliSink(*sinkFlag, *outPath, cfg.DefaultSink)

	ex := extract.NewExtractor(log, nil)
	res, data, err := extractFiles(ex, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}, scope, fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "doctext: %v\n", err)
		return exitError
	}

	factory := &sink.Factory{
		Stdout:          stdout,
		FilePath:        *outPath,
		PathstorePrefix: cfg.PathstorePrefix,
		S3Bucket:        cfg.S3Bucket,
		S3Prefix:        cfg.S3Prefix,
	}
	if sinkName == "pathstore" && cfg.PathstoreURL != "" {
		ps := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		defer ps.Close()
		factory.Pathstore = ps
	}
	if sinkName == "s3" && cfg.S3Bucket != "" {
		s3c, err := sink.NewS3Client(ctx, cfg.AWSRegion, cfg.AWSAccessKey, cfg.AWSSecretKey)
		if err != nil {
			fmt.Fprintf(stderr, "doctext: %v\n", err)
			return exitError
		}
		factory.S3 = s3c
	}

	out, err := factory.New(sinkName, pipeline.ContentHashHex(data)[:16])
	if err != nil {
		fmt.Fprintf(stderr, "doctext: %v\n", err)
		return exitError
	}
	if _, err := ex.Publish(ctx, res, out); err != nil {
		fmt.Fprintf(stderr, "doctext: %v\n", err)
		if sink.IsBusy(err) {
			return exitBusy
		}
		return exitError
	}
	return exitOK
}

// cliSink picks the sink: the flag, then "file" when -o is given, then the
// configured default. The in-memory response sink means stdout here.
func cliSink(flagValue, outPath, configured string) string {
	name := strings.ToLower(strings.TrimSpace(flagValue))
	switch {
	case name != "":
	case outPath != "":
		name = "file"
	default:
		name = configured
	}
	if name == "" || name == "response" {
		name = "stdout"
	}
	return name
}

// extractFiles renders each file on its own and concatenates the text in
// argument order. It also returns the concatenated input bytes.
func extractFiles(ex *extract.Extractor, opts parser.Options, scope doctree.Scope, paths []string) (extract.Result, []byte, error) {
	if len(paths) == 0 {
		return extract.Result{}, nil, errors.New("no input files")
	}
	var (
		text   strings.Builder
		data   bytes.Buffer
		scopes = map[string]bool{}
		last   string
	)
	for _, path := range paths {
		p, err := opts.ForFile(path)
		if err != nil {
			return extract.Result{}, nil, err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return extract.Result{}, nil, fmt.Errorf("read %s: %w", path, err)
		}
		tree, err := p.Parse(bytes.NewReader(raw), path)
		if err != nil {
			return extract.Result{}, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		res := ex.Render(tree, scope)
		text.WriteString(res.Text)
		data.Write(raw)
		scopes[res.Scope] = true
		last = res.Scope
	}
	if len(scopes) > 1 {
		last = "mixed"
	}
	return extract.Result{Text: text.String(), Bytes: text.Len(), Scope: last}, data.Bytes(), nil
}
