// Package logpack losslessly compresses plain-text logs into structured
// binary archives and searches the compressed form with wildcard patterns.
//
// Each message is split into a logtype, the static template text with one
// placeholder marker per variable token, and the variable values themselves.
// Logtypes and irregular variables deduplicate through two dictionaries;
// integers and most decimals encode inline in fixed 8-byte forms. Events
// stream into compressed segments, so repetitive logs shrink far below what
// general-purpose compression alone achieves while every message still
// round-trips byte for byte.
//
// Search never decompresses messages back to a flat text stream. A wildcard
// pattern first filters the logtype dictionary, one check per distinct
// template, then verifies the few candidate events against their decoded
// variables.
//
// # Basic Usage
//
// Compressing a log file and searching it:
//
//	import "github.com/logpackio/logpack"
//
//	stats, _ := logpack.CompressFile("app.lpk", "app.log")
//	fmt.Printf("%d events in %d segments\n", stats.EventCount, stats.SegmentCount)
//
//	matches, _ := logpack.SearchFile(ctx, "app.lpk", "ERROR * timed out after *ms")
//	for _, m := range matches {
//	    fmt.Println(m.Message)
//	}
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the archive,
// query, ingest and catalog packages, simplifying the most common use cases.
// For streaming writes, segment-level access or custom timestamp handling,
// use those packages directly.
package logpack

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/logpackio/logpack/archive"
	"github.com/logpackio/logpack/catalog"
	"github.com/logpackio/logpack/ingest"
	"github.com/logpackio/logpack/query"
)

// Compress reads a log stream line by line and writes one archive to dst.
// Leading timestamps are recognized per the ingest package rules.
func Compress(dst io.Writer, src io.Reader, opts ...archive.WriterOption) (*archive.Stats, error) {
	w, err := archive.NewWriter(dst, opts...)
	if err != nil {
		return nil, err
	}

	sc, err := ingest.NewScanner(src)
	if err != nil {
		return nil, err
	}
	for sc.Scan() {
		e := sc.Entry()
		if err := w.Append(e.Timestamp, e.Message); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log stream: %w", err)
	}

	return w.Finish()
}

// CompressFile compresses the log file at srcPath into an archive at dstPath.
func CompressFile(dstPath, srcPath string, opts ...archive.WriterOption) (*archive.Stats, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, err
	}

	stats, err := Compress(dst, bufio.NewReader(src), opts...)
	if err != nil {
		dst.Close()

		return nil, err
	}
	if err := dst.Close(); err != nil {
		return nil, err
	}

	return stats, nil
}

// Open memory-maps the archive at path for reading.
func Open(path string) (*archive.Reader, error) {
	return archive.OpenFile(path)
}

// Decompress writes every message in the archive to dst in storage order, one
// line per message.
func Decompress(dst io.Writer, r *archive.Reader) error {
	bw := bufio.NewWriter(dst)
	for ev, err := range r.Events() {
		if err != nil {
			return err
		}
		msg, err := r.DecodeMessage(ev)
		if err != nil {
			return err
		}
		if _, err := bw.WriteString(msg); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// SearchFile runs one wildcard query against the archive at path.
func SearchFile(ctx context.Context, path, pattern string, opts ...query.SearchOption) ([]query.Match, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	s, err := query.NewSearcher(r, opts...)
	if err != nil {
		return nil, err
	}

	return s.Search(ctx, pattern)
}

// ArchiveMatch is one match from a multi-archive search, annotated with the
// archive it came from.
type ArchiveMatch struct {
	query.Match
	ArchiveID uuid.UUID
	Path      string
}

// SearchArchives queries every cataloged archive whose time range overlaps
// [minTime, maxTime], in catalog order.
//
// An archive that fails to open or scan is skipped; its error is joined into
// the returned error while matches from the remaining archives are still
// returned, mirroring how a single search treats corrupt segments.
func SearchArchives(ctx context.Context, cat catalog.Catalog, minTime, maxTime int64, pattern string, opts ...query.SearchOption) ([]ArchiveMatch, error) {
	metas, err := cat.ForRange(minTime, maxTime)
	if err != nil {
		return nil, err
	}

	opts = append(opts, query.WithTimeRange(minTime, maxTime))

	var out []ArchiveMatch
	var scanErrs []error
	for _, meta := range metas {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		path := meta.Path
		if fc, ok := cat.(*catalog.FileCatalog); ok {
			path = fc.ResolvePath(meta)
		}

		matches, err := SearchFile(ctx, path, pattern, opts...)
		if err != nil {
			scanErrs = append(scanErrs, fmt.Errorf("archive %s: %w", meta.ID, err))
		}
		for _, m := range matches {
			out = append(out, ArchiveMatch{Match: m, ArchiveID: meta.ID, Path: path})
		}
	}

	return out, errors.Join(scanErrs...)
}
