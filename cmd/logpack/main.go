// Command logpack compresses text logs into searchable archives and queries
// them without full decompression.
package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/logpackio/logpack"
	"github.com/logpackio/logpack/archive"
	"github.com/logpackio/logpack/catalog"
	"github.com/logpackio/logpack/format"
	"github.com/logpackio/logpack/query"
)

var log = logrus.New()

type globalOptions struct {
	Verbose bool   `short:"v" long:"verbose" description:"Enable debug logging"`
	Catalog string `long:"catalog" description:"Path to the archive catalog JSON file" default:"logpack-catalog.json"`
}

var global globalOptions

type compressCmd struct {
	Output      string `short:"o" long:"output" required:"true" description:"Archive file to write"`
	Compression string `long:"compression" default:"zstd" choice:"none" choice:"zstd" choice:"s2" choice:"lz4" description:"Segment block codec"`
	SegmentSize int    `long:"segment-size" description:"Uncompressed segment size threshold in bytes"`
	Register    bool   `long:"register" description:"Register the archive in the catalog"`

	Args struct {
		Input string `positional-arg-name:"INPUT" required:"true" description:"Log file to compress"`
	} `positional-args:"true"`
}

func (c *compressCmd) Execute(_ []string) error {
	opts := []archive.WriterOption{archive.WithCompression(parseCompression(c.Compression))}
	if c.SegmentSize > 0 {
		opts = append(opts, archive.WithTargetSegmentSize(c.SegmentSize))
	}

	stats, err := logpack.CompressFile(c.Output, c.Args.Input, opts...)
	if err != nil {
		return err
	}

	ratio := 0.0
	if stats.CompressedSize > 0 {
		ratio = float64(stats.UncompressedSize) / float64(stats.CompressedSize)
	}
	log.WithFields(logrus.Fields{
		"archive":  c.Output,
		"events":   stats.EventCount,
		"segments": stats.SegmentCount,
		"logtypes": stats.LogtypeCount,
		"ratio":    fmt.Sprintf("%.2fx", ratio),
	}).Info("archive written")

	if !c.Register {
		return nil
	}

	cat, err := catalog.OpenFileCatalog(global.Catalog)
	if err != nil {
		return err
	}
	meta := catalog.NewArchiveMeta(c.Output, stats)
	if err := cat.Register(meta); err != nil {
		return err
	}
	log.WithField("id", meta.ID).Info("archive registered")

	return nil
}

type decompressCmd struct {
	Args struct {
		Archive string `positional-arg-name:"ARCHIVE" required:"true" description:"Archive to decompress"`
	} `positional-args:"true"`
}

func (c *decompressCmd) Execute(_ []string) error {
	r, err := logpack.Open(c.Args.Archive)
	if err != nil {
		return err
	}
	defer r.Close()

	return logpack.Decompress(os.Stdout, r)
}

type searchCmd struct {
	IgnoreCase  bool   `short:"i" long:"ignore-case" description:"Fold ASCII letter case"`
	From        string `long:"from" description:"Earliest event time (RFC 3339 or epoch milliseconds)"`
	To          string `long:"to" description:"Latest event time (RFC 3339 or epoch milliseconds)"`
	Workers     int    `long:"workers" description:"Concurrent segment scans per archive"`
	Timestamps  bool   `short:"t" long:"timestamps" description:"Prefix each match with its event time"`
	AllArchives bool   `short:"a" long:"all-archives" description:"Search every cataloged archive instead of one file"`

	Args struct {
		Pattern string `positional-arg-name:"PATTERN" required:"true" description:"Wildcard pattern (* ? and backslash escapes)"`
		Archive string `positional-arg-name:"ARCHIVE" description:"Archive to search"`
	} `positional-args:"true"`
}

func (c *searchCmd) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	minTime, maxTime := int64(math.MinInt64), int64(math.MaxInt64)
	var err error
	if c.From != "" {
		if minTime, err = parseTime(c.From); err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
	}
	if c.To != "" {
		if maxTime, err = parseTime(c.To); err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
	}

	var opts []query.SearchOption
	if c.IgnoreCase {
		opts = append(opts, query.WithCaseInsensitive())
	}
	if c.Workers > 0 {
		opts = append(opts, query.WithWorkers(c.Workers))
	}

	if c.AllArchives {
		cat, err := catalog.OpenFileCatalog(global.Catalog)
		if err != nil {
			return err
		}
		matches, err := logpack.SearchArchives(ctx, cat, minTime, maxTime, c.Args.Pattern, opts...)
		for _, m := range matches {
			c.print(m.Timestamp, m.Message)
		}

		return err
	}

	if c.Args.Archive == "" {
		return fmt.Errorf("an archive path is required unless --all-archives is set")
	}

	opts = append(opts, query.WithTimeRange(minTime, maxTime))
	matches, err := logpack.SearchFile(ctx, c.Args.Archive, c.Args.Pattern, opts...)
	for _, m := range matches {
		c.print(m.Timestamp, m.Message)
	}

	return err
}

func (c *searchCmd) print(ts int64, msg string) {
	if c.Timestamps {
		fmt.Printf("%s %s\n", time.UnixMilli(ts).UTC().Format(time.RFC3339Nano), msg)

		return
	}
	fmt.Println(msg)
}

type statsCmd struct {
	Args struct {
		Archive string `positional-arg-name:"ARCHIVE" required:"true" description:"Archive to inspect"`
	} `positional-args:"true"`
}

func (c *statsCmd) Execute(_ []string) error {
	r, err := logpack.Open(c.Args.Archive)
	if err != nil {
		return err
	}
	defer r.Close()

	minTime, maxTime := r.TimeRange()
	fmt.Printf("events:       %d\n", r.EventCount())
	fmt.Printf("segments:     %d\n", r.SegmentCount())
	fmt.Printf("logtypes:     %d\n", r.LogtypeDict().Len())
	fmt.Printf("variables:    %d\n", r.VarDict().Len())
	fmt.Printf("compression:  %s\n", r.Compression())
	fmt.Printf("time range:   %s .. %s\n",
		time.UnixMilli(minTime).UTC().Format(time.RFC3339),
		time.UnixMilli(maxTime).UTC().Format(time.RFC3339))

	return nil
}

func parseCompression(name string) format.CompressionType {
	switch name {
	case "none":
		return format.CompressionNone
	case "s2":
		return format.CompressionS2
	case "lz4":
		return format.CompressionLZ4
	default:
		return format.CompressionZstd
	}
}

func parseTime(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, err
	}

	return t.UnixMilli(), nil
}

func main() {
	log.SetFormatter(&logrus.TextFormatter{TimestampFormat: time.RFC3339})

	parser := flags.NewParser(&global, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		if global.Verbose {
			log.SetLevel(logrus.DebugLevel)
		}

		return cmd.Execute(args)
	}

	mustAdd := func(name, short, long string, cmd any) {
		if _, err := parser.AddCommand(name, short, long, cmd); err != nil {
			log.WithError(err).Fatal("register command")
		}
	}
	mustAdd("compress", "Compress a log file into an archive",
		"Reads a text log line by line and writes a compressed, searchable archive.", &compressCmd{})
	mustAdd("decompress", "Write an archive's messages to stdout",
		"Reconstructs every message byte for byte, one line per event, in storage order.", &decompressCmd{})
	mustAdd("search", "Run a wildcard query against archives",
		"Matches a wildcard pattern against compressed events without decompressing the archive to text.", &searchCmd{})
	mustAdd("stats", "Show archive statistics",
		"Prints event, segment and dictionary counts plus the archive's time range.", &statsCmd{})

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			os.Exit(1)
		}
		log.WithError(err).Fatal("command failed")
	}
}
