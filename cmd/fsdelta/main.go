// Command fsdelta is a manual/demo driver for the delta engine: stdlib
// flag, a small subcommand switch, no CLI framework. The production front
// end lives elsewhere, alongside the filesystem probes and the chunk
// writer; this tool exists to exercise the library end-to-end against a
// plain-text stand-in for an allocated-ranges feed.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cosmoslab/frisbee/internal/delta"
	"github.com/cosmoslab/frisbee/internal/engineconfig"
	"github.com/cosmoslab/frisbee/internal/fixup"
	"github.com/cosmoslab/frisbee/internal/rangelist"
	"github.com/cosmoslab/frisbee/internal/sector"
	"github.com/cosmoslab/frisbee/internal/sigfile"
	"github.com/cosmoslab/frisbee/internal/stats"
	"github.com/cosmoslab/frisbee/internal/version"
)

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "Print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.Get().String())
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	switch strings.ToLower(args[0]) {
	case "version":
		fmt.Println(version.Get().String())
	case "delta":
		if err := runDelta(args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, "fsdelta:", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fsdelta delta -disk <image> -ranges <file> [-old <sig>] [-new <sig>] [-config <file>]")
	fmt.Fprintln(os.Stderr, "       fsdelta version")
}

func runDelta(args []string) error {
	fs := flag.NewFlagSet("delta", flag.ExitOnError)
	diskPath := fs.String("disk", "", "path to the disk image")
	rangesPath := fs.String("ranges", "", "path to a text file of \"start size\" sector ranges, one per line")
	oldSigPath := fs.String("old", "", "path to the prior signature file (omit for a from-scratch run)")
	newSigPath := fs.String("new", "", "path to write the new signature file (omit to skip new-signature emission)")
	configPath := fs.String("config", "", "path to a JSON engineconfig file (omit for defaults)")
	partitionOffset := fs.Uint64("partition-offset", 0, "partition start, in sectors")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *diskPath == "" || *rangesPath == "" {
		return fmt.Errorf("-disk and -ranges are required")
	}

	cfg, err := engineconfig.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sink := newSink(cfg.StatsSink)

	curRanges, err := readRanges(*rangesPath)
	if err != nil {
		return fmt.Errorf("reading ranges: %w", err)
	}

	disk, err := os.Open(*diskPath)
	if err != nil {
		return fmt.Errorf("opening disk image: %w", err)
	}
	defer disk.Close()

	off := sector.Sector(*partitionOffset)

	var oldSig *sigfile.Signature
	if *oldSigPath != "" {
		oldSig, err = sigfile.Load(*oldSigPath, off, sink)
		if err != nil {
			return fmt.Errorf("loading old signature: %w", err)
		}
	} else {
		oldSig = sigfile.New(cfg.DefaultHashKind(), cfg.DefaultHashBlockSize)
	}

	ctx := delta.Context{
		Disk:                 disk,
		PartitionOffset:      off,
		Fixups:               fixup.New(),
		Sink:                 sink,
		EmitNewSig:           *newSigPath != "",
		HashFreeMode:         cfg.HashFreeMode,
		DefaultHashKind:      cfg.DefaultHashKind(),
		DefaultHashBlockSize: cfg.DefaultHashBlockSize,
	}

	result, err := delta.Compute(ctx, curRanges, oldSig)
	if err != nil {
		return fmt.Errorf("computing delta: %w", err)
	}

	fmt.Printf("delta ranges: %d\n", len(result.DeltaRanges))
	for _, r := range result.DeltaRanges {
		fmt.Printf("  %d +%d\n", r.Start, r.Size)
	}

	if *newSigPath != "" {
		fi, statErr := disk.Stat()
		var mtime int64
		if statErr == nil {
			mtime = fi.ModTime().Unix()
		}
		if err := sigfile.Save(*newSigPath, result.NewSig, sigfile.V3, off, mtime, sink); err != nil {
			return fmt.Errorf("writing new signature: %w", err)
		}
	}

	if cs, ok := sink.(*stats.CounterSink); ok {
		snap := cs.Snapshot()
		fmt.Printf("compared=%d same=%d changed=%d only_old=%d only_new=%d warnings=%d\n",
			snap.Compared, snap.Same, snap.Changed, snap.OnlyOld, snap.OnlyNew, snap.Warnings)
	}
	return nil
}

// newSink maps cfg.StatsSink to a sink. Only "logrus" is honoured; every
// other value, "prometheus" included, gets a CounterSink.
func newSink(kind string) stats.Sink {
	switch kind {
	case "logrus":
		return stats.NewLogrusSink(nil)
	default:
		return stats.NewCounterSink()
	}
}

// readRanges parses a plain-text "start size" list (one sector range per
// line, blank lines and #-comments ignored) into a rangelist.List. This is
// a stand-in for the real allocated-ranges enumerator a filesystem probe
// would supply.
func readRanges(path string) (*rangelist.List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	l := rangelist.New()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed range line: %q", line)
		}
		start, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed range start: %q", fields[0])
		}
		size, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed range size: %q", fields[1])
		}
		l.Append(sector.Sector(start), uint32(size))
	}
	return l, scanner.Err()
}
