// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command flatbush builds static packed Hilbert R-Tree index files from
// CSV box lists and queries them.
//
// Usage:
//
//	flatbush build [flags] -o out.idx [in.csv]
//	flatbush info [flags] file.idx
//	flatbush search [flags] -box minX,minY,maxX,maxY file.idx
//	flatbush neighbors [flags] -point x,y file.idx
//
// Input rows are minX,minY,maxX,maxY. Query results are printed one item
// identifier per line, where the identifier of an item is the zero-based
// position of its row among the rows indexed.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/gogama/flatbush/packedrtree"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// errUsage indicates bad command line arguments, already reported.
var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, c *cli, args []string) error
}

var commands = []command{
	{"build", "build an index file from CSV boxes", runBuild},
	{"info", "describe an index file", runInfo},
	{"search", "list items intersecting a box", runSearch},
	{"neighbors", "list items nearest to a point", runNeighbors},
}

// cli carries the streams and options shared by all subcommands.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *Logger

	logFormat string
	logLevel  string
}

func (c *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.StringVar(&c.logFormat, "log-format", "text", "log output format: text or json")
	fs.StringVar(&c.logLevel, "log-level", "warn", "minimum log level: debug, info, warn or error")
	return fs
}

// parse parses the subcommand flags and sets up logging. It returns
// errUsage if the arguments are invalid.
func (c *cli) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	l, err := NewLogger(c.stderr, c.logFormat, c.logLevel)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return errUsage
	}
	c.log = l
	return nil
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage:\n  %s <command> [flags] [args]\n\nCommands:\n", filepath.Base(os.Args[0]))
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w, "\nRun a command with -h for its flags.")
}

// run executes the command line args and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		err := cmd.run(context.Background(), c, args[1:])
		switch {
		case err == nil:
			return 0
		case errors.Is(err, errUsage):
			return 2
		default:
			fmt.Fprintf(stderr, "%s: %v\n", cmd.name, err)
			return 1
		}
	}
	fmt.Fprintf(stderr, "unknown command %q\n", args[0])
	usage(stderr)
	return 2
}

// ----- build ---------------------------------------------------------------

func runBuild(ctx context.Context, c *cli, args []string) error {
	fs := c.flagSet("build")
	out := fs.String("o", "", "path of the index file to write (required)")
	nodeSize := fs.Int("node-size", packedrtree.DefaultNodeSize, "maximum number of children per node")
	kindName := fs.String("kind", packedrtree.Float64.String(), "coordinate storage kind, e.g. float32 or int16")
	autoTrim := fs.Bool("auto-trim", false, "skip malformed rows instead of failing, and trim the index to the rows kept")
	header := fs.Bool("header", false, "the first input row is a header")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if *out == "" || fs.NArg() > 1 {
		fmt.Fprintln(c.stderr, "build: need -o and at most one input file")
		fs.Usage()
		return errUsage
	}
	kind, err := packedrtree.ParseKind(*kindName)
	if err != nil {
		return err
	}

	in := c.stdin
	if fs.NArg() == 1 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	rows, err := readRows(in, *header)
	if err != nil {
		return err
	}

	log := c.log.WithFile(*out)
	ix, err := buildIndex(ctx, log, rows, *nodeSize, kind, *autoTrim)
	if err != nil {
		log.LogBuild(ctx, len(rows), 0, 0, err)
		return err
	}
	if err = writeIndex(*out, ix); err != nil {
		log.LogBuild(ctx, len(rows), 0, 0, err)
		return err
	}
	log.LogBuild(ctx, len(rows), ix.NumItems(), len(ix.Bytes()), nil)
	return nil
}

// row is one CSV record and the line it was read from.
type row struct {
	line   int
	fields []string
}

func readRows(r io.Reader, header bool) ([]row, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows := make([]row, 0, 1024)
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, row{line: line, fields: fields})
	}
	if len(rows) == 0 {
		return nil, errors.New("no input rows")
	}
	return rows, nil
}

func buildIndex(ctx context.Context, log *Logger, rows []row, nodeSize int, kind packedrtree.Kind, autoTrim bool) (*packedrtree.Index, error) {
	ix, err := packedrtree.New(len(rows), packedrtree.WithNodeSize(nodeSize), packedrtree.WithKind(kind))
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		b, err := parseBox(r.fields)
		if err != nil {
			if !autoTrim {
				return nil, fmt.Errorf("line %d: %w", r.line, err)
			}
			log.LogSkippedRow(ctx, r.line, err)
			continue
		}
		if _, err = ix.AddBox(b); err != nil {
			return nil, err
		}
	}
	if err = ix.Finish(autoTrim); err != nil {
		return nil, err
	}
	return ix, nil
}

func writeIndex(path string, ix *packedrtree.Index) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = ix.Marshal(f)
	return
}

// ----- info ----------------------------------------------------------------

func runInfo(ctx context.Context, c *cli, args []string) error {
	fs := c.flagSet("info")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(c.stderr, "info: need exactly one index file")
		return errUsage
	}
	ix, err := loadIndex(fs.Arg(0))
	if err != nil {
		return err
	}
	b := ix.Bounds()
	fmt.Fprintf(c.stdout, "items:     %d\n", ix.NumItems())
	fmt.Fprintf(c.stdout, "nodes:     %d\n", ix.NumNodes())
	fmt.Fprintf(c.stdout, "node size: %d\n", ix.NodeSize())
	fmt.Fprintf(c.stdout, "kind:      %s\n", ix.Kind())
	fmt.Fprintf(c.stdout, "bytes:     %d\n", len(ix.Bytes()))
	fmt.Fprintf(c.stdout, "bounds:    %s\n", b)
	return nil
}

func loadIndex(path string) (*packedrtree.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return packedrtree.FromBytes(data)
}

// ----- search --------------------------------------------------------------

func runSearch(ctx context.Context, c *cli, args []string) error {
	fs := c.flagSet("search")
	box := fs.String("box", "", "query box as minX,minY,maxX,maxY (required)")
	stream := fs.Bool("stream", false, "read only the parts of the file the search visits")
	exclude := fs.String("exclude", "", "comma-separated item identifiers to leave out")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *box == "" {
		fmt.Fprintln(c.stderr, "search: need -box and exactly one index file")
		return errUsage
	}
	q, err := parseBox(splitFields(*box))
	if err != nil {
		return fmt.Errorf("-box: %w", err)
	}
	filter, err := excludeFilter(*exclude)
	if err != nil {
		return err
	}

	log := c.log.WithFile(fs.Arg(0))
	var r []int
	if *stream {
		r, err = seekFile(fs.Arg(0), q, filter)
	} else {
		var ix *packedrtree.Index
		if ix, err = loadIndex(fs.Arg(0)); err == nil {
			r, err = ix.SearchBox(q, filter)
		}
	}
	log.LogQuery(ctx, "search", len(r), err)
	if err != nil {
		return err
	}
	return printIDs(c.stdout, r)
}

func seekFile(path string, q packedrtree.Box, filter packedrtree.Filter) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return packedrtree.Seek(f, q, filter)
}

// ----- neighbors -----------------------------------------------------------

func runNeighbors(ctx context.Context, c *cli, args []string) error {
	fs := c.flagSet("neighbors")
	point := fs.String("point", "", "query point as x,y (required)")
	k := fs.Int("k", 0, "maximum number of results (0 = unlimited)")
	maxDist := fs.Float64("max-dist", -1, "maximum distance from the point (negative = unlimited)")
	exclude := fs.String("exclude", "", "comma-separated item identifiers to leave out")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *point == "" {
		fmt.Fprintln(c.stderr, "neighbors: need -point and exactly one index file")
		return errUsage
	}
	xy, err := parseFloats(splitFields(*point), 2)
	if err != nil {
		return fmt.Errorf("-point: %w", err)
	}
	opts := make([]packedrtree.NeighborOption, 0, 3)
	if *k > 0 {
		opts = append(opts, packedrtree.MaxResults(*k))
	}
	if *maxDist >= 0 {
		opts = append(opts, packedrtree.MaxDistance(*maxDist))
	}
	filter, err := excludeFilter(*exclude)
	if err != nil {
		return err
	}
	if filter != nil {
		opts = append(opts, packedrtree.WithFilter(filter))
	}

	log := c.log.WithFile(fs.Arg(0))
	ix, err := loadIndex(fs.Arg(0))
	var r []int
	if err == nil {
		r, err = ix.Neighbors(xy[0], xy[1], opts...)
	}
	log.LogQuery(ctx, "neighbors", len(r), err)
	if err != nil {
		return err
	}
	return printIDs(c.stdout, r)
}

// ----- helpers -------------------------------------------------------------

func splitFields(s string) []string {
	fields := strings.Split(s, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) != n {
		return nil, fmt.Errorf("need %d numbers, got %d", n, len(fields))
	}
	v := make([]float64, n)
	for i, f := range fields {
		var err error
		if v[i], err = strconv.ParseFloat(f, 64); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func parseBox(fields []string) (packedrtree.Box, error) {
	v, err := parseFloats(fields, 4)
	if err != nil {
		return packedrtree.Box{}, err
	}
	b := packedrtree.Box{XMin: v[0], YMin: v[1], XMax: v[2], YMax: v[3]}
	if b.XMin > b.XMax || b.YMin > b.YMax {
		return packedrtree.Box{}, fmt.Errorf("inverted box %s", b)
	}
	return b, nil
}

// excludeFilter returns a filter rejecting the listed identifiers, or
// nil if the list is empty.
func excludeFilter(list string) (packedrtree.Filter, error) {
	if list == "" {
		return nil, nil
	}
	bm := roaring.New()
	for _, s := range splitFields(list) {
		id, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("-exclude: %w", err)
		}
		bm.Add(uint32(id))
	}
	return packedrtree.NotInBitmap(bm), nil
}

func printIDs(w io.Writer, ids []int) error {
	buf := make([]byte, 0, 16*len(ids))
	for _, id := range ids {
		buf = strconv.AppendInt(buf, int64(id), 10)
		buf = append(buf, '\n')
	}
	_, err := w.Write(buf)
	return err
}
