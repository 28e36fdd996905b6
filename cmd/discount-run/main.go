// Command discount-run resolves volume discounts for a single cart input
// document and prints the result document.
//
//	discount-run -input cart.json
//	gzip -c cart.json | discount-run -input - -gzip
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"

	"github.com/xenking/volume-discount/internal/domain/discount"
	"github.com/xenking/volume-discount/internal/wire"
)

func main() {
	var (
		input     string
		output    string
		logOutput string
		gz        bool
		workers   int
		quiet     bool
	)

	flag.StringVar(&input, "input", "-", "input document path, - for stdin; .gz files are decompressed")
	flag.StringVar(&output, "output", "-", "output path, - for stdout")
	flag.StringVar(&logOutput, "log-output", "stderr", "diagnostics destination (zap output path)")
	flag.BoolVar(&gz, "gzip", false, "treat input as gzip-compressed regardless of extension")
	flag.IntVar(&workers, "workers", 1, "cart lines resolved concurrently")
	flag.BoolVar(&quiet, "quiet", false, "suppress diagnostics")
	flag.Parse()

	lg, err := newLogger(quiet, logOutput)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "discount-run: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, input, output, gz || strings.HasSuffix(input, ".gz"), workers); err != nil {
		lg.Error("Run failed", zap.Error(err))
		if quiet {
			_, _ = fmt.Fprintf(os.Stderr, "discount-run: %v\n", err)
		}
		_ = lg.Sync()
		cancel()
		os.Exit(1)
	}
}

func newLogger(quiet bool, output string) (*zap.Logger, error) {
	if quiet {
		return zap.NewNop(), nil
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{output}
	lg, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return lg, nil
}

func run(ctx context.Context, lg *zap.Logger, input, output string, gz bool, workers int) error {
	data, err := readInput(input, gz)
	if err != nil {
		return errors.Wrap(err, "read input")
	}

	lines, err := wire.DecodeInput(data)
	if err != nil {
		return err
	}

	engine := discount.NewEngine(discount.NewZapSink(lg), discount.Options{Workers: workers})
	res := engine.Run(ctx, lines)

	return writeOutput(output, wire.EncodeResult(res))
}

func readInput(path string, gz bool) ([]byte, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	if gz {
		zr, err := pgzip.NewReader(bufio.NewReader(r))
		if err != nil {
			return nil, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}

	return io.ReadAll(r)
}

func writeOutput(path string, data []byte) error {
	data = append(data, '\n')
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
