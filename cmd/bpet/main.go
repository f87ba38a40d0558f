// Command bpet trains byte-pair-encoding models and uses them to encode and
// decode text.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	internal "github.com/ZanzyTHEbar/bpe-tokenizer/bpet"
	"github.com/ZanzyTHEbar/bpe-tokenizer/bpet/config"

	"github.com/rs/zerolog"
)

type env struct {
	cfg    *config.Config
	logger zerolog.Logger
	stdin  io.Reader
	stdout io.Writer
}

type command struct {
	usage string
	run   func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"train":      {"train a model from a corpus directory or the built-in sample", runTrain},
	"encode":     {"encode text to token ids", runEncode},
	"decode":     {"decode token ids to text", runDecode},
	"presegment": {"print the word candidates of text", runPresegment},
	"vocab":      {"list vocabulary symbols", runVocab},
	"stats":      {"report segmentation statistics for text", runStats},
	"export":     {"write vocab.json and merges.txt", runExport},
	"models":     {"list or delete models in the store", runModels},
}

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet(internal.DefaultAppName, flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a config file")
	logLevel := fs.String("log-level", "", "override log.level")
	fs.Usage = func() { printUsage(fs.Output(), fs) }
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(fs.Output(), "unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return errUsage
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	e := &env{
		cfg:    cfg,
		logger: internal.NewLogger(cfg.Log.Level).With().Str("cmd", fs.Arg(0)).Logger(),
		stdin:  stdin,
		stdout: stdout,
	}
	return cmd.run(ctx, e, fs.Args()[1:])
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "usage: %s [flags] <command> [command flags]\n\ncommands:\n", internal.DefaultAppName)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-11s %s\n", name, commands[name].usage)
	}
	fmt.Fprintln(w, "\nflags:")
	fs.PrintDefaults()
}

// readText joins args, or reads stdin when there are none.
func readText(e *env, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(e.stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}
