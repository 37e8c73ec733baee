// Command gojodb_spatial_cli is an interactive shell over an in-process R-tree.
// Every mutation prints the tree with the nodes it touched highlighted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/sushant-115/gojodb-spatial/core/indexmanager"
	"github.com/sushant-115/gojodb-spatial/pkg/logger"
	"github.com/sushant-115/gojodb-spatial/pkg/treeview"
)

var (
	logLevel = flag.String("log_level", "warn", "Log level for index internals")
	seed     = flag.Int64("seed", time.Now().UnixNano(), "Seed for the seed command")
	noColor  = flag.Bool("no_color", false, "Disable colored output")
	quiet    = flag.Bool("quiet", false, "Do not print the tree after each mutation")
	script   = flag.Bool("demo", false, "Load the demo set, print the tree and exit")
)

func main() {
	flag.Parse()
	if *noColor {
		color.NoColor = true
	}

	zlogger, err := logger.New(logger.Config{Level: *logLevel, Format: "console", Service: "gojodb-spatial-cli"})
	if err != nil {
		log.Fatalf("CRITICAL: Can't initialize zap logger: %v", err)
	}
	defer func() { _ = zlogger.Sync() }()

	trace := &treeview.Trace{}
	index, err := indexmanager.NewSpatialIndexManager(indexmanager.Options{Logger: zlogger, Observer: trace})
	if err != nil {
		log.Fatalf("CRITICAL: Failed to create spatial index: %v", err)
	}
	defer index.Close()

	ctx := context.Background()

	if *script {
		sh := newShell(index, trace, os.Stdout, *seed)
		sh.quiet = true
		for _, line := range []string{"demo", "dump", "stats", "check"} {
			if err := sh.exec(ctx, line); err != nil {
				log.Fatalf("%s: %v", line, err)
			}
		}
		return
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          color.CyanString("rtree> "),
		HistoryFile:     historyFile(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Fatalf("CRITICAL: Failed to start line editor: %v", err)
	}
	defer rl.Close()

	sh := newShell(index, trace, rl.Stdout(), *seed)
	sh.quiet = *quiet

	fmt.Fprintln(rl.Stdout(), "GojoDB spatial shell. Type 'help' for commands.")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				break
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Printf("Error reading input: %v", err)
			break
		}

		if err := sh.exec(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				break
			}
			fmt.Fprintln(rl.Stdout(), color.RedString("error: %v", err))
		}
	}
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("add"),
	readline.PcItem("del"),
	readline.PcItem("search"),
	readline.PcItem("knn"),
	readline.PcItem("seed"),
	readline.PcItem("demo"),
	readline.PcItem("points"),
	readline.PcItem("dump"),
	readline.PcItem("log"),
	readline.PcItem("stats"),
	readline.PcItem("check"),
	readline.PcItem("clear"),
	readline.PcItem("help"),
	readline.PcItem("exit"),
)

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gojodb_spatial_history")
}
