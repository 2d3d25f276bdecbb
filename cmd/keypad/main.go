// Command keypad is a terminal calculator: it reads whitespace-separated key
// glyphs from stdin and prints the history and current lines after each key.
//
//	$ echo "4 + 6 + 1 =" | keypad
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"keypad-calc/internal/calculator"
	"keypad-calc/internal/config"
	"keypad-calc/internal/keypad"
	"keypad-calc/internal/observability"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := observability.InitLogger(cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer observability.SyncLogger()

	keymap, err := keypad.Load(cfg.KeymapFile)
	if err != nil {
		observability.Logger.Fatal("keymap load failed", zap.Error(err))
	}

	engine := calculator.New(cfg.EngineOptions()...)
	if err := run(os.Stdin, os.Stdout, engine, keymap); err != nil {
		observability.Logger.Fatal("read keys", zap.Error(err))
	}
}

// run feeds every glyph read from r to engine and writes the display after
// each one. Unknown glyphs are reported and skipped.
func run(r io.Reader, w io.Writer, engine *calculator.Engine, keymap *keypad.Keymap) error {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	for scanner.Scan() {
		glyph := scanner.Text()

		k, err := keymap.Lookup(glyph)
		if errors.Is(err, keypad.ErrUnknownKey) {
			observability.Logger.Warn("unknown key", zap.String("glyph", glyph))
			continue
		}

		engine.HandleKey(k)
		d := engine.Render()
		if _, err := fmt.Fprintf(w, "%s\n%s\n\n", d.History, d.Current); err != nil {
			return err
		}
	}
	return scanner.Err()
}
