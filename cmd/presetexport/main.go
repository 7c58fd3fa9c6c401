// Command presetexport converts text into a DrawingPreset JSON asset using
// a single-stroke glyph font.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/inkboard/backend/internal/export"
	"github.com/spf13/pflag"
)

const previewTimeout = time.Minute

var errHelp = errors.New("help requested")

type cliOptions struct {
	export.Options
	Out     string
	Preview string
}

func aliasList() string {
	names := make([]string, 0, len(export.FontAliases))
	for alias := range export.FontAliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return strings.Join(names, " | ")
}

func parseArgs(args []string, stdout io.Writer) (*cliOptions, error) {
	opts := &cliOptions{Options: export.DefaultOptions()}

	fs := pflag.NewFlagSet("presetexport", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&opts.Text, "text", "t", export.DefaultText, "Text to convert")
	fs.StringVarP(&opts.Out, "out", "o", export.DefaultOutput, "Output preset json path")
	fs.StringVar(&opts.Font, "font", export.DefaultFont,
		fmt.Sprintf("Font alias or glyph table name (aliases: %s)", aliasList()))
	fontPath := fs.String("font-path", "", "Not supported (single-stroke output only)")
	fs.Float64Var(&opts.FontSize, "font-size", export.DefaultFontSize, "Output size before normalization")
	fs.Float64Var(&opts.LetterSpacingEm, "letter-spacing", 0, "Extra intra-word tracking in em")
	fs.Float64Var(&opts.WordSpacingEm, "word-spacing", 0, "Extra spacing for spaces in em")
	fs.Float64Var(&opts.Pressure, "pressure", export.DefaultPressure, "Pressure value")
	fs.Float64Var(&opts.MaxSegmentLength, "segment-length", export.DefaultSegmentLength, "Max distance between sampled points")
	fs.StringVar(&opts.Preview, "preview", "", "Also render a PNG preview to this path (needs Chrome)")
	help := fs.BoolP("help", "h", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *help {
		fmt.Fprintln(stdout, "Usage: presetexport --text hello --font indie-flower --out data/presets/hello.json")
		fmt.Fprintln(stdout)
		fmt.Fprint(stdout, fs.FlagUsages())
		return nil, errHelp
	}
	if fs.Changed("font-path") || *fontPath != "" {
		return nil, errors.New("--font-path is not supported because output is always single-stroke")
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unknown argument: %s", fs.Arg(0))
	}
	return opts, nil
}

// run returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stdout)
	if errors.Is(err, errHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	res, err := export.FromText(opts.Options)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	outPath, err := filepath.Abs(opts.Out)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	var png []byte
	if opts.Preview != "" {
		ctx, cancel := context.WithTimeout(context.Background(), previewTimeout)
		png, err = export.RenderPreview(ctx, &res.Preset, export.DefaultPreviewWidth)
		cancel()
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}

	if err := export.WriteFile(outPath, &res.Preset); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if png != nil {
		if err := os.WriteFile(opts.Preview, png, 0644); err != nil {
			fmt.Fprintln(stderr, fmt.Errorf("writing preview: %w", err))
			return 1
		}
	}

	if len(res.Missing) > 0 {
		fmt.Fprintf(stderr, "warning: %s has no glyph for %q; left blank\n", res.ResolvedFont, string(res.Missing))
	}
	fmt.Fprintf(stdout, "Wrote %s from text %q using %s -> %s (%d strokes, aspectRatio %v).\n",
		outPath, opts.Text, res.Font, res.ResolvedFont, len(res.Preset.Strokes), res.Preset.AspectRatio)
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
