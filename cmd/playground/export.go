package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/GriffinCanCode/playground/internal/projectfs"
)

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("o", "", "Archive to write (required)")
	format := fs.String("format", "", "zip, tar.gz or tar.zst; defaults to the -o extension")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *noColor {
		disableColor()
	}
	if fs.NArg() != 1 || *out == "" {
		return errors.New("usage: playground export [-format zip] -o <file> <dir>")
	}

	name := *format
	if name == "" {
		name = *out
	}
	f, err := projectfs.ParseFormat(name)
	if err != nil {
		return err
	}

	loaded, err := projectfs.LoadDir(ctx, fs.Arg(0), nil)
	if err != nil {
		return err
	}
	for _, s := range loaded.Skipped {
		dim.Printf("skipped %s: %s\n", s.Path, s.Reason)
	}

	file, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := projectfs.WriteArchive(file, loaded.Files, f); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	success.Printf("Wrote %s", *out)
	fmt.Printf(" (%d files)\n", len(loaded.Files))
	return nil
}
