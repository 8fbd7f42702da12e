package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
)

func runShell(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	var pf projectFlags
	pf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("shell takes exactly one project directory")
	}

	s, err := pf.open(ctx, fs.Arg(0), nil)
	if err != nil {
		return err
	}
	defer s.Close()

	dim.Printf("%d files loaded. Type 'help' for commands, 'exit' to quit. Changes are not saved.\n", len(s.Files()))

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		prompt.Printf("%s $ ", s.Active())
		var line string
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Println()
				return nil
			}
			line = strings.TrimSpace(l)
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		res := s.Execute(line)
		if res == nil {
			continue
		}
		if res.Cleared {
			fmt.Print("\033[H\033[2J")
		}
		for _, rec := range res.Records {
			printRecord(os.Stdout, rec)
		}
	}
}
