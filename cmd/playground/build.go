package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/playground"
	"github.com/GriffinCanCode/playground/internal/preview"
	"github.com/GriffinCanCode/playground/internal/projectfs"
	"github.com/GriffinCanCode/playground/internal/registry"
	"github.com/GriffinCanCode/playground/internal/sandbox"
	"github.com/GriffinCanCode/playground/internal/shared/id"
	"github.com/GriffinCanCode/playground/internal/transpiler"
	"github.com/GriffinCanCode/playground/internal/typing"
)

// projectFlags are shared by every command that loads a directory
type projectFlags struct {
	verbose  bool
	noColor  bool
	registry string
	target   string
}

func (p *projectFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&p.verbose, "v", false, "Log engine activity to stderr")
	fs.BoolVar(&p.noColor, "no-color", false, "Disable colored output")
	fs.StringVar(&p.registry, "registry", "https://unpkg.com", "Package registry URL; empty disables bare imports")
	fs.StringVar(&p.target, "target", "es2017", "JavaScript target")
}

func (p *projectFlags) logger() *logging.Logger {
	if !p.verbose {
		return logging.NewNop()
	}
	cfg := logging.DevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	l, err := logging.New(cfg)
	if err != nil {
		return logging.NewNop()
	}
	return l
}

// open loads dir into a new session
func (p *projectFlags) open(ctx context.Context, dir string, sb *sandbox.Config) (*playground.Session, error) {
	if p.noColor {
		disableColor()
	}
	logger := p.logger()

	loaded, err := projectfs.LoadDir(ctx, dir, nil)
	if err != nil {
		return nil, err
	}
	for _, s := range loaded.Skipped {
		logger.Info("Skipped file", zap.String("path", s.Path), zap.String("reason", s.Reason))
	}
	if len(loaded.Files) == 0 {
		return nil, fmt.Errorf("%s contains no project files", dir)
	}

	tr := transpiler.NewService(transpiler.NewESBuild(p.target), logger.Named("transpiler"), nil)
	if err := tr.Init(ctx); err != nil {
		return nil, err
	}

	var engine *playground.Engine
	asm := preview.NewAssembler(preview.Options{})
	if p.registry != "" {
		client := httpclient.New(httpclient.Options{Name: "registry", BaseURL: p.registry, MaxRetries: 2})
		packages, err := registry.New(registry.Config{BaseURL: p.registry}, client, logger.Named("registry"), nil)
		if err != nil {
			return nil, err
		}
		engine = playground.NewEngine(tr, packages, asm, nil, logger.Named("engine"))
	} else {
		engine = playground.NewEngine(tr, nil, asm, nil, logger.Named("engine"))
	}

	pid := id.NewProjectID()
	return playground.NewSession(pid, loaded.Files, engine, playground.SessionOptions{
		Typing:  typing.DefaultConfig(),
		Sandbox: sb,
	}, nil, logger.ForProject("session", pid.String()))
}

func runBuild(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	var pf projectFlags
	pf.register(fs)
	out := fs.String("o", "", "Write the preview document to this file")
	wait := fs.Duration("wait", 500*time.Millisecond, "How long to let timers run after the build")
	headless := fs.Bool("run", true, "Render the preview headless and capture its console")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("build takes exactly one project directory")
	}

	var sb *sandbox.Config
	if *headless {
		cfg := sandbox.DefaultConfig()
		sb = &cfg
	}
	s, err := pf.open(ctx, fs.Arg(0), sb)
	if err != nil {
		return err
	}
	defer s.Close()

	records, cancel := s.Log().Subscribe(256)
	defer cancel()
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for rec := range records {
			if rec != nil {
				printRecord(os.Stdout, *rec)
			}
		}
	}()

	start := time.Now()
	doc, buildErr := s.Build(ctx)
	if buildErr == nil && *headless && *wait > 0 {
		select {
		case <-time.After(*wait):
		case <-ctx.Done():
		}
	}
	cancel()
	<-printed

	if buildErr != nil {
		return buildErr
	}

	if *out != "" {
		if err := os.WriteFile(*out, []byte(doc.HTML), 0o644); err != nil {
			return err
		}
	}
	success.Printf("Built %s", doc.BuildID)
	dim.Printf(" in %s (%d scripts, %d packages)\n", time.Since(start).Round(time.Millisecond), len(doc.Scripts), len(doc.Packages))
	if *out != "" {
		dim.Printf("Preview written to %s\n", *out)
	}
	return nil
}
