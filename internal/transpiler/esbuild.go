package transpiler

import (
	"context"
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
)

// ESBuild transpiles in process with esbuild's transform API
type ESBuild struct {
	target api.Target
}

// NewESBuild creates an esbuild backend. target is an ECMAScript edition
// name such as "es2017"; unknown names fall back to es2017.
func NewESBuild(target string) *ESBuild {
	return &ESBuild{target: parseTarget(target)}
}

func (e *ESBuild) Name() string { return "esbuild" }

// Init runs a probe transform so a broken toolchain fails at startup
func (e *ESBuild) Init(ctx context.Context) error {
	_, err := e.Transform(ctx, Request{
		Source:   "export const probe = <div />;",
		Filename: "probe.jsx",
		Dialects: []Dialect{DialectJSX},
	})
	if err != nil {
		return fmt.Errorf("esbuild probe: %w", err)
	}
	return nil
}

func (e *ESBuild) Transform(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	loader := api.LoaderJSX
	if req.has(DialectTypeScript) {
		loader = api.LoaderTSX
		if !req.has(DialectJSX) {
			loader = api.LoaderTS
		}
	} else if !req.has(DialectJSX) {
		loader = api.LoaderJS
	}

	out := api.Transform(req.Source, api.TransformOptions{
		Loader:     loader,
		Format:     api.FormatCommonJS,
		Target:     e.target,
		Sourcefile: req.Filename,
		JSX:        api.JSXTransform,
		LogLevel:   api.LogLevelSilent,
	})

	if len(out.Errors) > 0 {
		msg := out.Errors[0]
		d := &Diagnostic{File: req.Filename, Message: msg.Text}
		if msg.Location != nil {
			d.Line = msg.Location.Line
			d.Column = msg.Location.Column + 1
			d.LineText = msg.Location.LineText
		}
		return Result{}, d
	}
	return Result{Code: string(out.Code)}, nil
}

func parseTarget(name string) api.Target {
	switch name {
	case "es2015":
		return api.ES2015
	case "es2016":
		return api.ES2016
	case "es2018":
		return api.ES2018
	case "es2019":
		return api.ES2019
	case "es2020":
		return api.ES2020
	case "esnext":
		return api.ESNext
	default:
		return api.ES2017
	}
}
