/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Command gocomposer works with composer documents from the command line:
// it creates, inspects and validates them, renders layout proofs, lists
// autosave revisions and drives a scripted editing session.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"

	"gocomposer/internal/config"
	applog "gocomposer/internal/log"
	"gocomposer/internal/measure"
	"gocomposer/internal/version"
)

// appEnv is shared by all commands through the context.
type appEnv struct {
	cfg     config.AppConfig
	log     *slog.Logger
	started time.Time
	out     io.Writer
	closers []io.Closer
	m       measure.Measurer
}

type envKey struct{}

func envFrom(ctx context.Context) *appEnv {
	if env, ok := ctx.Value(envKey{}).(*appEnv); ok {
		return env
	}
	return &appEnv{cfg: config.Defaults(), log: applog.WithComponent("cli"), out: os.Stdout}
}

// onClose registers c to be closed when the program ends.
func (e *appEnv) onClose(c io.Closer) { e.closers = append(e.closers, c) }

// measurer returns the font-backed text measurer, falling back to stored
// geometry when the fonts cannot be parsed.
func (e *appEnv) measurer() measure.Measurer {
	if e.m != nil {
		return e.m
	}
	tm, err := measure.NewTextMeasurer()
	if err != nil {
		e.log.Warn("text measurer unavailable, using stored sizes", slog.Any("err", err))
		e.m = measure.Geometric{}
		return e.m
	}
	e.onClose(tm)
	e.m = tm
	return e.m
}

func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	env := envFrom(ctx)
	var err error
	if path := cmd.String("config"); path != "" {
		env.cfg, err = config.LoadFile(path)
	} else {
		env.cfg, err = config.Load()
	}
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	applog.Init(env.cfg.Logging.Options())
	if cmd.Bool("debug") {
		applog.SetLevel("debug")
	}
	env.log = applog.WithComponent("cli")
	env.log.Debug("program started", slog.Any("args", os.Args), slog.String("ver", version.String()), slog.String("runtime", runtime.Version()))
	return ctx, nil
}

func destroyAppContext(ctx context.Context, _ *cli.Command) (err error) {
	env := envFrom(ctx)
	for i := len(env.closers) - 1; i >= 0; i-- {
		if er := env.closers[i].Close(); er != nil {
			err = multierr.Append(err, er)
		}
	}
	env.closers = nil
	env.log.Debug("program ended", slog.Duration("elapsed", time.Since(env.started)))
	return err
}

var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	envFrom(ctx).log.Error("program ended with error", slog.Any("err", err))
	errWasHandled = true
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

var errUsage = errors.New("usage")

func newApp() *cli.Command {
	return &cli.Command{
		Name:            "gocomposer",
		Usage:           "composition editor core: documents, proofs and scripted editing",
		Version:         version.String() + " (" + runtime.Version() + ")",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log at debug level"},
		},
		Commands: []*cli.Command{
			{
				Name:   "version",
				Usage:  "Prints the version",
				Action: printVersion,
			},
			{
				Name:      "init",
				Usage:     "Creates a new document with one empty page",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Value: "Page 1", Usage: "title of the first page"},
					&cli.BoolFlag{Name: "overwrite", Usage: "replace an existing file"},
				},
				OnUsageError: usageErrorHandler,
				Action:       initDocument,
			},
			{
				Name:         "inspect",
				Usage:        "Prints pages, blocks, groups and membership problems",
				ArgsUsage:    "FILE",
				OnUsageError: usageErrorHandler,
				Action:       inspectDocument,
			},
			{
				Name:         "validate",
				Usage:        "Checks a document against the schema and the group invariants",
				ArgsUsage:    "FILE",
				OnUsageError: usageErrorHandler,
				Action:       validateDocument,
			},
			{
				Name:      "proof",
				Usage:     "Renders a layout proof of a page (PDF, or PNG by extension)",
				ArgsUsage: "FILE OUT",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "page", Usage: "page `ID` (default: active page)"},
					&cli.FloatFlag{Name: "scale", Value: 1, Usage: "output units per canvas pixel"},
					&cli.BoolFlag{Name: "labels", Value: true, Usage: "print block ids"},
				},
				OnUsageError: usageErrorHandler,
				Action:       renderProof,
			},
			{
				Name:      "revisions",
				Usage:     "Lists autosave revisions of a document or restores one",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "show at most `N` revisions"},
					&cli.IntFlag{Name: "restore", Value: -1, Usage: "write revision `INDEX` (0 is newest) back to FILE"},
				},
				OnUsageError: usageErrorHandler,
				Action:       listRevisions,
			},
			{
				Name:      "demo",
				Usage:     "Runs a scripted editing session against a document and saves it",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-save", Usage: "leave FILE untouched"},
				},
				OnUsageError: usageErrorHandler,
				Action:       runDemoCommand,
			},
		},
	}
}

func main() {
	env := &appEnv{started: time.Now(), out: os.Stdout}
	ctx, stop := signal.NotifyContext(context.WithValue(context.Background(), envKey{}, env), os.Interrupt, syscall.SIGTERM)

	var err error
	// os.Exit skips deferred calls; keep this the only defer in main.
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = newApp().Run(ctx, os.Args)
}

func printVersion(ctx context.Context, _ *cli.Command) error {
	_, err := fmt.Fprintf(envFrom(ctx).out, "Go Composer %s (%s/%s)\n", version.String(), runtime.GOOS, runtime.GOARCH)
	return err
}
