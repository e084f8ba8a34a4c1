// Command sasse is the CLI front end for the selector-extension engine: it
// compiles a source file written in a line-oriented stand-in for the
// evaluator callbacks. Its command wiring follows fbc/cmd/fbc/main.go.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"sasse/config"
	"sasse/cssdoc"
	"sasse/output"
	"sasse/state"
)

func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	env := state.EnvFromContext(ctx)

	opts, err := config.LoadConfiguration(cmd.String("config"))
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if v := cmd.String("style"); v != "" {
		style, err := config.ParseOutputStyle(v)
		if err != nil {
			return ctx, err
		}
		opts.OutputStyle = style
	}
	env.Cfg = opts

	if env.Log, err = opts.Logging.Prepare(); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, _ *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if env.Log != nil {
		env.Log.Debug("program ended", zap.Duration("elapsed", env.Uptime()))
		_ = env.Log.Sync()
	}
	return nil
}

var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)
	if env.Log != nil {
		env.Log.Error("program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func main() {
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:           "sasse",
		Usage:          "selector-inheritance (@extend) engine for a Sass-family CSS preprocessor",
		HideHelpCommand: true,
		Before:         initializeAppContext,
		After:          destroyAppContext,
		ExitErrHandler: exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.StringFlag{Name: "style", Aliases: []string{"s"}, Usage: "output style: nested, expanded, compact, compressed"},
		},
		Commands: []*cli.Command{
			{
				Name:      "compile",
				Usage:     "compiles a minimal evaluator-fed stylesheet (style rules + @extend directives) to CSS",
				ArgsUsage: "SOURCE [DESTINATION]",
				Action:    runCompile,
			},
			{
				Name:      "debug-extend",
				Usage:     "runs SOURCE through the evaluator and dumps the resulting extension registry",
				ArgsUsage: "SOURCE",
				Action:    runDebugExtend,
			},
			{
				Name:      "dumpconfig",
				Usage:     "dumps either default or actual configuration (YAML)",
				ArgsUsage: "DESTINATION",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				Action: runDumpConfig,
			},
		},
	}

	var err error
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

// runCompile reads a trivial line-oriented evaluator protocol from SOURCE
// (lines of "rule SELECTORS", "extend EXTENDER TARGET [optional]",
// "decl PROPERTY VALUE" applying to the most recent rule, and
// "media QUERY"/"endmedia"; see runEvaluatorScript) and writes the
// resulting CSS to DESTINATION (or stdout).
func runCompile(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("missing SOURCE argument")
	}
	data, err := os.ReadFile(cmd.Args().Get(0))
	if err != nil {
		return fmt.Errorf("unable to read source: %w", err)
	}

	eval := cssdoc.NewEvaluator(env.Log)
	if err := runEvaluatorScript(eval, string(data)); err != nil {
		return err
	}
	sheet, err := eval.OnFinalize()
	if err != nil {
		env.Log.Warn("finalize reported diagnostics", zap.Error(err))
	}

	em := output.New(env.Cfg)
	css, _, emitErr := em.Emit(sheet)
	if emitErr != nil {
		return emitErr
	}

	out := os.Stdout
	if cmd.Args().Len() > 1 {
		f, err := os.Create(cmd.Args().Get(1))
		if err != nil {
			return fmt.Errorf("unable to create destination: %w", err)
		}
		defer f.Close()
		out = f
	}
	_, err = fmt.Fprint(out, css)
	return err
}

func runDebugExtend(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("missing SOURCE argument")
	}
	data, err := os.ReadFile(cmd.Args().Get(0))
	if err != nil {
		return fmt.Errorf("unable to read source: %w", err)
	}
	eval := cssdoc.NewEvaluator(env.Log)
	if err := runEvaluatorScript(eval, string(data)); err != nil {
		return err
	}
	if err := eval.Extender().Finalize(); err != nil {
		env.Log.Warn("finalize reported diagnostics", zap.Error(err))
	}
	fmt.Print(eval.Extender().Dump())
	return nil
}

func runDumpConfig(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	var (
		data []byte
		err  error
	)
	if cmd.Bool("default") {
		data, err = config.Prepare()
	} else {
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return err
	}
	out := os.Stdout
	if cmd.Args().Len() > 0 {
		f, err := os.Create(cmd.Args().Get(0))
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	_, err = out.Write(data)
	return err
}
