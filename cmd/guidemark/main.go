package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ganymede-app/guidemark/config"
)

const appName = "guidemark"

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// initializeAppContext prepares application context before command execution
// but after command line has been parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	env := envFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		env.Cfg.Logging.ConsoleLogger.Level = "debug"
	}
	if profile := cmd.String("profile"); profile != "" {
		env.Cfg.Progress.Profile = profile
	}
	if env.Log, err = env.Cfg.Logging.Prepare(); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", version()), zap.String("runtime", runtime.Version()))
	if len(configFile) == 0 {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := envFromContext(ctx)

	if er := env.close(); er != nil {
		err = multierr.Append(err, fmt.Errorf("unable to close progress store: %w", er))
	}
	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
		_ = env.Log.Sync()
	}
	return
}

// Errors from subcommands are regular errors, cli.Exit is not used.
var errWasHandled bool

// exitErrHandler is called before the app context is destroyed, so the error
// still reaches the log.
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := envFromContext(ctx)

	if env.Log != nil && env.Cfg != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// reported either by exitErrHandler or on exit directly to stderr
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	envFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            appName,
		Usage:           "renders and interacts with Ganymede guides",
		Version:         version() + " (" + runtime.Version() + ")",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.StringFlag{Name: "profile", Aliases: []string{"p"}, Usage: "use progress of `PROFILE` instead of the configured one"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log debug messages to the console"},
		},
		Commands: []*cli.Command{
			{
				Name:         "render",
				Usage:        "Renders a guide step to the interactive document tree (JSON)",
				OnUsageError: usageErrorHandler,
				Action:       renderCommand,
				ArgsUsage:    "GUIDE STEP",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "fetch", Aliases: []string{"f"}, Usage: "download the guide when it is not available locally"},
					&cli.BoolFlag{Name: "interactive", Aliases: []string{"i"}, Usage: "only list interactive elements"},
				},
			},
			{
				Name:         "notes",
				Usage:        "Renders markdown notes (JSON)",
				OnUsageError: usageErrorHandler,
				Action:       notesCommand,
				ArgsUsage:    "[FILE]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "interactive", Aliases: []string{"i"}, Usage: "only list interactive elements"},
				},
			},
			{
				Name:         "click",
				Usage:        "Activates an interactive element of a guide step",
				OnUsageError: usageErrorHandler,
				Action:       clickCommand,
				ArgsUsage:    "GUIDE STEP ELEMENT",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "ctrl", Usage: "hold Ctrl"},
					&cli.BoolFlag{Name: "meta", Usage: "hold Cmd"},
					&cli.BoolFlag{Name: "alt", Usage: "hold Alt"},
					&cli.BoolFlag{Name: "fetch", Aliases: []string{"f"}, Usage: "download the guide when it is not available locally"},
					&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "print the actions instead of performing them"},
				},
			},
			{
				Name:         "toggle",
				Usage:        "Toggles a checkbox of a guide step",
				OnUsageError: usageErrorHandler,
				Action:       toggleCommand,
				ArgsUsage:    "GUIDE STEP CHECKBOX",
			},
			{
				Name:         "download",
				Usage:        "Downloads guides into the guides folder",
				OnUsageError: usageErrorHandler,
				Action:       downloadCommand,
				ArgsUsage:    "GUIDE...",
			},
			{
				Name:         "list",
				Usage:        "Lists local guides",
				OnUsageError: usageErrorHandler,
				Action:       listCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "keep running and list again when the folder changes"},
				},
			},
			{
				Name:         "profiles",
				Usage:        "Lists progress profiles, the active one is marked",
				OnUsageError: usageErrorHandler,
				Action:       profilesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "add", Usage: "create a profile called `NAME` and print its id"},
				},
			},
			{
				Name:         "dumpconfig",
				Usage:        "Dumps either default or actual configuration (YAML)",
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "[DESTINATION]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	var err error
	// os.Exit is called at the end of main to set exit code, make sure there
	// are no other deferred functions after that
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
