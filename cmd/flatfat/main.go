package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dargueta/flatfat"
	"github.com/dargueta/flatfat/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

func main() {
	app := newApp(afero.NewOsFs())

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %s\n", err.Error())
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to a process exit status. Errors that already carry
// a status keep it, file system errors exit with their errno, and anything else
// exits with 1.
func exitCode(err error) int {
	if coder, ok := err.(cli.ExitCoder); ok {
		return coder.ExitCode()
	}
	if _, ok := err.(errors.DriverError); ok {
		return int(errors.ErrnoOf(err))
	}
	return 1
}

func newApp(fs afero.Fs) *cli.App {
	return &cli.App{
		Name:  "flatfat",
		Usage: "Manage flat FAT-style disk images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "path to the image `FILE`",
				EnvVars: []string{"FLATFAT_IMAGE"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log cluster-level operations to stderr",
			},
		},
		Metadata: map[string]interface{}{"fs": fs},
		Commands: []*cli.Command{
			{
				Name:   "format",
				Usage:  "Create or wipe an image",
				Action: formatImage,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "geometry",
						Aliases: []string{"g"},
						Usage:   "slug of a predefined geometry (see `geometries`)",
						Value:   "default",
					},
					&cli.StringFlag{
						Name:  "geometry-file",
						Usage: "read the geometry from a YAML `FILE` instead",
					},
				},
			},
			{
				Name:   "geometries",
				Usage:  "List the predefined geometries",
				Action: listGeometries,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "csv", Usage: "print CSV instead of a table"},
				},
			},
			{
				Name:   "ls",
				Usage:  "List the files in the image",
				Action: listFiles,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "csv", Usage: "print CSV instead of a table"},
				},
			},
			{
				Name:      "add",
				Usage:     "Create a file and allocate space for it",
				ArgsUsage: "NAME",
				Action:    addFile,
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:    "size",
						Aliases: []string{"s"},
						Usage:   "size of the file in bytes",
					},
					&cli.UintFlag{
						Name:    "attr",
						Aliases: []string{"a"},
						Usage:   "attribute byte to store in the directory entry",
					},
				},
			},
			{
				Name:      "rm",
				Usage:     "Remove a file and free its clusters",
				ArgsUsage: "NAME",
				Action:    removeFile,
			},
			{
				Name:      "chain",
				Usage:     "Print the clusters belonging to a file",
				ArgsUsage: "NAME",
				Action:    showChain,
			},
			{
				Name:   "stat",
				Usage:  "Show space usage",
				Action: showStats,
			},
			{
				Name:   "check",
				Usage:  "Look for inconsistencies between the directory and the FAT",
				Action: checkImage,
			},
		},
	}
}

func filesystem(context *cli.Context) afero.Fs {
	return context.App.Metadata["fs"].(afero.Fs)
}

func newLogger(context *cli.Context) *slog.Logger {
	level := slog.LevelWarn
	if context.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(
		slog.NewTextHandler(context.App.ErrWriter, &slog.HandlerOptions{Level: level}))
}

func imagePath(context *cli.Context) (string, error) {
	path := context.String("image")
	if path == "" {
		return "", cli.Exit("no image given; use --image or set FLATFAT_IMAGE", 2)
	}
	return path, nil
}

// withSession opens the image, calls `action`, and closes the image again.
func withSession(context *cli.Context, action func(*flatfat.Session) error) error {
	path, err := imagePath(context)
	if err != nil {
		return err
	}

	session, err := flatfat.OpenImage(
		filesystem(context), path, flatfat.WithLogger(newLogger(context)))
	if err != nil {
		return err
	}

	actionErr := action(session)
	closeErr := session.Close()
	if closeErr == nil {
		// Returned unwrapped so exit codes set by `action` survive.
		return actionErr
	}
	if actionErr == nil {
		return closeErr
	}
	return multierror.Append(actionErr, closeErr)
}

func singleArgument(context *cli.Context) (string, error) {
	if context.NArg() != 1 {
		return "", cli.Exit(
			fmt.Sprintf("%s: expected exactly one NAME argument", context.Command.Name),
			2)
	}
	return context.Args().First(), nil
}
