package main

import (
	"LineCounter/internal"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

const (
	defaultInclude        = ".py,.js,.html,.css,.java,.cpp,.c,.h,.cs,.php,.rb,.go,.rs,.ts,.jsx,.tsx,.vue,.swift,.kt,.scala,.r,.m,.mm,.sh,.bat,.ps1,.sql"
	defaultExclude        = "*.pyc,*.exe,*.dll,*.so,*.o,*.obj,*.md,*.txt"
	defaultExcludeFolders = ".git,.svn,__pycache__,node_modules,.vscode"
)

func main() {
	flags := []cli.Flag{
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  "include",
			Usage: "Extensions to count (comma separated, e.g. .py,.js). '.*' counts everything and ignores --exclude, '.**' counts everything except --exclude",
			Value: defaultInclude,
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  "exclude",
			Usage: "File name globs to skip (comma separated, e.g. *.pyc,*.exe)",
			Value: defaultExclude,
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  "exclude-folders",
			Usage: "Folder name globs to prune (comma separated)",
			Value: defaultExcludeFolders,
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  "method",
			Usage: "Counting method: all, non_empty, code_only",
			Value: "all",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  "format",
			Usage: "Export format: csv, json",
			Value: "csv",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  "output",
			Usage: "Write the export into this file ('-' for stdout)",
			Value: "-",
		}),
		altsrc.NewBoolFlag(&cli.BoolFlag{
			Name:  "clipboard",
			Usage: "Copy the export to the clipboard instead of printing it",
		}),
		altsrc.NewBoolFlag(&cli.BoolFlag{
			Name:  "archives",
			Usage: "Also count files inside archives (.zip,.tar,.gz,.7z,...)",
		}),
		altsrc.NewIntFlag(&cli.IntFlag{
			Name:  "depth",
			Usage: "Max directory depth (0 - unlimited)",
			Value: 0,
		}),
		altsrc.NewDurationFlag(&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Global timeout for scan (e.g. 10m, 1h)",
		}),
		altsrc.NewBoolFlag(&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Do not show the progress spinner",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  "logfile",
			Usage: "Write logs into file instead of stderr",
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
			Value: "info",
		}),
		&cli.StringFlag{
			Name:  "config",
			Usage: "YAML file with default values for the flags above",
		},
	}

	app := &cli.App{
		Name:      "LineCounter",
		Usage:     "Count lines of code per file and per extension",
		ArgsUsage: "<folder>",
		Flags:     flags,
		Before: func(c *cli.Context) error {
			if c.String("config") == "" {
				return nil
			}
			return altsrc.InitInputSourceWithContext(flags, altsrc.NewYamlSourceFromFlagFunc("config"))(c)
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func run(c *cli.Context) error {
	internal.InitLogger(c.String("logfile"), c.String("log-level"))

	method, err := internal.ParseMethod(c.String("method"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	format, err := internal.ParseFormat(c.String("format"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	root := c.Args().First()
	if err := internal.ValidateRoot(root); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cfg := internal.ScanConfig{
		IncludeExts:  internal.ParseList(c.String("include")),
		ExcludeFiles: internal.ParseList(c.String("exclude")),
		ExcludeDirs:  internal.ParseList(c.String("exclude-folders")),
		Method:       method,
		Depth:        c.Int("depth"),
		Archives:     c.Bool("archives"),
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	// ctx with timeout + OS signals
	base := context.Background()
	var cancel context.CancelFunc
	if t := c.Duration("timeout"); t > 0 {
		base, cancel = context.WithTimeout(base, t)
	} else {
		base, cancel = context.WithCancel(base)
	}
	defer cancel()
	ctx, stop := signal.NotifyContext(base, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyzer, err := internal.NewAnalyzer()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer analyzer.Release()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Counting lines"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetVisibility(!c.Bool("quiet")),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	analyzer.OnFile = func(internal.FileRecord) { _ = bar.Add(1) }

	logrus.WithField("root", root).Info("LineCounter started")
	done, err := analyzer.Start(ctx, root, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	res, err := wait(done, analyzer.Stats)
	_ = bar.Finish()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return cli.Exit("Scan cancelled: "+err.Error(), 1)
		}
		return cli.Exit("Scan failed: "+err.Error(), 1)
	}
	if res.Skipped != nil {
		logrus.WithError(res.Skipped).Debug("Skipped files")
	}
	printSummary(res, analyzer.Stats)

	return export(c, res, format)
}

// wait blocks until the background scan posts its outcome, logging progress meanwhile.
func wait(done <-chan internal.Outcome, stats *internal.AppStats) (*internal.ScanResult, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case out := <-done:
			return out.Result, out.Err
		case <-ticker.C:
			logrus.Debugf("Stats: found=%d processed=%d binary=%d errors=%d",
				stats.FilesFound.Load(), stats.FilesProcessed.Load(), stats.Binary.Load(), stats.Errors.Load())
		}
	}
}

func printSummary(res *internal.ScanResult, stats *internal.AppStats) {
	bold := color.New(color.FgGreen, color.Bold)
	_, _ = bold.Fprintf(os.Stderr, "\n======= Scan finished in %s =======\n", stats.Elapsed().Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Total: %d files, %d lines of code, %.2f MB\n",
		res.TotalFiles(), res.TotalLines(), float64(res.TotalSize())/(1024*1024))
	if n := res.SkippedCount(); n > 0 {
		_, _ = color.New(color.FgYellow).Fprintf(os.Stderr, "Skipped (read errors): %d\n", n)
	}
}

func export(c *cli.Context, res *internal.ScanResult, format internal.Format) error {
	if c.Bool("clipboard") {
		text, err := internal.Serialize(res, format)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		if err := clipboard.WriteAll(text); err != nil {
			logrus.WithError(err).Warn("Clipboard unavailable, printing export")
			fmt.Print(text)
			return nil
		}
		logrus.Info("Export copied to clipboard")
		return nil
	}

	out := c.String("output")
	if out == "" || out == "-" {
		if err := internal.Export(os.Stdout, res, format); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return nil
	}
	if err := internal.WriteFile(out, res, format); err != nil {
		var eerr *internal.ExportError
		if errors.As(err, &eerr) && eerr.Permission() {
			return cli.Exit(fmt.Sprintf("Cannot save %s: permission denied", out), 1)
		}
		return cli.Exit(err.Error(), 1)
	}
	logrus.WithField("file", out).Infof("Exported %s", format)
	return nil
}
