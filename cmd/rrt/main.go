package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Amr-9/rrt/internal/engine"
	"github.com/Amr-9/rrt/internal/report"
	"github.com/Amr-9/rrt/internal/transport"
	"github.com/Amr-9/rrt/internal/tui"
	"github.com/Amr-9/rrt/pkg/config"
	"github.com/Amr-9/rrt/pkg/models"
	"github.com/sirupsen/logrus"
)

type options struct {
	configPath string
	initMode   bool
	tuiMode    bool
	jsonPath   string
	htmlPath   string
	xlsxPath   string
	junitPath  string
	logLevel   string
}

func main() {
	// Panic recovery - prevent crashes
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("\n❌ Fatal error: %v\n", r)
			fmt.Println("💡 Please report this issue at: https://github.com/Amr-9/rrt/issues")
			os.Exit(1)
		}
	}()

	var opts options
	flag.StringVar(&opts.configPath, "file", "", "Path to YAML test file (default ./"+config.DefaultFileName+")")
	flag.StringVar(&opts.configPath, "f", "", "Path to YAML test file (shorthand)")
	flag.BoolVar(&opts.initMode, "init", false, "Interactively create a test file")
	flag.BoolVar(&opts.tuiMode, "tui", false, "Show a live dashboard while tests run")
	flag.StringVar(&opts.jsonPath, "json", "", "Write the run summary as JSON to this path")
	flag.StringVar(&opts.htmlPath, "html", "", "Write an HTML report to this path")
	flag.StringVar(&opts.xlsxPath, "xlsx", "", "Write an Excel report to this path")
	flag.StringVar(&opts.junitPath, "junit", "", "Write a JUnit XML report to this path")
	flag.StringVar(&opts.logLevel, "log-level", "warn", "Diagnostic log level (debug, info, warn, error)")
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		fmt.Printf("Invalid log level: %v\n", err)
		os.Exit(1)
	}
	log.SetLevel(level)

	path, err := config.Locate(opts.configPath)
	if err != nil {
		fmt.Printf("Error locating test file: %v\n", err)
		os.Exit(1)
	}

	if opts.initMode {
		if err := tui.RunInit(path); err != nil {
			fmt.Printf("❌ Failed to create test file: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Printf("Error loading test file %s:\n%v\n", path, err)
		os.Exit(1)
	}

	summary, err := run(cfg, opts, log)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	writeOutputs(summary, opts)

	if !summary.OK() {
		os.Exit(1)
	}
}

func run(cfg *models.Config, opts options, log *logrus.Logger) (*models.RunSummary, error) {
	fixtures, err := engine.LoadFixtures(cfg.Global.Data)
	if err != nil {
		return nil, err
	}

	client := transport.NewHTTPClient(transport.Options{
		Insecure: cfg.Global.Insecure,
		HTTP2:    cfg.Global.HTTP2,
	})

	var observers []engine.Observer
	var logfile *report.Logfile
	if cfg.Global.ToFile != "" {
		logfile = report.NewLogfile()
		observers = append(observers, logfile)
	}

	newEngine := func(extra ...engine.Observer) *engine.Engine {
		return engine.New(client,
			engine.WithLogger(log),
			engine.WithFixtures(fixtures),
			engine.WithObserver(append(observers, extra...)...),
		)
	}

	var summary *models.RunSummary
	if opts.tuiMode {
		summary, err = tui.Run(cfg, func(o engine.Observer) *models.RunSummary {
			return newEngine(o).Run(cfg)
		})
		if err != nil {
			return nil, err
		}
		report.NewConsole(os.Stdout).RunFinished(summary)
	} else {
		// Verbose goes first so exchange details land between a case header and its outcome.
		summary = newEngine(report.NewVerbose(os.Stdout), report.NewConsole(os.Stdout)).Run(cfg)
	}

	if logfile != nil {
		name, err := logfile.Save(cfg.Global.ToFile, time.Now())
		if err != nil {
			log.WithError(err).Error("failed to write logfile")
		} else {
			fmt.Printf("successfully wrote to %s\n", name)
		}
	}

	return summary, nil
}

func writeOutputs(summary *models.RunSummary, opts options) {
	outputs := []struct {
		path  string
		label string
		save  func(*models.RunSummary, string) error
	}{
		{opts.jsonPath, "📊 Report saved to", report.SaveJSON},
		{opts.htmlPath, "📈 Interactive HTML report saved to", report.SaveHTML},
		{opts.xlsxPath, "📗 Excel report saved to", report.SaveXLSX},
		{opts.junitPath, "🧪 JUnit report saved to", report.SaveJUnit},
	}

	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		if err := out.save(summary, out.path); err != nil {
			fmt.Printf("⚠️  %v\n", err)
			continue
		}
		fmt.Printf("%s %s\n", out.label, out.path)
	}
}
