// Command doug is the doug interpreter entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alexflint/go-arg"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/douglang/doug/pkg/config"
	"github.com/douglang/doug/pkg/diagnostics"
	"github.com/douglang/doug/pkg/evaluator"
	"github.com/douglang/doug/pkg/metrics"
	"github.com/douglang/doug/pkg/runtime"
)

const version = "0.1.0"

// Exit codes.
const (
	exitOK      = 0
	exitUsage   = 1
	exitSyntax  = 2
	exitRuntime = 4
)

type replCmd struct{}

type runCmd struct {
	File string `arg:"positional,required" help:"source file, or - for stdin"`
	JSON bool   `arg:"--json" help:"print the result as JSON"`
}

type checkCmd struct {
	File string `arg:"positional,required" help:"source file, or - for stdin"`
}

type fmtCmd struct {
	File  string `arg:"positional,required" help:"source file, or - for stdin"`
	Write bool   `arg:"-w,--write" help:"rewrite the file in place"`
}

type args struct {
	Repl  *replCmd  `arg:"subcommand:repl" help:"start an interactive session (default)"`
	Run   *runCmd   `arg:"subcommand:run" help:"evaluate a file and print its final value"`
	Check *checkCmd `arg:"subcommand:check" help:"report diagnostics without evaluating"`
	Fmt   *fmtCmd   `arg:"subcommand:fmt" help:"format a file"`

	Pretty      bool   `arg:"--pretty,env:DOUG_PRETTY" help:"human-readable diagnostics instead of JSON"`
	LogLevel    string `arg:"--log-level,env:DOUG_LOG_LEVEL" help:"debug, info, warn or error"`
	Dev         bool   `arg:"--dev,env:DOUG_DEV" help:"development logger"`
	MetricsAddr string `arg:"--metrics-addr,env:DOUG_METRICS_ADDR" help:"serve Prometheus metrics on this address"`
	Config      string `arg:"--config,env:DOUG_CONFIG" help:"config file; defaults to .doug.yaml then ~/.doug/config.yaml"`
}

func (args) Description() string {
	return "doug evaluates let/const declarations and arithmetic over numbers."
}

func (args) Version() string {
	return "doug " + version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := realMain(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func realMain(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var a args
	p, err := arg.NewParser(arg.Config{Program: "doug"}, &a)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	switch err := p.Parse(argv); {
	case errors.Is(err, arg.ErrHelp):
		p.WriteHelp(stdout)
		return exitOK
	case errors.Is(err, arg.ErrVersion):
		fmt.Fprintln(stdout, a.Version())
		return exitOK
	case err != nil:
		p.WriteUsage(stderr)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	cfg, err := loadConfig(a.Config)
	if err != nil {
		printDiag(stderr, diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, ""), a.Pretty)
		return exitUsage
	}
	pretty := a.Pretty || cfg.Pretty
	level := cfg.Log.Level
	if a.LogLevel != "" {
		level = a.LogLevel
	}

	logger, err := newLogger(level, a.Dev || cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()
	if cfg.Path != "" {
		logger.Debug("loaded config", zap.String("path", cfg.Path))
	}

	collector := metrics.New()
	if a.MetricsAddr != "" {
		shutdown := startMetricsServer(a.MetricsAddr, collector, logger)
		defer shutdown()
	}

	newSession := func(filename string) *runtime.Session {
		return runtime.New(
			runtime.WithLogger(logger),
			runtime.WithMetrics(collector),
			runtime.WithPrelude(cfg.Prelude),
			runtime.WithFilename(filename),
			runtime.WithPrompt(cfg.Prompt),
			runtime.WithPretty(pretty),
		)
	}

	switch {
	case a.Run != nil:
		return cmdRun(ctx, a.Run, newSession, stdin, stdout, stderr, pretty)
	case a.Check != nil:
		return cmdCheck(a.Check, newSession, stdin, stdout, stderr, pretty)
	case a.Fmt != nil:
		return cmdFmt(a.Fmt, newSession, stdin, stdout, stderr, pretty)
	default:
		return cmdRepl(ctx, newSession(runtime.DefaultFilename), stdin, stdout, stderr)
	}
}

func cmdRepl(ctx context.Context, s *runtime.Session, stdin io.Reader, stdout, stderr io.Writer) int {
	if err := s.REPL(ctx, stdin, stdout); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	return exitOK
}

func cmdRun(ctx context.Context, c *runCmd, newSession func(string) *runtime.Session, stdin io.Reader, stdout, stderr io.Writer, pretty bool) int {
	source, filename, err := readSource(c.File, stdin)
	if err != nil {
		printDiag(stderr, ioDiag(err), pretty)
		return exitUsage
	}

	s := newSession(filename)
	val, err := s.Eval(ctx, source)
	if err != nil {
		fmt.Fprintln(stderr, s.FormatError(err))
		return exitCodeFor(err)
	}

	if c.JSON {
		b, err := evaluator.ValueToJSON(val)
		if err != nil {
			fmt.Fprintf(stderr, "error serializing result: %s\n", err)
			return exitRuntime
		}
		fmt.Fprintln(stdout, string(b))
		return exitOK
	}
	fmt.Fprintln(stdout, evaluator.FormatValue(val))
	return exitOK
}

func cmdCheck(c *checkCmd, newSession func(string) *runtime.Session, stdin io.Reader, stdout, stderr io.Writer, pretty bool) int {
	source, filename, err := readSource(c.File, stdin)
	if err != nil {
		printDiag(stderr, ioDiag(err), pretty)
		return exitUsage
	}

	diags := newSession(filename).Check(source)
	if len(diags) > 0 {
		fmt.Fprintln(stderr, diagnostics.FormatDiagnostics(diags, pretty))
		return exitSyntax
	}

	if pretty {
		fmt.Fprintln(stdout, "No errors found.")
	} else {
		fmt.Fprintln(stdout, "[]")
	}
	return exitOK
}

func cmdFmt(c *fmtCmd, newSession func(string) *runtime.Session, stdin io.Reader, stdout, stderr io.Writer, pretty bool) int {
	if c.Write && c.File == "-" {
		fmt.Fprintln(stderr, "error: --write cannot be used with stdin")
		return exitUsage
	}

	source, filename, err := readSource(c.File, stdin)
	if err != nil {
		printDiag(stderr, ioDiag(err), pretty)
		return exitUsage
	}

	s := newSession(filename)
	formatted, err := s.Format(source)
	if err != nil {
		fmt.Fprintln(stderr, s.FormatError(err))
		return exitSyntax
	}

	if c.Write {
		if err := os.WriteFile(c.File, []byte(formatted), 0o644); err != nil {
			printDiag(stderr, ioDiag(err), pretty)
			return exitUsage
		}
		return exitOK
	}
	fmt.Fprint(stdout, formatted)
	return exitOK
}

// readSource reads path, or stdin when path is "-".
func readSource(path string, stdin io.Reader) (source, filename string, err error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("cannot read stdin: %w", err)
		}
		return string(b), "<stdin>", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("cannot read file: %w", err)
	}
	return string(b), path, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Load(cwd)
}

func newLogger(level string, development bool) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to construct logger: %w", err)
	}
	return logger, nil
}

func startMetricsServer(addr string, c *metrics.Collector, logger *zap.Logger) func() {
	srv := &http.Server{Addr: addr, Handler: c.Router()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metric server stopped unexpectedly", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func exitCodeFor(err error) int {
	code := runtime.Code(err)
	switch {
	case diagnostics.IsSyntax(code):
		return exitSyntax
	case code == diagnostics.EIO:
		return exitUsage
	default:
		return exitRuntime
	}
}

func ioDiag(err error) diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, "")
}

func printDiag(w io.Writer, d diagnostics.Diagnostic, pretty bool) {
	fmt.Fprintln(w, diagnostics.FormatDiagnostic(d, pretty))
}
