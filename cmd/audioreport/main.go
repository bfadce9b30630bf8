// Command audioreport transcribes audio files into structured reports and
// serves the same pipeline over HTTP.
//
//	audioreport transcribe --audio sample.wav --model tiny --format txt
//	audioreport serve --config config.yml
//	audioreport version
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kbukum/audioreport/api"
	"github.com/kbukum/audioreport/bootstrap"
	"github.com/kbukum/audioreport/config"
	"github.com/kbukum/audioreport/logger"
	"github.com/kbukum/audioreport/pipeline"
	"github.com/kbukum/audioreport/report"
	"github.com/kbukum/audioreport/validation"
	"github.com/kbukum/audioreport/version"
)

const usage = `Usage: audioreport <command> [flags]

Commands:
  transcribe  transcribe one audio file and write a report
  serve       run the HTTP API
  version     print version information

Run 'audioreport <command> --help' for command flags.
`

// errUsage marks command-line mistakes; they exit with status 2.
var errUsage = errors.New("usage")

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "transcribe":
		err = transcribe(ctx, args[1:], stdout, stderr)
	case "serve":
		err = serve(ctx, args[1:], stderr)
	case "version", "--version", "-v":
		fmt.Fprintln(stdout, version.GetVersionInfo().String())
	case "help", "--help", "-h":
		fmt.Fprint(stdout, usage)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, err)
		return 2
	default:
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
}

// configFlags are shared by every command that builds the pipeline.
type configFlags struct {
	configFile string
	envFile    string
	modelsDir  string
	reportDir  string
	backend    string
	device     string
}

func (c *configFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&c.configFile, "config", "c", "", "config file (default: search ./config.yml and friends)")
	fs.StringVar(&c.envFile, "env-file", "", ".env file loaded before reading AUDIOREPORT_* variables")
	fs.StringVar(&c.modelsDir, "models-dir", "", "directory holding whisper_<id>.pth weights")
	fs.StringVar(&c.reportDir, "report-dir", "", "directory reports are written to")
	fs.StringVar(&c.backend, "backend", "", "speech-recognition backend: torch|whisper")
	fs.StringVar(&c.device, "device", "", "compute device: auto|cuda|cpu")
}

// load reads the configuration. Flags the user set win over file and env.
func (c *configFlags) load(fs *pflag.FlagSet, extra ...config.LoaderOption) (*config.Config, error) {
	opts := []config.LoaderOption{config.WithConfigFile(c.configFile), config.WithEnvFile(c.envFile)}
	for flagName, key := range map[string]string{
		"models-dir": "models.dir",
		"report-dir": "report.dir",
		"backend":    "asr.backend",
		"device":     "models.device",
	} {
		if fs.Changed(flagName) {
			val, _ := fs.GetString(flagName)
			opts = append(opts, config.WithOverride(key, val))
		}
	}
	return config.Load(append(opts, extra...)...)
}

func transcribe(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("transcribe", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cf     configFlags
		req    pipeline.Request
		asJSON bool
	)
	cf.register(fs)
	fs.StringVarP(&req.AudioPath, "audio", "a", "", "audio file to transcribe")
	fs.StringVarP(&req.Model, "model", "m", api.DefaultModel, "model: tiny|base|small|medium|large")
	fs.StringVar(&req.CustomModel, "custom-model", "", "custom checkpoint; takes precedence over --model")
	fs.StringVarP(&req.Format, "format", "f", api.DefaultFormat, "report format: txt|pdf")
	fs.BoolVar(&asJSON, "json", false, "print the result as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if err := checkInputs(req); err != nil {
		return err
	}

	cfg, err := cf.load(fs)
	if err != nil {
		return err
	}
	app, err := newApp(ctx, cfg, stderr)
	if err != nil {
		return err
	}

	var resp pipeline.Response
	err = app.RunTask(ctx, func(ctx context.Context) error {
		resp = app.Transcribe(ctx, req)
		return nil
	})
	if err != nil {
		return err
	}
	if err := printResponse(stdout, resp, asJSON); err != nil {
		return err
	}
	if resp.Status != pipeline.StatusOK {
		return fmt.Errorf("transcription finished with status %s", resp.Status)
	}
	return nil
}

// newApp builds the pipeline with logs on the command's stderr, leaving
// stdout to the result.
func newApp(ctx context.Context, cfg *config.Config, stderr io.Writer) (*bootstrap.App, error) {
	cfg.ApplyDefaults()
	log := logger.NewWithWriter(&cfg.Logging, cfg.Logging.ServiceName, stderr)
	return bootstrap.NewApp(ctx, cfg, bootstrap.WithLogger(log))
}

// checkInputs rejects local files that do not exist and unknown formats
// before any model is loaded. An empty --audio still reaches the pipeline.
func checkInputs(req pipeline.Request) error {
	formats := make([]string, len(report.Formats))
	for i, f := range report.Formats {
		formats[i] = string(f)
	}
	appErr := validation.New().
		FileExists("audio", req.AudioPath).
		FileExists("custom-model", req.CustomModel).
		OneOf("format", req.Format, formats).
		Validate()
	if appErr != nil {
		return fmt.Errorf("%w: %s", errUsage, appErr.Message)
	}
	return nil
}

// printResponse writes the display text, elapsed seconds, report body and
// report path.
func printResponse(w io.Writer, resp pipeline.Response, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	_, err := fmt.Fprintf(w, "%s\n\nProcessing time: %s seconds\n\n--- report ---\n%s\n\nReport file: %s\n",
		resp.DisplayText,
		strconv.FormatFloat(resp.ElapsedSeconds, 'f', 3, 64),
		resp.ReportBody,
		reportPathOrNone(resp.ReportPath),
	)
	return err
}

func reportPathOrNone(p string) string {
	if p == "" {
		return "(none)"
	}
	return p
}

func serve(ctx context.Context, args []string, stderr io.Writer) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cf   configFlags
		port int
		host string
	)
	cf.register(fs)
	fs.IntVarP(&port, "port", "p", 0, "listen port")
	fs.StringVar(&host, "host", "", "listen address")

	if err := fs.Parse(args); err != nil {
		return err
	}

	var extra []config.LoaderOption
	if fs.Changed("port") {
		extra = append(extra, config.WithOverride("server.port", port))
	}
	if fs.Changed("host") {
		extra = append(extra, config.WithOverride("server.host", host))
	}
	cfg, err := cf.load(fs, extra...)
	if err != nil {
		return err
	}
	app, err := newApp(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	return app.Serve(ctx)
}
