package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/tillrd/lufalyze/engine"
	"github.com/tillrd/lufalyze/engine/analyzers"
	"github.com/tillrd/lufalyze/engine/config"
	"github.com/tillrd/lufalyze/logging"
	"github.com/tillrd/lufalyze/transcode"
)

type options struct {
	configPath     string
	classifierPath string
	watchDir       string
	logLevel       string
	mode           string
	tempo          float64
	benchmark      bool
	noProgress     bool
	disableFFmpeg  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "JSON engine configuration file")
	flag.StringVar(&opts.classifierPath, "classifier", "", "JSON key classifier weights")
	flag.StringVar(&opts.watchDir, "watch", "", "analyse audio files created in this directory")
	flag.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	flag.StringVar(&opts.mode, "mode", "full", "full, loudness or music")
	flag.Float64Var(&opts.tempo, "tempo", 0, "externally estimated BPM copied into the report")
	flag.BoolVar(&opts.benchmark, "benchmark", false, "time profile matching against the key classifier")
	flag.BoolVar(&opts.noProgress, "no-progress", false, "disable progress bars")
	flag.BoolVar(&opts.disableFFmpeg, "wav-only", false, "decode PCM WAV only, never call ffmpeg")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 && opts.watchDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, flag.Args()); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error(err, "lufalyze failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, files []string) error {
	cfg := config.DefaultEngineConfig()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.classifierPath != "" {
		cfg.Key.ClassifierPath = opts.classifierPath
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	// stdout carries the JSON report.
	logger := logging.NewWriterLogger(os.Stderr)
	logger.SetLevel(logging.ParseLevel(cfg.LogLevel))
	logging.SetGlobalLogger(logger)

	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}

	decCfg := transcode.DefaultDecoderConfig()
	decCfg.DisableFFmpeg = opts.disableFFmpeg
	a := newApp(eng, transcode.NewDecoder(decCfg), opts, os.Stdout)

	go func() {
		if err := a.worker.Run(ctx, a.requests, a.responses); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(err, "Worker stopped")
		}
	}()

	if opts.watchDir != "" {
		return a.watch(ctx, opts.watchDir)
	}

	var failed int
	for _, f := range files {
		if err := a.analyzeFile(ctx, f); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Error(err, "Analysis failed", logging.Fields{"file": f})
			failed++
		}
	}
	a.progress.Wait()
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

// fileReport is the CLI output for one file.
type fileReport struct {
	File      string                  `json:"file"`
	Result    any                     `json:"result"`
	Benchmark *analyzers.KeyBenchmark `json:"benchmark,omitempty"`
}

type app struct {
	engine    *engine.Engine
	decoder   *transcode.Decoder
	worker    *engine.Worker
	requests  chan engine.Request
	responses chan engine.Response
	progress  *mpb.Progress
	out       *json.Encoder
	opts      options
	seq       int
}

func newApp(eng *engine.Engine, dec *transcode.Decoder, opts options, out io.Writer) *app {
	progressOut := io.Writer(os.Stderr)
	if opts.noProgress {
		progressOut = io.Discard
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return &app{
		engine:    eng,
		decoder:   dec,
		worker:    engine.NewWorker(eng),
		requests:  make(chan engine.Request),
		responses: make(chan engine.Response, 8),
		progress:  mpb.New(mpb.WithWidth(48), mpb.WithOutput(progressOut)),
		out:       enc,
		opts:      opts,
	}
}

func (a *app) request(id string, pcm *engine.PCMBuffer) engine.Request {
	switch a.opts.mode {
	case "loudness":
		return engine.AnalyzeLoudnessRequest{ID: id, PCM: pcm}
	case "music":
		return engine.AnalyzeMusicRequest{ID: id, PCM: pcm}
	default:
		var tempo *float64
		if a.opts.tempo > 0 {
			t := a.opts.tempo
			tempo = &t
		}
		return engine.AnalyzeRequest{ID: id, PCM: pcm, Tempo: tempo}
	}
}

// analyzeFile decodes path, submits it to the worker and prints the result.
func (a *app) analyzeFile(ctx context.Context, path string) error {
	a.seq++
	id := fmt.Sprintf("%d:%s", a.seq, filepath.Base(path))

	bar := a.progress.AddBar(100,
		mpb.PrependDecorators(
			decor.Name(filepath.Base(path), decor.WC{W: 24, C: decor.DindentRight}),
			decor.Name(" decoding", decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(decor.Percentage()),
		mpb.BarRemoveOnComplete(),
	)

	pcm, err := a.decoder.DecodeFile(ctx, path)
	if err != nil {
		bar.Abort(true)
		return err
	}
	bar.SetCurrent(10)

	select {
	case a.requests <- a.request(id, pcm):
	case <-ctx.Done():
		bar.Abort(true)
		return ctx.Err()
	}

	var result any
	for result == nil {
		select {
		case <-ctx.Done():
			bar.Abort(true)
			return ctx.Err()
		case resp := <-a.responses:
			switch m := resp.(type) {
			case engine.ProgressMessage:
				bar.SetCurrent(10 + int64(m.Percent*0.9))
			case engine.ErrorMessage:
				bar.Abort(true)
				return m.Err
			case engine.ResultMessage:
				result = m.Result
			}
		}
	}
	bar.SetCurrent(100)

	report := fileReport{File: path, Result: result}
	if a.opts.benchmark {
		b, err := a.engine.BenchmarkKey(pcm)
		if err != nil {
			return err
		}
		report.Benchmark = b
	}
	return a.out.Encode(report)
}
