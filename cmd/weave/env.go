package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/weave"
	"github.com/vango-dev/weave/internal/config"
	"github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/pkg/expr"
	"github.com/vango-dev/weave/pkg/metrics"
	"github.com/vango-dev/weave/pkg/scope"
	"github.com/vango-dev/weave/pkg/source"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	noColor    bool
}

// env is what a command needs after flags and configuration are resolved.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Recorder
}

func loadEnv(opts *globalOptions) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = strings.ToLower(opts.logLevel)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	e := &env{cfg: cfg, logger: newLogger(cfg.LogLevel)}
	if cfg.MetricsEnabled() {
		e.metrics = metrics.New(metrics.WithNamespace(cfg.Metrics.Namespace))
	}
	return e, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// viewConfig builds the View configuration from the environment.
func (e *env) viewConfig() weave.Config {
	return weave.Config{
		Logger:  e.logger,
		Metrics: e.metrics,
		Cache:   expr.NewCache(e.cfg.ExpressionCacheSize),
	}
}

// loadTemplate resolves ref to markup. s3://bucket/key reads from S3 using
// the configured region; anything else is a file path. A bare name that
// does not exist as a file is looked up in the configured template
// directory.
func (e *env) loadTemplate(ctx context.Context, ref string) (string, error) {
	if bucket, key, ok := source.ParseS3URL(ref); ok {
		if e.cfg.Templates.S3.Region == "" {
			return "", errors.New("W122").
				WithDetail("templates.s3.region is required to load " + ref)
		}
		src := source.NewS3(source.NewS3Client(e.cfg.Templates.S3.Region), bucket, "", 0)
		data, err := src.Load(ctx, key)
		return string(data), err
	}

	if _, err := os.Stat(ref); err != nil && !filepath.IsAbs(ref) {
		if e.cfg.HasS3() {
			s3cfg := e.cfg.Templates.S3
			src := source.NewS3(source.NewS3Client(s3cfg.Region), s3cfg.Bucket, s3cfg.Prefix, 0)
			data, err := src.Load(ctx, filepath.ToSlash(ref))
			return string(data), err
		}
		data, err := source.NewDir(e.cfg.TemplatesPath(), 0).Load(ctx, filepath.ToSlash(ref))
		return string(data), err
	}

	data, err := source.NewDir(filepath.Dir(ref), 0).Load(ctx, filepath.Base(ref))
	return string(data), err
}

// readContexts decodes each YAML (or JSON) file into a context.
func readContexts(paths []string) ([]scope.Context, error) {
	contexts := make([]scope.Context, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.New("W160").WithDetail(p).Wrap(err)
		}
		var ctx scope.Context
		if err := yaml.Unmarshal(data, &ctx); err != nil {
			return nil, errors.New("W160").
				WithDetail(fmt.Sprintf("%s is not a YAML mapping", p)).
				Wrap(err)
		}
		if ctx == nil {
			ctx = scope.Context{}
		}
		contexts = append(contexts, ctx)
	}
	return contexts, nil
}
