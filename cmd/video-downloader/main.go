package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stroud/video-downloader"
	"github.com/stroud/video-downloader/async"
	"github.com/stroud/video-downloader/internal/prompt"
)

func main() {
	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	config := zap.NewDevelopmentConfig()
	config.Level = level
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = video_downloader.WithLogger(ctx, logger)

	app := newApp(appEnv{
		ctx:      ctx,
		logger:   logger,
		level:    level,
		prompter: prompt.NewReadline(nil, nil),
		out:      os.Stdout,
	})

	result := async.Run(func() error { return app.Run(os.Args) })

	select {
	case err = <-result:
	case <-ctx.Done():
		stop()
		err = <-result
	}
	switch {
	case err == nil:
	case errors.Is(err, errDownloadsFailed):
		_ = logger.Sync()
		os.Exit(1)
	default:
		logger.Fatal(err.Error())
	}
}
