// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/assetrc/pkg/config"
	"github.com/walteh/assetrc/pkg/log"
	"github.com/walteh/assetrc/pkg/media"
	"github.com/walteh/assetrc/pkg/operation"
)

const defaultConfigFile = ".assetrc.yaml"

type rootOpts struct {
	configFile string
	debug      bool
	blur       bool
	withBlur   bool
	root       string
	workers    int
	timeout    time.Duration
	noVideo    bool
	ffmpeg     string
	ffprobe    string
	async      bool

	// service overrides the media backend in tests
	service media.Service
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&rootOpts{})
}

func newRootCmdWith(o *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assetrc",
		Short: "Optimize an asset tree into dist/assets",
		Long: `assetrc walks <root>/assets and mirrors it into <root>/dist/assets,
resizing and re-encoding images, transcoding videos and copying everything else.
Folder and file include/exclude rules decide what is processed; a second set of
rules decides where blur is applied when --blur is given.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       GetVersionInfo().Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.Context(), cmd.OutOrStdout(), cmd.Flags().Changed("config"))
		},
	}
	cmd.SetVersionTemplate(FormatVersion())

	addRootFlags(cmd, o)
	return cmd
}

// addRootFlags adds the build flags to the root command
func addRootFlags(cmd *cobra.Command, o *rootOpts) {
	f := cmd.Flags()
	f.StringVarP(&o.configFile, "config", "c", defaultConfigFile, "config file path (.yaml, .yml, .json or .hcl), relative to --root unless set")
	f.BoolVarP(&o.debug, "debug", "d", false, "enable debug logging")
	f.BoolVar(&o.blur, "blur", false, "apply blur where the blur rules allow it")
	f.BoolVar(&o.withBlur, "with-blur", false, "alias for --blur")
	f.StringVar(&o.root, "root", ".", "working tree containing assets/")
	f.IntVar(&o.workers, "workers", 1, "number of files processed concurrently")
	f.DurationVar(&o.timeout, "timeout", 0, "per-file transform timeout, 0 for none")
	f.BoolVar(&o.noVideo, "no-video", false, "copy videos instead of transcoding them")
	f.StringVar(&o.ffmpeg, "ffmpeg", "ffmpeg", "ffmpeg binary")
	f.StringVar(&o.ffprobe, "ffprobe", "ffprobe", "ffprobe binary")
	f.BoolVar(&o.async, "async", false, "run the build in the background and stop waiting on interrupt")
}

// setupLogging configures zerolog based on flags
func setupLogging(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func (o *rootOpts) configPath(explicit bool) string {
	if explicit || filepath.IsAbs(o.configFile) {
		return o.configFile
	}
	return filepath.Join(o.root, o.configFile)
}

func (o *rootOpts) run(ctx context.Context, console io.Writer, explicitConfig bool) error {
	zlog := setupLogging(o.debug)
	ctx = zlog.WithContext(ctx)

	userLogger := log.NewWithZerolog(console, zlog.Level(zerolog.WarnLevel))
	if o.debug {
		userLogger = log.NewWithZerolog(console, zlog)
	}
	ctx = log.NewContext(ctx, userLogger)

	cfg, err := config.Load(ctx, o.configPath(explicitConfig))
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Debug().Str("path", cfg.Location()).Msg("loaded config")

	svc := o.service
	if svc == nil {
		svc = media.NewComposite(media.Options{
			FFmpegPath:  o.ffmpeg,
			FFprobePath: o.ffprobe,
		})
	}

	op, err := operation.NewBuildOperation(operation.Options{
		Config:  cfg,
		Service: svc,
		Root:    o.root,
		Blur:    o.blur || o.withBlur,
		Workers: o.workers,
		Timeout: o.timeout,
		Video:   !o.noVideo,
		Logger:  userLogger,
	})
	if err != nil {
		return errors.Errorf("creating build operation: %w", err)
	}

	runner := operation.NewRunner(&zlog, o.async)
	if err := runner.Run(ctx, op); err != nil {
		// walk failures never change the exit status
		userLogger.Error(fmt.Sprintf("build did not complete: %v", err))
	}
	return nil
}
