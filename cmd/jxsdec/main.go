/*
DESCRIPTION
  Jxsdec is a bare bones command line program that decodes a JPEG XS
  codestream file (optionally MPEG-TS wrapped) and writes each decoded
  frame out as a PNG.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package jxsdec is a bare bones program for decoding a JPEG XS
// codestream file to a sequence of PNG images.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/jpegxs/codec/jpegxs"
	"github.com/ausocean/jpegxs/codec/jpegxs/config"
	"github.com/ausocean/jpegxs/container/jxsmts"
	"github.com/ausocean/utils/logging"
)

// Logging related constants, in the style of cmd/looper's own fixed
// rotation policy.
const (
	logPath      = "/var/log/jxsdec/jxsdec.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
)

func main() {
	inPath := flag.String("in", "", "Path to a JPEG XS codestream or MPEG-TS file.")
	outDir := flag.String("out", ".", "Directory to write decoded PNG frames to.")
	mts := flag.Bool("mts", false, "Treat the input file as MPEG-TS wrapped rather than a raw codestream.")
	threads := flag.Uint("threads", 4, "Decoder thread budget.")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "jxsdec: -in is required")
		os.Exit(2)
	}

	log := newZapLogger()

	buf, err := os.ReadFile(*inPath)
	if err != nil {
		log.Log(logging.Error, "could not read input file", "error", err)
		os.Exit(1)
	}

	var frameBufs [][]byte
	if *mts {
		frameBufs, err = jxsmts.Frames(buf)
		if err != nil {
			log.Log(logging.Error, "could not demux MPEG-TS", "error", err)
			os.Exit(1)
		}
	} else {
		frameBufs = [][]byte{buf}
	}
	if len(frameBufs) == 0 {
		log.Log(logging.Error, "no frames found in input")
		os.Exit(1)
	}

	cfg := config.Config{Threads: *threads, Logger: log}
	d, imgCfg, errKind := jpegxs.Init(jpegxs.APIMajor, jpegxs.APIMinor, cfg, frameBufs[0])
	if errKind != jpegxs.None {
		log.Log(logging.Error, "init failed", "error", errKind)
		os.Exit(1)
	}
	log.Log(logging.Info, "decoder initialised", "width", imgCfg.Width, "height", imgCfg.Height)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Log(logging.Error, "could not create output directory", "error", err)
		os.Exit(1)
	}

	go func() {
		for _, fb := range frameBufs {
			if k := d.SendFrame(fb, true); k != jpegxs.None {
				log.Log(logging.Error, "send_frame failed", "error", k)
			}
		}
		d.SendEOC()
	}()

	for i := 0; ; i++ {
		f, errKind := d.GetFrame(true)
		if errKind == jpegxs.EndOfCodestream {
			break
		}
		if errKind != jpegxs.None {
			log.Log(logging.Error, "get_frame failed", "error", errKind)
			break
		}
		if err := writePNG(*outDir, i, f); err != nil {
			log.Log(logging.Error, "could not write frame", "error", err, "frame", i)
		}
	}

	d.Close()
}

func writePNG(dir string, idx int, f *jpegxs.Frame) error {
	img, err := jpegxs.ToImage(f)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.png", idx))
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, img)
}

// zapLogger adapts a zap.SugaredLogger, writing to both stderr and a
// rotated log file via lumberjack, to the logging.Logger interface
// (SetLevel, Log) that config.Config.Logger expects.
type zapLogger struct {
	sugar *zap.SugaredLogger
	level int8
}

func newZapLogger() *zapLogger {
	fileSink := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}

	enc := zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig())
	ws := zapcore.AddSync(io.MultiWriter(os.Stderr, fileSink))
	core := zapcore.NewCore(enc, ws, zapcore.DebugLevel)
	logger := zap.New(core)
	return &zapLogger{sugar: logger.Sugar(), level: logging.Info}
}

func (l *zapLogger) SetLevel(level int8) { l.level = level }

func (l *zapLogger) Log(level int8, message string, params ...interface{}) {
	if level < l.level {
		return
	}
	switch {
	case level >= logging.Fatal:
		l.sugar.Fatalw(message, params...)
	case level >= logging.Error:
		l.sugar.Errorw(message, params...)
	case level >= logging.Warning:
		l.sugar.Warnw(message, params...)
	case level >= logging.Info:
		l.sugar.Infow(message, params...)
	default:
		l.sugar.Debugw(message, params...)
	}
}
