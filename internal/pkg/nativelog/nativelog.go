package nativelog

import (
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// FileName is the active log file inside the log directory.
	FileName          = "campus.log"
	defaultLogDirPerm = 0o755
)

// Options configures the rotating file sink.
type Options struct {
	Dir          string
	RotateSizeMB int
	RotateKeep   int
	Debug        bool
}

// NewRotatingWriter returns a size-rotated file writer in opts.Dir.
func NewRotatingWriter(opts Options) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(opts.Dir, defaultLogDirPerm); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, FileName),
		MaxSize:    opts.RotateSizeMB,
		MaxBackups: opts.RotateKeep,
		Compress:   true,
	}, nil
}

// NewZapLogger tees a console encoder to stdout and to the rotating file.
// The returned close func flushes and closes the file.
func NewZapLogger(opts Options) (*zap.Logger, func(), error) {
	writer, err := NewRotatingWriter(opts)
	if err != nil {
		return nil, nil, err
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if opts.Debug {
		level.SetLevel(zap.DebugLevel)
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")

	encoder := zapcore.NewConsoleEncoder(encoderConfig)
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(encoder, zapcore.AddSync(writer), level),
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	restore := zap.RedirectStdLog(logger)
	closeFn := func() {
		_ = logger.Sync()
		restore()
		_ = writer.Close()
	}
	return logger, closeFn, nil
}
