package logging

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogOpts struct {
	Verbose  bool
	Encoding string
}

func (opts LogOpts) Encoder() zapcore.Encoder {
	switch opts.Encoding {
	case "json":
		if opts.Verbose {
			return zapcore.NewJSONEncoder(zap.NewDevelopmentEncoderConfig())
		}
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "console", "":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = TimeOffsetFormatter(time.Now())
		return zapcore.NewConsoleEncoder(cfg)
	default:
		panic(fmt.Errorf("unknown encoding %q", opts.Encoding))
	}
}

func (opts LogOpts) NewCore(w zapcore.WriteSyncer) zapcore.Core {
	leveller := zap.NewAtomicLevel()
	if opts.Verbose {
		leveller.SetLevel(zap.DebugLevel)
	} else {
		leveller.SetLevel(zap.InfoLevel)
	}
	return zapcore.NewCore(opts.Encoder(), w, leveller)
}

func (opts LogOpts) NewLogger() *zap.Logger {
	return zap.New(opts.NewCore(os.Stderr))
}

// TimeOffsetFormatter returns a time encoder that formats the time as an offset
// from the start time. This is mostly useful for CLI logging not long-standing
// services as times beyond a few minutes will be less readable.
func TimeOffsetFormatter(start time.Time) zapcore.TimeEncoder {
	return func(t time.Time, e zapcore.PrimitiveArrayEncoder) {
		diff := t.Sub(start)
		if diff < time.Second {
			e.AppendString(fmt.Sprintf("%3dms", diff.Milliseconds()))
		} else if diff < 5*time.Minute {
			e.AppendString(fmt.Sprintf("%5.1fs", diff.Seconds()))
		} else {
			e.AppendString(fmt.Sprintf("%5.1fm", diff.Minutes()))
		}
	}
}
