package runtime

import (
	"io"
	"log"
	"os"

	"github.com/argos-research/argos/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogWriter returns stderr, teed into a rotating file when cfg.LogFile is set.
func LogWriter(cfg config.TelemetryConfig) io.Writer {
	if cfg.LogFile == "" {
		return os.Stderr
	}
	return io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	})
}

// InstallLogOutput points the standard logger at LogWriter(cfg). Component
// loggers built afterwards with log.Writer() share the same destination.
func InstallLogOutput(cfg config.TelemetryConfig) {
	log.SetOutput(LogWriter(cfg))
}
