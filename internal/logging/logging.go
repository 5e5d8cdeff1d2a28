package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/labstack/gommon/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const header = `${time_rfc3339} ${level} ${short_file}:${line}`

func ParseLevel(level string) (log.Lvl, error) {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG, nil
	case "info", "":
		return log.INFO, nil
	case "warn":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	}
	return log.INFO, fmt.Errorf("%s: invalid log level", level)
}

// Setup configures the global gommon logger. Output always goes to
// stderr; if file is non-empty it is also written to a size-rotated log
// file. The returned closer flushes the file.
func Setup(level, file string) (io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)
	log.SetHeader(header)

	if file == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, err
	}
	w := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    32, // MB
		MaxBackups: 3,
		MaxAge:     14,
		Compress:   true,
	}
	if lvl == log.DEBUG {
		w.MaxSize = 256
	}
	log.SetOutput(io.MultiWriter(os.Stderr, w))

	log.Infof("Logging to %s (GOOS=%s GOARCH=%s NumCPU=%d)", file, runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	return w, nil
}
