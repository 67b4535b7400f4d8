package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"

	defaultLogFile    = "notary.log"
	defaultMaxSizeMB  = 100
	defaultMaxAgeDays = 7
)

var levels = [...]struct {
	name  string
	color string
}{
	LevelDebug: {"DEBUG", colorBlue},
	LevelInfo:  {"INFO", colorGreen},
	LevelWarn:  {"WARN", colorYellow},
	LevelError: {"ERROR", colorRed},
}

var (
	rotating = &lumberjack.Logger{
		Filename: "./logs/" + envString("LOGFILE", defaultLogFile),
		MaxSize:  envInt("LOGFILE_MAX_SIZE_MB", defaultMaxSizeMB),
		MaxAge:   envInt("LOGFILE_MAX_AGE_DAYS", defaultMaxAgeDays),
	}

	logger   = log.New(output(), "", log.Ldate|log.Ltime|log.Lmicroseconds)
	minLevel = ParseLevel(os.Getenv("LOG_LEVEL"))
)

// output writes to the rotating file, and to stdout as well when LOG_STDOUT=1.
func output() io.Writer {
	if os.Getenv("LOG_STDOUT") == "1" {
		return io.MultiWriter(rotating, os.Stdout)
	}
	return rotating
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		panic("Invalid value for " + name + ": " + raw)
	}
	return v
}

// ParseLevel maps debug, info, warn and error to a Level. Anything else is
// LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLevel drops every message below l. Call it before logging starts.
func SetLevel(l Level) {
	minLevel = l
}

func emit(l Level, category string, content []interface{}) {
	if l < minLevel {
		return
	}
	lv := levels[l]
	logger.Printf("%s[%s][%s]%s: %s", lv.color, lv.name, category, colorReset, fmt.Sprint(content...))
}

func Debug(category string, content ...interface{}) { emit(LevelDebug, category, content) }
func Info(category string, content ...interface{})  { emit(LevelInfo, category, content) }
func Warn(category string, content ...interface{})  { emit(LevelWarn, category, content) }
func Error(category string, content ...interface{}) { emit(LevelError, category, content) }

// Errorf logs the formatted error under category and returns it.
func Errorf(category, format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	Error(category, err.Error())
	return err
}

// Close flushes and closes the rotating log file.
func Close() error {
	return rotating.Close()
}
