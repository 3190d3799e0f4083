// Package logger is a small leveled wrapper around the standard log package.
package logger

import (
	"io"
	"log"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(INFO))
}

// ParseLevel maps a level name onto a Level; unknown names are INFO
func ParseLevel(level string) Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Init sets the minimum level that is written
func Init(level string) {
	currentLevel.Store(int32(ParseLevel(level)))
}

// Enabled reports whether messages at l are written
func Enabled(l Level) bool {
	return Level(currentLevel.Load()) <= l
}

func Debug(format string, v ...interface{}) {
	if Enabled(DEBUG) {
		log.Printf("[DEBUG] "+format, v...)
	}
}

func Info(format string, v ...interface{}) {
	if Enabled(INFO) {
		log.Printf("[INFO] "+format, v...)
	}
}

func Warn(format string, v ...interface{}) {
	if Enabled(WARN) {
		log.Printf("[WARN] "+format, v...)
	}
}

func Error(format string, v ...interface{}) {
	if Enabled(ERROR) {
		log.Printf("[ERROR] "+format, v...)
	}
}

// Fatalf logs and exits the process
func Fatalf(format string, v ...interface{}) {
	log.Fatalf("[FATAL] "+format, v...)
}

// SetOutput redirects log output
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}
