// utils/logger.go
package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

// Global verbose flag
var Verbose = true

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000000",
	})
	l.SetLevel(logrus.DebugLevel)
	return l
}

// InitLogger configures verbosity and optionally discards all output (tests).
func InitLogger(verbose bool, silent bool) {
	SetVerbose(verbose)
	if silent {
		logger.SetOutput(io.Discard)
	} else {
		logger.SetOutput(os.Stdout)
	}
}

// GetLogger returns the underlying logrus logger.
func GetLogger() *logrus.Logger {
	return logger
}

// SetLogger replaces the underlying logger.
func SetLogger(l *logrus.Logger) {
	if l != nil {
		logger = l
	}
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// LogDebug logs a debug message if verbose mode is enabled
func LogDebug(format string, args ...interface{}) {
	if Verbose {
		logger.Debugf(format, args...)
	}
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// LogEvent logs a structured event with fields.
func LogEvent(event string, fields map[string]interface{}) {
	logger.WithFields(logrus.Fields(fields)).Info(event)
}

// SetVerbose sets the verbose logging mode
func SetVerbose(v bool) {
	Verbose = v
	if v {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
}

// GetVerbose returns the current verbose logging mode
func GetVerbose() bool {
	return Verbose
}

// PrintStartupMessage prints a formatted startup message
func PrintStartupMessage(address string, port int) {
	fmt.Println("---------------------------------------------------")
	fmt.Printf("| Stake Ledger Node Started                       |\n")
	fmt.Printf("| Forger: %-39.39s |\n", address)
	fmt.Printf("| Port: %-41d |\n", port)
	fmt.Printf("| Mode: %-41s |\n", fmt.Sprintf("HTTP Server (:%d)", port))
	fmt.Println("---------------------------------------------------")
}
