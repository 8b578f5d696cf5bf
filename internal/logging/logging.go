package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the rotating log file written under the log directory.
const FileName = "insurelytics.log"

// Options configures New.
type Options struct {
	Verbose bool
	// Dir defaults to "logs" next to the executable.
	Dir string
	// Console defaults to os.Stderr. Stdout is reserved for the MCP transport.
	Console *os.File
}

// Init initializes the global logger with dual sinks: os.Stderr and a rotating
// file under dir (config.AppConfig.LogDir).
func Init(verbose bool, dir string) {
	logger, _, err := New(Options{Verbose: verbose, Dir: dir})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Logger = logger
}

// New builds a logger writing to the console and to a rotating file. The
// returned closer releases the file sink.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	// 1. Determine log level
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	// 2. Console writer, coloured only on a terminal
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	isTerminal := isatty.IsTerminal(console.Fd()) || isatty.IsCygwinTerminal(console.Fd())
	consoleWriter := zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}

	// 3. Rotating file writer
	logDir, err := resolveDir(opts.Dir)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, FileName),
		MaxSize:    16, // megabytes
		MaxBackups: 32,
		MaxAge:     365, // days
		Compress:   true,
	}

	multi := zerolog.MultiLevelWriter(io.Writer(consoleWriter), fileWriter)
	return zerolog.New(multi).With().Timestamp().Logger(), fileWriter, nil
}

func resolveDir(dir string) (string, error) {
	if dir == "" {
		if exePath, err := os.Executable(); err == nil {
			dir = filepath.Join(filepath.Dir(exePath), "logs")
		} else {
			dir = "logs"
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}

	// MkdirAll succeeds on existing read-only directories
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return "", fmt.Errorf("log directory %q is not writable: %w", dir, err)
	}
	_ = os.Remove(testFile)

	return dir, nil
}
