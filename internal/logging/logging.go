package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the rotating log file inside the log directory.
const FileName = "lotto-mcp.log"

// Options controls logger construction.
type Options struct {
	Verbose bool
	// Dir overrides LOGS_FOLDER and the executable-relative default.
	Dir string
	// Console receives human-readable output. Defaults to os.Stderr; stdout
	// belongs to the MCP transport.
	Console *os.File
}

// Init installs the global logger with a console sink and a rotating file
// sink. It returns the file sink so callers can close it on exit.
func Init(opts Options) (io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

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

	logDir := opts.Dir
	if logDir == "" {
		logDir = ResolveDir()
	}
	if err := ensureWritable(logDir); err != nil {
		return nil, err
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, FileName),
		MaxSize:    16, // megabytes
		MaxBackups: 8,
		MaxAge:     90, // days
		Compress:   true,
	}

	multi := zerolog.MultiLevelWriter(consoleWriter, fileWriter)
	log.Logger = zerolog.New(multi).
		With().
		Timestamp().
		Str("service", "lotto-mcp").
		Logger()

	return fileWriter, nil
}

// ResolveDir picks the log directory before configuration is loaded:
// LOGS_FOLDER (optionally from the binary's .env), else <exe dir>/logs.
func ResolveDir() string {
	exePath, err := os.Executable()
	if err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
	}
	if dir := os.Getenv("LOGS_FOLDER"); dir != "" {
		return dir
	}
	if err != nil {
		return "logs"
	}
	return filepath.Join(filepath.Dir(exePath), "logs")
}

func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create log directory %q: %w", dir, err)
	}
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		return fmt.Errorf("log directory %q is not writable: %w", dir, err)
	}
	_ = os.Remove(probe)
	return nil
}
