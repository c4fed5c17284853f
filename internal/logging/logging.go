package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/saltyorg/litemapper/internal/config"
)

const (
	DefaultLogFileName = "litemapper.log"
	DefaultMaxSizeMB   = 50
	DefaultMaxBackups  = 5
	DefaultMaxAgeDays  = 30
	DefaultCompress    = true

	timeFormat = "2006-01-02 15:04:05"
)

// Apply sets the global log level and output writers (console + rotating file).
// The persisted "log.level" setting is used when level is empty. An empty
// logFilePath keeps logging on the console only.
func Apply(level string, loader *config.Loader, logFilePath string) {
	if level == "" {
		level = loader.String("log.level", "info")
	}
	ApplyLevel(level)
	applyOutputs(os.Stderr, loader, logFilePath)
}

// ApplyLevel sets the global level; unknown names fall back to info.
func ApplyLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// LevelForVerbosity maps a -v count to a level name.
func LevelForVerbosity(verbosity int) string {
	switch verbosity {
	case 0:
		return ""
	case 1:
		return "debug"
	default:
		return "trace"
	}
}

func applyOutputs(console io.Writer, loader *config.Loader, logFilePath string) {
	consoleOutput := zerolog.ConsoleWriter{Out: console, TimeFormat: timeFormat}
	log.Logger = zerolog.New(consoleOutput).With().Timestamp().Logger()

	if logFilePath == "" {
		return
	}

	if err := ensureLogDir(logFilePath); err != nil {
		log.Error().Err(err).Str("path", logFilePath).Msg("Failed to prepare log directory; logging to console only")
		return
	}

	fileWriter := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    positive(loader.Int("log.max_size_mb", DefaultMaxSizeMB), DefaultMaxSizeMB),
		MaxBackups: nonNegative(loader.Int("log.max_backups", DefaultMaxBackups), DefaultMaxBackups),
		MaxAge:     nonNegative(loader.Int("log.max_age_days", DefaultMaxAgeDays), DefaultMaxAgeDays),
		Compress:   loader.Bool("log.compress", DefaultCompress),
	}

	fileConsole := zerolog.ConsoleWriter{
		Out:        fileWriter,
		TimeFormat: timeFormat,
		NoColor:    true,
	}

	multi := zerolog.MultiLevelWriter(consoleOutput, fileConsole)
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()
}

// FilePathForDB returns a log file path that lives alongside the database file.
func FilePathForDB(dbPath string) string {
	if dbPath == "" {
		return DefaultLogFileName
	}
	absDBPath, err := filepath.Abs(dbPath)
	if err != nil {
		return filepath.Join(filepath.Dir(dbPath), DefaultLogFileName)
	}
	return filepath.Join(filepath.Dir(absDBPath), DefaultLogFileName)
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func positive(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func nonNegative(v, fallback int) int {
	if v >= 0 {
		return v
	}
	return fallback
}
