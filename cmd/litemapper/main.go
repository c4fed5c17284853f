package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/saltyorg/litemapper/internal/config"
	"github.com/saltyorg/litemapper/internal/database"
	"github.com/saltyorg/litemapper/internal/logging"
	"github.com/saltyorg/litemapper/internal/settings"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultDBPath = "./litemapper.db"

// CLI flags
var (
	dbPath      string
	verbosity   int
	logToFile   bool
	busyTimeout time.Duration
	journalMode string
)

// app holds the connection shared by the subcommands of one invocation.
type app struct {
	db    *database.DB
	store *settings.Store
}

func main() {
	a := &app{}
	if err := a.finish(newRootCmd(a).Execute()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "litemapper",
		Short: "litemapper - inspect and maintain model databases",
		Long:  `litemapper maps model types to SQLite tables. This tool inspects and maintains the databases it writes.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&dbPath, "db", "d", defaultDBPath, "SQLite database path (or set LITEMAPPER_DB env var)")
	flags.CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	flags.BoolVar(&logToFile, "log-to-file", false, "Also write a rotating log file next to the database")
	flags.DurationVar(&busyTimeout, "busy-timeout", 5*time.Second, "How long to wait on a locked database file")
	flags.StringVar(&journalMode, "journal-mode", "WAL", "SQLite journal mode (empty keeps the engine default)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			// no database needed
			PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("litemapper %s (commit: %s, built: %s)\n", version, commit, date)
			},
		},
		a.tablesCmd(),
		a.dumpCmd(),
		a.infoCmd(),
		a.maintenanceCmd("optimize", "Refresh query planner statistics", (*database.DB).Optimize),
		a.maintenanceCmd("vacuum", "Rebuild the database file to reclaim space", (*database.DB).Vacuum),
		a.settingsCmd(),
		a.demoCmd(),
	)

	return rootCmd
}

func (a *app) open() error {
	// Check for LITEMAPPER_DB env var if using default
	if dbPath == defaultDBPath {
		if envDB := os.Getenv("LITEMAPPER_DB"); envDB != "" {
			dbPath = envDB
		}
	}

	cfg := config.DefaultConnectionConfig()
	cfg.BusyTimeout = busyTimeout
	cfg.JournalMode = journalMode

	a.db = database.New(dbPath, cfg)
	a.store = settings.NewStore(a.db)

	logPath := ""
	if logToFile {
		logPath = logging.FilePathForDB(dbPath)
	}
	logging.Apply(logging.LevelForVerbosity(verbosity), config.NewLoader(a.store), logPath)

	log.Debug().Str("database", dbPath).Str("version", version).Msg("Starting litemapper")
	return nil
}

// finish commits the work of a successful command and closes the
// connection. After a failed command pending writes are discarded.
func (a *app) finish(runErr error) error {
	if a.db == nil {
		return runErr
	}
	if runErr == nil {
		runErr = a.db.Commit()
	}
	if err := a.db.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close database")
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}
