// padosictl runs maintenance tasks against the Padosi Politics store.
//
// Usage:
//
//	padosictl migrate
//	padosictl jobs list
//	padosictl jobs run <job>... | --all
//	padosictl karma monthly-bonus [--month=YYYY-MM]
//	padosictl karma verify [--society=<uuid>]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/23f2003700/padosi-politics/internal/bootstrap"
	"github.com/23f2003700/padosi-politics/internal/cache"
	"github.com/23f2003700/padosi-politics/internal/config"
	"github.com/23f2003700/padosi-politics/internal/database"
	"github.com/23f2003700/padosi-politics/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

// env is opened once per invocation by rootCmd's PersistentPreRunE.
var env struct {
	cfg   *config.Config
	db    *gorm.DB
	redis *cache.Redis
	svc   *bootstrap.Services
}

var rootCmd = &cobra.Command{
	Use:          "padosictl",
	Short:        "Maintenance CLI for the Padosi Politics backend",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logging.Setup()
		env.cfg = config.Load()
		db, err := database.Open(env.cfg)
		if err != nil {
			return err
		}
		env.db = db
		env.redis = bootstrap.ConnectRedis(cmd.Context(), env.cfg)
		env.svc = bootstrap.NewServices(db, env.redis, env.cfg)
		return nil
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		_ = env.redis.Close()
		if env.db == nil {
			return nil
		}
		return database.Close(env.db)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(karmaCmd)
	rootCmd.Version = version
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
