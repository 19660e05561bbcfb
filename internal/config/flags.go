package config

import (
	"flag"
	"os"

	"github.com/skuznetsov/finvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string    path to the vault database file
//	-i int       PBKDF2 iteration count
//	-r int       snapshot retention in days
//	-t float     snapshot change threshold
//
// The args are filtered through flagx.FilterArgs so subcommand arguments
// do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-i", "-r", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the vault database file")
	fs.IntVar(&cfg.PBKDF2Iterations, "i", cfg.PBKDF2Iterations, "PBKDF2 iteration count")
	fs.IntVar(&cfg.RetentionDays, "r", cfg.RetentionDays, "snapshot retention (in days)")
	fs.Float64Var(&cfg.SnapshotThreshold, "t", cfg.SnapshotThreshold, "snapshot change threshold")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
