// Command pgv2 is a small exerciser for the driver core: connect, run one
// SQL statement, print the result, and disconnect. It exists to give the
// core a runnable entry point, the way riftdata-rift's cmd/rift wraps its
// engine in a cobra CLI — this is deliberately thinner, since the core's
// real contract is the Go API in the root package, not this binary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corwinharper/pgv2"
)

var (
	dsn          string
	addr         string
	logLevel     string
	defaultsFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pgv2",
	Short: "Minimal PostgreSQL v2 wire-protocol client",
}

var execCmd = &cobra.Command{
	Use:   "exec <sql>",
	Short: "Connect, run one statement, print its result, disconnect",
	Args:  cobra.ExactArgs(1),
	RunE:  runExec,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "connection string (user=... password=... dbname=...)")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "localhost:5432", "host:port to dial")
	rootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "warn", "debug|warn")
	rootCmd.PersistentFlags().StringVar(&defaultsFile, "defaults-file", "", "YAML file of driver-wide defaults (compatible/loglevel/charset); DSN values still win")
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	cfg, err := pgv2.LoadConfig(dsn, defaultsFile)
	if err != nil {
		return err
	}

	// --loglevel is an explicit override; otherwise the DSN/defaults-file
	// loglevel (already merged into cfg by LoadConfig) picks the level.
	level := logLevel
	if !cmd.Flags().Changed("loglevel") {
		level = pgv2.LogLevelName(cfg.LogLevel)
	}
	log := pgv2.NewLogger(level)
	metrics := pgv2.NewMetrics()

	conn, err := pgv2.Open(addr, cfg, metrics, log)
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	res, err := conn.Execute(args[0])
	if err != nil {
		return fmt.Errorf("executing %q: %w", args[0], err)
	}

	fmt.Printf("status: %s\n", res.Status)
	switch res.Kind {
	case pgv2.ResultRows:
		for _, f := range res.Fields {
			fmt.Printf("%-20s oid=%d\n", f.Name, f.Oid)
		}
		for _, t := range res.Tuples {
			for i, v := range t.Values {
				if v == nil {
					fmt.Printf("  [%d] NULL\n", i)
					continue
				}
				fmt.Printf("  [%d] %s\n", i, v)
			}
		}
	case pgv2.ResultUpdateCount:
		fmt.Printf("rows affected: %d\n", res.UpdateCount)
	}

	for _, w := range conn.GetWarnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
	}
	return nil
}
