/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/tomoncle/customerstore/bootstrap"
	"github.com/tomoncle/customerstore/customer"
	"github.com/tomoncle/customerstore/database"
	"github.com/tomoncle/customerstore/diagnostics"
	"github.com/tomoncle/customerstore/utils"
)

var log = utils.NewLogger("MAIN")

type options struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
	dbType     string
	dbHost     string
	dbPort     int
	dbName     string
	queryLog   bool
	serve      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "customerstore",
		Short:         "Customer record store backed by a relational database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(cmd, opts)
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.logLevel != "" {
				utils.ConfigureLogLevel(opts.logLevel)
			}
			if opts.logFormat != "" {
				utils.ConfigureConsoleLogFormat(opts.logFormat)
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", utils.EnvDefaultString("CUSTOMERSTORE_CONFIG", ""), "YAML configuration file")
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before DB_* overrides")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug|info|warn|error")
	pf.StringVar(&opts.logFormat, "log-format", "", "console log format: text|json")
	pf.StringVar(&opts.dbType, "db-type", "", "database type: sqlite|mysql|postgres|pgx")
	pf.StringVar(&opts.dbHost, "db-host", "", "database host")
	pf.IntVar(&opts.dbPort, "db-port", 0, "database port")
	pf.StringVar(&opts.dbName, "db-name", "", "database name, or sqlite file name without .db (:memory: for in-memory)")
	pf.BoolVar(&opts.queryLog, "query-log", false, "log every SQL query")

	const serveUsage = "serve diagnostics on this address after seeding, e.g. :8080"
	root.Flags().StringVar(&opts.serve, "serve", "", serveUsage)

	// run is the explicit spelling of the root command.
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Seed the sample customers and print the lookups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(cmd, opts)
		},
	}
	runCmd.Flags().StringVar(&opts.serve, "serve", "", serveUsage)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, opts)
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			out, err := cfg.Dump()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	root.AddCommand(runCmd, migrateCmd, configCmd)
	return root
}

// resolveConfig layers YAML, the dotenv file, DB_* variables and then flags.
func resolveConfig(cmd *cobra.Command, opts *options) (*database.Config, error) {
	envRequired := cmd.Flags().Changed("env-file")
	cfg, err := database.ResolveConfig(opts.configPath, opts.envFile, envRequired)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("db-type") {
		cfg.ConnectionConfig.Type = opts.dbType
	}
	if flags.Changed("db-host") {
		cfg.ConnectionConfig.Host = opts.dbHost
	}
	if flags.Changed("db-port") {
		cfg.ConnectionConfig.Port = opts.dbPort
	}
	if flags.Changed("db-name") {
		cfg.ConnectionConfig.DBName = opts.dbName
	}
	if flags.Changed("query-log") {
		cfg.ConnectionConfig.EnableQueryLog = opts.queryLog
	}
	return cfg, nil
}

func runBootstrap(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	if opts.serve != "" {
		cfg.ConnectionConfig.EnableMetrics = true
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	db, err := database.InitDatabaseWithOptions(ctx, cfg, cfg.DataMigrateConfig.EnableMigrateOnStartup, reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			log.WithError(err).Warn("failed to close database")
		}
	}()

	store := customer.NewStore(db)
	report, err := bootstrap.Run(ctx, store, utils.NewLogger("BOOTSTRAP"))
	if err != nil {
		return err
	}
	log.WithField("customers", len(report.All)).Info("bootstrap completed")

	// SQL fixtures go in after the sample customers so id 1 stays Jack Bauer.
	if cfg.DataInitConfig.AutoInitOnStartup {
		if err := database.InitData(ctx); err != nil {
			return err
		}
	}

	if opts.serve == "" {
		return nil
	}
	if err := database.RegisterPoolMetrics(reg, db.DB.Stats); err != nil {
		return err
	}
	return diagnostics.NewServer(opts.serve, store, database.GetHealthStatus, reg, log).Start(ctx)
}

func runMigrate(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	db, err := database.InitDatabaseWithOptions(ctx, cfg, true, nil)
	if err != nil {
		return err
	}
	defer database.CloseDB()

	applied, err := database.NewMigrationManager(db, nil).GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	for _, m := range applied {
		log.WithField("version", m.Version).WithField("applied_at", m.AppliedAt).Info(m.Name)
	}
	return nil
}
