package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/salehmohamadkhani/cafe/internal/infrastructure/config"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/logger"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/migration"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "internal/infrastructure/migration/sql"

func main() {
	var (
		migrationsPath string
		tenantList     string
		logLevel       string
	)

	flag.StringVar(&migrationsPath, "path", defaultMigrationsPath, "Root of the per-dialect migration directories (create and list only)")
	flag.StringVar(&tenantList, "tenants", "", "Comma separated tenant codes (default: tenancy.allowed, then tenancy.default_tenant)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	// create and list work on files only
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = strings.Join(args[2:], " ")
		}
		files, err := migration.CreateMigration(migrationsPath, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		for _, mf := range files {
			log.Info("Migration created",
				zap.String("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
		}
		return

	case "list":
		dir := filepath.Join(migrationsPath, migration.DialectPostgres)
		migrations, err := migration.ListMigrations(dir)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		if len(migrations) == 0 {
			log.Info("No migrations found", zap.String("path", dir))
			return
		}
		log.Info("Available migrations", zap.Int("count", len(migrations)))
		for _, m := range migrations {
			fmt.Println("  -", m)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	tenants := resolveTenants(tenantList, cfg.Tenancy)
	if len(tenants) == 0 {
		log.Fatal("No tenants to migrate. Pass -tenants or configure tenancy.allowed")
	}

	failed := 0
	for _, code := range tenants {
		tlog := log.With(zap.String("tenant", code))
		if !config.ValidTenantCode(code) {
			tlog.Error("Invalid tenant code")
			failed++
			continue
		}
		if err := run(command, args[1:], &cfg.Database, code, tlog); err != nil {
			tlog.Error("Migration command failed", zap.String("command", command), zap.Error(err))
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func run(command string, args []string, dbCfg *config.DatabaseConfig, tenant string, log *zap.Logger) error {
	m, err := migration.Open(dbCfg, tenant, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = m.Close()
	}()

	switch command {
	case "up":
		return m.Up()

	case "down":
		return m.Down()

	case "step":
		if len(args) < 1 {
			return fmt.Errorf("step count required. Usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return m.Steps(n)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil

	case "force":
		if len(args) < 1 {
			return fmt.Errorf("version required. Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version number %q", args[0])
		}
		log.Warn("Forcing migration version", zap.Int("version", version))
		return m.Force(version)

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func resolveTenants(flagValue string, tenancy config.TenancyConfig) []string {
	var tenants []string
	if flagValue != "" {
		for _, code := range strings.Split(flagValue, ",") {
			if code = strings.TrimSpace(code); code != "" {
				tenants = append(tenants, code)
			}
		}
		return tenants
	}
	if len(tenancy.Allowed) > 0 {
		return tenancy.Allowed
	}
	if tenancy.DefaultTenant != "" {
		return []string{tenancy.DefaultTenant}
	}
	return nil
}

func printUsage() {
	fmt.Println(`Cafe inventory migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations to each tenant
  down                  Roll back all migrations of each tenant
  step <n>              Apply n migrations (positive=up, negative=down)
  version               Show the migration version of each tenant
  force <version>       Force set migration version (use with caution)
  create <name> [desc]  Create a postgres and sqlite3 migration pair
  list                  List available migrations

Flags:
  -path string          Migration root for create and list (default: internal/infrastructure/migration/sql)
  -tenants string       Comma separated tenant codes
  -log-level string     Log level: debug, info, warn, error (default: info)

Database settings come from CAFE_DATABASE_* variables or config.toml.

Examples:
  migrate -tenants downtown,uptown up
  migrate -tenants downtown step -1
  migrate create add_supplier_table "Track suppliers of raw materials"`)
}
