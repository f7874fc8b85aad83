// Package main provides the roundtrip CLI: file-based export and
// import against the configured database, using the same adapters as
// the server.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/JonMunkholm/RoundTrip/internal/adapters" // Register all adapters
	"github.com/JonMunkholm/RoundTrip/internal/config"
	"github.com/JonMunkholm/RoundTrip/internal/core"
	"github.com/JonMunkholm/RoundTrip/internal/export"
	"github.com/JonMunkholm/RoundTrip/internal/importer"
	"github.com/JonMunkholm/RoundTrip/internal/logging"
	"github.com/JonMunkholm/RoundTrip/internal/store"
)

var (
	adapterName string
	format      string
	outputPath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "Export and import editable spreadsheets against the database",
		Long: `roundtrip exports table rows to editable CSV/Excel files and applies
edited files back to the database through the staging engine.`,
		SilenceUsage: true,
	}

	adaptersCmd := &cobra.Command{
		Use:   "adapters",
		Short: "List registered adapters",
		RunE:  runAdapters,
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export a table to a spreadsheet file",
		RunE:  runExport,
	}
	exportCmd.Flags().StringVarP(&adapterName, "adapter", "a", "", "Adapter name (required)")
	exportCmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv or xlsx")
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: <adapter>.<format>)")
	exportCmd.MarkFlagRequired("adapter")

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import an edited spreadsheet file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	importCmd.Flags().StringVarP(&adapterName, "adapter", "a", "", "Adapter name (required)")
	importCmd.MarkFlagRequired("adapter")

	rootCmd.AddCommand(adaptersCmd, exportCmd, importCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAdapters(cmd *cobra.Command, args []string) error {
	for _, def := range core.All() {
		fmt.Printf("%-20s entity=%-12s headers=%s\n",
			def.Name, def.Entity, strings.Join(def.AllDisplayHeaders(), ", "))
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	def, ok := core.Get(adapterName)
	if !ok {
		return fmt.Errorf("unknown adapter %q", adapterName)
	}
	if format != "csv" && format != "xlsx" {
		return fmt.Errorf("invalid format %q (must be csv or xlsx)", format)
	}

	ctx := context.Background()
	pool, stores, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	st, ok := stores.StoreFor(def.Entity)
	if !ok {
		return fmt.Errorf("no store bound for adapter %q", adapterName)
	}
	rows, err := st.(core.Lister).List(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	path := outputPath
	if path == "" {
		path = def.Name + "." + format
	}

	exp := export.New(def)
	if format == "xlsx" {
		data, err := exp.WriteExcel(rows)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		if err := exp.WriteCSV(f, rows); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
	}

	fmt.Printf("exported %d rows to %s\n", len(rows), path)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	def, ok := core.Get(adapterName)
	if !ok {
		return fmt.Errorf("unknown adapter %q", adapterName)
	}

	inputPath := args[0]
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}

	ctx := context.Background()
	pool, stores, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	im := importer.New(def, stores)

	var count int
	switch strings.ToLower(filepath.Ext(inputPath)) {
	case ".xlsx", ".xlsm":
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		count, err = im.ImportExcel(ctx, data)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
	default:
		f, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		count, err = im.ImportCSV(ctx, f)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
	}

	fmt.Printf("import committed, %d rows modified\n", count)
	return nil
}

// connect loads configuration and opens the connection pool, binding a
// Postgres store for every registered adapter.
func connect(ctx context.Context) (*pgxpool.Pool, *store.Set, error) {
	godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	stores := store.NewSet()
	for _, def := range core.All() {
		stores.Bind(def.Entity, store.NewPostgres(pool, def.Name, def.AllColumnKeys()))
	}
	return pool, stores, nil
}
