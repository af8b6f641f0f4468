package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"telc-go/internal/app"
	"telc-go/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to the built-in defaults when
// it does not exist, and applies environment overrides.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.NewConfig(defaults["base_dir"]), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// newApp reads the config and creates a TelcApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Serve", "ImportExams").
func newApp(operation string) (*app.TelcApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewTelcApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "telcd",
	Short: "TELC B2 exam backend",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Serve")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.Serve(ctx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the database to the latest schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		statusOnly, _ := cmd.Flags().GetBool("status")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if statusOnly {
			st, err := app.MigrationStatus(cfg.Database)
			if err != nil {
				return err
			}
			fmt.Printf("Database: %s\n", st)
			return nil
		}

		st, err := app.Migrate(cfg.Database)
		if err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		fmt.Printf("Database migrated: %s\n", st)
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Println("Run 'telcd migrate' to create the database.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		providers := make([]string, len(cfg.Providers))
		for i, p := range cfg.Providers {
			providers[i] = p.Type
		}

		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Listen:     %s%s\n", cfg.Server.Addr, cfg.Server.BasePath)
		fmt.Printf("Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Providers:  %s\n", strings.Join(providers, ", "))
		fmt.Printf("Admin auth: %t\n", cfg.Server.AdminToken != "")
		if cfg.RateLimit.Disabled {
			fmt.Println("Rate limit: disabled")
		} else {
			fmt.Printf("Rate limit: %d per %ds\n", cfg.RateLimit.Requests, cfg.RateLimit.WindowSeconds)
		}
		return nil
	},
}

// exam command
var examCmd = &cobra.Command{
	Use:   "exam",
	Short: "Manage exams",
}

var examImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import exams from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ImportExams")
		if err != nil {
			return err
		}
		defer a.Close()

		exams, err := a.ImportExams(cmd.Context(), args[0])
		for _, e := range exams {
			fmt.Printf("#%d  %s\n", e.ID, e.Title)
		}
		return err
	},
}

var examListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exams",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListExams")
		if err != nil {
			return err
		}
		defer a.Close()

		exams, err := a.ListExams(cmd.Context())
		if err != nil {
			return err
		}

		if len(exams) == 0 {
			fmt.Println("No exams stored.")
			return nil
		}

		for _, e := range exams {
			fmt.Printf("#%d  %s  %s\n", e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"), e.Title)
		}
		return nil
	},
}

var examTranslateCmd = &cobra.Command{
	Use:   "translate ID",
	Short: "Translate an exam and print the translated document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid exam id %q", args[0])
		}
		source, _ := cmd.Flags().GetString("source")
		target, _ := cmd.Flags().GetString("target")

		a, err := newApp("TranslateExam")
		if err != nil {
			return err
		}
		defer a.Close()

		tr, err := a.TranslateExam(cmd.Context(), id, source, target)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tr.Payload)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Score a translation with the quality rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		original, _ := cmd.Flags().GetString("original")
		translated, _ := cmd.Flags().GetString("translated")
		source, _ := cmd.Flags().GetString("source")
		target, _ := cmd.Flags().GetString("target")
		if original == "" || translated == "" {
			return errors.New("--original and --translated are required")
		}

		a, err := newApp("Validate")
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.Validate(original, translated, source, target)
		fmt.Printf("Valid: %t\n", res.Valid)
		fmt.Printf("Score: %d\n", res.Score)
		for _, issue := range res.Issues {
			fmt.Printf("  - %s\n", issue)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// exam subcommands
	examCmd.AddCommand(examImportCmd)
	examCmd.AddCommand(examListCmd)
	examCmd.AddCommand(examTranslateCmd)
	examTranslateCmd.Flags().String("source", "DE", "Source language")
	examTranslateCmd.Flags().StringP("target", "t", "EN", "Target language")

	// root commands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("status", false, "Only print the schema version")
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(examCmd)
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("original", "", "Original text")
	validateCmd.Flags().String("translated", "", "Translated text")
	validateCmd.Flags().String("source", "DE", "Source language")
	validateCmd.Flags().String("target", "FA", "Target language")
}
