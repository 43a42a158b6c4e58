// Command statimport maps a vendor stat export onto the canonical catalog.
//
// Usage:
//
//	statimport suggest export.csv
//	statimport run export.csv --source balltime --team team_001 --accept --coerce
//	statimport run export.csv --source hudl --team team_001 --external-id-column "Athlete ID"
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/estrellaangel/VolleyTech/internal/cache"
	"github.com/estrellaangel/VolleyTech/internal/config"
	"github.com/estrellaangel/VolleyTech/internal/csvimport"
	"github.com/estrellaangel/VolleyTech/internal/db"
	"github.com/estrellaangel/VolleyTech/internal/fixtures"
	"github.com/estrellaangel/VolleyTech/internal/identity"
	"github.com/estrellaangel/VolleyTech/internal/profiles"
	"github.com/estrellaangel/VolleyTech/internal/suggest"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	root := newRootCmd(os.Stdout)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "statimport",
		Short:         "Import volleyball stat exports",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "Path to the YAML config file")

	root.AddCommand(suggestCmd(out))
	root.AddCommand(runCmd(out, &configPath))
	return root
}

// --------------------------------------------------------------------------
// suggest command
// --------------------------------------------------------------------------

func suggestCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest FILE",
		Short: "Print catalog suggestions for every column header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readTable(args[0])
			if err != nil {
				return err
			}
			return writeJSON(out, struct {
				Encoding    string                     `json:"encoding"`
				Suggestions []suggest.ColumnSuggestion `json:"suggestions"`
			}{table.Encoding, suggest.SuggestHeaders(table.Headers)})
		},
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd(out io.Writer, configPath *string) *cobra.Command {
	var (
		source string
		opts   csvimport.Options
	)
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Map, coerce and resolve every row of an export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := identity.ParseSource(source)
			if err != nil {
				return err
			}
			opts.Source = parsed

			table, err := readTable(args[0])
			if err != nil {
				return err
			}

			return withImporter(*configPath, func(ctx context.Context, im *csvimport.Importer) error {
				result, err := im.Run(ctx, table, opts)
				if err != nil {
					return err
				}
				return writeJSON(out, result)
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Stat vendor (balltime, hudl)")
	cmd.Flags().StringVar(&opts.TeamID, "team", "", "Internal team id")
	cmd.Flags().StringVar(&opts.TeamLabel, "team-label", "", "Team label as the vendor prints it")
	cmd.Flags().StringVar(&opts.SeasonLabel, "season", "", "Season label, e.g. 2025-2026")
	cmd.Flags().StringVar(&opts.ExternalIDColumn, "external-id-column", "", "Column holding the vendor player id")
	cmd.Flags().BoolVar(&opts.AcceptSuggestions, "accept", false, "Save confident suggestions to the mapping profile")
	cmd.Flags().BoolVar(&opts.Coerce, "coerce", false, "Convert values to their catalog types")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}

func withImporter(configPath string, fn func(ctx context.Context, im *csvimport.Importer) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	var kv profiles.KV
	switch cfg.Profiles.Backend {
	case "redis":
		redisKV, err := cache.NewRedisKV(cfg.Redis.URL, cfg.Redis.Password)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisKV.Close()
		kv = redisKV
	case "memory":
		// Accepted suggestions last for this run only.
		kv = profiles.NewMemoryKV()
	default:
		kv = db.NewKV(database)
	}

	var roster csvimport.RosterSource
	if cfg.Fixtures.Path != "" {
		fx, err := fixtures.Load(cfg.Fixtures.Path)
		if err != nil {
			return err
		}
		roster = fx.Directory
	}

	resolver := identity.NewResolver(db.NewRefStore(database), nil)
	im := csvimport.NewImporter(profiles.NewStore(kv, nil), resolver, roster)
	return fn(ctx, im)
}

func readTable(path string) (*csvimport.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	table, err := csvimport.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, w := range table.Warnings {
		log.Warn().Int("row", w.Row).Msg(w.Message)
	}
	return table, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
