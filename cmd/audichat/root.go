package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/classify"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/config"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/logger"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/model"
	"github.com/jackcactus-cell/SIO-sub001/internal/audichat/store"
)

var (
	cfgFile string
	Version = "v0.1"
	rootCmd = &cobra.Command{
		Use:   "audichat",
		Short: "audichat - French-language Q&A over database audit trails",
		Long: "audichat answers free-text French questions about a database audit trail:\n" +
			"filtering, grouping, temporal trends, security anomalies and investigation scenarios.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				viper.SetConfigFile(cfgFile)
			} else {
				viper.SetConfigFile("config.yaml")
			}
			if err := viper.ReadInConfig(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not read config (%v). Using defaults and flags.\n", err)
			}
			if err := config.Load(viper.GetViper()); err != nil {
				return err
			}
			if err := logger.InitLogger(config.Get().Logging.Level); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},
	}
)

func init() {
	cobra.OnInitialize()
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadDataset materializes the configured dataset source.
func loadDataset(ctx context.Context) (model.Dataset, error) {
	cfg := config.Get()
	switch cfg.Data.Source {
	case "sql":
		return store.LoadSQL(ctx, cfg.Data.Driver, cfg.Data.DSN, cfg.Data.Table)
	case "", "ndjson":
		if cfg.Data.Path == "" {
			return nil, fmt.Errorf("data.path is required for the ndjson source")
		}
		return store.LoadNDJSON(cfg.Data.Path)
	default:
		return nil, fmt.Errorf("unknown data source %q (want ndjson or sql)", cfg.Data.Source)
	}
}

// buildVocabulary merges the optional dictionary file into the
// built-in classifier vocabularies.
func buildVocabulary() (classify.Vocabulary, error) {
	vocab := classify.DefaultVocabulary()
	file := config.Get().Dictionary.File
	if file == "" {
		return vocab, nil
	}
	dict, err := classify.LoadDictionary(file)
	if err != nil {
		return vocab, fmt.Errorf("loading dictionary %s: %w", file, err)
	}
	vocab.MergeDictionary(dict)
	return vocab, nil
}
