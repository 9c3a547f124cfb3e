package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dishbook/backend/config"
	"github.com/dishbook/backend/internal/logger"
)

var (
	catalogPath string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "matchctl",
	Short: "matchctl: reconcile recognized ingredients with a product catalog",
	Long: "Runs the ingredient matching engine and the semantic verifier offline.\n" +
		"Settings come from config.yaml and DISHBOOK_* variables like the server.",
	SilenceUsage:      true,
	PersistentPreRunE: initLogger,
}

func initLogger(cmd *cobra.Command, args []string) error {
	return logger.Initialize(logLevel, false)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Catalog JSON file (overrides catalog.file_path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level")

	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(verifyCmd)
}

// loadConfig reads the server configuration, pointing the memory catalog at
// --catalog when given.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFile(); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if catalogPath != "" {
		cfg.Catalog.Type = "memory"
		cfg.Catalog.FilePath = catalogPath
	}
	return cfg, nil
}

// readJSON decodes path, or stdin when path is "-" or empty
func readJSON(path string, in io.Reader, v interface{}) error {
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer f.Close()
		in = f
	}
	if err := json.NewDecoder(in).Decode(v); err != nil {
		return errors.Wrap(err, "decode input")
	}
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
