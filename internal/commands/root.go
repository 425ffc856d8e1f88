// internal/commands/root.go
package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"tgbench/internal/appconfig"
	"tgbench/internal/logging"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tgbench",
	Short: "tgbench — load-generation benchmark with a live latency dashboard for text-generation servers",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		for _, name := range []string{"debug"} {
			if !cmd.Flags().Changed(name) {
				val := viper.GetBool(name)
				_ = cmd.Flags().Set(name, strconv.FormatBool(val))
			}
		}
		for _, name := range []string{"endpoint", "export", "logFile"} {
			if !cmd.Flags().Changed(name) {
				_ = cmd.Flags().Set(name, viper.GetString(name))
			}
		}

		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		cfg.ConfigPath = cfgFile
		currentConfig = &cfg

		if err := logging.Init(currentConfig.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBenchmark(currentConfig)
	},
	SilenceUsage: true,
}

// buildConfig unmarshals the merged viper state into a Config.
func buildConfig() (appconfig.Config, error) {
	var cfg appconfig.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return appconfig.Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().String("endpoint", "http://localhost:3000", "text-generation server endpoint")
	rootCmd.PersistentFlags().IntSlice("batch-sizes", []int{1}, "batch sizes to benchmark, in order")
	rootCmd.PersistentFlags().Int("sequence-length", 10, "input sequence length in tokens")
	rootCmd.PersistentFlags().Int("decode-length", 8, "output tokens requested per sequence")
	rootCmd.PersistentFlags().Int("runs", 10, "measured runs per batch size")
	rootCmd.PersistentFlags().Int("warmups", 1, "discarded warmup runs per batch size")
	rootCmd.PersistentFlags().Int("concurrency", 1, "maximum runs in flight within a batch-size group")
	rootCmd.PersistentFlags().Int("timeout", 0, "seconds before a single request times out (0 = default)")
	rootCmd.PersistentFlags().String("export", "", "write final statistics to this JSON file")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug output")

	_ = viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	_ = viper.BindPFlag("batchSizes", rootCmd.PersistentFlags().Lookup("batch-sizes"))
	_ = viper.BindPFlag("sequenceLength", rootCmd.PersistentFlags().Lookup("sequence-length"))
	_ = viper.BindPFlag("decodeLength", rootCmd.PersistentFlags().Lookup("decode-length"))
	_ = viper.BindPFlag("runs", rootCmd.PersistentFlags().Lookup("runs"))
	_ = viper.BindPFlag("warmups", rootCmd.PersistentFlags().Lookup("warmups"))
	_ = viper.BindPFlag("concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("export", rootCmd.PersistentFlags().Lookup("export"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// initConfig reads in the config file if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded validates and reads the config file into viper.
func ensureConfigLoaded() error {
	if cfgFile == "" {
		return nil
	}
	if err := appconfig.ValidateConfigFile(cfgFile); err != nil {
		return err
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// DebugEnabled returns true if debug mode is enabled.
func DebugEnabled() bool { return viper.GetBool("debug") }

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
