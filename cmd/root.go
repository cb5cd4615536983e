package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string
var verbose bool

// logger is the operator-facing logger; baseLogger feeds library packages.
var logger *zap.SugaredLogger
var baseLogger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:           "securitytxt",
	Short:         "Fetch, parse and validate security.txt files (RFC 9116)",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initConfig()
		applyConfigDefaults(cmd)

		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		baseLogger = l
		logger = l.Sugar()
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debugf("config=%s", used)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = baseLogger.Sync()
	},
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".securitytxt")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("SECURITYTXT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// newLogger logs warnings and above as JSON, or everything in console
// format when verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *ExitError
		if !errors.As(err, &exitErr) || exitErr.Err != nil {
			fmt.Fprintln(os.Stderr, colorError("Error:"), err)
		}
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.securitytxt.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose logging to stderr")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}
