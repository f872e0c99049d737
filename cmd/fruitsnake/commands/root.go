package commands

import (
	"fmt"
	"os"

	"github.com/battlesnakeio/fruitsnake/rules"
	"github.com/battlesnakeio/fruitsnake/version"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:               "fruitsnake",
	Short:             "fruitsnake plays, serves and replays games of fruit snake",
	Version:           version.Version,
	PersistentPreRunE: setupLogging,
	Run: func(c *cobra.Command, args []string) {
		playCmd.Run(c, args)
	},
}

var (
	apiAddr    string
	logLevel   = "info"
	logFile    string
	configPath string
)

// Execute runs the root command
func Execute() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api-addr", "http://localhost:3005", "address of the api server")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "log level, one of: [debug, info, warn, error]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "JSON game config, missing fields keep their defaults")
	rootCmd.Flags().AddFlagSet(playCmd.Flags())

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(loadTestCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func setupLogging(*cobra.Command, []string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	if logFile == "" {
		return nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrap(err, "unable to open log file")
	}
	log.SetOutput(f)
	return nil
}

func gameConfig() (rules.Config, error) {
	if configPath == "" {
		return rules.DefaultConfig(), nil
	}
	return rules.LoadConfig(configPath)
}
