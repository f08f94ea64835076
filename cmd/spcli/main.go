package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/storyprotocol/sp-cli/configs"
	"github.com/storyprotocol/sp-cli/internal/ipasset"
	"github.com/storyprotocol/sp-cli/internal/iporg"
	"github.com/storyprotocol/sp-cli/internal/logger"
	"github.com/storyprotocol/sp-cli/internal/storagekey"
	"github.com/storyprotocol/sp-cli/internal/wallet"
)

const (
	appName = "sp-cli"
	envFile = ".env"
)

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "CLI for registering IP organisations and IP assets on Story Protocol",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Initialize(slog.LevelInfo)

		if err := gotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Join(err, errors.New("error reading .env file"))
		}

		if err := configs.SetDefaults(viper.GetViper()); err != nil {
			return err
		}

		if configFile := viper.GetString("config"); configFile != "" {
			viper.SetConfigFile(configFile)
		} else {
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
			if execPath, err := os.Executable(); err == nil {
				viper.AddConfigPath(filepath.Dir(execPath))
			}
			viper.AddConfigPath(".")
			viper.AddConfigPath("./configs")
		}

		// the embedded defaults cover everything a missing file would
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				slog.Debug("no config file found, will rely on flags and defaults")
			} else {
				const errMsg = "error reading config file"
				slog.With("err", err.Error()).Error(errMsg)
				return errors.Join(err, errors.New(errMsg))
			}
		} else {
			slog.With("config_file", viper.ConfigFileUsed()).Debug("config file loaded")
		}

		if err := viper.Unmarshal(&configs.Values); err != nil {
			const errMsg = "unable to decode application config"
			slog.With("err", err.Error()).Error(errMsg)
			return errors.Join(err, errors.New(errMsg))
		}

		level, err := logger.ParseLevel(configs.Values.LogLevel)
		if err != nil {
			return err
		}
		logger.Initialize(level)

		if err := configs.Values.Validate(); err != nil {
			return err
		}

		slog.With("network", configs.Values.Network).Debug("configuration loaded")

		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path of the config file")
	flags.String("network", "", "Network to use, one of the configured networks")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("output", "", "Output format: json or yaml")

	for _, name := range []string{"config", "network", "log-level", "output"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func main() {
	rootCmd.AddCommand(iporg.CMD)
	rootCmd.AddCommand(ipasset.CMD)
	rootCmd.AddCommand(storagekey.CMD)
	rootCmd.AddCommand(wallet.CMD)

	// an interrupted batch stops before its next record and keeps its state file
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		slog.With("err", err.Error()).Error("failed to execute root command")
		os.Exit(1)
	}
}
