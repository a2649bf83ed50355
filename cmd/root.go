// Package cmd is drgo's cobra CLI root, structured the same way the
// teacher's cmd/root.go is: a RootCmd, a cfgFile flag, cobra.OnInitialize
// wiring a config-file search through viper.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Manu343726/drgo/cmd/indexcmd"
	"github.com/Manu343726/drgo/cmd/objectcmd"
	"github.com/Manu343726/drgo/cmd/tools"
	"github.com/Manu343726/drgo/cmd/tuicmd"
	"github.com/Manu343726/drgo/cmd/typecmd"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// RootCmd is the base command when drgo is called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "drgo",
	Short: "A programmable debugging-information toolkit",
	Long: `drgo indexes ELF/DWARF debug information and lets you look up types,
print C declarations, and inspect global objects without attaching to a
running process.

This CLI is a thin demonstration surface over the drgo library: the DWARF
name index, the type layer, the object layer, and the C expression
front-end.`,
}

// Execute runs RootCmd; its child commands are added in init. Called once
// by main.main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(tools.ToolsCmd, indexcmd.IndexCmd, typecmd.TypeCmd, objectcmd.ObjectCmd, tuicmd.BrowseCmd)
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.drgo.yaml)")
	RootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	RootCmd.PersistentFlags().String("log-file", "", "also write JSON logs to this file")
	RootCmd.PersistentFlags().Bool("no-color", false, "disable colorized output")
	RootCmd.PersistentFlags().Int("shards", 256, "number of index shards (not read; the index always has 256)")

	viper.BindPFlag("log-level", RootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-file", RootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("no-color", RootCmd.PersistentFlags().Lookup("no-color"))
	viper.BindPFlag("shards", RootCmd.PersistentFlags().Lookup("shards"))
}

// initConfig reads in config file and ENV variables if set, the same
// precedence order as the teacher's cmd/root.go.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".drgo")
	}

	viper.SetEnvPrefix("DRGO")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if legacy, ok := tryLegacyConfig(home()); ok {
		fmt.Fprintln(os.Stderr, "Using legacy config file:", legacy)
	}
}

func home() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return h
}

// LogLevel resolves the --log-level flag/config value to a slog.Level.
func LogLevel() slog.Level {
	switch viper.GetString("log-level") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
