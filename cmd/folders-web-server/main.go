package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/brngle/folders"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	Version     = "N/A"
	BuildCommit = "N/A"
)

func newRootCommand() *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:   "folders-web-server [--config FILE] [--debug]",
		Short: "Browse, upload and download files in prefixed folders",

		Args: cobra.ExactArgs(0),

		SilenceErrors: true,
		SilenceUsage:  true,

		Version: Version,

		RunE: func(_ *cobra.Command, _ []string) error {
			err := godotenv.Load()
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("load .env: %w", err)
			}

			if configPath == "" {
				configPath = os.Getenv("CONFIG")
			}

			config, err := folders.LoadConfig(configPath)
			if err != nil {
				return err
			}

			if debug || config.Debug {
				logrus.SetLevel(logrus.DebugLevel)
			}
			logrus.Debugf("The config value is: %+v", redacted(config))

			return folders.NewServer(config).Run()
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "Optional HCL config file, defaults to $CONFIG")
	flags.BoolVarP(&debug, "debug", "", false, "Set log level to debug")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show full version info",

		Args: cobra.ExactArgs(0),

		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("folders-web-server %s\n", Version)
			fmt.Printf("golang %s\n", strings.TrimPrefix(runtime.Version(), "go"))
			fmt.Printf("Build target: %s-%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Printf("Commit SHA:   %s\n", BuildCommit)
		},
	})

	return cmd
}

func redacted(config *folders.Config) folders.Config {
	c := *config
	c.SecretKey = "***"
	return c
}

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", color.RedString("Error"), err)
		os.Exit(1)
	}
}
