package main

import (
	"context"
	"fmt"
	"os"

	"hangman/app"
	"hangman/common/config"
	"hangman/common/log"
	"hangman/common/metrics"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "hangman",
	Short: "multiplayer hangman game node",
	Long:  `multiplayer hangman game node: websocket gateway, room processors and HTTP snapshot API in one process`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.Load(configFile); err != nil {
			log.Fatal("loading config failed: %v", err)
		}
		log.InitLog(config.Conf.ID, config.Conf.LogConf.Level)
		log.Info("config loaded: %+v", config.Conf)

		go func() {
			log.Info("metrics at http://localhost:%d/debug/statsviz/", config.Conf.MetricPort)
			if err := metrics.Serve(fmt.Sprintf("0.0.0.0:%d", config.Conf.MetricPort)); err != nil {
				panic(err)
			}
		}()

		if err := app.Run(context.Background()); err != nil {
			log.Error("node exited with error: %v", err)
			os.Exit(-1)
		}
	},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "configFile", "", "resource file")
	rootCmd.MarkFlagRequired("configFile")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("error happen: %#v", err)
		os.Exit(1)
	}
}
