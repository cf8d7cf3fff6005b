// Command qdchannel replays ray-tracer scenarios: it reports what a scenario
// contains and runs an SVD-beamformed SNR trace between two nodes.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel     string // Log verbosity level
	configPath   string // YAML run configuration
	qdPath       string // Folder holding the scenarios, overrides the configuration
	scenario     string // Scenario name, overrides the configuration
	withoutPhase bool   // Trace files have no phase line
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "qdchannel",
	Short: "Ray-tracer driven MIMO channel model",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "qdchannel.yaml", "Run configuration file")
	rootCmd.PersistentFlags().StringVar(&qdPath, "path", "", "Folder with the ray-tracer scenarios")
	rootCmd.PersistentFlags().StringVar(&scenario, "scenario", "", "Scenario name")
	rootCmd.PersistentFlags().BoolVar(&withoutPhase, "without-phase", false, "Trace files omit the phase line")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
}

func main() {
	Execute()
}
