package main

import (
	"fmt"
	"os"

	"github.com/ds-testing-user/topofuzz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	var (
		cfgFile     string
		clusterAddr string
		runs        int
		rounds      int
		verbose     bool
	)

	rootCmd := &cobra.Command{
		Use:   "topofuzz",
		Short: "Run the topology nemesis against a cluster's admin endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := topofuzz.DefaultConfig()
			if cfgFile != "" {
				loaded, err := topofuzz.LoadConfig(cfgFile)
				if err != nil {
					return err
				}
				config = loaded
			}
			if cmd.Flags().Changed("cluster-addr") {
				config.ClusterAddr = clusterAddr
			}
			if cmd.Flags().Changed("runs") {
				config.Runs = runs
			}
			if cmd.Flags().Changed("rounds") {
				config.Rounds = rounds
			}
			if err := config.Validate(); err != nil {
				return err
			}
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}

			nemesis := topofuzz.NewNemesis(
				config,
				&topofuzz.HTTPClusterConstructor{Addr: config.ClusterAddr},
				topofuzz.NewTopologyGuider(config.RecordPath, config.RecordTraces),
				topofuzz.CombineMutators(
					topofuzz.NewSwapOpTargetMutator(2),
					topofuzz.NewSwapOpOrderMutator(2),
				),
			)
			coverage := nemesis.Run()
			logrus.WithFields(logrus.Fields{
				"runs":              config.Runs,
				"unique_topologies": coverage.UniqueTopologies,
			}).Info("nemesis finished")
			return nil
		},
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "TOML config file (optional)")
	rootCmd.Flags().StringVar(&clusterAddr, "cluster-addr", "127.0.0.1:7080", "cluster admin endpoint")
	rootCmd.Flags().IntVar(&runs, "runs", 100, "number of nemesis runs")
	rootCmd.Flags().IntVar(&rounds, "rounds", 20, "operation rounds per run")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
