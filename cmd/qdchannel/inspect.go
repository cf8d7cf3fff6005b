package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/signetlabdei/qd-channel/trace"
)

// inspectCmd loads a scenario against the configured nodes and lists its
// links without synthesizing any channel.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load a scenario and list its links",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := readConfig(configPath)
		if err != nil {
			logrus.Fatalf("Failed to load configuration: %v", err)
		}
		cfg.applyFlags(qdPath, scenario, withoutPhase)
		if err := cfg.validate(); err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := inspect(cfg, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Failed to inspect scenario: %v", err)
		}
	},
}

func inspect(cfg Config, w io.Writer) error {
	nodes, err := cfg.nodeTable()
	if err != nil {
		return err
	}
	var opts []trace.Option
	if cfg.WithoutPhase {
		opts = append(opts, trace.WithoutPhase())
	}
	repo, err := trace.Load(cfg.Path, cfg.Scenario, nodes, opts...)
	if err != nil {
		return err
	}

	sc := repo.Config()
	fmt.Fprintf(w, "scenario  %s/%s\n", sc.Path, sc.Scenario)
	fmt.Fprintf(w, "duration  %v (%d timesteps of %v)\n", sc.Duration, sc.Timesteps, sc.UpdatePeriod())
	fmt.Fprintf(w, "frequency %g Hz\n", sc.Frequency)

	for _, key := range repo.Links() {
		id, _ := repo.Direction(key)
		txRt, _ := repo.RtID(id.Tx)
		rxRt, _ := repo.RtID(id.Rx)
		first, err := repo.Snapshot(key, 0)
		if err != nil {
			return err
		}
		var most int
		for ts := uint64(0); ts < sc.Timesteps; ts++ {
			s, err := repo.Snapshot(key, ts)
			if err != nil {
				return err
			}
			if s.NumComponents > most {
				most = s.NumComponents
			}
		}
		fmt.Fprintf(w, "link %-8s rt Tx%dRx%d  key %d  rays %d (max %d)\n",
			id, txRt, rxRt, key, first.NumComponents, most)
	}
	return nil
}
