package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/wiless/vlib"

	"github.com/signetlabdei/qd-channel/beamforming"
	"github.com/signetlabdei/qd-channel/channel"
	"github.com/signetlabdei/qd-channel/deployment"
	"github.com/signetlabdei/qd-channel/trace"
)

// runCmd beamforms the configured link every time resolution step and
// writes the resulting SNR trace.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute the SVD-beamformed SNR trace of a link",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := readConfig(configPath)
		if err != nil {
			logrus.Fatalf("Failed to load configuration: %v", err)
		}
		cfg.applyFlags(qdPath, scenario, withoutPhase)
		if err := cfg.validate(); err != nil {
			logrus.Fatalf("%v", err)
		}

		out, err := os.Create(cfg.Output)
		if err != nil {
			logrus.Fatalf("Failed to create %s: %v", cfg.Output, err)
		}
		defer out.Close()

		reg := prometheus.NewRegistry()
		samples, err := runScenario(cfg, reg, out)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		if cfg.Matlab != "" {
			exportMatlab(cfg.Matlab, samples)
		}
		logCacheStats(reg)
	},
}

// snrTrace holds the SNR samples of a run, time in seconds.
type snrTrace struct {
	Time vlib.VectorF
	SNR  vlib.VectorF
}

func runScenario(cfg Config, reg prometheus.Registerer, out io.Writer) (snrTrace, error) {
	var result snrTrace

	nodes, err := cfg.nodeTable()
	if err != nil {
		return result, err
	}
	var opts []trace.Option
	if cfg.WithoutPhase {
		opts = append(opts, trace.WithoutPhase())
	}
	repo, err := trace.Load(cfg.Path, cfg.Scenario, nodes, opts...)
	if err != nil {
		return result, err
	}

	clock := &channel.ManualClock{}
	model, err := channel.NewModel(repo, channel.WithClock(clock), channel.WithMetrics(reg))
	if err != nil {
		return result, err
	}

	txArray, rxArray := cfg.Tx.Array(), cfg.Rx.Array()
	link := trace.LinkIdentity{Tx: deployment.NodeID(cfg.Tx.Node), Rx: deployment.NodeID(cfg.Rx.Node)}
	params := model.Params()
	logrus.WithFields(logrus.Fields{
		"link":       link,
		"duration":   params.Duration,
		"resolution": cfg.TimeResolution,
	}).Info("starting SNR trace")

	w := bufio.NewWriter(out)
	defer w.Flush()
	for now := time.Duration(0); now < params.Duration; now = clock.Advance(cfg.TimeResolution) {
		m, err := model.Channel(link, txArray, rxArray)
		if err != nil {
			return result, err
		}

		snr := math.Inf(-1)
		txW, rxW, err := beamforming.ComputeVectors(m)
		switch {
		case errors.Is(err, beamforming.ErrNoPropagation):
			logrus.WithField("time", now).Debug("no propagation path")
		case err != nil:
			return result, err
		default:
			if err := txArray.SetBeamformingVector(txW); err != nil {
				return result, err
			}
			if err := rxArray.SetBeamformingVector(rxW); err != nil {
				return result, err
			}
			metric, err := cfg.Budget.Evaluate(m, txArray.BeamformingVector(), rxArray.BeamformingVector())
			if err != nil {
				return result, err
			}
			snr = metric.SNRDb
		}

		logrus.WithFields(logrus.Fields{"time": now, "snr": snr}).Debug("SNR sample")
		if _, err := fmt.Fprintf(w, "%g\t%g\n", now.Seconds(), snr); err != nil {
			return result, err
		}
		result.Time = append(result.Time, now.Seconds())
		result.SNR = append(result.SNR, snr)
	}
	return result, nil
}

func exportMatlab(fname string, t snrTrace) {
	matlab := vlib.NewMatlab(fname)
	matlab.Silent = true
	matlab.Json = false
	matlab.Export("time", t.Time)
	matlab.Export("snr", t.SNR)
	matlab.Command("figure; plot(time, snr); grid on; xlabel('time [s]'); ylabel('SNR [dB]');")
	matlab.Close()
}

func logCacheStats(g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		logrus.Warnf("Failed to gather cache metrics: %v", err)
		return
	}
	fields := logrus.Fields{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				for _, label := range metric.GetLabel() {
					fields[label.GetValue()] = metric.GetCounter().GetValue()
				}
			case metric.GetGauge() != nil:
				fields[mf.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}
	logrus.WithFields(fields).Info("channel cache")
}
