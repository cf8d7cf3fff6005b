// Package qdchannel evaluates beamformed links over ray-tracer driven
// channels: beamforming gain, received power and SNR.
package qdchannel

import (
	"fmt"
	"time"

	"github.com/wiless/vlib"
	"gonum.org/v1/gonum/cmplxs"

	"github.com/signetlabdei/qd-channel/beamforming"
	"github.com/signetlabdei/qd-channel/channel"
	"github.com/signetlabdei/qd-channel/trace"
)

// NoisePSDdBmPerHz is the thermal noise density at room temperature.
const NoisePSDdBmPerHz = -173.9

// LinkBudget holds the radio parameters shared by every evaluated link.
type LinkBudget struct {
	TxPowerDbm    float64 `yaml:"tx_power_dbm"`
	BandwidthHz   float64 `yaml:"bandwidth_hz" validate:"gt=0"`
	NoiseFigureDb float64 `yaml:"noise_figure_db" validate:"gte=0"`
}

// N0 is the noise power over the bandwidth, receiver noise figure included.
func (b LinkBudget) N0() float64 {
	return NoisePSDdBmPerHz + vlib.Db(b.BandwidthHz) + b.NoiseFigureDb
}

type LinkMetric struct {
	Link         trace.LinkIdentity
	Time         time.Duration
	BandwidthMHz float64
	N0           float64 // dBm
	TxPowerDbm   float64
	BeamGainDb   float64 // |rx^T H tx|^2
	RxPowerDbm   float64
	SNRDb        float64
}

// Evaluate computes the metrics of a channel matrix for the given transmit
// and receive beamforming vectors. An all-zero channel gives -Inf gains.
func (b LinkBudget) Evaluate(m *channel.Matrix, txW, rxW vlib.VectorC) (LinkMetric, error) {
	if txW.Size() != m.TxElements() || rxW.Size() != m.RxElements() {
		return LinkMetric{}, fmt.Errorf("qdchannel: weights %dx%d do not fit a %dx%d channel",
			rxW.Size(), txW.Size(), m.RxElements(), m.TxElements())
	}
	gain := BeamGain(beamforming.Narrowband(m.H, m.TxElements()), txW, rxW)

	var result LinkMetric
	result.Link = m.Link
	result.Time = m.Generated
	result.BandwidthMHz = b.BandwidthHz / 1e6
	result.N0 = b.N0()
	result.TxPowerDbm = b.TxPowerDbm
	result.BeamGainDb = vlib.Db(gain)
	result.RxPowerDbm = b.TxPowerDbm + result.BeamGainDb
	result.SNRDb = result.RxPowerDbm - result.N0
	return result, nil
}

// EvaluateLink is Evaluate with the budget given inline.
func EvaluateLink(m *channel.Matrix, txW, rxW vlib.VectorC, txPowerDbm, bandwidthHz, noiseFigureDb float64) (LinkMetric, error) {
	budget := LinkBudget{TxPowerDbm: txPowerDbm, BandwidthHz: bandwidthHz, NoiseFigureDb: noiseFigureDb}
	return budget.Evaluate(m, txW, rxW)
}

// BeamGain returns |sum_u rxW[u] sum_s h[u][s] txW[s]|^2 for a narrowband
// channel h.
func BeamGain(h [][]complex128, txW, rxW vlib.VectorC) float64 {
	buf := make([]complex128, len(txW))
	var total complex128
	for u, row := range h {
		total += rxW[u] * cmplxs.Sum(cmplxs.MulTo(buf, row, txW))
	}
	return real(total)*real(total) + imag(total)*imag(total)
}
