// Package cvio is the analog/gate hardware boundary: the ADC/DAC/DIO
// interfaces the engine drives every cycle, plus calibrated CV input/output
// wrappers and the gate-output bank. Grounded on the teacher's
// sequencer/kits.go named-preset-table idiom for the calibration lookup and
// on midi/controller.go's small single-purpose hardware-facing interfaces.
package cvio

import "stepsequencer/model"

// ChannelCount is the number of CV/gate channels the hardware exposes,
// matching model.TrackCount (one output per track by default).
const ChannelCount = model.TrackCount

// Adc is the analog-to-digital converter: one raw sample per channel,
// already debounced/oversampled by the driver beneath this interface.
type Adc interface {
	Channel(ch int) float32
}

// Dac is the digital-to-analog converter driving the CV outputs.
type Dac interface {
	SetChannel(ch int, value float32)
}

// Dio is the digital gate/clock/reset pin bank. Clock and reset pins carry
// both a level and an edge handler so the engine can register ISR-style
// callbacks the way it does for the onboard clock hardware.
type Dio interface {
	GateOutput(ch int) bool
	SetGateOutput(ch int, on bool)

	ClockInput() bool
	SetClockInputHandler(func())
	ResetInput() bool
	SetResetInputHandler(func())

	SetClockOutput(on bool)
	SetResetOutput(on bool)
}

// CvInput reads a calibrated 1V/octave-style control voltage from an ADC
// channel: raw = offset + scale*volts, so volts = (raw-offset)/scale.
type CvInput struct {
	adc   Adc
	calib *model.Calibration
}

// NewCvInput returns a CvInput reading adc through calib.
func NewCvInput(adc Adc, calib *model.Calibration) *CvInput {
	return &CvInput{adc: adc, calib: calib}
}

// Volts returns the calibrated voltage on channel ch.
func (c *CvInput) Volts(ch int) float32 {
	raw := c.adc.Channel(ch)
	scale := c.calib.Scale[ch]
	if scale == 0 {
		scale = 1
	}
	return (raw - c.calib.Offset[ch]) / scale
}

// CvOutput writes a calibrated control voltage to a DAC channel.
type CvOutput struct {
	dac   Dac
	calib *model.Calibration
}

// NewCvOutput returns a CvOutput writing to dac through calib.
func NewCvOutput(dac Dac, calib *model.Calibration) *CvOutput {
	return &CvOutput{dac: dac, calib: calib}
}

// SetVolts writes volts to channel ch, applying offset and scale.
func (c *CvOutput) SetVolts(ch int, volts float32) {
	c.dac.SetChannel(ch, c.calib.Offset[ch]+volts*c.calib.Scale[ch])
}

// GateBank is a thin wrapper exposing just the gate-output slice of Dio,
// the only part of the pin bank the track engines touch directly.
type GateBank struct {
	dio Dio
}

// NewGateBank wraps dio's gate outputs.
func NewGateBank(dio Dio) *GateBank { return &GateBank{dio: dio} }

func (g *GateBank) Set(ch int, on bool) { g.dio.SetGateOutput(ch, on) }
func (g *GateBank) Get(ch int) bool     { return g.dio.GateOutput(ch) }
