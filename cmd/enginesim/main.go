// Command enginesim hosts an Engine against real MIDI transports on a
// workstation, standing in for the firmware's realtime thread. It drives
// Update on a fixed-rate ticker (the simulator's stand-in for the hardware
// ClockTimer interrupt) and renders a small status view, grounded on the
// teacher's tui.Model Update/View loop and cmd/miditest's port scanning.
package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"stepsequencer/clock"
	"stepsequencer/config"
	"stepsequencer/engine"
	"stepsequencer/midiio"
	"stepsequencer/model"
)

func main() {
	listPorts := flag.Bool("list", false, "list available MIDI ports and exit")
	bpm := flag.Float64("bpm", 120, "initial master BPM")
	flag.Parse()

	if *listPorts {
		printPorts()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("config load failed, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
	}

	m := model.NewRefModel()
	m.Project().SetBpm(float32(*bpm))
	m.Project().ClockSetup().SetMode(model.ClockModeMaster)

	midiPort := midiio.NewPort(cfg.Midi.PortName)
	usbPort := midiio.NewPort(cfg.UsbMidi.PortName)
	if cfg.Midi.AutoConnect {
		if err := midiPort.Open(); err != nil {
			fmt.Printf("midi port %q: %v\n", cfg.Midi.PortName, err)
		}
	}
	if cfg.UsbMidi.AutoConnect {
		if err := usbPort.Open(); err != nil {
			fmt.Printf("usb midi port %q: %v\n", cfg.UsbMidi.PortName, err)
		}
	}

	e := engine.New(engine.InitContext{
		Model:   m,
		Clock:   clock.New(),
		Midi:    midiPort,
		UsbMidi: usbPort,
	})

	tickRate := cfg.Clock.SimulatorTickRate
	if tickRate <= 0 {
		tickRate = 60
	}

	prog := tea.NewProgram(newStatusModel(e, tickRate))
	if _, err := prog.Run(); err != nil {
		fmt.Printf("enginesim exited: %v\n", err)
	}
}

func printPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	for i, p := range gomidi.GetInPorts() {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("=== MIDI Output Ports ===")
	for i, p := range gomidi.GetOutPorts() {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

type tickMsg time.Time

type statusModel struct {
	e        *engine.Engine
	interval time.Duration
	quitting bool
	lastMidi string
}

func newStatusModel(e *engine.Engine, tickRate float64) statusModel {
	return statusModel{
		e:        e,
		interval: time.Duration(float64(time.Second) / tickRate),
	}
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (s statusModel) Init() tea.Cmd {
	return tickCmd(s.interval)
}

func (s statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			s.quitting = true
			return s, tea.Quit
		case "p":
			if s.e.Running() {
				s.e.ClockStop()
			} else {
				s.e.ClockStart()
			}
		case "r":
			s.e.ClockReset()
		case "t":
			s.e.TapTempoTap()
		case "+", "=":
			s.e.NudgeTempoSetDirection(1)
		case "-", "_":
			s.e.NudgeTempoSetDirection(-1)
		case "0":
			s.e.NudgeTempoSetDirection(0)
		}
		return s, nil

	case tickMsg:
		s.e.Update()
		return s, tickCmd(s.interval)
	}
	return s, nil
}

func (s statusModel) View() string {
	if s.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Bold(true)
	dimStyle := lipgloss.NewStyle().Faint(true)

	playState := "STOP"
	if s.e.Running() {
		playState = "PLAY"
	}
	lockState := ""
	if s.e.IsLocked() {
		lockState = " LOCKED"
	}

	header := headerStyle.Render(fmt.Sprintf(
		"enginesim  %s%s  tick:%07d  frac:%.2f",
		playState, lockState, s.e.Tick(), s.e.SyncMeasureFraction(),
	))

	help := dimStyle.Render(strings.Join([]string{
		"p:play/stop", "r:reset", "t:tap", "+/-/0:nudge", "q:quit",
	}, "  "))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(help)
	out.WriteString("\n")
	return out.String()
}
