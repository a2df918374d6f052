package tui

import (
	"fmt"
	"strings"

	"go-generative/debug"
	"go-generative/midi"
	"go-generative/sequencer"
	"go-generative/theme"
	"go-generative/widgets"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	fieldWidth  = 29
	fieldHeight = 13
	meterWidth  = 16
)

type Model struct {
	Engine   *sequencer.Engine
	Ports    *midi.PortWatcher // nil when MIDI is off
	Output   *midi.Output      // nil when MIDI is off
	PortName string
	Theme    *theme.Theme

	help     help.Model
	showHelp bool
	selected int
	status   string
	quitting bool

	openPort func(name string) (midi.Sender, error)
}

type UpdateMsg struct{}

type PortEventMsg midi.PortEvent

func NewModel(engine *sequencer.Engine, ports *midi.PortWatcher, out *midi.Output, portName string, th *theme.Theme) Model {
	return Model{
		Engine:   engine,
		Ports:    ports,
		Output:   out,
		PortName: portName,
		Theme:    th,
		help:     help.New(),
		openPort: midi.OpenPort,
	}
}

func ListenForUpdates(engine *sequencer.Engine) tea.Cmd {
	return func() tea.Msg {
		<-engine.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForPorts(ports *midi.PortWatcher) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ports.Events()
		if !ok {
			return nil
		}
		return PortEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Engine)}
	if m.Ports != nil {
		cmds = append(cmds, ListenForPorts(m.Ports))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		m.status = ""
		if err := m.handleKey(msg); err != nil {
			m.status = err.Error()
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case UpdateMsg:
		return m, ListenForUpdates(m.Engine)

	case PortEventMsg:
		m.handlePort(midi.PortEvent(msg))
		return m, ListenForPorts(m.Ports)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) error {
	e := m.Engine
	k := msg.String()

	switch {
	case key.Matches(msg, keys.Root):
		return e.SetRoot(rootKeys[k])
	case key.Matches(msg, keys.Mode):
		return e.SetScale(sequencer.Modes[int(k[0]-'1')])
	case key.Matches(msg, keys.TET):
		return e.SetScale(tetKeys[k])
	case key.Matches(msg, keys.Pentatonic):
		return e.SetScale(sequencer.ScalePentatonic)
	case key.Matches(msg, keys.RandomKey):
		e.RandomizeKey()
	case key.Matches(msg, keys.ReseedAll):
		e.ReseedAll()
	case key.Matches(msg, keys.Pause):
		if e.TogglePause() && m.Output != nil {
			m.Output.AllNotesOff()
		}
	case key.Matches(msg, keys.Faster):
		return e.NudgeBPM(sequencer.BPMStep)
	case key.Matches(msg, keys.Slower):
		return e.NudgeBPM(-sequencer.BPMStep)
	case key.Matches(msg, keys.DetuneDown):
		return e.AdjustDetune(-detuneStep)
	case key.Matches(msg, keys.DetuneUp):
		return e.AdjustDetune(detuneStep)
	case key.Matches(msg, keys.FineDown):
		return e.AdjustDetune(-detuneFine)
	case key.Matches(msg, keys.FineUp):
		return e.AdjustDetune(detuneFine)
	case key.Matches(msg, keys.ResetDetune):
		e.ResetDetune()
	case key.Matches(msg, keys.NextVoice):
		m.selected = (m.selected + 1) % e.NumVoices()
	case key.Matches(msg, keys.PrevVoice):
		m.selected = (m.selected + e.NumVoices() - 1) % e.NumVoices()
	case key.Matches(msg, keys.Mute):
		return e.ToggleMute(m.selected)
	case key.Matches(msg, keys.Solo):
		return e.ToggleSolo(m.selected)
	case key.Matches(msg, keys.ReseedVoice):
		return e.ReseedVoice(m.selected)
	case key.Matches(msg, keys.MoveLeft):
		return m.moveVoice(-moveStep, 0)
	case key.Matches(msg, keys.MoveRight):
		return m.moveVoice(moveStep, 0)
	case key.Matches(msg, keys.MoveUp):
		return m.moveVoice(0, -moveStep)
	case key.Matches(msg, keys.MoveDown):
		return m.moveVoice(0, moveStep)
	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
	}
	return nil
}

func (m *Model) moveVoice(dx, dz float32) error {
	snap := m.Engine.Snapshot()
	p := snap[m.selected].Position
	return m.Engine.SetVoicePosition(m.selected, p.X+dx, p.Z+dz)
}

func (m *Model) handlePort(ev midi.PortEvent) {
	if m.Output == nil || ev.Name != m.PortName {
		return
	}
	switch ev.Type {
	case midi.PortConnected:
		send, err := m.openPort(ev.Name)
		if err != nil {
			m.status = err.Error()
			return
		}
		m.Output.SetSender(send)
		m.status = fmt.Sprintf("connected %s", ev.Name)
	case midi.PortDisconnected:
		m.Output.SetSender(nil)
		m.status = fmt.Sprintf("lost %s", ev.Name)
	}
	debug.Log("tui", "port %s %q", ev.Type, ev.Name)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	p := m.Engine.Params()
	voices := m.Engine.Snapshot()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	playState := "PLAY"
	if p.Paused {
		playState = "PAUSE"
	}
	header := headerStyle.Render(fmt.Sprintf("go-generative  %s  %3.0fbpm  %s %s  detune %+.0f¢%s",
		playState, p.BPM, p.Root, p.Scale, p.DetuneCents, m.portStatus()))

	var panel strings.Builder
	for i, v := range voices {
		cursor := "  "
		if i == m.selected {
			cursor = "▶ "
		}
		flags := []byte("--")
		if v.Muted {
			flags[0] = 'M'
		}
		if v.Solo {
			flags[1] = 'S'
		}
		color := m.Theme.Voice(v)
		name := lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%-6s", v.Name))
		fmt.Fprintf(&panel, "%s%d %s %-8s %-5s %s %s\n",
			cursor, i+1, name, v.Waveform, v.Role, flags,
			widgets.RenderMeter(m.Theme, v.Pulse, meterWidth, color))
	}

	field := widgets.RenderField(m.Theme, voices, m.selected, fieldWidth, fieldHeight)
	body := lipgloss.JoinHorizontal(lipgloss.Top, panel.String(), "   ", field)

	var helpView string
	if m.showHelp {
		helpView = widgets.RenderKeyHelp(keys.Sections())
	} else {
		helpView = m.help.View(keys)
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(body)
	out.WriteString("\n\n")
	out.WriteString(dimStyle.Render(helpView))
	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(warnStyle.Render(m.status))
	}
	return out.String()
}

func (m Model) portStatus() string {
	if m.Output == nil {
		return ""
	}
	if m.Output.Connected() {
		return "  midi:" + m.PortName
	}
	return "  midi:off"
}
