// Package tui draws the lock screen: a four-dot PIN keypad driven by a
// pin.Gate.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/worrylog/internal/pin"
)

// ErrAborted is returned by RunLock when the user quits before the gate opens.
var ErrAborted = errors.New("tui: lock screen aborted")

// Prompt is the text shown for one gate stage.
type Prompt struct {
	Title    string
	Subtitle string
	Action   string
}

// PromptFor returns the lock-screen text for a stage.
func PromptFor(stage pin.Stage) Prompt {
	switch stage {
	case pin.StageUnlock:
		return Prompt{Title: "Enter PIN", Subtitle: "Unlock your journal", Action: "Unlock"}
	case pin.StageSet2:
		return Prompt{Title: "Confirm PIN", Subtitle: "Re-enter to confirm.", Action: "Set PIN"}
	case pin.StageOpen:
		return Prompt{Title: "Unlocked"}
	default:
		return Prompt{Title: "Set your PIN", Subtitle: "Create a 4-digit PIN to protect your journal.", Action: "Continue"}
	}
}

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted  = ac("240", "245")
	colorStrong = ac("235", "255")
	colorError  = ac("160", "203")
)

var (
	titleStyle          = lipgloss.NewStyle().Bold(true)
	subtitleStyle       = lipgloss.NewStyle().Foreground(colorMuted)
	dotStyle            = lipgloss.NewStyle().Foreground(colorStrong)
	errorStyle          = lipgloss.NewStyle().Foreground(colorError)
	actionStyle         = lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true)
	actionDisabledStyle = lipgloss.NewStyle().Padding(0, 1).Faint(true)
	helpStyle           = subtitleStyle.Italic(true)
	boxStyle            = lipgloss.NewStyle().Padding(1, 3).Border(lipgloss.RoundedBorder())
)

// Model is the Bubble Tea model for the lock screen.
type Model struct {
	ctx     context.Context
	gate    *pin.Gate
	err     error
	aborted bool
}

// New returns a lock-screen model over gate.
func New(ctx context.Context, gate *pin.Gate) Model {
	return Model{ctx: ctx, gate: gate}
}

// Opened reports whether the gate was passed.
func (m Model) Opened() bool { return m.gate.IsOpen() }

// Aborted reports whether the user quit the lock screen.
func (m Model) Aborted() bool { return m.aborted }

// Err returns the persistence error that stopped the lock screen, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	var events []pin.Event
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyCtrlD:
		m.aborted = true
		return m, tea.Quit
	case tea.KeyBackspace, tea.KeyDelete:
		events = append(events, pin.Delete)
	case tea.KeyEsc:
		events = append(events, pin.Clear)
	case tea.KeyEnter:
		events = append(events, pin.Confirm)
	case tea.KeyRunes:
		for _, r := range key.Runes {
			switch {
			case r >= '0' && r <= '9':
				events = append(events, pin.Digit(r))
			case r == 'c' || r == 'C':
				events = append(events, pin.Clear)
			case r == 'q' || r == 'Q':
				m.aborted = true
				return m, tea.Quit
			}
		}
	}

	for _, ev := range events {
		if _, err := m.gate.Press(m.ctx, ev); err != nil {
			m.err = err
			return m, tea.Quit
		}
		if m.gate.IsOpen() {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	s := m.gate.State()
	p := PromptFor(s.Stage)
	if s.Stage == pin.StageOpen {
		return ""
	}

	action := actionDisabledStyle.Render(p.Action)
	if s.CanConfirm() {
		action = actionStyle.Render(p.Action)
	}

	lines := []string{
		titleStyle.Render(p.Title),
		subtitleStyle.Render(p.Subtitle),
		"",
		dotStyle.Render(Dots(s.Buffer)),
		"",
		errorStyle.Render(s.Err),
		action,
		"",
		helpStyle.Render("0-9: digit   backspace: delete   esc/c: clear   enter: confirm   q: quit"),
	}
	return boxStyle.Render(strings.Join(lines, "\n")) + "\n"
}

// Dots renders the filled and empty PIN positions for a buffer.
func Dots(buffer string) string {
	dots := make([]string, pin.Length)
	for i := range dots {
		if i < len(buffer) {
			dots[i] = "●"
		} else {
			dots[i] = "○"
		}
	}
	return strings.Join(dots, " ")
}

// RunLock shows the lock screen on in/out until the gate opens.
// It returns ErrAborted if the user quits first.
func RunLock(ctx context.Context, gate *pin.Gate, in io.Reader, out io.Writer) error {
	if gate.IsOpen() {
		return nil
	}

	p := tea.NewProgram(New(ctx, gate),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("lock screen: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return fmt.Errorf("lock screen: unexpected model %T", final)
	}
	if m.Err() != nil {
		return m.Err()
	}
	if !m.Opened() {
		return ErrAborted
	}
	return nil
}
