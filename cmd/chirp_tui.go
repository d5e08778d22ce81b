// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marin Skelhorn

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/skelhorn/aeolian/pkg/chirp"
	"github.com/spf13/cobra"
)

var chirpTuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive soundboard for the emotion library",
	Long: `Interactive soundboard over the emotion library.

Arrow keys pick an emotion, Enter plays it. Press m to mark an emotion,
then m again on another to blend them with the given weight; blends join
the session library. Tab moves between the list and the weight field.`,
	RunE: runChirpTui,
}

func runChirpTui(cmd *cobra.Command, args []string) error {
	library, err := loadEmotionLibrary()
	if err != nil {
		return err
	}

	backend, info, err := openBackend()
	if err != nil {
		return err
	}
	defer backend.Close()

	player := chirp.NewPlayer(backend, chirp.WithVolume(chirpVolume))
	defer player.Mute()

	m := initialSoundboardModel(player, info, library)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusEmotionList = iota
	focusWeightInput
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// emotionItem adapts an emotion to the list widget
type emotionItem struct {
	emotion chirp.Emotion
}

// Implement list.Item interface
func (i emotionItem) Title() string       { return i.emotion.Name }
func (i emotionItem) Description() string { return i.emotion.Describe() }
func (i emotionItem) FilterValue() string { return i.emotion.Name }

// soundboardModel is the Bubble Tea model for the soundboard TUI
type soundboardModel struct {
	player      *chirp.Player
	backendInfo string

	// Session library (grows when blends are made)
	library     []chirp.Emotion
	emotionList list.Model

	// Mixing
	weightInput  textinput.Model
	mixFirst     *chirp.Emotion
	focusedField int

	// Playback state (the player runs in a command goroutine)
	playing     bool
	playingName string

	// UI state
	eventLog      []eventLogEntry
	maxLogEntries int
	width         int
	height        int
	quitting      bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type playDoneMsg struct {
	name string
	err  error
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialSoundboardModel(player *chirp.Player, backendInfo string, library []chirp.Emotion) soundboardModel {
	// Initialize text input for the blend weight
	ti := textinput.New()
	ti.Placeholder = "0.5"
	ti.CharLimit = 5
	ti.Width = 6

	// Initialize the emotion list
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)

	items := make([]list.Item, len(library))
	for i, e := range library {
		items[i] = emotionItem{emotion: e}
	}
	emotionList := list.New(items, delegate, 34, 12)
	emotionList.Title = "Emotions"
	emotionList.SetShowStatusBar(false)
	emotionList.SetShowHelp(false)
	emotionList.SetFilteringEnabled(false)

	return soundboardModel{
		player:        player,
		backendInfo:   backendInfo,
		library:       library,
		emotionList:   emotionList,
		weightInput:   ti,
		focusedField:  focusEmotionList,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m soundboardModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m soundboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case playDoneMsg:
		m.playing = false
		m.playingName = ""
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Playback of %s failed: %v", msg.name, msg.err), true)
		} else {
			m.addLogEntry(fmt.Sprintf("Finished %s", msg.name), false)
		}
	}

	// Update child components
	var cmd tea.Cmd
	if m.focusedField == focusWeightInput {
		m.weightInput, cmd = m.weightInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.focusedField == focusEmotionList {
		m.emotionList, cmd = m.emotionList.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *soundboardModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		return m.cycleFocus(1), nil

	case "shift+tab":
		return m.cycleFocus(-1), nil

	case "esc":
		if m.mixFirst != nil {
			m.addLogEntry(fmt.Sprintf("Unmarked %s", m.mixFirst.Name), false)
			m.mixFirst = nil
		}
		return m, nil

	case "enter":
		if m.focusedField == focusEmotionList {
			return m.playSelected()
		}
		if m.focusedField == focusWeightInput && m.mixFirst != nil {
			return m.blendWithSelected()
		}
		return m, nil

	case "m":
		if m.focusedField == focusEmotionList {
			if m.mixFirst == nil {
				return m.markSelected()
			}
			return m.blendWithSelected()
		}

	case "up", "k":
		if m.focusedField == focusEmotionList {
			m.emotionList, _ = m.emotionList.Update(msg)
		}

	case "down", "j":
		if m.focusedField == focusEmotionList {
			m.emotionList, _ = m.emotionList.Update(msg)
		}
	}

	// Pass through to focused component
	if m.focusedField == focusWeightInput {
		var cmd tea.Cmd
		m.weightInput, cmd = m.weightInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *soundboardModel) cycleFocus(delta int) *soundboardModel {
	maxFocus := focusWeightInput
	m.focusedField = (m.focusedField + delta + maxFocus + 1) % (maxFocus + 1)

	// Update focus state
	if m.focusedField == focusWeightInput {
		m.weightInput.Focus()
	} else {
		m.weightInput.Blur()
	}

	return m
}

//////////////////////////////////////////////////////////////
// Actions
//////////////////////////////////////////////////////////////

func (m *soundboardModel) playSelected() (tea.Model, tea.Cmd) {
	selected := m.getSelectedEmotion()
	if selected == nil {
		return m, nil
	}
	return m.startPlayback(*selected)
}

func (m *soundboardModel) markSelected() (tea.Model, tea.Cmd) {
	selected := m.getSelectedEmotion()
	if selected == nil {
		return m, nil
	}
	marked := *selected
	m.mixFirst = &marked
	m.addLogEntry(fmt.Sprintf("Marked %s (pick another and press m to blend)", marked.Name), false)
	return m, nil
}

func (m *soundboardModel) blendWithSelected() (tea.Model, tea.Cmd) {
	selected := m.getSelectedEmotion()
	if selected == nil || m.mixFirst == nil {
		return m, nil
	}
	if selected.Name == m.mixFirst.Name {
		m.addLogEntry("Pick a different emotion to blend with", true)
		return m, nil
	}

	weight, err := m.parseWeight()
	if err != nil {
		m.addLogEntry(err.Error(), true)
		return m, nil
	}

	mixed := m.mixFirst.MixWith(*selected, weight, "")
	m.mixFirst = nil

	if _, exists := chirp.Find(m.library, mixed.Name); !exists {
		m.library = append(m.library, mixed)
		m.updateEmotionList()
	}
	m.addLogEntry(fmt.Sprintf("Blended into %s", mixed.Name), false)

	return m.startPlayback(mixed)
}

// startPlayback hands the emotion to the player on a command goroutine.
// The player is not safe for concurrent use, so only one playback runs
// at a time.
func (m *soundboardModel) startPlayback(e chirp.Emotion) (tea.Model, tea.Cmd) {
	if m.playing {
		m.addLogEntry(fmt.Sprintf("Still playing %s", m.playingName), true)
		return m, nil
	}
	m.playing = true
	m.playingName = e.Name
	m.addLogEntry(fmt.Sprintf("Playing %s", e.Describe()), false)

	player := m.player
	return m, func() tea.Msg {
		err := player.Play(e)
		return playDoneMsg{name: e.Name, err: err}
	}
}

func (m *soundboardModel) parseWeight() (float64, error) {
	raw := m.weightInput.Value()
	if raw == "" {
		raw = m.weightInput.Placeholder
	}
	weight, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid weight %q", raw)
	}
	if weight < 0 || weight > 1 {
		return 0, fmt.Errorf("weight must be between 0 and 1")
	}
	return weight, nil
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m soundboardModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	// Header
	s.WriteString(titleStyle.Render("AEOLIAN SOUNDBOARD"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit Tab=switch Enter=play m=mark/blend", m.backendInfo)))
	s.WriteString("\n\n")

	// Layout: left panel (emotions) | right panel (detail and blending)
	leftWidth := 34
	rightWidth := m.width - leftWidth - 6

	listStyle := boxStyle.Width(leftWidth)
	if m.focusedField == focusEmotionList {
		listStyle = focusedBoxStyle.Width(leftWidth)
	}
	listPanel := listStyle.Render(m.emotionList.View())

	detailContent := m.renderDetailPanel(statsLabelStyle, statsValueStyle, headerStyle, warningStyle)
	detailStyle := boxStyle.Width(rightWidth)
	if m.focusedField == focusWeightInput {
		detailStyle = focusedBoxStyle.Width(rightWidth)
	}
	detailPanel := detailStyle.Render(detailContent)

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, listPanel, " ", detailPanel))
	s.WriteString("\n\n")

	// Playback bar
	if m.playing {
		s.WriteString(boxStyle.Width(m.width - 4).Render(fmt.Sprintf("%s %s",
			statsLabelStyle.Render("NOW PLAYING:"),
			statsValueStyle.Render(m.playingName))))
	} else {
		s.WriteString(boxStyle.Width(m.width - 4).Render(headerStyle.Render("idle")))
	}
	s.WriteString("\n\n")

	// Event log
	s.WriteString(m.renderSoundLog(statsLabelStyle, warningStyle, boxStyle))

	return s.String()
}

func (m soundboardModel) renderDetailPanel(statsLabelStyle, statsValueStyle, headerStyle, warningStyle lipgloss.Style) string {
	var s strings.Builder

	selected := m.getSelectedEmotion()
	if selected == nil {
		s.WriteString(headerStyle.Render("Library is empty"))
		return s.String()
	}

	s.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render("Selected:"), statsValueStyle.Render(selected.Name)))
	s.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render("Effect:"), selected.Effect))
	s.WriteString(fmt.Sprintf("%s %d-%dHz over %dms\n", statsLabelStyle.Render("Sweep:"), selected.StartFreq, selected.EndFreq, selected.Duration))
	s.WriteString(fmt.Sprintf("%s steps=%d repeat=%d extra=%d\n", statsLabelStyle.Render("Shape:"), selected.Steps, selected.Repeat, selected.Extra))
	s.WriteString(fmt.Sprintf("%s %.2f   %s %d\n", statsLabelStyle.Render("Intensity:"), selected.Intensity, statsLabelStyle.Render("Priority:"), selected.Priority))
	s.WriteString(fmt.Sprintf("%s %s   %s %s\n\n", statsLabelStyle.Render("Category:"), statsValueStyle.Render(selected.Category), statsLabelStyle.Render("Span:"), selected.Span()))

	// Blending area
	s.WriteString(statsLabelStyle.Render("Blend"))
	s.WriteString("\n")
	if m.mixFirst == nil {
		s.WriteString(headerStyle.Render("press m to mark the selected emotion"))
		s.WriteString("\n")
	} else {
		s.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render("Marked:"), warningStyle.Render(m.mixFirst.Name)))
		s.WriteString(headerStyle.Render("press m on another emotion to blend, esc to unmark"))
		s.WriteString("\n")
	}

	s.WriteString(statsLabelStyle.Render("Weight: "))
	if m.focusedField == focusWeightInput {
		s.WriteString(m.weightInput.View())
	} else {
		// Show as plain text when not focused
		val := m.weightInput.Value()
		if val == "" {
			val = m.weightInput.Placeholder
		}
		s.WriteString(fmt.Sprintf("[%s]", val))
	}

	return s.String()
}

func (m soundboardModel) renderSoundLog(statsLabelStyle, warningStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyleLocal := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	logHeight := 8
	if len(m.eventLog) < logHeight {
		logHeight = len(m.eventLog)
	}

	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyleLocal
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(timestamp),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

//////////////////////////////////////////////////////////////
// Helpers
//////////////////////////////////////////////////////////////

func (m *soundboardModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m soundboardModel) getSelectedEmotion() *chirp.Emotion {
	if len(m.library) == 0 {
		return nil
	}

	idx := m.emotionList.Index()
	if idx < 0 || idx >= len(m.library) {
		return nil
	}

	return &m.library[idx]
}

func (m *soundboardModel) updateEmotionList() {
	items := make([]list.Item, len(m.library))
	for i, e := range m.library {
		items[i] = emotionItem{emotion: e}
	}
	m.emotionList.SetItems(items)
}

func (m *soundboardModel) updateListSize() {
	// Adjust list size based on terminal size
	listHeight := m.height - 16
	if listHeight < 6 {
		listHeight = 6
	}
	m.emotionList.SetSize(34, listHeight)
}
