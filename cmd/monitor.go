// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Marin Skelhorn

package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/skelhorn/aeolian/pkg/mgc3130"
	"github.com/spf13/cobra"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live TUI for sensor frames and decoded events",
	Long: `Full-screen terminal dashboard for an MGC3130 sensor.

Shows the live hand position, air-wheel rotation, the most recent gesture
and touch, frame statistics and an event log. The sensor is reset and
configured on startup; if the backend drops, the monitor reconnects with
exponential backoff and reconfigures the sensor.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

// setupSensor resets and configures a freshly opened backend.
func setupSensor(backend Backend) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dev := mgc3130.New(backend)
	if err := dev.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := dev.Configure(ctx); err != nil {
		return fmt.Errorf("configure: %w", err)
	}
	return nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	backend, info, err := openBackend()
	if err != nil {
		return err
	}

	if err := setupSensor(backend); err != nil {
		backend.Close()
		return err
	}

	sm := &sensorManager{
		backend: backend,
		info:    info,
		done:    make(chan struct{}),
	}

	m := initialMonitorModel(info)
	p := tea.NewProgram(m, tea.WithAltScreen())
	sm.p = p

	go sm.readerLoop()

	if _, err := p.Run(); err != nil {
		close(sm.done)
		sm.getBackend().Close()
		return fmt.Errorf("TUI error: %v", err)
	}

	close(sm.done)
	sm.getBackend().Close()
	return nil
}

//////////////////////////////////////////////////////////////
// Sensor Manager
//////////////////////////////////////////////////////////////

// sensorManager owns the backend and feeds frames to the TUI, reconnecting
// when the backend fails
type sensorManager struct {
	backend Backend
	info    string
	mu      sync.RWMutex
	p       *tea.Program
	done    chan struct{}
}

func (sm *sensorManager) getBackend() Backend {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.backend
}

func (sm *sensorManager) setBackend(backend Backend, info string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.backend = backend
	sm.info = info
}

// readerLoop reads frames with automatic reconnection
func (sm *sensorManager) readerLoop() {
	for {
		select {
		case <-sm.done:
			return
		default:
		}

		err := sm.readFrames()
		if err == nil {
			return // Shutdown requested
		}

		// Notify TUI about the lost backend
		sm.p.Send(monitorConnLostMsg{err: err})

		// Attempt to reconnect
		if !sm.reconnect() {
			return // Shutdown requested during reconnect
		}
	}
}

// readFrames polls the transport until the backend fails.
// Returns the bus error, or nil if shutdown was requested.
func (sm *sensorManager) readFrames() error {
	var readErr error

	// Buffered channel for batching updates
	frameChan := make(chan monitorFrameMsg, 256)
	readerDone := make(chan struct{})

	// Reader goroutine - decodes frames and sends to the batch channel
	go func() {
		defer close(readerDone)
		transport := mgc3130.NewTransport(sm.getBackend())
		ctx := context.Background()
		for {
			select {
			case <-sm.done:
				return
			default:
			}

			raw, ok, err := transport.TryRead(ctx)
			if err != nil {
				readErr = err
				return
			}
			if !ok {
				time.Sleep(time.Millisecond)
				continue
			}

			events := mgc3130.Decode(raw)
			select {
			case frameChan <- monitorFrameMsg{raw: raw, events: events}:
			default:
			}
		}
	}()

	// Batch sender goroutine - sends batched updates to the TUI at a fixed rate
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-sm.done:
				return
			case <-readerDone:
				return
			case <-ticker.C:
				var batch monitorBatchMsg

				// Drain all available frames from the channel
			drainLoop:
				for {
					select {
					case f := <-frameChan:
						batch.frames = append(batch.frames, f)
					default:
						break drainLoop
					}
				}

				if len(batch.frames) > 0 {
					sm.p.Send(batch)
				}
			}
		}
	}()

	// Wait for the reader to finish (backend lost or shutdown)
	<-readerDone

	// Check if we're shutting down
	select {
	case <-sm.done:
		return nil
	default:
		return readErr
	}
}

// reconnect attempts to reopen and reconfigure the backend with exponential
// backoff. Returns false if shutdown was requested during reconnection.
func (sm *sensorManager) reconnect() bool {
	// Close old backend
	if backend := sm.getBackend(); backend != nil {
		backend.Close()
	}

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-sm.done:
			return false
		case <-time.After(backoff):
		}

		backend, info, err := openBackend()
		if err == nil {
			if err = setupSensor(backend); err == nil {
				sm.setBackend(backend, info)
				sm.p.Send(monitorReconnectedMsg{info: info})
				return true
			}
			backend.Close()
		}

		// Exponential backoff
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

//////////////////////////////////////////////////////////////
// Model
//////////////////////////////////////////////////////////////

type monitorModel struct {
	backendInfo string

	stats   *mgc3130.Statistics
	tracker mgc3130.AirWheelTracker

	// Latest readings
	lastPosition *mgc3130.PositionSample
	positionSeen time.Time
	lastGesture  *mgc3130.GestureEvent
	gestureSeen  time.Time
	lastTouch    *mgc3130.TouchEvent
	touchSeen    time.Time
	lastWheel    *mgc3130.AirWheelSample
	firmware     string

	eventLog      []eventLogEntry
	maxLogEntries int

	// UI state
	width          int
	height         int
	connectionLost bool
	quitting       bool
}

// Messages
type monitorTickMsg time.Time

type monitorFrameMsg struct {
	raw    []byte
	events []mgc3130.Event
}

type monitorBatchMsg struct {
	frames []monitorFrameMsg
}

type monitorConnLostMsg struct {
	err error
}

type monitorReconnectedMsg struct {
	info string
}

func initialMonitorModel(backendInfo string) monitorModel {
	return monitorModel{
		backendInfo:   backendInfo,
		stats:         mgc3130.NewStatistics(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return monitorTickCmd()
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorTickMsg:
		// Update statistics rates
		m.stats.CalculateRates()
		return m, monitorTickCmd()

	case monitorBatchMsg:
		for _, f := range msg.frames {
			m.processFrame(f)
		}

	case monitorConnLostMsg:
		m.connectionLost = true
		m.stats.RecordBusError()
		m.addLogEntry(fmt.Sprintf("Backend lost (%v) - reconnecting...", msg.err), true)

	case monitorReconnectedMsg:
		m.connectionLost = false
		m.backendInfo = msg.info
		m.tracker.Reset()
		m.addLogEntry("Reconnected - sensor reconfigured", false)
	}

	return m, nil
}

// processFrame folds one frame into the statistics and latest readings.
// Positions and air-wheel samples update their panes without logging;
// everything else goes to the event log.
func (m *monitorModel) processFrame(f monitorFrameMsg) {
	m.stats.RecordFrame(f.raw, f.events)

	for _, ev := range f.events {
		switch e := ev.(type) {
		case mgc3130.PositionSample:
			sample := e
			m.lastPosition = &sample
			m.positionSeen = time.Now()

		case mgc3130.AirWheelSample:
			sample := e
			m.lastWheel = &sample
			m.tracker.Update(e.Raw)

		case mgc3130.GestureEvent:
			gesture := e
			m.lastGesture = &gesture
			m.gestureSeen = time.Now()
			m.addLogEntry(e.String(), false)

		case mgc3130.TouchEvent:
			touch := e
			m.lastTouch = &touch
			m.touchSeen = time.Now()
			m.addLogEntry(e.String(), false)

		case mgc3130.FirmwareVersion:
			m.firmware = e.Version
			m.addLogEntry(e.String(), false)
		}
	}
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep log size limited
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

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

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("AEOLIAN MONITOR"))
	s.WriteString("\n")
	connStatus := m.backendInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("Backend: %s | Press 'q' to quit", connStatus)))
	s.WriteString("\n\n")

	// Position pane
	posContent := strings.Builder{}
	if m.lastPosition == nil {
		posContent.WriteString(headerStyle.Render("No position yet - move a hand above the electrodes"))
	} else {
		barWidth := m.width - 24
		if barWidth > 40 {
			barWidth = 40
		}
		if barWidth < 10 {
			barWidth = 10
		}
		posContent.WriteString(fmt.Sprintf("%s %s %s\n",
			statsLabelStyle.Render("X:"),
			statsValueStyle.Render(fmt.Sprintf("%.4f", m.lastPosition.X)),
			renderBar(m.lastPosition.X, barWidth)))
		posContent.WriteString(fmt.Sprintf("%s %s %s\n",
			statsLabelStyle.Render("Y:"),
			statsValueStyle.Render(fmt.Sprintf("%.4f", m.lastPosition.Y)),
			renderBar(m.lastPosition.Y, barWidth)))
		posContent.WriteString(fmt.Sprintf("%s %s %s",
			statsLabelStyle.Render("Z:"),
			statsValueStyle.Render(fmt.Sprintf("%.4f", m.lastPosition.Z)),
			renderBar(m.lastPosition.Z, barWidth)))
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(posContent.String()))
	s.WriteString("\n\n")

	// Motion pane: air wheel, last gesture, last touch, firmware
	motionContent := strings.Builder{}
	if m.lastWheel != nil {
		degrees := m.tracker.Turns() * 360
		motionContent.WriteString(fmt.Sprintf("%s %s (raw %d, %+d steps, %.2f turns)\n",
			statsLabelStyle.Render("Air wheel:"),
			statsValueStyle.Render(fmt.Sprintf("%+.0f°", degrees)),
			m.lastWheel.Raw, m.tracker.Steps(), m.tracker.Turns()))
	} else {
		motionContent.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Air wheel:"),
			headerStyle.Render("(none yet)")))
	}

	if m.lastGesture != nil {
		motionContent.WriteString(fmt.Sprintf("%s %s %s\n",
			statsLabelStyle.Render("Gesture:"),
			statsValueStyle.Render(m.lastGesture.String()),
			headerStyle.Render(ago(m.gestureSeen))))
	} else {
		motionContent.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Gesture:"),
			headerStyle.Render("(none yet)")))
	}

	if m.lastTouch != nil {
		motionContent.WriteString(fmt.Sprintf("%s %s %s\n",
			statsLabelStyle.Render("Touch:"),
			statsValueStyle.Render(m.lastTouch.String()),
			headerStyle.Render(ago(m.touchSeen))))
	} else {
		motionContent.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Touch:"),
			headerStyle.Render("(none yet)")))
	}

	if m.firmware != "" {
		motionContent.WriteString(fmt.Sprintf("%s %s",
			statsLabelStyle.Render("Firmware:"),
			statsValueStyle.Render(m.firmware)))
	} else {
		motionContent.WriteString(fmt.Sprintf("%s %s",
			statsLabelStyle.Render("Firmware:"),
			headerStyle.Render("(not announced)")))
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(motionContent.String()))
	s.WriteString("\n\n")

	// Statistics pane
	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Frames:"),
		statsValueStyle.Render(fmt.Sprintf("%d (%.1f/s)", m.stats.Frames, m.stats.FrameRate)),
		statsLabelStyle.Render("Events:"),
		statsValueStyle.Render(fmt.Sprintf("%d (%.1f/s)", m.stats.TotalEvents(), m.stats.EventRate)),
		statsLabelStyle.Render("Bus errors:"), func() string {
			if m.stats.BusErrors > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", m.stats.BusErrors))
			}
			return statsValueStyle.Render("0")
		}(),
	))
	statsContent.WriteString(fmt.Sprintf("%s %d   %s %d   %s %d   %s %d   %s %d\n",
		statsLabelStyle.Render("Sensor:"), m.stats.SensorFrames,
		statsLabelStyle.Render("Status:"), m.stats.StatusFrames,
		statsLabelStyle.Render("Firmware:"), m.stats.FirmwareFrames,
		statsLabelStyle.Render("Unknown:"), m.stats.UnknownFrames,
		statsLabelStyle.Render("Short:"), m.stats.ShortFrames,
	))
	statsContent.WriteString(fmt.Sprintf("%s %d   %s %d   %s %d   %s %d   %s %s",
		statsLabelStyle.Render("Positions:"), m.stats.Positions,
		statsLabelStyle.Render("Gestures:"), m.stats.Gestures,
		statsLabelStyle.Render("Touches:"), m.stats.Touches,
		statsLabelStyle.Render("Air wheel:"), m.stats.AirWheels,
		statsLabelStyle.Render("Up:"), statsValueStyle.Render(formatUptime(time.Since(m.stats.StartTime))),
	))
	s.WriteString(boxStyle.Width(m.width - 4).Render(statsContent.String()))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Calculate how many log entries we can show
	logHeight := m.height - 21 // Reserve space for header and panes
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}

// renderBar draws a horizontal gauge for a normalized 0..1 value.
func renderBar(v float64, width int) string {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	filled := int(v*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func ago(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("(%ds ago)", int(time.Since(t).Seconds()))
}

// formatUptime renders a duration the way people say it
func formatUptime(d time.Duration) string {
	ms := uint64(d / time.Millisecond)
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24
	months := days / 30
	years := months / 12

	seconds %= 60
	minutes %= 60
	hours %= 24
	days %= 30
	months %= 12

	parts := []string{}
	if years > 0 {
		if years == 1 {
			parts = append(parts, "1 year")
		} else {
			parts = append(parts, fmt.Sprintf("%d years", years))
		}
	}
	if months > 0 {
		if months == 1 {
			parts = append(parts, "1 month")
		} else {
			parts = append(parts, fmt.Sprintf("%d months", months))
		}
	}
	if days > 0 {
		if days == 1 {
			parts = append(parts, "1 day")
		} else {
			parts = append(parts, fmt.Sprintf("%d days", days))
		}
	}
	if hours > 0 {
		if hours == 1 {
			parts = append(parts, "1 hour")
		} else {
			parts = append(parts, fmt.Sprintf("%d hours", hours))
		}
	}
	if minutes > 0 {
		if minutes == 1 {
			parts = append(parts, "1 minute")
		} else {
			parts = append(parts, fmt.Sprintf("%d minutes", minutes))
		}
	}
	if seconds > 0 || len(parts) == 0 {
		if seconds == 1 {
			parts = append(parts, "1 second")
		} else {
			parts = append(parts, fmt.Sprintf("%d seconds", seconds))
		}
	}

	// Join with commas and "and" for the last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}
