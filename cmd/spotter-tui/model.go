package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/spotty/pkg/config"
	"github.com/unklstewy/spotty/pkg/coordinates"
	"github.com/unklstewy/spotty/pkg/hexdb"
	"github.com/unklstewy/spotty/pkg/spotting"
)

// radiusStep is how far +/- move the search radius.
const radiusStep = 10.0

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	debugStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	baseStyle   = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

type settingsStore interface {
	Current() config.UserSettings
	Update(config.UserSettings) error
}

type storeEventMsg spotting.Event

type refreshDoneMsg struct{ err error }

type spottedMsg struct {
	callsign string
	err      error
}

type model struct {
	ctx      context.Context
	store    *spotting.Store
	events   <-chan spotting.Event
	refresh  func(context.Context) error
	location func() (coordinates.Geographic, bool)
	settings settingsStore
	spotted  spotting.SpottedStore
	alert    *proximityAlert

	table   table.Model
	flights []spotting.ResolvedFlight
	status  string
	err     error
}

func newModel(ctx context.Context, store *spotting.Store, events <-chan spotting.Event,
	refresh func(context.Context) error, location func() (coordinates.Geographic, bool),
	settings settingsStore, spotted spotting.SpottedStore) model {

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "DST km", Width: 8},
			{Title: "BRG", Width: 5},
			{Title: "CALLSIGN", Width: 9},
			{Title: "REG", Width: 8},
			{Title: "TYPE", Width: 6},
			{Title: "ROUTE", Width: 11},
			{Title: "OPERATOR", Width: 16},
		}),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(15),
		table.WithStyles(styles),
	)

	return model{
		ctx:      ctx,
		store:    store,
		events:   events,
		refresh:  refresh,
		location: location,
		settings: settings,
		spotted:  spotted,
		table:    t,
	}
}

func (m model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// waitForEvent blocks on the next store change. A closed channel ends the loop.
func waitForEvent(events <-chan spotting.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return storeEventMsg(ev)
	}
}

func (m model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: m.refresh(m.ctx)}
	}
}

func (m model) spotCmd(flight spotting.ResolvedFlight) tea.Cmd {
	return func() tea.Msg {
		return spottedMsg{callsign: flight.Callsign, err: m.spotted.Add(m.ctx, flight)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.status = "refreshing"
			return m, m.refreshCmd()
		case "+", "=":
			return m.adjustRadius(radiusStep)
		case "-", "_":
			return m.adjustRadius(-radiusStep)
		case "d":
			next := m.settings.Current()
			next.Debug = !next.Debug
			if err := m.settings.Update(next); err != nil {
				m.err = err
				return m, nil
			}
			m.status = fmt.Sprintf("debug %s (applies on next refresh)", onOff(next.Debug))
			return m, nil
		case "s":
			i := m.table.Cursor()
			if m.spotted == nil || i < 0 || i >= len(m.flights) {
				return m, nil
			}
			return m, m.spotCmd(m.flights[i])
		}

	case tea.WindowSizeMsg:
		if h := msg.Height - 8; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case storeEventMsg:
		m.flights = m.store.Snapshot()
		ref := m.reference()
		m.table.SetRows(flightRows(m.flights, ref))
		if m.alert != nil && ref != nil {
			if _, err := m.alert.check(m.flights, *ref); err != nil {
				m.err = fmt.Errorf("notification failed: %w", err)
			}
		}
		return m, waitForEvent(m.events)

	case refreshDoneMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = ""
		}
		return m, nil

	case spottedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.status = "spotted " + msg.callsign
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) adjustRadius(delta float64) (tea.Model, tea.Cmd) {
	next := m.settings.Current()
	next.RadiusKm = min(max(next.RadiusKm+delta, radiusStep), config.MaxRadiusKm)
	if err := m.settings.Update(next); err != nil {
		m.err = err
		return m, nil
	}
	m.status = fmt.Sprintf("radius %.0f km", next.RadiusKm)
	return m, m.refreshCmd()
}

func (m model) reference() *coordinates.Geographic {
	if m.location == nil {
		return nil
	}
	if loc, ok := m.location(); ok {
		return &loc
	}
	return nil
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("SPOTTY"))
	s.WriteString("\n\n")

	settings := m.settings.Current()
	line := fmt.Sprintf("Radius: %.0f km  Flights: %d  Gen: %d  Updated: %s",
		settings.RadiusKm, len(m.flights), m.store.Generation(), formatUpdated(m.store.LastUpdated()))
	s.WriteString(statusStyle.Render(line))
	if settings.Debug {
		s.WriteString("  ")
		s.WriteString(debugStyle.Render("DEBUG"))
	}
	s.WriteString("\n")

	if ref := m.reference(); ref == nil {
		s.WriteString(errStyle.Render("No observer location: pass --lat/--lon or set observer in config"))
		s.WriteString("\n")
	}

	s.WriteString(baseStyle.Render(m.table.View()))
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n")
	} else if m.status != "" {
		s.WriteString(statusStyle.Render(m.status))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("↑/↓: Select  r: Refresh  +/-: Radius  d: Debug  s: Spot  q: Quit"))
	return s.String()
}

// flightRows renders flights in store order. Distance and bearing are "-"
// when either position is unknown.
func flightRows(flights []spotting.ResolvedFlight, ref *coordinates.Geographic) []table.Row {
	rows := make([]table.Row, 0, len(flights))
	for _, f := range flights {
		dist, brg := "-", "-"
		if ref != nil && f.Position != nil {
			dist = fmt.Sprintf("%.1f", f.DistanceFrom(*ref))
			brg = fmt.Sprintf("%03.0f", coordinates.Bearing(*ref, *f.Position))
		}
		rows = append(rows, table.Row{
			dist,
			brg,
			f.Callsign,
			orDash(f.Registration),
			aircraftType(f),
			route(f.Origin, f.Destination),
			operator(f),
		})
	}
	return rows
}

func aircraftType(f spotting.ResolvedFlight) string {
	if f.ICAOTypeCode != nil && *f.ICAOTypeCode != "" {
		return *f.ICAOTypeCode
	}
	return orDash(f.ModelType)
}

func route(origin, destination *hexdb.AirportInfo) string {
	if origin == nil && destination == nil {
		return "-"
	}
	return airportCode(origin) + "-" + airportCode(destination)
}

func airportCode(a *hexdb.AirportInfo) string {
	if a == nil || a.ICAO == hexdb.Unknown {
		return "?"
	}
	return a.ICAO
}

func operator(f spotting.ResolvedFlight) string {
	if f.OperatorCode != spotting.OperatorPlaceholder {
		return f.OperatorCode
	}
	if f.RegisteredOwners != nil && *f.RegisteredOwners != "" {
		return *f.RegisteredOwners
	}
	return "-"
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func formatUpdated(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("15:04:05")
}
