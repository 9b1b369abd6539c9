package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"smsgw/pkg/report"
)

// tickMsg triggers a periodic data refresh.
type tickMsg time.Time

// snapshotMsg carries a fetched state snapshot.
type snapshotMsg snapshot

// tickCmd returns a command that sends a tickMsg after 2 seconds.
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchCmd returns a tea.Cmd that fetches the current gateway state.
func fetchCmd(page int) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(fetchSnapshot(context.Background(), page))
	}
}

// Model is the Bubble Tea model for the smsgw dashboard.
type Model struct {
	table    table.Model
	page     int
	total    int
	messages int
	activity []string
	err      error

	width  int
	height int
}

func newModel() Model {
	t := table.New(
		table.WithColumns(queueColumns(80)),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles())

	return Model{table: t, page: 1}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchCmd(m.page), tickCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(queueColumns(msg.Width))
		if msg.Height > 12 {
			m.table.SetHeight(msg.Height - 10)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, fetchCmd(m.page)
		case "left", "h":
			if m.page > 1 {
				m.page--
				return m, fetchCmd(m.page)
			}
			return m, nil
		case "right", "l":
			if m.page*report.PageSize < m.total {
				m.page++
				return m, fetchCmd(m.page)
			}
			return m, nil
		}

	case tickMsg:
		return m, tea.Batch(fetchCmd(m.page), tickCmd())

	case snapshotMsg:
		snap := snapshot(msg)
		m.err = snap.err
		if snap.err == nil {
			m.total = snap.total
			m.messages = snap.messages
			m.activity = snap.activity
			m.table.SetRows(queueRows(snap.queue))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func queueColumns(width int) []table.Column {
	addrWidth := 16
	dataWidth := width - 4 - 12 - addrWidth - 10 - 19 - 12
	if dataWidth < 10 {
		dataWidth = 10
	}
	return []table.Column{
		{Title: "NR", Width: 4},
		{Title: "HASH", Width: 12},
		{Title: "ADDRESS", Width: addrWidth},
		{Title: "STATUS", Width: 10},
		{Title: "TIME", Width: 19},
		{Title: "DATA", Width: dataWidth},
	}
}

func queueRows(rows []report.QueueRow) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		hash := r.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		out[i] = table.Row{
			strconv.Itoa(r.Nr),
			hash,
			r.Address,
			string(r.Status),
			r.Time,
			r.Data,
		}
	}
	return out
}

// View implements tea.Model.
func (m Model) View() string {
	header := titleStyle.Render("smsgw") + " " +
		subtleStyle.Render(fmt.Sprintf("%d commands, %d messages · page %d", m.total, m.messages, m.page))

	body := m.table.View()

	footer := subtleStyle.Render("q quit · r refresh · ←/→ page")
	if m.err != nil {
		footer = errStyle.Render(m.err.Error())
	}

	view := header + "\n\n" + body + "\n"
	for _, line := range m.activity {
		view += subtleStyle.Render(line) + "\n"
	}
	return view + "\n" + footer + "\n"
}
