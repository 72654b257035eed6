package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/expressfrac/internal/orchestrator"
)

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.header() + "\n")

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.st.panel.Render(m.summary()),
		m.st.panel.Render(m.profiles()),
	)
	b.WriteString(body + "\n")
	b.WriteString(m.st.panel.Width(m.log.Width + 2).Render(m.log.View()) + "\n")

	if m.showHelp {
		b.WriteString(m.helpView())
	} else {
		start := "s:start"
		if !m.orch.CanStart() {
			start = "s:(running)"
		}
		b.WriteString(m.st.help.Render(start + "  [ ]:step  g/G:first/latest  j/k:log  t:theme  ?:help  q:quit"))
	}
	return b.String()
}

func (m *Model) header() string {
	var status string
	switch {
	case m.orch.State() == orchestrator.Running:
		status = m.st.running.Render("RUNNING")
	case m.orch.Err() != nil:
		status = m.st.failed.Render("FAILED")
	default:
		status = m.st.idle.Render(strings.ToUpper(m.orch.State().String()))
	}
	title := m.st.title.Render("EXPRESSFRAC " + strings.ToUpper(m.req.Model))
	return fmt.Sprintf("%s  %s  %s", title, status, m.st.help.Render(m.orch.RunID()))
}

func (m *Model) row(label, value string) string {
	return m.st.label.Render(label) + m.st.value.Render(value) + "\n"
}

func (m *Model) summary() string {
	var b strings.Builder
	n := m.orch.Store().Len()
	if !m.view.ok {
		b.WriteString(m.row("Step", fmt.Sprintf("-/%d", n)))
		b.WriteString(m.st.help.Render("no step selected"))
		return b.String()
	}
	s := m.view.step.Summary
	b.WriteString(m.row("Step", fmt.Sprintf("step %d/%d", m.view.index+1, n)))
	b.WriteString(m.row("Time", fmt.Sprintf("%.2f s", s.Time)))
	b.WriteString(m.row("Front", fmt.Sprintf("%.2f m", s.FrontLocation)))
	b.WriteString(m.row("Width", fmt.Sprintf("%.3f mm", s.MaxWidth*1e3)))
	b.WriteString(m.row("Pressure", fmt.Sprintf("%.3f MPa", s.NetPressure/1e6)))
	b.WriteString(m.row("Injected", fmt.Sprintf("%.2f m3", s.InjectedVolume)))
	b.WriteString(m.row("Leaked", fmt.Sprintf("%.2f m3", s.LeakedVolume)))
	b.WriteString(m.row("Efficiency", fmt.Sprintf("%.3f", s.Efficiency)))
	return b.String()
}

// profiles plots the selected step's width and pressure along the wing.
func (m *Model) profiles() string {
	if !m.view.ok {
		return m.st.help.Render("profiles appear once results arrive")
	}
	f := m.view.step.Fields
	if len(f.Width) < 2 {
		return m.st.help.Render("no field data")
	}
	w := max(m.width-50, 20)
	width := scale(f.Width, 1e3)
	pressure := scale(f.Pressure, 1e-6)
	return m.st.graph.Render(
		asciigraph.Plot(width, asciigraph.Height(5), asciigraph.Width(w), asciigraph.Caption("width [mm]")) +
			"\n\n" +
			asciigraph.Plot(pressure, asciigraph.Height(5), asciigraph.Width(w), asciigraph.Caption("net pressure [MPa]")),
	)
}

func scale(v []float64, k float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * k
	}
	return out
}

func (m *Model) helpView() string {
	var b strings.Builder
	for _, k := range m.keys.bindings() {
		h := k.Help()
		b.WriteString(fmt.Sprintf("  %-6s %s\n", h.Key, h.Desc))
	}
	return m.st.panel.Render(b.String())
}
