package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/irfndi/exohunter-go/internal/services"
	"github.com/irfndi/exohunter-go/pkg/lightcurve"
)

var (
	accent  = lipgloss.Color("#7C3AED")
	muted   = lipgloss.Color("#6C7086")
	success = lipgloss.Color("#A6E3A1")
	warning = lipgloss.Color("#F9E2AF")
	danger  = lipgloss.Color("#F38BA8")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle   = lipgloss.NewStyle().Foreground(muted).Width(16)
	successStyle = lipgloss.NewStyle().Foreground(success)
	warningStyle = lipgloss.NewStyle().Foreground(warning)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(danger)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1)
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// renderReport is the terminal summary of an analysis.
func renderReport(report *lightcurve.Report) string {
	lines := []string{
		titleStyle.Render("Light curve analysis"),
		row("File", report.FileName),
		row("Upload id", report.UploadID),
		row("Data points", fmt.Sprintf("%d", report.DataPoints)),
		row("Detrending", report.QualityMetrics.DetrendingMethod),
	}

	if !report.Detected() {
		lines = append(lines, warningStyle.Render("No periodic transit signal found"))
		return panelStyle.Render(strings.Join(lines, "\n"))
	}

	period := report.DetectedPeriods[0]
	candidate := report.TransitCandidates[0]
	lines = append(lines,
		successStyle.Render("Transit candidate detected"),
		row("Period", fmt.Sprintf("%.4f d", period.Period)),
		row("Depth", fmt.Sprintf("%.0f ppm", period.Depth*1e6)),
		row("Duration", fmt.Sprintf("%.2f h", candidate.Duration)),
		row("Epoch", fmt.Sprintf("%.4f d", candidate.Epoch)),
		row("Significance", fmt.Sprintf("%.2f", period.Significance)),
		row("Transits", fmt.Sprintf("%d", report.QualityMetrics.TransitCount)),
	)
	if !report.Flags.WithinPeriodBounds {
		lines = append(lines, warningStyle.Render("Period is outside the requested search range"))
	}
	if !report.Flags.AboveThreshold {
		lines = append(lines, warningStyle.Render("Significance is below the requested threshold"))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

// renderPlanet is the terminal summary of an archive lookup.
func renderPlanet(lookup *services.PlanetLookup) string {
	if lookup.Planet == nil {
		msg := lookup.Error
		if msg == "" {
			msg = fmt.Sprintf("No exoplanet data found for %q", lookup.Name)
		}
		return warningStyle.Render(msg)
	}

	p := lookup.Planet
	lines := []string{titleStyle.Render(p.Name)}
	lines = append(lines, row("Host star", p.HostName))
	if p.DiscoveryMethod != "" {
		lines = append(lines, row("Discovered", fmt.Sprintf("%s (%d)", p.DiscoveryMethod, p.DiscoveryYear)))
	}
	if s := lookup.Summary; s != nil {
		lines = append(lines,
			row("Orbital period", s.OrbitalPeriod),
			row("Radius", s.Radius),
			row("Mass", s.Mass),
			row("Eq. temperature", s.EqTemperature),
			row("Distance", s.Distance),
		)
	}
	lines = append(lines, row("Eyes", lookup.Eyes.Planet))
	if lookup.Cached {
		lines = append(lines, lipgloss.NewStyle().Foreground(muted).Render("(cached)"))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}
