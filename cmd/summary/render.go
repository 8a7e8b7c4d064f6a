package main

import (
	"fmt"
	"io"
	"strings"

	"bikeshare-analytics/internal/models"
	"bikeshare-analytics/internal/services"
)

const (
	ruleWidth = 64
	barWidth  = 30
)

func rule(w io.Writer, char string) {
	fmt.Fprintln(w, strings.Repeat(char, ruleWidth))
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	rule(w, "═")
	fmt.Fprintln(w, title)
	rule(w, "═")
}

// bar scales value against peak into a fixed-width bar
func bar(value, peak float64) string {
	if peak <= 0 || value <= 0 {
		return ""
	}
	n := int(value / peak * barWidth)
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

func dayKind(workingDay bool) string {
	if workingDay {
		return "working day"
	}
	return "holiday/weekend"
}

// render writes the terminal rendition of a dashboard summary
func render(w io.Writer, s *services.Summary) {
	rule(w, "═")
	fmt.Fprintln(w, "BIKE RENTAL DASHBOARD")
	rule(w, "═")
	fmt.Fprintf(w, "Requested range: %s\n", s.RequestedRange)
	fmt.Fprintf(w, "Applied range:   %s (%d days)\n", s.AppliedRange, s.AppliedRange.Days())
	fmt.Fprintf(w, "Records:         %d\n", s.RecordCount)

	section(w, "HEADLINES")
	for _, h := range s.Headlines {
		if h.Delta != "" {
			fmt.Fprintf(w, "%-18s %s (%s)\n", h.Label+":", h.Value, h.Delta)
			continue
		}
		fmt.Fprintf(w, "%-18s %s\n", h.Label+":", h.Value)
	}

	if s.RecordCount == 0 {
		fmt.Fprintln(w, "\nNo records in the selected range.")
		return
	}

	section(w, "MEAN RENTALS BY TIME BLOCK")
	renderTimeBlocks(w, s.Charts.TimeBlocks)

	section(w, "MEAN RENTALS BY WIND CATEGORY")
	renderWind(w, s.Charts.WindCategories)

	section(w, "MEAN RENTALS BY HOUR")
	renderHourly(w, s.Charts.Hourly)

	section(w, "USER COMPOSITION")
	for _, c := range s.Charts.Composition {
		fmt.Fprintf(w, "%-12s %10d  %5.1f%%  %s\n", c.Label, c.Count, c.Percent, bar(c.Percent, 100))
	}
}

func renderTimeBlocks(w io.Writer, groups []models.TimeBlockMean) {
	peak := 0.0
	for _, g := range groups {
		if g.MeanTotal > peak {
			peak = g.MeanTotal
		}
	}
	for _, g := range groups {
		fmt.Fprintf(w, "%-16s %-16s %8.1f  %s\n", g.TimeBlock, dayKind(g.IsWorkingDay), g.MeanTotal, bar(g.MeanTotal, peak))
	}
}

func renderWind(w io.Writer, groups []models.WindCategoryMean) {
	peak := 0.0
	for _, g := range groups {
		if g.MeanTotal > peak {
			peak = g.MeanTotal
		}
	}
	for _, g := range groups {
		fmt.Fprintf(w, "%-10s %8.1f  (%d records)  %s\n", g.WindCategory, g.MeanTotal, g.Records, bar(g.MeanTotal, peak))
	}
}

func renderHourly(w io.Writer, points []models.HourlyPoint) {
	peak := 0.0
	for _, p := range points {
		if p.MeanTotal > peak {
			peak = p.MeanTotal
		}
	}
	for _, p := range points {
		kind := "H"
		if p.IsWorkingDay {
			kind = "W"
		}
		fmt.Fprintf(w, "%02d:00 %s %8.1f  %s\n", p.Hour, kind, p.MeanTotal, bar(p.MeanTotal, peak))
	}
	fmt.Fprintln(w, "W = working day, H = holiday/weekend")
}
