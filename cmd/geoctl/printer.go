package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/seo-optimizer/geo/ranking"
)

type colorMode int

const (
	colorAuto colorMode = iota
	colorAlways
	colorNever
)

func parseColorMode(s string) (colorMode, error) {
	switch s {
	case "auto":
		return colorAuto, nil
	case "always":
		return colorAlways, nil
	case "never":
		return colorNever, nil
	default:
		return colorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

func resolveColors(mode colorMode) bool {
	switch mode {
	case colorAlways:
		return true
	case colorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		return os.Getenv("TERM") != "dumb" && !color.NoColor
	}
}

// printer writes human readable output, colored when enabled.
type printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

func newPrinter(out, errOut io.Writer, useColors bool) *printer {
	return &printer{out: out, err: errOut, useColors: useColors}
}

func (p *printer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.useColors {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (p *printer) Print(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) Warning(format string, args ...any) {
	if p.useColors {
		p.paint(color.FgYellow).Fprintf(p.err, "⚠ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
}

func (p *printer) Header(title string) {
	if p.useColors {
		p.paint(color.FgWhite, color.Bold).Fprintf(p.out, "\n%s\n", title)
		p.paint(color.FgWhite).Fprintf(p.out, "%s\n", strings.Repeat("─", len([]rune(title))))
		return
	}
	fmt.Fprintf(p.out, "\n%s\n%s\n", title, strings.Repeat("-", len([]rune(title))))
}

// List prints items as a bulleted list; empty lists are skipped.
func (p *printer) List(title string, items []string) {
	if len(items) == 0 {
		return
	}
	p.Header(title)
	for _, it := range items {
		fmt.Fprintf(p.out, "  • %s\n", it)
	}
}

// Score colors a 0-100 score by band.
func (p *printer) Score(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	switch {
	case v >= 85:
		return p.paint(color.FgGreen).Sprint(s)
	case v >= 70:
		return p.paint(color.FgCyan).Sprint(s)
	case v >= 55:
		return p.paint(color.FgYellow).Sprint(s)
	default:
		return p.paint(color.FgRed).Sprint(s)
	}
}

func (p *printer) Tier(t ranking.Tier) string {
	label := strings.ReplaceAll(string(t), "_", " ")
	switch t {
	case ranking.TierLeader:
		return p.paint(color.FgGreen, color.Bold).Sprint(label)
	case ranking.TierStrong:
		return p.paint(color.FgCyan).Sprint(label)
	case ranking.TierAverage:
		return p.paint(color.FgYellow).Sprint(label)
	default:
		return p.paint(color.FgRed).Sprint(label)
	}
}

func (p *printer) Bold(text string) string {
	return p.paint(color.Bold).Sprint(text)
}

// Table renders rows under headers without borders.
func (p *printer) Table(headers []string, rows [][]string) {
	table := tablewriter.NewTable(p.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(headers)
	table.Bulk(rows)
	table.Render()
}
