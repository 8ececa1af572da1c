package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/geo/judge"
)

func newPersonasCmd(g *globals, build builder) *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List the configured judges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, p, _, cleanup, err := g.setup(cmd, build)
			if err != nil {
				return err
			}
			defer cleanup()

			personas := svc.Personas()
			if g.json {
				return writeJSON(cmd, personas)
			}
			renderPersonas(p, personas)
			return nil
		},
	}
}

func renderPersonas(p *printer, personas []judge.Persona) {
	rows := make([][]string, 0, len(personas))
	for _, ps := range personas {
		rows = append(rows, []string{ps.ID, ps.Name, ps.Model, focusString(ps.Focus)})
	}
	p.Table([]string{"id", "name", "model", "focus"}, rows)
}

func focusString(focus map[judge.Category]float64) string {
	if len(focus) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(focus))
	for c, w := range focus {
		parts = append(parts, fmt.Sprintf("%s×%.1f", c, w))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
