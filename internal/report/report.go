// Package report renders a dashboard result for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"datajobs/internal/core"
	"datajobs/internal/engine"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Filter flag names. A flag left unset keeps the default of the table; a
// flag set to the empty string selects nothing.
const (
	FlagYears         = "years"
	FlagSeniority     = "seniority"
	FlagContractTypes = "contracts"
	FlagCompanySizes  = "sizes"
	FlagJobTitle      = "title"
)

// ApplyFlags overrides the dimensions named in set, a map of flag name to
// comma-separated value, on top of defaults.
func ApplyFlags(set map[string]string, defaults engine.FilterSpec) (engine.FilterSpec, error) {
	spec := defaults

	if v, ok := set[FlagYears]; ok {
		years := []int{}
		for _, s := range splitList(v) {
			y, err := strconv.Atoi(s)
			if err != nil {
				return engine.FilterSpec{}, fmt.Errorf("invalid year %q", s)
			}
			years = append(years, y)
		}
		spec.Years = years
	}
	if v, ok := set[FlagSeniority]; ok {
		spec.Seniority = splitList(v)
	}
	if v, ok := set[FlagContractTypes]; ok {
		spec.ContractTypes = splitList(v)
	}
	if v, ok := set[FlagCompanySizes]; ok {
		spec.CompanySizes = splitList(v)
	}
	if v, ok := set[FlagJobTitle]; ok {
		spec.JobTitle = strings.TrimSpace(v)
		if spec.JobTitle == "" {
			spec.JobTitle = engine.AllJobTitles
		}
	}
	return spec, nil
}

func splitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Write renders res in format.
func Write(w io.Writer, res engine.Result, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case FormatText, "":
		return writeText(w, res)
	default:
		return fmt.Errorf("unknown format %q: must be %s or %s", format, FormatText, FormatJSON)
	}
}

func writeText(w io.Writer, res engine.Result) error {
	s := res.Summary
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Registros\t%s de %s\n", core.FormatCount(s.Count), core.FormatCount(res.TotalRows))
	fmt.Fprintf(tw, "Média Salarial (USD)\t%s\n", core.FormatUSD(s.MeanSalary))
	fmt.Fprintf(tw, "Salário Máximo (USD)\t%s\n", core.FormatUSD(s.MaxSalary))
	fmt.Fprintf(tw, "Salário Mínimo (USD)\t%s\n", core.FormatUSD(s.MinSalary))
	fmt.Fprintf(tw, "Mediana Salarial (USD)\t%s\n", core.FormatUSD(s.MedianSalary))
	fmt.Fprintf(tw, "Cargo Mais Comum\t%s\n", s.MostCommonTitle)

	if !s.HasData {
		fmt.Fprintln(tw, "\nNenhum dado encontrado para os filtros selecionados.")
		return tw.Flush()
	}

	fmt.Fprintln(tw, "\nTop 10 Cargos por Média Salarial (USD)")
	for i, t := range s.TopTitles {
		fmt.Fprintf(tw, "%2d. %s\t%s\t(%d)\n", i+1, t.JobTitle, core.FormatUSD(t.MeanUSD), t.Count)
	}

	fmt.Fprintln(tw, "\nTipos de Trabalho Remoto")
	for _, c := range s.RemoteRatio {
		fmt.Fprintf(tw, "%s\t%.1f%%\t(%d)\n", c.Label, c.Proportion*100, c.Count)
	}

	fmt.Fprintln(tw, "\nMédia Salarial por País (USD)")
	for _, c := range s.Countries {
		fmt.Fprintf(tw, "%s\t%s\t(%d)\n", c.ISO3, core.FormatUSD(c.MeanUSD), c.Count)
	}

	return tw.Flush()
}
