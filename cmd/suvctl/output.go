package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

type printer struct {
	format string
	w      io.Writer
}

// tabular is the table rendering of a command result.
type tabular interface {
	header() table.Row
	rows() []table.Row
}

// print writes v as JSON or YAML, or as t in table mode. A nil t falls back
// to YAML.
func (p printer) print(v any, t tabular) error {
	switch p.format {
	case outputJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	if t == nil {
		return printer{format: outputYAML, w: p.w}.print(v, nil)
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(t.header())
	tw.AppendRows(t.rows())
	_, err := fmt.Fprintln(p.w, tw.Render())
	return err
}

// message prints a one-line status unless structured output was requested.
func (p printer) message(format string, args ...any) {
	if p.format != outputTable {
		return
	}
	fmt.Fprintf(p.w, format+"\n", args...)
}
