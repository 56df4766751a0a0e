// cmd/tools/docx-inspect/main.go
//
// docx-inspect prints the table, paragraph and picture layout of generated
// .docx files.
//
//	docx-inspect EvidenciaFotografica.docx
//	docx-inspect --cells --json orden_servicio.docx
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"shop-documents/internal/documents/docx"
)

type options struct {
	cells  bool
	asJSON bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "docx-inspect [file...]",
		Short: "Summarize the structure of .docx files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := inspectFile(cmd.OutOrStdout(), path, opts); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.cells, "cells", false, "print the text of every table cell")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the summary as JSON")
	return cmd
}

type partSummary struct {
	Name       string         `json:"name"`
	Tables     []tableSummary `json:"tables"`
	Paragraphs int            `json:"paragraphs"`
	Images     int            `json:"images"`
	PageBreaks int            `json:"pageBreaks"`
}

type tableSummary struct {
	Rows   int        `json:"rows"`
	Cols   int        `json:"cols"`
	Images int        `json:"images"`
	Cells  [][]string `json:"cells,omitempty"`
}

type fileSummary struct {
	File    string        `json:"file"`
	Body    partSummary   `json:"body"`
	Headers []partSummary `json:"headers,omitempty"`
	Media   int           `json:"media"`
}

func inspectFile(w io.Writer, path string, opts *options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	pkg, err := docx.Inspect(data)
	if err != nil {
		return err
	}

	summary := fileSummary{
		File:  path,
		Body:  summarize(pkg.Body, opts.cells),
		Media: len(pkg.Media),
	}
	for _, h := range pkg.Headers {
		summary.Headers = append(summary.Headers, summarize(h, opts.cells))
	}

	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printSummary(w, summary)
	return nil
}

func summarize(p docx.Part, withCells bool) partSummary {
	s := partSummary{
		Name:       p.Name,
		Paragraphs: len(p.Paragraphs),
		Images:     p.ImageCount(),
		PageBreaks: p.PageBreaks,
	}
	for _, t := range p.Tables {
		ts := tableSummary{Rows: t.Rows(), Cols: t.Cols(), Images: t.ImageCount()}
		if withCells {
			for _, row := range t.Cells {
				texts := make([]string, len(row))
				for i, c := range row {
					texts[i] = c.Text
				}
				ts.Cells = append(ts.Cells, texts)
			}
		}
		s.Tables = append(s.Tables, ts)
	}
	return s
}

func printSummary(w io.Writer, s fileSummary) {
	fmt.Fprintf(w, "%s (%d media files)\n", s.File, s.Media)
	for _, h := range s.Headers {
		printPart(w, h)
	}
	printPart(w, s.Body)
}

func printPart(w io.Writer, p partSummary) {
	fmt.Fprintf(w, "  %s: %d tables, %d paragraphs, %d images, %d page breaks\n",
		p.Name, len(p.Tables), p.Paragraphs, p.Images, p.PageBreaks)
	for i, t := range p.Tables {
		fmt.Fprintf(w, "    table %d: %dx%d, %d images\n", i+1, t.Rows, t.Cols, t.Images)
		for _, row := range t.Cells {
			fmt.Fprintf(w, "      | %s |\n", strings.Join(row, " | "))
		}
	}
}
