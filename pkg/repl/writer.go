/*
 * Copyright (c) 2023, Gideon Williams gideon@gideonw.com
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package repl

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/nao1215/markdown"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

var Formats = []string{FormatText, FormatCSV, FormatJSON, FormatMarkdown}

// Printable is anything that can be laid out as rows of a table.
type Printable interface {
	Headers() []string
	Values() [][]string
}

type jsonPrintable interface {
	JSON(pretty bool) ([]byte, error)
}

type OutputWriter interface {
	Write(v Printable) error
}

type CSVWriter struct {
	w io.Writer
}

type TextWriter struct {
	w io.Writer
}

type JSONWriter struct {
	w io.Writer
}

type MarkdownWriter struct {
	w     io.Writer
	title string
}

// ValidFormat reports whether NewOutputWriter knows the format.
func ValidFormat(t string) bool {
	for _, f := range Formats {
		if f == t {
			return true
		}
	}
	return false
}

func NewOutputWriter(w io.Writer, t string) OutputWriter {
	switch t {
	case FormatCSV:
		return CSVWriter{
			w,
		}
	case FormatJSON:
		return JSONWriter{
			w,
		}
	case FormatMarkdown:
		return MarkdownWriter{
			w:     w,
			title: "Message symbols",
		}
	}
	return TextWriter{
		w,
	}
}

func (w CSVWriter) Write(v Printable) error {
	wtr := csv.NewWriter(w.w)
	if err := wtr.Write(v.Headers()); err != nil {
		return err
	}
	return wtr.WriteAll(v.Values())
}

func (w TextWriter) Write(v Printable) error {
	table := tablewriter.NewWriter(w.w)
	table.Header(v.Headers())
	if err := table.Bulk(v.Values()); err != nil {
		return errors.Wrap(err, "unable to lay out table")
	}
	return table.Render()
}

// Write prints v as indented JSON. Values which know their own JSON form,
// like message results, are written with it.
func (w JSONWriter) Write(v Printable) error {
	if j, ok := v.(jsonPrintable); ok {
		b, err := j.JSON(true)
		if err != nil {
			return err
		}
		_, err = w.w.Write(append(b, '\n'))
		return err
	}

	enc := json.NewEncoder(w.w)
	enc.SetIndent("", "    ")
	return enc.Encode(v.Values())
}

func (w MarkdownWriter) Write(v Printable) error {
	md := markdown.NewMarkdown(w.w)
	md.H2(w.title)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: v.Headers(),
		Rows:   v.Values(),
	})
	return md.Build()
}
