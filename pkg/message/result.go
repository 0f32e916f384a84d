/*
 * Copyright (c) 2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package message

import (
	"bytes"
	"encoding/json"
)

// Result holds the special symbols of a message. Empty lists are left out
// of the serialized form, so a message without symbols serializes to {}.
type Result struct {
	Mentions  []string `json:"mentions,omitempty"`
	Emoticons []string `json:"emoticons,omitempty"`
	Links     []Link   `json:"links,omitempty"`
}

func (r Result) Empty() bool {
	return len(r.Mentions) == 0 && len(r.Emoticons) == 0 && len(r.Links) == 0
}

// JSON serializes the result, indenting four spaces per level when pretty.
// Titles are written as-is, without HTML escaping.
func (r Result) JSON(pretty bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "    ")
	}

	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (r Result) Headers() []string {
	return []string{"Symbol", "Value", "Title"}
}

func (r Result) Values() [][]string {
	rows := make([][]string, 0, len(r.Mentions)+len(r.Emoticons)+len(r.Links))
	for _, m := range r.Mentions {
		rows = append(rows, []string{"mention", m, ""})
	}
	for _, e := range r.Emoticons {
		rows = append(rows, []string{"emoticon", e, ""})
	}
	for _, l := range r.Links {
		rows = append(rows, []string{"link", l.URL, l.Title})
	}
	return rows
}
