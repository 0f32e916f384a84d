/*
 * Copyright (c) 2022, Gideon Williams gideon@gideonw.com
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package proto

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/dillonhicks/msgparse/pkg/message"
	"github.com/pkg/errors"
)

// MaxLineSize bounds a single request line. Longer lines are an error on the
// reading side; servers truncate message content well below this.
const MaxLineSize = 4 << 20

// MessageReader reads newline terminated messages.
type MessageReader struct {
	scanner *bufio.Scanner
}

func NewMessageReader(r io.Reader) *MessageReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &MessageReader{scanner: scanner}
}

// ReadMessage returns the next message without its line terminator. It
// returns io.EOF once the stream is exhausted.
func (mr *MessageReader) ReadMessage() (string, error) {
	if !mr.scanner.Scan() {
		if err := mr.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}

	return string(bytes.TrimRight(mr.scanner.Bytes(), "\r")), nil
}

// WriteMessage writes content as a single request line. Line terminators
// inside content would split it into several messages, so they are replaced
// by spaces.
func WriteMessage(w io.Writer, content string) error {
	line := bytes.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, []byte(content))

	_, err := w.Write(append(line, '\n'))
	return err
}

type ResponseWriter struct {
	w      io.Writer
	pretty bool
}

// NewResponseWriter ...
func NewResponseWriter(w io.Writer, pretty bool) ResponseWriter {
	return ResponseWriter{
		w:      w,
		pretty: pretty,
	}
}

func (rw ResponseWriter) WriteResult(r message.Result) (int, error) {
	b, err := r.JSON(rw.pretty)
	if err != nil {
		return 0, errors.Wrap(err, "unable to marshal result")
	}

	return rw.w.Write(append(b, '\n'))
}

// ResponseReader decodes results. JSON documents are self-delimiting, so
// pretty and compact responses read the same.
type ResponseReader struct {
	dec *json.Decoder
}

func NewResponseReader(r io.Reader) *ResponseReader {
	return &ResponseReader{dec: json.NewDecoder(r)}
}

func (rr *ResponseReader) ReadResult() (message.Result, error) {
	var r message.Result
	if err := rr.dec.Decode(&r); err != nil {
		return message.Result{}, err
	}
	return r, nil
}
