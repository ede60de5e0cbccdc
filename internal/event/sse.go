package event

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteSSE writes e as one server-sent event:
//
//	event: <tag>
//	data: <payload json>
//
// followed by a blank line.
func WriteSSE(w io.Writer, e Event) error {
	body, err := e.Payload()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Tag, body)
	return err
}

// ReadSSE decodes a server-sent event stream written by WriteSSE.
// Comment lines and unknown fields are skipped.
func ReadSSE(r io.Reader) ([]Event, error) {
	var (
		out  []Event
		tag  Tag
		data strings.Builder
	)
	flush := func() error {
		defer func() {
			tag = ""
			data.Reset()
		}()
		if tag == "" && data.Len() == 0 {
			return nil
		}
		if tag == "" {
			tag = "message"
		}
		e, err := Decode(tag, []byte(data.String()))
		if err != nil {
			return err
		}
		out = append(out, e)
		return nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if err := flush(); err != nil {
				return out, err
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			tag = Tag(strings.TrimSpace(strings.TrimPrefix(line, "event:")))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := sc.Err(); err != nil {
		return out, err
	}
	return out, flush()
}
