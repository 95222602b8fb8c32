package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

type entry struct {
	Level   string         `json:"level"`
	Time    string         `json:"time"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

var debugEnabled = os.Getenv("TWITBOT_DEBUG") != ""

func write(w io.Writer, level, msg string, fields map[string]any) {
	e := entry{Level: level, Time: time.Now().UTC().Format(time.RFC3339Nano), Message: msg, Fields: fields}
	b, _ := json.Marshal(e)
	fmt.Fprintln(w, string(b))
}

func Info(msg string, fields map[string]any) { write(os.Stdout, "info", msg, fields) }

func Error(msg string, fields map[string]any) { write(os.Stderr, "error", msg, fields) }

// Debug logs only when TWITBOT_DEBUG is set.
func Debug(msg string, fields map[string]any) {
	if !debugEnabled {
		return
	}
	write(os.Stdout, "debug", msg, fields)
}
