// Package logging emits one JSON object per line on stdout, flat so the
// lines grep and jq cleanly.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Log writes a single line. Field keys must not collide with "level",
// "time" or "msg"; colliding keys are overwritten by the envelope.
func Log(level, msg string, fields map[string]any) {
	line := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		line[k] = v
	}
	line["level"] = level
	line["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	line["msg"] = msg
	b, err := json.Marshal(line)
	if err != nil {
		fmt.Fprintf(os.Stdout, `{"level":"error","msg":"unloggable entry: %s"}`+"\n", err)
		return
	}
	fmt.Fprintln(os.Stdout, string(b))
}

func Info(msg string, fields map[string]any)  { Log(LevelInfo, msg, fields) }
func Warn(msg string, fields map[string]any)  { Log(LevelWarn, msg, fields) }
func Error(msg string, fields map[string]any) { Log(LevelError, msg, fields) }
