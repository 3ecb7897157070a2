// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// InitLogger sets up Apex with a custom handler and a log level from the
// LOCSPOOF_LOG env variable.
func InitLogger() {
	level := strings.ToUpper(os.Getenv("LOCSPOOF_LOG"))
	if level == "" {
		level = "ERROR"
	}
	log.SetHandler(NewCustomHandler(os.Stderr))

	// SetLevelFromString panics on junk, so parse first.
	l, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		l = log.ErrorLevel
	}
	log.SetLevel(l)
}

// CustomHandler formats log messages on a single line. Entry fields are
// appended as sorted key=value pairs.
type CustomHandler struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewCustomHandler returns a handler writing to w. Stderr is used so that
// structured command output on stdout is never interleaved with log lines.
func NewCustomHandler(w io.Writer) *CustomHandler {
	return &CustomHandler{out: w, now: time.Now}
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := h.now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp, level, e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}
