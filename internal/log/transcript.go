package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Transcript records foreign-toolchain activity with optional file output:
// one timestamped line per tool invocation, followed by the tool's combined
// output verbatim.
type Transcript interface {
	Command(tool string, args []string)
	Output(data []byte)
}

// transcript implements Transcript with thread-safe writes.
type transcript struct {
	w  io.Writer
	mu sync.Mutex
}

// NewTranscript creates a new Transcript. If writer is nil, returns a no-op
// transcript.
func NewTranscript(w io.Writer) Transcript {
	return &transcript{w: w}
}

// Command emits a single-line record of one tool invocation.
func (t *transcript) Command(tool string, args []string) {
	if t.w == nil {
		return
	}
	line := fmt.Sprintf("%s exec: %s %s\n",
		time.Now().Format("2006/01/02 15:04:05"),
		tool,
		strings.Join(args, " "))

	t.mu.Lock()
	_, _ = t.w.Write([]byte(line))
	t.mu.Unlock()
}

// Output appends raw tool output, terminating the final line if the tool
// did not.
func (t *transcript) Output(data []byte) {
	if len(data) == 0 {
		return
	}
	if t.w == nil {
		return
	}

	t.mu.Lock()
	_, _ = t.w.Write(data)
	if data[len(data)-1] != '\n' {
		_, _ = t.w.Write([]byte{'\n'})
	}
	t.mu.Unlock()
}
