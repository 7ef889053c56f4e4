package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// debugLogEntry is one line of the JSON-lines trace --debug-log appends to
// (SUPPLEMENTED FEATURES "--debug-log"): one per compilation, identified by
// a fresh google/uuid session id so concurrent `collect`/`watch` runs don't
// interleave indistinguishably.
type debugLogEntry struct {
	Session   string `json:"session"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	OK        bool   `json:"ok"`
	Detail    string `json:"detail,omitempty"`
}

// appendDebugLog appends one entry to path if path is non-empty, creating
// the file if needed. Logging failures are reported but never fail the
// compilation they describe.
func appendDebugLog(path, source, target string, compileErr error) {
	if path == "" {
		return
	}
	entry := debugLogEntry{
		Session:   uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    source,
		Target:    target,
		OK:        compileErr == nil,
	}
	if compileErr != nil {
		entry.Detail = compileErr.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not write debug log %s: %v\n", path, err)
		return
	}
	defer f.Close()
	f.Write(append(data, '\n'))
}
