// Package audit appends raw request/response pairs to per-TPA, per-day log
// files for later dispute handling with the administrator. The files are
// write-only from the sync core's point of view; nothing reads them
// programmatically.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Sink records one outbound exchange. Implementations are best-effort: a
// logging failure must never abort an adapter.
type Sink interface {
	Record(company, label, request, response string)
}

// FileSink writes human-readable blocks under
// {root}/tpa_logs/{company}/network_hospital/{YYYY-MM-DD}.log.
type FileSink struct {
	root string
	now  func() time.Time
}

// NewFileSink creates a sink rooted at the given directory.
func NewFileSink(root string) *FileSink {
	return &FileSink{root: root, now: time.Now}
}

// Record appends one exchange block. Errors are logged at debug and dropped.
func (s *FileSink) Record(company, label, request, response string) {
	ts := s.now()
	dir := filepath.Join(s.root, "tpa_logs", company, "network_hospital")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Debug().Err(err).Str("tpa", company).Msg("audit sink: mkdir failed")
		return
	}

	path := filepath.Join(dir, ts.Format("2006-01-02")+".log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Debug().Err(err).Str("tpa", company).Msg("audit sink: open failed")
		return
	}
	defer file.Close()

	block := fmt.Sprintf(
		"==========================================\n[%s] %s | %s\n------------------------------------------\nREQUEST:\n%s\n------------------------------------------\nRESPONSE:\n%s\n\n",
		ts.Format(time.RFC3339), company, label, request, response,
	)
	if _, err := file.WriteString(block); err != nil {
		log.Debug().Err(err).Str("tpa", company).Msg("audit sink: write failed")
	}
}

// NopSink discards every record. Used in tests and dry runs.
type NopSink struct{}

// Record implements Sink.
func (NopSink) Record(string, string, string, string) {}
