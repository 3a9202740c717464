package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Amr-9/rrt/internal/engine"
)

// Logfile records the console output of a run without styling so that it
// can be written to the to_file directory afterwards.
type Logfile struct {
	*Console
	buf bytes.Buffer
}

var _ engine.Observer = (*Logfile)(nil)

func NewLogfile() *Logfile {
	l := &Logfile{}
	l.Console = &Console{w: &l.buf, plain: true}
	return l
}

// String returns everything recorded so far.
func (l *Logfile) String() string {
	return l.buf.String()
}

// Save writes the recorded output into dir and returns the file path.
func (l *Logfile) Save(dir string, now time.Time) (string, error) {
	name, err := LogfileName(dir, now)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, l.buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write logfile: %w", err)
	}
	return path, nil
}

// LogfileName returns rrt-YY-MM-DD-NN.log where NN counts the logfiles of
// the same day already present in dir.
func LogfileName(dir string, now time.Time) (string, error) {
	prefix := fmt.Sprintf("rrt-%s-", now.Format("06-01-02"))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read logfile directory: %w", err)
	}

	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			n++
		}
	}
	return fmt.Sprintf("%s%02d.log", prefix, n), nil
}
