package report

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Amr-9/rrt/internal/engine"
	"github.com/Amr-9/rrt/pkg/models"
	"github.com/fatih/color"
)

const maxBodyDisplay = 2000

var (
	verboseSectionColor = color.New(color.Bold)
	verboseMethodColor  = color.New(color.Bold, color.FgGreen)
	verboseURLColor     = color.New(color.FgCyan)
	verboseKeyColor     = color.New(color.FgYellow)
	verboseDimColor     = color.New(color.Faint)
	verboseOKColor      = color.New(color.FgGreen)
	verboseWarnColor    = color.New(color.FgYellow)
	verboseErrColor     = color.New(color.FgRed)
)

// Verbose prints the request and response of every case whose effective
// verbose setting is on.
type Verbose struct {
	w io.Writer
}

var _ engine.Observer = (*Verbose)(nil)

func NewVerbose(w io.Writer) *Verbose {
	return &Verbose{w: w}
}

func (v *Verbose) RunStarted(*models.Config)      {}
func (v *Verbose) CaseStarted(int, int, string)   {}
func (v *Verbose) RunFinished(*models.RunSummary) {}

// CaseFinished implements engine.Observer.
func (v *Verbose) CaseFinished(r models.CaseResult, ex *engine.Exchange) {
	if ex == nil || !ex.Verbose || ex.Request == nil {
		return
	}

	verboseSectionColor.Fprintln(v.w, "[REQUEST]")
	fmt.Fprintf(v.w, "%s %s\n", verboseMethodColor.Sprint(ex.Request.Method), verboseURLColor.Sprint(ex.Request.URL))
	v.printHeaders(ex.Request.Header)
	if len(ex.Request.Body) > 0 {
		verboseDimColor.Fprintln(v.w, "Body:")
		v.printBody(ex.Request.Body)
	}

	verboseSectionColor.Fprintln(v.w, "[RESPONSE]")
	resp := ex.Response
	if resp == nil {
		fmt.Fprintf(v.w, "  %s %v\n", verboseErrColor.Sprint("Request Failed:"), r.Reason)
		return
	}

	statusColor := verboseOKColor
	if resp.Status >= 400 {
		statusColor = verboseErrColor
	} else if resp.Status >= 300 {
		statusColor = verboseWarnColor
	}
	fmt.Fprintf(v.w, "%s %s %s\n",
		verboseDimColor.Sprint("Status:"),
		statusColor.Sprintf("%d %s", resp.Status, http.StatusText(resp.Status)),
		verboseDimColor.Sprintf("(%s, %s)", resp.Proto, formatDuration(resp.Elapsed)))
	v.printHeaders(resp.Header)
	if len(resp.Body) > 0 {
		verboseDimColor.Fprintln(v.w, "Body:")
		v.printBody(resp.Body)
	}

	if len(r.Captured) > 0 {
		verboseSectionColor.Fprintln(v.w, "[CAPTURED]")
		names := make([]string, 0, len(r.Captured))
		for k := range r.Captured {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Fprintf(v.w, "  %s = %q\n", verboseKeyColor.Sprint(k), truncate(r.Captured[k], 60))
		}
	}
}

func (v *Verbose) printHeaders(h http.Header) {
	if len(h) == 0 {
		return
	}
	verboseDimColor.Fprintln(v.w, "Headers:")
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, val := range h[k] {
			fmt.Fprintf(v.w, "  %s %s\n", verboseKeyColor.Sprint(k+":"), val)
		}
	}
}

// printBody pretty-prints JSON and falls back to raw output.
func (v *Verbose) printBody(body []byte) {
	s := string(body)
	var obj interface{}
	if err := json.Unmarshal(body, &obj); err == nil {
		if pretty, err := json.MarshalIndent(obj, "  ", "  "); err == nil {
			s = string(pretty)
		}
	}
	if len(s) > maxBodyDisplay {
		s = cutUTF8(s, maxBodyDisplay) + fmt.Sprintf("\n... (truncated, %d bytes total)", len(body))
	}
	for _, line := range strings.Split(s, "\n") {
		fmt.Fprintf(v.w, "  %s\n", line)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return cutUTF8(s, maxLen-3) + "..."
}

// cutUTF8 returns at most n bytes of s without splitting a rune.
func cutUTF8(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
