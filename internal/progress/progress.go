// Package progress drives the terminal progress bar shown while an upload
// action runs. It adapts upload.ProgressFunc onto a cheggaaa/pb/v3 bar.
package progress

import (
	"os"

	"github.com/andaag/zfs-to-glacier/internal/logger"
	"github.com/andaag/zfs-to-glacier/internal/upload"
	"github.com/cheggaaa/pb/v3"
)

const verboseTemplate = `{{ green "⠋" }} [{{ etime . }}] {{ bar . "[" "#" ">" "-" "]" }} {{ counters . }} ({{ rtime . }})` + "\n"

const quietTemplate = `{{ green "⠋" }} [{{ etime . }}] {{ bar . "[" "#" ">" "-" "]" }} {{ counters . }} ({{ rtime . }})`

// Bar wraps a single action's progress bar. A Bar is not safe for reuse
// across actions; call New per action.
type Bar struct {
	bar *pb.ProgressBar
}

// New builds a bar sized to estimatedSize bytes. verbose selects a template
// that always emits a trailing newline, matching how the tool's verbose
// logging interleaves with bar redraws.
func New(estimatedSize uint64, verbose bool) *Bar {
	tmpl := quietTemplate
	if verbose {
		tmpl = verboseTemplate
	}

	bar := pb.New64(int64(estimatedSize))
	bar.Set(pb.Bytes, true)
	bar.SetTemplateString(tmpl)
	return &Bar{bar: bar}
}

// Start begins rendering the bar and returns the receiver for chaining.
func (b *Bar) Start() *Bar {
	b.bar.Start()
	return b
}

// Func returns the upload.ProgressFunc that advances this bar.
func (b *Bar) Func() upload.ProgressFunc {
	return func(bytesSent uint64) {
		b.bar.SetCurrent(int64(bytesSent))
	}
}

// Finish stops the bar and emits its final message.
func (b *Bar) Finish() {
	b.bar.Finish()
}

// Enabled reports whether stdout is an interactive terminal, i.e. whether a
// bar is worth drawing at all. Non-interactive output (redirected to a file,
// piped into another process, running under cron) gets a NoopFunc instead.
func Enabled() bool {
	return logger.IsTerminal(os.Stdout.Fd())
}

// NoopFunc is a ProgressFunc that does nothing, used when Enabled reports
// false.
func NoopFunc(uint64) {}
