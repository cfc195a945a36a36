package action

import (
	"fmt"
	"strings"

	"github.com/sethvargo/go-githubactions"
)

// Logger renders structured log calls as workflow commands. Debug lines only
// show up when step debug logging is enabled on the runner.
type Logger struct {
	gha *githubactions.Action
}

// NewLogger wraps an action client.
func NewLogger(gha *githubactions.Action) *Logger {
	return &Logger{gha: gha}
}

// Debug emits a ::debug:: command.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.gha.Debugf("%s", format(msg, keysAndValues))
}

// Info writes a plain log line.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.gha.Infof("%s", format(msg, keysAndValues))
}

// Warn emits a ::warning:: annotation.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.gha.Warningf("%s", format(msg, keysAndValues))
}

// Error emits an ::error:: annotation.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.gha.Errorf("%s", format(msg, keysAndValues))
}

// Group starts a collapsible section in the job log.
func (l *Logger) Group(title string) {
	l.gha.Group(title)
}

// EndGroup closes the current section.
func (l *Logger) EndGroup() {
	l.gha.EndGroup()
}

// format appends key=value pairs to msg. A trailing key without a value is
// rendered as key=MISSING.
func format(msg string, keysAndValues []interface{}) string {
	msg = strings.TrimRight(msg, "\n")
	if len(keysAndValues) == 0 {
		return msg
	}

	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		var value interface{} = "MISSING"
		if i+1 < len(keysAndValues) {
			value = keysAndValues[i+1]
		}
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], value)
	}
	return b.String()
}
