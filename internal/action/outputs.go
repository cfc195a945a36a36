package action

import (
	"strconv"

	"github.com/sethvargo/go-githubactions"
)

// Output names as declared in action.yml.
const (
	OutputPath   = "dep-tree-path"
	OutputFailed = "failed"
)

// SetOutputs publishes the executable path and the aggregate result. The path
// is omitted when no tool was installed.
func SetOutputs(gha *githubactions.Action, executablePath string, failed bool) {
	if executablePath != "" {
		gha.SetOutput(OutputPath, executablePath)
	}
	gha.SetOutput(OutputFailed, strconv.FormatBool(failed))
}
