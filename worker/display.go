package worker

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/fatih/color"
	"github.com/filswan/go-swan-lib/logs"
)

// Stats is a point-in-time snapshot of the worker counters.
type Stats struct {
	NodeId         string
	TasksCompleted int
	TotalRewards   string
	Uptime         time.Duration
}

func (w *Worker) Stats() Stats {
	return Stats{
		NodeId:         w.nodeId,
		TasksCompleted: w.tasksCompleted,
		TotalRewards:   w.totalRewards.StringFixed(9),
		Uptime:         time.Since(w.startTime).Round(time.Second),
	}
}

// DisplayStatus prints the worker status banner to stdout and mirrors a
// plain-text copy into statusFile when one is configured.
func (w *Worker) DisplayStatus() {
	stats := w.Stats()

	var sb strings.Builder
	sb.WriteString(color.New(color.FgCyan, color.Bold).Sprintf("GSTD Worker Node  %s\n", stats.NodeId))
	sb.WriteString(fmt.Sprintf("  uptime:          %s\n", stats.Uptime))
	sb.WriteString(fmt.Sprintf("  tasks completed: %s\n", color.GreenString("%d", stats.TasksCompleted)))
	sb.WriteString(fmt.Sprintf("  total rewards:   %s gstd\n", color.YellowString(stats.TotalRewards)))

	banner := sb.String()
	fmt.Print(banner)

	if w.statusFile == "" {
		return
	}
	if err := os.WriteFile(w.statusFile, []byte(stripansi.Strip(banner)), 0644); err != nil {
		logs.GetLogger().Errorf("failed write status file %s, error: %+v", w.statusFile, err)
	}
}

// SetStatusFile enables mirroring the status banner to a plain-text file.
func (w *Worker) SetStatusFile(path string) {
	w.statusFile = path
}
