package taskrunner

import (
	"fmt"
	"strings"
	"time"
)

// RenderSummaryLine returns the summary line printed after a run.
func RenderSummaryLine(report RunReport) string {
	parts := []string{
		fmt.Sprintf("Summary: tasks=%d", len(report.Results)),
		fmt.Sprintf("succeeded=%d", report.Succeeded()),
		fmt.Sprintf("failed=%d", report.Failed()),
		fmt.Sprintf("duration_human=%s", formatDuration(report.Duration)),
		fmt.Sprintf("duration_ms=%d", roundDuration(report.Duration).Milliseconds()),
	}
	return strings.Join(parts, " ")
}

func formatDuration(value time.Duration) string {
	return roundDuration(value).String()
}

func roundDuration(value time.Duration) time.Duration {
	if value < 0 {
		value = 0
	}
	rounded := value.Round(time.Millisecond)
	if rounded == 0 && value > 0 {
		rounded = time.Millisecond
	}
	return rounded
}
