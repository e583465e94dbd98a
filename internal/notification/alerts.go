package notification

import (
	"fmt"
	"strings"

	"github.com/caqueta-electoral/divipola/internal/coherence"
)

// maxListedViolations caps the violations spelled out in one alert.
const maxListedViolations = 10

// ViolationAlert summarizes a coherence report for operators.
func ViolationAlert(department string, report *coherence.ViolationReport) Notification {
	var b strings.Builder
	fmt.Fprintf(&b, "%d coherence violations in %s (%s)\n", report.Total(), department, report.Scope)

	for _, kind := range coherence.Kinds {
		if n := len(report.ByKind(kind)); n > 0 {
			fmt.Fprintf(&b, "%s: %d\n", kind, n)
		}
	}

	listed := 0
	for _, kind := range coherence.Kinds {
		for _, v := range report.ByKind(kind) {
			if listed == maxListedViolations {
				fmt.Fprintf(&b, "and %d more", report.Total()-listed)
				return Notification{Title: title(department), Message: b.String()}
			}
			fmt.Fprintf(&b, "- %s %d: %s\n", v.EntityType, v.EntityID, v.Detail)
			listed++
		}
	}

	return Notification{Title: title(department), Message: strings.TrimRight(b.String(), "\n")}
}

func title(department string) string {
	return "DIVIPOLA validation: " + department
}
