package scheduler

import (
	"strings"

	"pingmon/internal/domain"
)

// detailFor formats the probe detail for display. codes mode maps outcomes
// to HTTP-style status codes for compact dashboards: success is 200, a
// timeout is 408, any other failure is 503.
func detailFor(success bool, detail string, mode domain.DisplayMode) string {
	if mode == domain.DisplayCodes {
		if success {
			return "200"
		}
		if strings.Contains(strings.ToUpper(detail), "TIMEOUT") {
			return "408"
		}
		return "503"
	}
	return detail
}
