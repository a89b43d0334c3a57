package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"perfscore/internal/scorecard"
)

// Notifier sends desktop notifications.
type Notifier struct {
	Enabled bool
}

// Send shows a notification on macOS. Other platforms are a no-op.
func (n *Notifier) Send(title, message string) error {
	if n == nil || !n.Enabled {
		return nil
	}
	if runtime.GOOS != "darwin" {
		return nil
	}
	return sendMacOSNotification(title, message)
}

func sendMacOSNotification(title, message string) error {
	title = strings.ReplaceAll(title, `"`, `\"`)
	message = strings.ReplaceAll(message, `"`, `\"`)

	script := fmt.Sprintf(`display notification "%s" with title "%s"`, message, title)
	cmd := exec.Command("osascript", "-e", script)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// maxListed caps how many team names go into one message.
const maxListed = 5

// FormatRefresh summarises a scorecard set: the headline when every team
// with signal meets the bar, otherwise the teams below it.
func FormatRefresh(set scorecard.Set) (title, message string) {
	below := set.Below()
	if len(below) == 0 {
		title = "✅ Scorecards refreshed"
		message = fmt.Sprintf("%s: %d/%d teams at or above %.0f%%",
			set.Period, set.TeamsMeetingBar, set.TeamsWithSignal, set.Bar)
		return title, message
	}
	return FormatBelowBar(set.Period.String(), set.Bar, below)
}

// FormatBelowBar lists the teams below the bar in the order given; Set.Below
// orders them worst first.
func FormatBelowBar(period string, bar float64, below []scorecard.TeamScorecard) (title, message string) {
	title = fmt.Sprintf("⚠️ %d team(s) below %.0f%%", len(below), bar)
	parts := make([]string, 0, maxListed+1)
	for i, sc := range below {
		if i == maxListed {
			break
		}
		parts = append(parts, fmt.Sprintf("%s %.1f%%", sc.Team, sc.OverallAvg))
	}
	if len(below) > maxListed {
		parts = append(parts, fmt.Sprintf("+%d more", len(below)-maxListed))
	}
	message = period + ": " + strings.Join(parts, ", ")
	return title, message
}
