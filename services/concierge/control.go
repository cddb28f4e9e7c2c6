package concierge

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Legacy inline control markers the model embeds in its reply text. They are
// parsed into a structured Control here, at the orchestrator boundary, and
// stripped before anything downstream sees the reply.
var (
	pauseMarkerRe = regexp.MustCompile(`\[PAUSE\]`)
	bookMarkerRe  = regexp.MustCompile(`\[BOOK\]\s*(\{[^{}]*\})`)
)

// ParseControl extracts the control side-channel from a model reply and
// returns the cleaned user-facing text.
func ParseControl(text string) (Control, string) {
	var ctrl Control

	if pauseMarkerRe.MatchString(text) {
		ctrl.Pause = true
		text = pauseMarkerRe.ReplaceAllString(text, "")
	}

	if m := bookMarkerRe.FindStringSubmatch(text); m != nil {
		var directive BookingDirective
		if err := json.Unmarshal([]byte(m[1]), &directive); err == nil &&
			directive.Service != "" && directive.Date != "" && directive.Time != "" {
			ctrl.Booking = &directive
		}
		text = bookMarkerRe.ReplaceAllString(text, "")
	}

	return ctrl, strings.TrimSpace(text)
}
