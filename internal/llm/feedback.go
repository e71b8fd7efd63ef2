package llm

import "strings"

const feedbackMarker = "[Feedback:"

// SplitFeedback separates the in-character reply from the coaching note the
// model appends as "[Feedback: ...]". Text without the marker is all reply.
func SplitFeedback(text string) (reply string, feedback string) {
	idx := strings.Index(text, feedbackMarker)
	if idx < 0 {
		return text, ""
	}
	reply = strings.TrimSpace(text[:idx])
	rest := text[idx+len(feedbackMarker):]
	if next := strings.Index(rest, feedbackMarker); next >= 0 {
		rest = rest[:next]
	}
	feedback = strings.TrimSpace(strings.ReplaceAll(rest, "]", ""))
	return reply, feedback
}
