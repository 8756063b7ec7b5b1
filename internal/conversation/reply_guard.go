package conversation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxReplyRunes is the WhatsApp limit for a text message body.
const MaxReplyRunes = 4096

// GuardResult is the outcome of screening a generated reply before it is sent.
type GuardResult struct {
	// Blocked is true when the reply must not reach the customer.
	Blocked bool
	// Reasons lists the detection signals that fired.
	Reasons []string
	// Text is the reply to send; empty when Blocked.
	Text string
}

type leakPattern struct {
	re     *regexp.Regexp
	reason string
}

var replyLeakPatterns = []leakPattern{
	// Prompt disclosure, English and Portuguese.
	{regexp.MustCompile(`(?i)my (system\s+)?prompt\s+(is|says|tells|instructs)`), "leak:system_prompt"},
	{regexp.MustCompile(`(?i)my instructions?\s+(are|say|tell|include|require)`), "leak:instructions"},
	{regexp.MustCompile(`(?i)(as\s+)?minhas instruções\s+(são|dizem|indicam)`), "leak:instructions"},
	{regexp.MustCompile(`(?i)o meu prompt\s+(é|diz)`), "leak:system_prompt"},

	// Credentials and infrastructure.
	{regexp.MustCompile(`(?i)(api[_\s]?key|secret[_\s]?key|access[_\s]?token|bearer\s+token)\s*[:=]\s*\S+`), "leak:credential"},
	{regexp.MustCompile(`sk-ant-[a-zA-Z0-9_-]{10,}`), "leak:anthropic_key"},
	{regexp.MustCompile(`AKIA[A-Z0-9]{16}`), "leak:aws_key"},
	{regexp.MustCompile(`EAA[a-zA-Z0-9]{30,}`), "leak:meta_token"},
	{regexp.MustCompile(`(?i)(postgres|postgresql|redis|rediss)://\S+`), "leak:database_url"},
	{regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}:\d{2,5}\b`), "leak:ip_port"},
}

// GuardReply screens reply for prompt or credential leaks and trims it to the
// WhatsApp length limit, cutting at a sentence boundary when possible.
func GuardReply(reply string) GuardResult {
	text := strings.TrimSpace(reply)
	if text == "" {
		return GuardResult{}
	}

	var reasons []string
	for _, p := range replyLeakPatterns {
		if p.re.MatchString(text) {
			reasons = append(reasons, p.reason)
		}
	}
	if len(reasons) > 0 {
		return GuardResult{Blocked: true, Reasons: reasons}
	}

	return GuardResult{Text: truncateReply(text, MaxReplyRunes)}
}

func truncateReply(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)[:limit]
	cut := string(runes)
	if idx := strings.LastIndexAny(cut, ".!?\n"); idx > len(cut)/2 {
		return strings.TrimSpace(cut[:idx+1])
	}
	return strings.TrimSpace(cut)
}
