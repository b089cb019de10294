package router

import (
	"maps"
	"regexp"
	"strings"
)

// ParamExtractor pulls intent-specific parameters out of a message.
// A missing parameter is omitted, never an error.
type ParamExtractor func(message string) map[string]string

// extractRule captures one parameter with a single regular expression.
// The first non-empty capture group wins; with no groups the whole match is used.
type extractRule struct {
	param     string
	re        *regexp.Regexp
	normalize func(string) string
}

func rule(param, expr string) extractRule {
	return extractRule{param: param, re: regexp.MustCompile(expr)}
}

func lowerRule(param, expr string) extractRule {
	r := rule(param, expr)
	r.normalize = strings.ToLower
	return r
}

func (r extractRule) apply(message string) (string, bool) {
	m := r.re.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	value := m[0]
	for _, group := range m[1:] {
		if group != "" {
			value = group
			break
		}
	}
	value = strings.TrimSpace(value)
	if r.normalize != nil {
		value = r.normalize(value)
	}
	return value, value != ""
}

// regexExtractor runs every rule against the message.
func regexExtractor(rules ...extractRule) ParamExtractor {
	return func(message string) map[string]string {
		params := make(map[string]string)
		for _, r := range rules {
			if v, ok := r.apply(message); ok {
				params[r.param] = v
			}
		}
		return params
	}
}

const tail = `(.+?)[\s.!?]*$`

// DefaultExtractors returns the built-in extraction strategy for each intent.
func DefaultExtractors() map[string]ParamExtractor {
	return map[string]ParamExtractor{
		"calendar_scheduling": regexExtractor(
			lowerRule("time", `(?i)\b(\d{1,2}(?::\d{2})?\s*(?:am|pm)|\d{1,2}:\d{2})\b`),
			lowerRule("date", `(?i)\b(today|tomorrow|yesterday|tonight|next week|this weekend|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
			rule("attendee", `\b(?:[Ww]ith)\s+([A-Z][a-zA-Z'-]+(?:\s+[A-Z][a-zA-Z'-]+)?)`),
		),
		"email_management": regexExtractor(
			rule("recipient", `[\w.+-]+@[\w-]+(?:\.[\w-]+)+`),
			rule("subject", `(?i)\b(?:about|regarding|re:)\s+`+tail),
		),
		"file_operations": regexExtractor(
			rule("filename", `"([^"]+)"|'([^']+)'|\b([\w-]+\.[A-Za-z0-9]{1,5})\b`),
			lowerRule("operation", `(?i)^\s*(?:please\s+)?(open|read|create|delete|remove|rename|move|copy|list|find|save|edit|write|upload|download)\b`),
		),
		"web_research": regexExtractor(
			rule("query", `(?i)\b(?:search(?:\s+the\s+web)?\s+for|look\s+up|research|find\s+information\s+(?:on|about)|google)\s+`+tail),
		),
		"coding_assistance": regexExtractor(
			lowerRule("language", `(?i)(?:^|[^\w+#])(python|javascript|typescript|golang|go|rust|java|ruby|php|bash|sql|c\+\+|c#|swift|kotlin)(?:$|[^\w+#])`),
			lowerRule("artifact", `(?i)\b(function|class|script|api|module|test|component|endpoint|query|regex|program)\b`),
		),
		"social_media": regexExtractor(
			lowerRule("platform", `(?i)\b(facebook|instagram|twitter|linkedin|tiktok|threads|mastodon)\b`),
			rule("topic", `(?i)\bpost\s+(?:something\s+)?about\s+`+tail),
		),
		"crm_contact": regexExtractor(
			rule("contact_name", `(?i:\b(?:add|update|find|create|look\s+up)\s+(?:a\s+)?(?:new\s+)?contact\s+(?:for\s+|named\s+)?)([A-Z][\w'-]*(?:\s+[A-Z][\w'-]*)*)`),
		),
		"wordpress_publishing": regexExtractor(
			rule("title", `"([^"]+)"|“([^”]+)”`),
			lowerRule("post_type", `(?i)\b(post|page|draft|article)\b`),
		),
		"video_production": regexExtractor(
			lowerRule("duration", `(?i)\b(\d+\s*(?:seconds?|secs?|minutes?|mins?|hours?))\b`),
		),
	}
}

// mergeExtractors overlays custom strategies on the defaults.
func mergeExtractors(custom map[string]ParamExtractor) map[string]ParamExtractor {
	out := DefaultExtractors()
	maps.Copy(out, custom)
	return out
}
