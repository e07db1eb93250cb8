// Package services provides external clients and in-process helpers used by the business flows
package services

import "strings"

// BotDetector classifies user agents as human or automated traffic.
type BotDetector interface {
	IsBot(userAgent string) bool
}

// knownBotAgents are matched case-insensitively as substrings. The generic
// entries at the end (bot, crawler, ...) deliberately cast a wide net;
// a missed human click costs less than a counted bot.
var knownBotAgents = []string{
	"facebookexternalhit",
	"Twitterbot",
	"LinkedInBot",
	"WhatsApp",
	"TelegramBot",
	"Slackbot",
	"Discordbot",
	"Googlebot",
	"Bingbot",
	"YandexBot",
	"DuckDuckBot",
	"Applebot",
	"Slurp",
	"ia_archiver",
	"Mediapartners-Google",
	"Bytespider",
	"Pinterest",
	"Iframely",
	"MetaInspector",
	"bot",
	"crawler",
	"spider",
	"scraper",
	"checker",
	"monitor",
	"headless",
	"selenium",
	"phantomjs",
	"puppeteer",
}

var browserIndicators = []string{
	"mozilla", "chrome", "safari", "firefox", "edge",
	"opera", "webkit", "gecko", "msie", "trident",
}

var mobileIndicators = []string{
	"mobile", "android", "iphone", "ipad", "ipod",
}

var scriptIndicators = []string{
	"python", "requests", "urllib", "curl", "wget",
	"http-client", "go-http", "java", "okhttp",
}

// UserAgentBotDetector implements BotDetector on user agent heuristics only.
type UserAgentBotDetector struct{}

func NewBotDetector() BotDetector {
	return &UserAgentBotDetector{}
}

// IsBot reports whether the user agent looks automated. An empty user agent
// is always a bot and known crawler signatures win over everything else.
// Agents carrying a browser or mobile token pass as human; only token-less
// agents get the script-library pass, and anything left is human.
func (d *UserAgentBotDetector) IsBot(userAgent string) bool {
	if strings.TrimSpace(userAgent) == "" {
		return true
	}

	lowered := strings.ToLower(userAgent)

	for _, sig := range knownBotAgents {
		if strings.Contains(lowered, strings.ToLower(sig)) {
			return true
		}
	}

	if containsAny(lowered, browserIndicators) || containsAny(lowered, mobileIndicators) {
		return false
	}

	for _, sig := range scriptIndicators {
		if strings.Contains(lowered, sig) {
			return true
		}
	}

	return false
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}
