// Package services provides external clients and in-process helpers used by the business flows
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBotDetector(t *testing.T) {
	detector := NewBotDetector()

	tests := []struct {
		name      string
		userAgent string
		isBot     bool
	}{
		{
			name:      "empty user agent",
			userAgent: "",
			isBot:     true,
		},
		{
			name:      "whitespace only user agent",
			userAgent: "   ",
			isBot:     true,
		},
		{
			name:      "facebook link preview crawler",
			userAgent: "facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)",
			isBot:     true,
		},
		{
			name:      "telegram link preview",
			userAgent: "TelegramBot (like TwitterBot)",
			isBot:     true,
		},
		{
			name:      "googlebot",
			userAgent: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			isBot:     true,
		},
		{
			name:      "generic crawler keyword",
			userAgent: "SomeRandomCrawler/3.0",
			isBot:     true,
		},
		{
			name:      "python requests",
			userAgent: "python-requests/2.31.0",
			isBot:     true,
		},
		{
			name:      "curl",
			userAgent: "curl/8.4.0",
			isBot:     true,
		},
		{
			name:      "go http client",
			userAgent: "Go-http-client/2.0",
			isBot:     true,
		},
		{
			name:      "okhttp",
			userAgent: "okhttp/4.12.0",
			isBot:     true,
		},
		{
			name:      "java token alone",
			userAgent: "Java/1.8.0_281",
			isBot:     true,
		},
		{
			name:      "browser token disarms a script signature",
			userAgent: "Mozilla/5.0 python-urllib/3.11",
			isBot:     false,
		},
		{
			name:      "browser with embedded java runtime token",
			userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Java/1.8.0_281",
			isBot:     false,
		},
		{
			name:      "desktop chrome",
			userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			isBot:     false,
		},
		{
			name:      "desktop firefox",
			userAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			isBot:     false,
		},
		{
			name:      "iphone safari",
			userAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
			isBot:     false,
		},
		{
			name:      "android chrome",
			userAgent: "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			isBot:     false,
		},
		{
			name:      "unrecognized client without script signature",
			userAgent: "MyCustomClient/1.0",
			isBot:     false,
		},
		{
			name:      "unrecognized app without script signature",
			userAgent: "MyCustomApp/1.0",
			isBot:     false,
		},
		{
			name:      "headless chrome",
			userAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) HeadlessChrome/120.0.0.0 Safari/537.36",
			isBot:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isBot, detector.IsBot(tt.userAgent))
		})
	}
}
