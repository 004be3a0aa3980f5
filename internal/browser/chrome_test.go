package browser

import (
	"testing"

	"github.com/chromedp/cdproto/network"
)

func TestIsBlocked(t *testing.T) {
	tests := []struct {
		rt   network.ResourceType
		want bool
	}{
		{network.ResourceTypeImage, true},
		{network.ResourceTypeStylesheet, true},
		{network.ResourceTypeFont, true},
		{network.ResourceTypeDocument, false},
		{network.ResourceTypeScript, false},
		{network.ResourceTypeXHR, false},
		{network.ResourceTypeFetch, false},
	}

	for _, tt := range tests {
		t.Run(tt.rt.String(), func(t *testing.T) {
			if got := IsBlocked(tt.rt); got != tt.want {
				t.Errorf("IsBlocked(%s) = %v, want %v", tt.rt, got, tt.want)
			}
		})
	}
}

func TestAllocatorOptions(t *testing.T) {
	c := NewChrome(Options{Headless: true, UserAgent: "ua", ExecPath: "/usr/bin/chromium"})
	base := len(c.allocatorOptions())

	bare := NewChrome(Options{Headless: true})
	if got := len(bare.allocatorOptions()); got != base-2 {
		t.Errorf("allocatorOptions() without user agent and exec path = %d options, want %d", got, base-2)
	}
}
