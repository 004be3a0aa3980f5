package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/pfrederiksen/termin-watch/internal/slot"
)

const tweetLimit = 280 // characters

// TwitterNotifier posts found appointments to Twitter
type TwitterNotifier struct {
	config *oauth1.Config
	token  *oauth1.Token
	loc    *time.Location
}

// NewTwitterNotifier creates a new Twitter notifier from OAuth1 credentials.
// Dates in tweets are shown in loc (UTC if nil).
func NewTwitterNotifier(apiKey, apiSecret, accessToken, accessSecret string, loc *time.Location) (*TwitterNotifier, error) {
	if apiKey == "" || apiSecret == "" || accessToken == "" || accessSecret == "" {
		return nil, fmt.Errorf("missing required Twitter credentials")
	}
	if loc == nil {
		loc = time.UTC
	}

	return &TwitterNotifier{
		config: oauth1.NewConfig(apiKey, apiSecret),
		token:  oauth1.NewToken(accessToken, accessSecret),
		loc:    loc,
	}, nil
}

// Notify posts a tweet for s. Cancelling ctx aborts the request.
func (n *TwitterNotifier) Notify(ctx context.Context, s *slot.Slot) error {
	if _, _, err := n.client(ctx).Statuses.Update(formatTweet(s, n.loc), nil); err != nil {
		return fmt.Errorf("failed to post tweet for %s: %w", s.DateString(), err)
	}
	return nil
}

// client builds an API client whose requests are bound to ctx
func (n *TwitterNotifier) client(ctx context.Context) *twitter.Client {
	base := &http.Client{Transport: contextTransport{ctx: ctx, base: http.DefaultTransport}}
	httpClient := n.config.Client(context.WithValue(ctx, oauth1.HTTPClient, base), n.token)
	return twitter.NewClient(httpClient)
}

// contextTransport attaches ctx to every request; go-twitter builds requests
// without one.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

// formatTweet formats a slot as a tweet, showing its day in loc
func formatTweet(s *slot.Slot, loc *time.Location) string {
	tweet := "📅 Bürgeramt appointment available!\n\n"
	tweet += fmt.Sprintf("🗓️ %s\n", s.Time().In(loc).Format("Mon, 02 Jan 2006"))
	tweet += fmt.Sprintf("🔗 %s\n", s.Link)
	tweet += "\n#Berlin #Bürgeramt"

	if utf8.RuneCountInString(tweet) > tweetLimit {
		runes := []rune(tweet)
		tweet = string(runes[:tweetLimit-3]) + "..."
	}

	return tweet
}
