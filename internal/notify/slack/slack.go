// Package slack delivers deadline reminders to a Slack channel.
package slack

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/zulandar/studyflow/internal/notify"
)

// maxRetries is the max number of retries for rate-limited API calls.
const maxRetries = 3

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Sender implements notify.Sender for Slack.
type Sender struct {
	client  slackClient
	channel string
}

// Opts holds parameters for creating a Slack Sender.
type Opts struct {
	BotToken string // xoxb-... Slack bot token
	Channel  string // channel ID or name to post to
	Client   slackClient
}

// New returns a Sender. A client is built from BotToken unless one is given.
func New(opts Opts) (*Sender, error) {
	if opts.Channel == "" {
		return nil, errors.New("slack: channel is required")
	}
	client := opts.Client
	if client == nil {
		if opts.BotToken == "" {
			return nil, errors.New("slack: bot token is required")
		}
		client = slackapi.New(opts.BotToken)
	}
	return &Sender{client: client, channel: opts.Channel}, nil
}

// Name implements notify.Sender.
func (s *Sender) Name() string { return "slack" }

// Send posts msg as a single attachment with a plain-text fallback.
func (s *Sender) Send(ctx context.Context, msg notify.Message) error {
	options := buildMessageOptions(msg)
	err := retryOnRateLimit(ctx, func() error {
		_, _, err := s.client.PostMessage(s.channel, options...)
		return err
	})
	if err != nil {
		return fmt.Errorf("slack: post to %s: %w", s.channel, err)
	}
	return nil
}

func buildMessageOptions(msg notify.Message) []slackapi.MsgOption {
	return []slackapi.MsgOption{
		slackapi.MsgOptionAttachments(messageToAttachment(msg)),
		slackapi.MsgOptionText(msg.Title, false),
	}
}

func messageToAttachment(msg notify.Message) slackapi.Attachment {
	att := slackapi.Attachment{
		Title:    msg.Title,
		Text:     msg.Body,
		Color:    msg.Color,
		Fallback: msg.Title,
	}
	for _, f := range msg.Fields {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: f.Short,
		})
	}
	return att
}

// retryOnRateLimit calls fn and retries with backoff on Slack rate limit errors.
// It respects context cancellation and the RetryAfter duration from Slack.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil
}
