package main

import (
	"github.com/zulandar/studyflow/internal/config"
	"github.com/zulandar/studyflow/internal/notify"
	discordsender "github.com/zulandar/studyflow/internal/notify/discord"
	slacksender "github.com/zulandar/studyflow/internal/notify/slack"
)

// buildSenders creates a reminder sender for every channel configured in cfg.
func buildSenders(cfg config.NotifyConfig) ([]notify.Sender, error) {
	var senders []notify.Sender
	if cfg.Slack.BotToken != "" {
		s, err := slacksender.New(slacksender.Opts{
			BotToken: cfg.Slack.BotToken,
			Channel:  cfg.Slack.Channel,
		})
		if err != nil {
			return nil, err
		}
		senders = append(senders, s)
	}
	if cfg.Discord.BotToken != "" {
		s, err := discordsender.New(discordsender.Opts{
			BotToken:  cfg.Discord.BotToken,
			ChannelID: cfg.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		senders = append(senders, s)
	}
	if cfg.Command.Path != "" {
		s, err := notify.NewCommandSender(cfg.Command)
		if err != nil {
			return nil, err
		}
		senders = append(senders, s)
	}
	return senders, nil
}

// newNotifier builds a notifier over the app's database and configured
// senders.
func newNotifier(a *app) (*notify.Notifier, error) {
	senders, err := buildSenders(a.cfg.Notify)
	if err != nil {
		return nil, err
	}
	return notify.New(a.db, senders, a.log, notify.WithClock(a.store.Now)), nil
}
