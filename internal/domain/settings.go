package domain

import (
	"net/url"
	"strings"
)

// NotificationSettings controls which terminal transitions produce notifications and where.
type NotificationSettings struct {
	EmailEnabled    bool   `json:"emailEnabled" toml:"email_enabled"`
	NotifyOnSuccess bool   `json:"notifyOnSuccess" toml:"notify_on_success"`
	NotifyOnFailure bool   `json:"notifyOnFailure" toml:"notify_on_failure"`
	SlackEnabled    bool   `json:"slackEnabled" toml:"slack_enabled"`
	SlackWebhookURL string `json:"slackWebhookUrl,omitempty" toml:"slack_webhook_url"`
	SlackChannel    string `json:"slackChannel,omitempty" toml:"slack_channel"`
}

// DefaultNotificationSettings mirrors the dashboard defaults: email on, Slack off.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		EmailEnabled:    true,
		NotifyOnSuccess: true,
		NotifyOnFailure: true,
	}
}

// Validate checks that an enabled Slack integration has a usable webhook URL.
func (s NotificationSettings) Validate() error {
	if !s.SlackEnabled {
		return nil
	}
	if strings.TrimSpace(s.SlackWebhookURL) == "" {
		return &ValidationError{Field: "slackWebhookUrl", Reason: "required when slack is enabled"}
	}
	u, err := url.Parse(s.SlackWebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: "slackWebhookUrl", Reason: "must be an http(s) URL"}
	}
	return nil
}

// SystemSettings are the execution defaults and runner host shown on the settings page.
// They come from the configuration file and are read-only at runtime.
type SystemSettings struct {
	RunnerURL             string `json:"runnerUrl"`
	DefaultTimeoutSeconds int    `json:"defaultTimeoutSeconds"`
	MaxParallel           int    `json:"maxParallel"`
	LogRetentionDays      int    `json:"logRetentionDays"`
}
