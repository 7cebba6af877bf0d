package internal

import "github.com/starford/mdview/internal/codeblock"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	clip   codeblock.Clipboard
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithClipboard overrides the clipboard chosen by clipboard.mode.
func WithClipboard(clip codeblock.Clipboard) Option {
	return func(a *application) {
		a.clip = clip
	}
}
