package internal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/alecthomas/chroma/v2/styles"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Clipboard modes.
const (
	ClipboardModeBrowser = "browser"
	ClipboardModeHost    = "host"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Docs      DocsConfig        `yaml:"docs"`
	Render    RenderConfig      `yaml:"render"`
	Viewer    ViewerConfig      `yaml:"viewer"`
	Clipboard ClipboardConfig   `yaml:"clipboard"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Docs.Validate(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	if err := c.Viewer.Validate(); err != nil {
		return err
	}
	return c.Clipboard.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DocsConfig describes the directory of Markdown files.
//
// Sorted orders the listing by name; by default the order is whatever the
// file system enumeration returns.
type DocsConfig struct {
	Path   string `yaml:"path"`
	Sorted bool   `yaml:"sorted"`
	Watch  bool   `yaml:"watch"`
}

// Validate validates the docs configuration.
func (c *DocsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RenderConfig holds Markdown rendering options.
type RenderConfig struct {
	HighlightStyle string `yaml:"highlight_style"`
	AllowRawHTML   bool   `yaml:"allow_raw_html"`
	TerminalStyle  string `yaml:"terminal_style"`
	TerminalWidth  int    `yaml:"terminal_width"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HighlightStyle, validation.Required, validation.By(knownHighlightStyle)),
		validation.Field(&c.TerminalStyle, validation.Required, validation.In("dark", "light", "notty", "ascii", "dracula", "pink", "tokyo-night")),
		validation.Field(&c.TerminalWidth, validation.Min(20), validation.Max(400)),
	)
}

func knownHighlightStyle(value interface{}) error {
	name, _ := value.(string)
	if _, ok := styles.Registry[name]; !ok {
		return fmt.Errorf("unknown highlight style %q", name)
	}
	return nil
}

// ViewerConfig holds the copy acknowledgment and session settings.
type ViewerConfig struct {
	CopyReset  time.Duration `yaml:"copy_reset"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	// PendingTTL bounds sessions whose page never opened its event stream.
	PendingTTL time.Duration `yaml:"pending_ttl"`
}

// Validate validates the viewer configuration.
func (c *ViewerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CopyReset, validation.Required, validation.Min(100*time.Millisecond)),
		validation.Field(&c.SessionTTL, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.PendingTTL, validation.Min(10*time.Second)),
	)
}

// ClipboardConfig selects who writes copied code to the clipboard.
//
// Mode controls the clipboard target:
//   - "browser" (default): the page script writes the text; the server only tracks state.
//   - "host": the server also writes to the clipboard of the machine it runs on.
type ClipboardConfig struct {
	Mode string `yaml:"mode"`
}

// Validate validates the clipboard configuration.
func (c *ClipboardConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = ClipboardModeBrowser
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(ClipboardModeBrowser, ClipboardModeHost)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 3000,
			},
		},
		Docs: DocsConfig{
			Path:  "./public",
			Watch: true,
		},
		Render: RenderConfig{
			HighlightStyle: "onedark",
			AllowRawHTML:   true,
			TerminalStyle:  "dark",
			TerminalWidth:  80,
		},
		Viewer: ViewerConfig{
			CopyReset:  2 * time.Second,
			SessionTTL: 30 * time.Minute,
			PendingTTL: 2 * time.Minute,
		},
		Clipboard: ClipboardConfig{
			Mode: ClipboardModeBrowser,
		},
	}
}
