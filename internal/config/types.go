package config

import "time"

// Defaults for the remote AI service. The original host application talks to
// SambaNova's OpenAI-compatible chat completions endpoint.
const (
	DefaultBaseURL     = "https://api.sambanova.ai/v1"
	DefaultChatModel   = "Meta-Llama-3.3-70B-Instruct"
	DefaultVisionModel = "Llama-4-Maverick-17B-128E-Instruct"
)

// Defaults for the embedded page.
const (
	DefaultStartURL         = "https://tinder.com/app/recs"
	DefaultConversationPath = "/app/messages"
)

// Selectors locates the pieces of the target SPA this engine touches. The
// target page is externally owned; any of these can drift, and every consumer
// treats "not found" as a normal negative result.
type Selectors struct {
	Carousel     string `json:"carousel"`
	Slide        string `json:"slide"`
	Tab          string `json:"tab"`
	NextButton   string `json:"next_button"`
	MessageField string `json:"message_field"`
}

// RuntimeConfig is the resolved configuration for one engine process.
type RuntimeConfig struct {
	// Remote AI service.
	APIKey         string
	BaseURL        string
	ChatModel      string
	VisionModel    string
	RequestTimeout time.Duration

	// Embedded page / browser.
	CDPURL      string
	ChromePath  string
	UserDataDir string
	Headless    bool
	StartURL    string
	// ConversationPath is the location path fragment that marks an open
	// conversation; the input monitor only runs while it matches.
	ConversationPath string
	Selectors        Selectors

	// Input monitor.
	MonitorInterval  time.Duration
	MinMessageLength int
	DebounceWindow   time.Duration
	CacheSize        int

	// Intervention.
	DeletePause       time.Duration
	MaxDeleteAttempts int
	CooldownExtension time.Duration
	ReleaseBuffer     time.Duration
	TypePause         time.Duration

	// Photo downloads.
	MaxImages         int
	AnalysisMaxImages int
	SettleDelay       time.Duration
	DownloadDir       string

	// UI gateway.
	ListenAddr string
}

// DefaultSelectors returns the selector set for the reference target page.
func DefaultSelectors() Selectors {
	return Selectors{
		Carousel:     "div.keen-slider",
		Slide:        "div.keen-slider__slide",
		Tab:          "[role=\"tab\"]",
		NextButton:   "button[aria-label=\"Next Photo\"]",
		MessageField: "textarea",
	}
}
