package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type loadOptions struct {
	envLookup func(string) (string, bool)
	readFile  func(string) ([]byte, error)
	homeDir   func() (string, error)
	filePath  string
}

// Option customises Load, mainly for tests.
type Option func(*loadOptions)

// WithEnvLookup overrides environment variable resolution.
func WithEnvLookup(lookup func(string) (string, bool)) Option {
	return func(o *loadOptions) { o.envLookup = lookup }
}

// WithReadFile overrides config file reading.
func WithReadFile(read func(string) ([]byte, error)) Option {
	return func(o *loadOptions) { o.readFile = read }
}

// WithFilePath points Load at an explicit config file.
func WithFilePath(path string) Option {
	return func(o *loadOptions) { o.filePath = path }
}

// WithHomeDir overrides home directory resolution.
func WithHomeDir(home func() (string, error)) Option {
	return func(o *loadOptions) { o.homeDir = home }
}

// Load resolves the runtime configuration: compiled defaults, then the
// optional JSON config file, then RIZZLY_* environment overrides.
func Load(opts ...Option) (RuntimeConfig, error) {
	options := loadOptions{
		envLookup: os.LookupEnv,
		readFile:  os.ReadFile,
		homeDir:   os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(&options)
	}

	cfg := RuntimeConfig{
		BaseURL:          DefaultBaseURL,
		ChatModel:        DefaultChatModel,
		VisionModel:      DefaultVisionModel,
		RequestTimeout:   30 * time.Second,
		Headless:         true,
		StartURL:         DefaultStartURL,
		ConversationPath: DefaultConversationPath,
		Selectors:        DefaultSelectors(),

		MonitorInterval:  100 * time.Millisecond,
		MinMessageLength: 3,
		DebounceWindow:   time.Second,
		CacheSize:        512,

		DeletePause:       40 * time.Millisecond,
		MaxDeleteAttempts: 200,
		CooldownExtension: 60 * time.Second,
		ReleaseBuffer:     2 * time.Second,
		TypePause:         45 * time.Millisecond,

		MaxImages:         20,
		AnalysisMaxImages: 10,
		SettleDelay:       300 * time.Millisecond,

		ListenAddr: "127.0.0.1:17605",
	}

	if home, err := options.homeDir(); err == nil {
		cfg.UserDataDir = filepath.Join(home, ".rizzly", "profile")
		cfg.DownloadDir = filepath.Join(home, ".rizzly", "downloads")
	}

	if err := applyFile(&cfg, options); err != nil {
		return RuntimeConfig{}, err
	}
	applyEnv(&cfg, options.envLookup)

	return cfg, nil
}

// fileConfig is the on-disk JSON shape; absent fields keep their defaults.
type fileConfig struct {
	APIKey                *string    `json:"api_key"`
	BaseURL               *string    `json:"base_url"`
	ChatModel             *string    `json:"chat_model"`
	VisionModel           *string    `json:"vision_model"`
	RequestTimeoutSeconds *int       `json:"request_timeout_seconds"`
	CDPURL                *string    `json:"cdp_url"`
	ChromePath            *string    `json:"chrome_path"`
	UserDataDir           *string    `json:"user_data_dir"`
	Headless              *bool      `json:"headless"`
	StartURL              *string    `json:"start_url"`
	ConversationPath      *string    `json:"conversation_path"`
	Selectors             *Selectors `json:"selectors"`
	MonitorIntervalMs     *int       `json:"monitor_interval_ms"`
	MinMessageLength      *int       `json:"min_message_length"`
	DebounceWindowMs      *int       `json:"debounce_window_ms"`
	CacheSize             *int       `json:"cache_size"`
	DeletePauseMs         *int       `json:"delete_pause_ms"`
	MaxDeleteAttempts     *int       `json:"max_delete_attempts"`
	CooldownSeconds       *int       `json:"cooldown_seconds"`
	ReleaseBufferMs       *int       `json:"release_buffer_ms"`
	TypePauseMs           *int       `json:"type_pause_ms"`
	MaxImages             *int       `json:"max_images"`
	AnalysisMaxImages     *int       `json:"analysis_max_images"`
	SettleDelayMs         *int       `json:"settle_delay_ms"`
	DownloadDir           *string    `json:"download_dir"`
	ListenAddr            *string    `json:"listen_addr"`
}

func applyFile(cfg *RuntimeConfig, options loadOptions) error {
	path := options.filePath
	if path == "" {
		if env, ok := options.envLookup("RIZZLY_CONFIG"); ok && strings.TrimSpace(env) != "" {
			path = env
		} else if home, err := options.homeDir(); err == nil {
			path = filepath.Join(home, ".rizzly", "config.json")
		}
	}
	if path == "" {
		return nil
	}

	data, err := options.readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil && *src > 0 {
			*dst = *src
		}
	}
	setMillis := func(dst *time.Duration, src *int) {
		if src != nil && *src > 0 {
			*dst = time.Duration(*src) * time.Millisecond
		}
	}

	setString(&cfg.APIKey, fc.APIKey)
	setString(&cfg.BaseURL, fc.BaseURL)
	setString(&cfg.ChatModel, fc.ChatModel)
	setString(&cfg.VisionModel, fc.VisionModel)
	if fc.RequestTimeoutSeconds != nil && *fc.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(*fc.RequestTimeoutSeconds) * time.Second
	}
	setString(&cfg.CDPURL, fc.CDPURL)
	setString(&cfg.ChromePath, fc.ChromePath)
	setString(&cfg.UserDataDir, fc.UserDataDir)
	if fc.Headless != nil {
		cfg.Headless = *fc.Headless
	}
	setString(&cfg.StartURL, fc.StartURL)
	setString(&cfg.ConversationPath, fc.ConversationPath)
	if fc.Selectors != nil {
		merged := cfg.Selectors
		if s := strings.TrimSpace(fc.Selectors.Carousel); s != "" {
			merged.Carousel = s
		}
		if s := strings.TrimSpace(fc.Selectors.Slide); s != "" {
			merged.Slide = s
		}
		if s := strings.TrimSpace(fc.Selectors.Tab); s != "" {
			merged.Tab = s
		}
		if s := strings.TrimSpace(fc.Selectors.NextButton); s != "" {
			merged.NextButton = s
		}
		if s := strings.TrimSpace(fc.Selectors.MessageField); s != "" {
			merged.MessageField = s
		}
		cfg.Selectors = merged
	}
	setMillis(&cfg.MonitorInterval, fc.MonitorIntervalMs)
	setInt(&cfg.MinMessageLength, fc.MinMessageLength)
	setMillis(&cfg.DebounceWindow, fc.DebounceWindowMs)
	setInt(&cfg.CacheSize, fc.CacheSize)
	setMillis(&cfg.DeletePause, fc.DeletePauseMs)
	setInt(&cfg.MaxDeleteAttempts, fc.MaxDeleteAttempts)
	if fc.CooldownSeconds != nil && *fc.CooldownSeconds > 0 {
		cfg.CooldownExtension = time.Duration(*fc.CooldownSeconds) * time.Second
	}
	setMillis(&cfg.ReleaseBuffer, fc.ReleaseBufferMs)
	setMillis(&cfg.TypePause, fc.TypePauseMs)
	setInt(&cfg.MaxImages, fc.MaxImages)
	setInt(&cfg.AnalysisMaxImages, fc.AnalysisMaxImages)
	setMillis(&cfg.SettleDelay, fc.SettleDelayMs)
	setString(&cfg.DownloadDir, fc.DownloadDir)
	setString(&cfg.ListenAddr, fc.ListenAddr)

	return nil
}

func applyEnv(cfg *RuntimeConfig, lookup func(string) (string, bool)) {
	if v, ok := lookup("RIZZLY_API_KEY"); ok && strings.TrimSpace(v) != "" {
		cfg.APIKey = strings.TrimSpace(v)
	}
	if v, ok := lookup("RIZZLY_BASE_URL"); ok && strings.TrimSpace(v) != "" {
		cfg.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup("RIZZLY_CHAT_MODEL"); ok && strings.TrimSpace(v) != "" {
		cfg.ChatModel = strings.TrimSpace(v)
	}
	if v, ok := lookup("RIZZLY_VISION_MODEL"); ok && strings.TrimSpace(v) != "" {
		cfg.VisionModel = strings.TrimSpace(v)
	}
	if v, ok := lookup("RIZZLY_CDP_URL"); ok && strings.TrimSpace(v) != "" {
		cfg.CDPURL = strings.TrimSpace(v)
	}
	if v, ok := lookup("RIZZLY_CHROME_PATH"); ok && strings.TrimSpace(v) != "" {
		cfg.ChromePath = strings.TrimSpace(v)
	}
	if v, ok := lookup("RIZZLY_START_URL"); ok && strings.TrimSpace(v) != "" {
		cfg.StartURL = strings.TrimSpace(v)
	}
	if v, ok := lookup("RIZZLY_LISTEN_ADDR"); ok && strings.TrimSpace(v) != "" {
		cfg.ListenAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup("RIZZLY_HEADLESS"); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.Headless = parsed
		}
	}
	if v, ok := lookup("RIZZLY_DOWNLOAD_DIR"); ok && strings.TrimSpace(v) != "" {
		cfg.DownloadDir = strings.TrimSpace(v)
	}
}
