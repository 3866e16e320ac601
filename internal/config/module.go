package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	LLM      LLMConfig      `yaml:"llm"`
	Image    ImageConfig    `yaml:"image"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Storage  StorageConfig  `yaml:"storage"`
	Webhook  WebhookConfig  `yaml:"webhook"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type GRPCConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LLMConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	Timeout        string `yaml:"timeout"`
	MaxAttempts    int    `yaml:"max_attempts"`
	InitialBackoff string `yaml:"initial_backoff"`
}

type ImageConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	Size           string `yaml:"size"`
	MaxPromptChars int    `yaml:"max_prompt_chars"`
	Timeout        string `yaml:"timeout"`
	MaxAttempts    int    `yaml:"max_attempts"`
	InitialBackoff string `yaml:"initial_backoff"`
}

type WorkflowConfig struct {
	MaxRevisions     int    `yaml:"max_revisions"`
	QualityThreshold int    `yaml:"quality_threshold"`
	MaxFailures      int    `yaml:"max_failures"`
	StepTimeout      string `yaml:"step_timeout"`
	MaxSteps         int    `yaml:"max_steps"`
	Workers          int    `yaml:"workers"`
	QueueSize        int    `yaml:"queue_size"`
	RunTimeout       string `yaml:"run_timeout"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type WebhookConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8100,
		},
		GRPC: GRPCConfig{
			Host: "0.0.0.0",
			Port: 9114,
		},
		LLM: LLMConfig{
			BaseURL:        "https://api.openai.com",
			Model:          "gpt-4o-mini",
			Timeout:        "60s",
			MaxAttempts:    3,
			InitialBackoff: "2s",
		},
		Image: ImageConfig{
			BaseURL:        "https://api.openai.com",
			Model:          "dall-e-3",
			Size:           "1024x1024",
			MaxPromptChars: 3800,
			Timeout:        "60s",
			MaxAttempts:    3,
			InitialBackoff: "2s",
		},
		Workflow: WorkflowConfig{
			MaxRevisions:     3,
			QualityThreshold: 80,
			MaxFailures:      5,
			StepTimeout:      "90s",
			MaxSteps:         64,
			Workers:          4,
			QueueSize:        32,
			RunTimeout:       "300s",
		},
		Storage: StorageConfig{
			Driver: "memory",
		},
		Webhook: WebhookConfig{
			Timeout: "5s",
		},
	}
}

// Duration parses a config duration string, falling back when empty or
// malformed.
func Duration(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	dur, err := time.ParseDuration(v)
	if err != nil || dur <= 0 {
		return fallback
	}
	return dur
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return cfg, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := strings.TrimSpace(os.Getenv("APP_SERVER_HOST")); v != "" {
		cfg.Server.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("APP_SERVER_PORT")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("APP_GRPC_HOST")); v != "" {
		cfg.GRPC.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("APP_GRPC_PORT")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.GRPC.Port = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("APP_LLM_BASE_URL")); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("APP_LLM_API_KEY")); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("APP_LLM_MODEL")); v != "" {
		cfg.LLM.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("APP_IMAGE_BASE_URL")); v != "" {
		cfg.Image.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("APP_IMAGE_API_KEY")); v != "" {
		cfg.Image.APIKey = v
	}
	if cfg.Image.APIKey == "" {
		cfg.Image.APIKey = cfg.LLM.APIKey
	}
	if v := strings.TrimSpace(os.Getenv("APP_STORAGE_DRIVER")); v != "" {
		cfg.Storage.Driver = v
	}
	if v := strings.TrimSpace(os.Getenv("APP_STORAGE_DSN")); v != "" {
		cfg.Storage.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("APP_WEBHOOK_URL")); v != "" {
		cfg.Webhook.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("APP_WORKFLOW_WORKERS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Workflow.Workers = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("APP_WORKFLOW_MAX_REVISIONS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Workflow.MaxRevisions = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("APP_WORKFLOW_QUALITY_THRESHOLD")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Workflow.QualityThreshold = parsed
		}
	}

	return cfg, nil
}

func Module(path string) fx.Option {
	return fx.Provide(func() (Config, error) {
		return Load(path)
	})
}
