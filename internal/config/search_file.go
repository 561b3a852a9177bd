package config

import (
	"errors"
	"fmt"
	"os"

	"memex-be/pkg/search"

	"gopkg.in/yaml.v3"
)

// SearchFile is the YAML content-type config file.
//
//	content-type:
//	  org:    {input-files: [...], input-filter: "~/notes/*.org", embeddings-file: ...}
//	  music:  {...}
//	  ledger: {...}
//	  image:  {input-directory: ~/pictures, use-xmp-metadata: true, batch-size: 50}
//	processor:
//	  conversation: {conversation-logfile: ~/.memex/conversation.json, openai-api-key: ...}
type SearchFile struct {
	ContentType ContentTypes `yaml:"content-type"`
	Processor   Processors   `yaml:"processor"`
}

type ContentTypes struct {
	Org    *TextSearchConfig  `yaml:"org"`
	Music  *TextSearchConfig  `yaml:"music"`
	Ledger *TextSearchConfig  `yaml:"ledger"`
	Image  *ImageSearchConfig `yaml:"image"`
}

type TextSearchConfig struct {
	InputFiles      []string `yaml:"input-files"`
	InputFilter     string   `yaml:"input-filter"`
	CompressedJSONL string   `yaml:"compressed-jsonl"`
	EmbeddingsFile  string   `yaml:"embeddings-file"`
	BatchSize       int      `yaml:"batch-size"`
	MinScore        float32  `yaml:"min-score"`
}

type ImageSearchConfig struct {
	InputDirectory string  `yaml:"input-directory"`
	InputFilter    string  `yaml:"input-filter"`
	EmbeddingsFile string  `yaml:"embeddings-file"`
	BatchSize      int     `yaml:"batch-size"`
	UseXMPMetadata bool    `yaml:"use-xmp-metadata"`
	MinScore       float32 `yaml:"min-score"`
}

type Processors struct {
	Conversation *ConversationProcessorConfig `yaml:"conversation"`
}

type ConversationProcessorConfig struct {
	OpenAIAPIKey        string `yaml:"openai-api-key"`
	ConversationLogfile string `yaml:"conversation-logfile"`
	Model               string `yaml:"model"`
}

// LoadSearchFile parses path. A missing file yields an empty configuration,
// so the server starts with no backends.
func LoadSearchFile(path string) (SearchFile, error) {
	var f SearchFile
	if path == "" {
		return f, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return f, nil
}

// SearchConfig maps the file onto the per-type search configuration.
func (f SearchFile) SearchConfig() search.Config {
	cfg := search.Config{}
	if c := f.ContentType.Org; c != nil {
		cfg[search.Notes] = c.contentConfig()
	}
	if c := f.ContentType.Music; c != nil {
		cfg[search.Music] = c.contentConfig()
	}
	if c := f.ContentType.Ledger; c != nil {
		cfg[search.Ledger] = c.contentConfig()
	}
	if c := f.ContentType.Image; c != nil {
		cfg[search.Image] = &search.ContentConfig{
			InputDirectory: c.InputDirectory,
			InputFilter:    c.InputFilter,
			EmbeddingsFile: c.EmbeddingsFile,
			BatchSize:      c.BatchSize,
			UseXMPMetadata: c.UseXMPMetadata,
			MinScore:       c.MinScore,
		}
	}
	return cfg
}

func (c *TextSearchConfig) contentConfig() *search.ContentConfig {
	return &search.ContentConfig{
		InputFiles:      c.InputFiles,
		InputFilter:     c.InputFilter,
		CompressedJSONL: c.CompressedJSONL,
		EmbeddingsFile:  c.EmbeddingsFile,
		BatchSize:       c.BatchSize,
		MinScore:        c.MinScore,
	}
}
