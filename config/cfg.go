package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	RewriteConfig struct {
		SiteRoot              string   `yaml:"site_root"`
		Extensions            []string `yaml:"extensions" validate:"required,min=1,dive,required,startswith=."`
		HonorCharset          bool     `yaml:"honor_charset"`
		FileNameTransliterate bool     `yaml:"file_name_transliterate"`
		OutputNameTemplate    string   `yaml:"output_name_template"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Rewrite   RewriteConfig  `yaml:"rewrite"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// OutputNameTemplateFieldName is kept unexpanded when configuration template
// is processed, it is expanded for every produced stylesheet instead.
const OutputNameTemplateFieldName = "output_name_template"

var requiredOptions = []func(*gencfg.ProcessingOptions){
	gencfg.WithDoNotExpandField(OutputNameTemplateFieldName),
}

// SiteRootBase returns configured site root as an absolute slash separated
// directory path with trailing slash or empty string if site root is not set.
func (conf *RewriteConfig) SiteRootBase() (string, error) {
	if len(conf.SiteRoot) == 0 {
		return "", nil
	}
	abs, err := filepath.Abs(conf.SiteRoot)
	if err != nil {
		return "", fmt.Errorf("unable to resolve site root (%s): %w", conf.SiteRoot, err)
	}
	base := filepath.ToSlash(abs)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base, nil
}

// HasExtension checks if name has one of configured stylesheet extensions.
func (conf *RewriteConfig) HasExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return slices.ContainsFunc(conf.Extensions, func(e string) bool {
		return strings.ToLower(e) == ext
	})
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("configuration sanitizing failed: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, slices.Concat(requiredOptions, options)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
