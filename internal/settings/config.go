package settings

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ATenderholt/s3-virusscan/internal/domain"
	"gopkg.in/yaml.v2"
)

const (
	DefaultConfigPath = "s3-virusscan.conf"
	DefaultScanner    = "clamscan"
	DefaultMaxFile    = "100M"
	DefaultMaxScan    = "400M"

	DefaultWorkers   = 1
	DefaultBatchSize = 10
	DefaultWaitTime  = 20

	MaxBatchSize = 10
	MaxWaitTime  = 20
)

type Config struct {
	Region   string `yaml:"region"`
	Queue    string `yaml:"queue"`
	Topic    string `yaml:"topic"`
	Delete   bool   `yaml:"delete"`
	IsDebug  bool   `yaml:"debug"`
	Endpoint string `yaml:"endpoint"`

	Scanner     string `yaml:"scanner"`
	MaxFileSize string `yaml:"max_file_size"`
	MaxScanSize string `yaml:"max_scan_size"`
	ScratchDir  string `yaml:"scratch_dir"`

	Workers           int `yaml:"workers"`
	BatchSize         int `yaml:"batch_size"`
	WaitTime          int `yaml:"wait_time"`
	VisibilityTimeout int `yaml:"visibility_timeout"`

	Filters []domain.FilterRule `yaml:"filters"`
}

// ScratchPath is the directory objects are staged into while being scanned.
func (config *Config) ScratchPath() string {
	if config.ScratchDir == "" {
		return os.TempDir()
	}

	if filepath.IsAbs(config.ScratchDir) {
		return config.ScratchDir
	}

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	return filepath.Join(cwd, config.ScratchDir)
}

func (config *Config) ScannerPath() string {
	return config.Scanner
}

func (config *Config) ScanLimits() (maxFileSize string, maxScanSize string) {
	return config.MaxFileSize, config.MaxScanSize
}

func (config *Config) KeyFilter() domain.Filter {
	return domain.Filter{Rules: config.Filters}
}

func (config *Config) Policy() domain.Policy {
	return domain.Policy{
		Region: config.Region,
		Queue:  config.Queue,
		Topic:  config.Topic,
		Delete: config.Delete,
	}
}

func (config *Config) Validate() error {
	var problems []string

	if config.Queue == "" {
		problems = append(problems, "queue is required")
	}

	if config.Topic == "" {
		problems = append(problems, "topic is required")
	}

	if config.Scanner == "" {
		problems = append(problems, "scanner is required")
	}

	if config.Workers < 1 {
		problems = append(problems, fmt.Sprintf("workers must be at least 1 but was %d", config.Workers))
	}

	if config.BatchSize < 1 || config.BatchSize > MaxBatchSize {
		problems = append(problems, fmt.Sprintf("batch-size must be between 1 and %d but was %d", MaxBatchSize, config.BatchSize))
	}

	if config.WaitTime < 0 || config.WaitTime > MaxWaitTime {
		problems = append(problems, fmt.Sprintf("wait-time must be between 0 and %d but was %d", MaxWaitTime, config.WaitTime))
	}

	if config.VisibilityTimeout < 0 {
		problems = append(problems, fmt.Sprintf("visibility-timeout must not be negative but was %d", config.VisibilityTimeout))
	}

	for _, rule := range config.Filters {
		if err := rule.Validate(); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if len(problems) > 0 {
		return ValidationError{problems: problems}
	}

	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Scanner:     DefaultScanner,
		MaxFileSize: DefaultMaxFile,
		MaxScanSize: DefaultMaxScan,
		Workers:     DefaultWorkers,
		BatchSize:   DefaultBatchSize,
		WaitTime:    DefaultWaitTime,
	}
}

// FilterValue parses comma-separated name:value filter rules, i.e. "prefix:uploads/,suffix:.exe".
type FilterValue struct {
	rules *[]domain.FilterRule
}

func (v FilterValue) Set(s string) error {
	var rules []domain.FilterRule
	for _, part := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			return fmt.Errorf("expected filter rule as name:value but got %q", part)
		}

		rule := domain.FilterRule{Name: name, Value: value}
		if err := rule.Validate(); err != nil {
			return err
		}

		rules = append(rules, rule)
	}

	*v.rules = rules
	return nil
}

func (v FilterValue) String() string {
	if v.rules == nil || len(*v.rules) == 0 {
		return ""
	}

	parts := make([]string, 0, len(*v.rules))
	for _, rule := range *v.rules {
		parts = append(parts, rule.Name+":"+rule.Value)
	}

	return strings.Join(parts, ",")
}

func newFlagSet(name string, cfg *Config, configPath *string, output *bytes.Buffer) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(output)

	flags.StringVar(configPath, "config", DefaultConfigPath, "Path to YAML configuration file")
	flags.StringVar(&cfg.Region, "region", cfg.Region, "AWS region of the queue, bucket and topic")
	flags.StringVar(&cfg.Queue, "queue", cfg.Queue, "URL or name of the queue receiving S3 event notifications")
	flags.StringVar(&cfg.Topic, "topic", cfg.Topic, "ARN of the topic alerts are published to")
	flags.BoolVar(&cfg.Delete, "delete", cfg.Delete, "Delete infected objects after alerting")
	flags.BoolVar(&cfg.IsDebug, "debug", cfg.IsDebug, "Enable debug logging")
	flags.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "Custom endpoint URL for AWS services")
	flags.StringVar(&cfg.Scanner, "scanner", cfg.Scanner, "Scanner executable")
	flags.StringVar(&cfg.MaxFileSize, "max-file-size", cfg.MaxFileSize, "Largest file the scanner will read")
	flags.StringVar(&cfg.MaxScanSize, "max-scan-size", cfg.MaxScanSize, "Most data the scanner will inspect per file")
	flags.StringVar(&cfg.ScratchDir, "scratch-dir", cfg.ScratchDir, "Directory objects are staged into while scanned")
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of concurrent queue receivers")
	flags.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Maximum messages per receive")
	flags.IntVar(&cfg.WaitTime, "wait-time", cfg.WaitTime, "Long poll wait in seconds")
	flags.IntVar(&cfg.VisibilityTimeout, "visibility-timeout", cfg.VisibilityTimeout, "Seconds to keep extending message visibility while processing, 0 disables")
	flags.Var(FilterValue{rules: &cfg.Filters}, "filters", "Comma-separated list of prefix:value or suffix:value key filters")

	return flags
}

// FromFlags builds a Config from defaults, the YAML file named by -config and
// finally the explicitly given flags, in increasing order of precedence.
func FromFlags(name string, args []string) (*Config, string, error) {
	var buf bytes.Buffer

	var configPath string
	probe := DefaultConfig()
	flags := newFlagSet(name, probe, &configPath, &buf)

	err := flags.Parse(args)
	if err != nil {
		return nil, buf.String(), err
	}

	explicit := false
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	cfg := DefaultConfig()
	err = LoadFile(configPath, cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			logger.Debugf("No configuration file at %s, using flags only", configPath)
		} else {
			return nil, buf.String(), err
		}
	}

	buf.Reset()
	flags = newFlagSet(name, cfg, &configPath, &buf)
	err = flags.Parse(args)
	if err != nil {
		return nil, buf.String(), err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, buf.String(), err
	}

	return cfg, buf.String(), nil
}

// LoadFile decodes the YAML file at path on top of the values already in cfg.
func LoadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return LoadError{path: path, base: err}
	}
	defer file.Close()

	logger.Infof("Loading configuration from %s", path)

	err = yaml.NewDecoder(file).Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return DecodeError{path: path, base: err}
	}

	return nil
}
