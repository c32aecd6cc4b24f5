package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coldharbor/heapstore/logger"

	"gopkg.in/ini.v1"
)

var ConfigPath string

type CommandLineArgs struct {
	ConfigPath string
}

/*
[store]
data_dir   = data
page_size  = 4096
num_bufs   = 64

[logs]
log_error  = logs/error.log
log_infos  = logs/heapstore.log
log_level  = info
*/
type Cfg struct {
	Raw *ini.File

	DataDir  string `default:"data" yaml:"data_dir" json:"data_dir,omitempty"`
	PageSize int    `default:"4096" yaml:"page_size" json:"page_size,omitempty"`
	NumBufs  int    `default:"64" yaml:"num_bufs" json:"num_bufs,omitempty"`

	LogError string `default:"logs/error.log" yaml:"log_error" json:"log_error,omitempty"`
	LogInfos string `default:"logs/heapstore.log" yaml:"log_infos" json:"log_infos,omitempty"`
	LogLevel string `default:"info" yaml:"log_level" json:"log_level,omitempty"`
}

func NewCfg() *Cfg {
	return &Cfg{
		Raw:      ini.Empty(),
		DataDir:  "data",
		PageSize: 4096,
		NumBufs:  64,
		LogError: "logs/error.log",
		LogInfos: "logs/heapstore.log",
		LogLevel: "info",
	}
}

func (cfg *Cfg) Load(args *CommandLineArgs) *Cfg {
	setHomePath(args)
	iniFile, err := cfg.loadConfiguration(args)
	if err != nil {
		logger.Debugf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Raw = iniFile

	cfg.parseStoreCfg(cfg.Raw.Section("store"))
	cfg.parseLogsCfg(cfg.Raw.Section("logs"))
	return cfg
}

func setHomePath(args *CommandLineArgs) {
	if args.ConfigPath != "" {
		ConfigPath = args.ConfigPath
		return
	}
	ConfigPath, _ = filepath.Abs(".")
}

func (cfg *Cfg) loadConfiguration(args *CommandLineArgs) (*ini.File, error) {
	configFile := "conf/heapstore.ini"
	if args.ConfigPath != "" {
		configFile = args.ConfigPath
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		logger.Debugf("config file %s not found, using defaults\n", configFile)
		return ini.Empty(), nil
	}

	parsedFile, err := ini.Load(configFile)
	if err != nil {
		logger.Debugf("failed to parse config file %v, using defaults\n", err)
		return ini.Empty(), nil
	}

	logger.Debugf("loaded config file: %s\n", configFile)
	return parsedFile, nil
}

func valueAsString(section *ini.Section, keyName string, defaultValue string) (value string, err error) {
	if section == nil {
		return defaultValue, nil
	}
	value = section.Key(keyName).MustString(defaultValue)
	if value == "" {
		value = defaultValue
	}
	return value, nil
}

// GetString returns a "section.key" config value as a string.
func (cfg *Cfg) GetString(key string) string {
	parts := strings.Split(key, ".")
	if len(parts) < 2 {
		return ""
	}
	section := cfg.Raw.Section(parts[0])
	if section == nil {
		return ""
	}
	value, err := valueAsString(section, strings.Join(parts[1:], "."), "")
	if err != nil {
		return ""
	}
	return value
}

// GetInt returns a "section.key" config value as an int.
func (cfg *Cfg) GetInt(key string) int {
	parts := strings.Split(key, ".")
	if len(parts) < 2 {
		return 0
	}
	section := cfg.Raw.Section(parts[0])
	if section == nil {
		return 0
	}
	return section.Key(strings.Join(parts[1:], ".")).MustInt(0)
}

func (cfg *Cfg) parseStoreCfg(section *ini.Section) *Cfg {
	if section == nil {
		return cfg
	}

	dataDir, err := valueAsString(section, "data_dir", cfg.DataDir)
	if err == nil {
		cfg.DataDir = dataDir
	}

	cfg.PageSize = section.Key("page_size").MustInt(cfg.PageSize)
	if cfg.PageSize <= 0 {
		logger.Error(fmt.Sprintf("invalid page_size %d, keeping default", cfg.PageSize))
		cfg.PageSize = 4096
	}

	cfg.NumBufs = section.Key("num_bufs").MustInt(cfg.NumBufs)
	if cfg.NumBufs <= 0 {
		logger.Error(fmt.Sprintf("invalid num_bufs %d, keeping default", cfg.NumBufs))
		cfg.NumBufs = 64
	}

	return cfg
}

func (cfg *Cfg) parseLogsCfg(section *ini.Section) *Cfg {
	if section == nil {
		return cfg
	}

	logError, err := valueAsString(section, "log_error", cfg.LogError)
	if err == nil {
		cfg.LogError = logError
	}

	logInfos, err := valueAsString(section, "log_infos", cfg.LogInfos)
	if err == nil {
		cfg.LogInfos = logInfos
	}

	logLevel, err := valueAsString(section, "log_level", cfg.LogLevel)
	if err == nil {
		cfg.LogLevel = strings.ToLower(logLevel)
		validLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
		isValid := false
		for _, level := range validLevels {
			if cfg.LogLevel == level {
				isValid = true
				break
			}
		}
		if !isValid {
			logger.Debugf("invalid log level %q, falling back to info\n", logLevel)
			cfg.LogLevel = "info"
		}
	}

	return cfg
}
