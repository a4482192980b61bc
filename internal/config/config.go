package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/strumscan/scan-server/internal/templates"
	"github.com/strumscan/scan-server/internal/utils/pathutil"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	FilesystemLocal = "local"
	FilesystemS3    = "s3"
)

const envPrefix = "STRUM"

// DefaultHomeDir is where models, scan photos and the history database live
// unless overridden by flag or STRUM_HOME_DIR.
const DefaultHomeDir = "~/.strumscan"

var (
	ErrHomeDirNotSet       = errors.New("home directory is not set")
	ErrHomeDirExpandFailed = errors.New("failed to expand home directory path")
)

type Config struct {
	Port          int          `mapstructure:"port"`
	Host          string       `mapstructure:"host"`
	Environment   string       `mapstructure:"environment"`
	HomeDir       string       `mapstructure:"home_dir"`
	ModelsDir     string       `mapstructure:"models_dir"`
	AssetsDir     string       `mapstructure:"assets_dir"`
	TempDir       string       `mapstructure:"temp_dir"`
	DataDir       string       `mapstructure:"data_dir"`
	PublicDir     string       `mapstructure:"public_dir"`
	Filesystem    string       `mapstructure:"filesystem_type"`
	DB            *DBConfig    `mapstructure:"db"`
	Model         *ModelConfig `mapstructure:"model"`
	S3            *S3Config    `mapstructure:"s3"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// ModelConfig describes the packaged classification model. Path and
// LabelsPath are resolved relative to the models directory when not absolute.
// Normalization is "scale" ([0,1]) or "centered" ([-1,1]); the bound model
// decides which one is correct.
type ModelConfig struct {
	Path          string `mapstructure:"path"`
	LabelsPath    string `mapstructure:"labels_path"`
	Source        string `mapstructure:"source"`
	InputSize     int    `mapstructure:"input_size"`
	Normalization string `mapstructure:"normalization"`
}

type S3Config struct {
	Folder      string `mapstructure:"folder"`
	Region      string `mapstructure:"region_name"`
	Bucket      string `mapstructure:"bucket_name"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	PublicUrl   string `mapstructure:"public_url"`
	EndpointUrl string `mapstructure:"endpoint_url"`
}

var config *Config

// InitConfig resolves the home directory, materializes default config.yaml
// and .env files on first run, and loads everything into viper.
func InitConfig() error {
	homeDir, err := getHomeDir()
	if err != nil {
		return err
	}

	if err := createHomeDirs(homeDir); err != nil {
		return err
	}

	viper.Set("home_dir", homeDir)
	viper.Set("models_dir", subDir(homeDir, "models_dir", "models"))
	viper.Set("assets_dir", subDir(homeDir, "assets_dir", "assets"))
	viper.Set("temp_dir", subDir(homeDir, "temp_dir", "temp"))
	viper.Set("data_dir", subDir(homeDir, "data_dir", "data"))

	envFile := viper.GetString("env_file")
	if envFile == "" {
		envFile = filepath.Join(homeDir, ".env")
	}

	configFile := viper.GetString("config_file")
	if configFile == "" {
		configFile = filepath.Join(homeDir, "config.yaml")
	}

	if _, err := os.Stat(envFile); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat .env file: %w", err)
		}

		if err := templates.WriteEnv(envFile); err != nil {
			return fmt.Errorf("failed to create .env file: %w", err)
		}
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	if _, err := os.Stat(configFile); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config.yaml file: %w", err)
		}

		if err := templates.WriteConfig(configFile); err != nil {
			return fmt.Errorf("failed to create config.yaml file: %w", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))
	viper.AutomaticEnv()
	viper.SetConfigFile(configFile)

	if err := LoadConfig(false); err != nil {
		if errors.As(err, &viper.ConfigFileNotFoundError{}) {
			fmt.Println("No config file found. Using default config.")
		} else {
			return err
		}
	}

	return nil
}

func LoadConfig(reload bool) error {
	if config != nil && !reload {
		return fmt.Errorf("config already loaded")
	}

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config: %w", err)
	}

	config = &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	applyDefaults(config)
	return nil
}

func GetConfig() *Config {
	return config
}

func MustGetConfig() *Config {
	if config == nil {
		panic("config not loaded")
	}

	return config
}

// ModelPath returns the absolute path of the packaged model artifact.
func (c *Config) ModelPath() string {
	return resolveUnder(c.ModelsDir, c.Model.Path)
}

// LabelsPath returns the absolute path of the label resource.
func (c *Config) LabelsPath() string {
	return resolveUnder(c.ModelsDir, c.Model.LabelsPath)
}

func applyDefaults(c *Config) {
	if c.DB == nil {
		c.DB = &DBConfig{Driver: "sqlite"}
	}
	if c.DB.DSN == "" {
		c.DB.DSN = "file:" + filepath.Join(c.DataDir, "scans.db")
	} else if strings.HasPrefix(c.DB.DSN, "file:~") {
		// sqlite would treat a literal ~ as a relative path.
		if expanded, err := pathutil.ExpandPath(strings.TrimPrefix(c.DB.DSN, "file:")); err == nil {
			c.DB.DSN = "file:" + expanded
		}
	}

	if c.Model == nil {
		c.Model = &ModelConfig{}
	}
	if c.Model.Path == "" {
		c.Model.Path = "instrument_classifier.onnx"
	}
	if c.Model.LabelsPath == "" {
		c.Model.LabelsPath = "labels.txt"
	}
	if c.Model.InputSize == 0 {
		c.Model.InputSize = 224
	}
	if c.Model.Normalization == "" {
		c.Model.Normalization = "scale"
	}

	if c.Filesystem == "" {
		c.Filesystem = FilesystemLocal
	}
}

func resolveUnder(dir string, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(dir, path)
}

// Resolution order: the home-dir flag, the STRUM_HOME_DIR environment
// variable, then the default.
func getHomeDir() (string, error) {
	homeDir := viper.GetString("home_dir")
	if homeDir == "" {
		homeDir = os.Getenv("STRUM_HOME_DIR")
		if homeDir == "" {
			homeDir = DefaultHomeDir
		}
	}

	homeDir, err := pathutil.ExpandPath(homeDir)
	if err != nil {
		return "", ErrHomeDirExpandFailed
	}

	return homeDir, nil
}

func subDir(homeDir string, key string, name string) string {
	dir := viper.GetString(key)
	if dir == "" {
		dir = filepath.Join(homeDir, name)
	}

	dir, err := pathutil.ExpandPath(dir)
	if err != nil {
		return filepath.Join(homeDir, name)
	}

	return dir
}

func createHomeDirs(homeDir string) error {
	if homeDir == "" {
		return ErrHomeDirNotSet
	}

	subdirs := []string{"models", "assets", "temp", "data"}
	if err := os.MkdirAll(homeDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}

	for _, subdir := range subdirs {
		dir := filepath.Join(homeDir, subdir)
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", subdir, err)
		}
	}

	return nil
}
