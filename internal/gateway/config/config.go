package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config stores all configuration for the gateway-service. PublicPaths is a
// comma-separated list of path prefixes that bypass authentication.
type Config struct {
	ServerPort     string `mapstructure:"SERVER_PORT"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AuthServiceURL string `mapstructure:"AUTH_SERVICE_URL"`
	UserServiceURL string `mapstructure:"USER_SERVICE_URL"`
	PublicPaths    string `mapstructure:"PUBLIC_PATHS"`
}

// PublicPathList splits the configured public paths into a prefix set.
func (c Config) PublicPathList() []string {
	parts := strings.Split(c.PublicPaths, ",")
	paths := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (config Config, err error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("AUTH_SERVICE_URL")
	_ = viper.BindEnv("USER_SERVICE_URL")
	_ = viper.BindEnv("PUBLIC_PATHS")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("PUBLIC_PATHS", "/api/auth/register,/api/auth/login,/api/auth/check-nickname-existence,/health")

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("Error reading config file: %s", err)
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode config into struct: %v", err)
	}
	return
}
