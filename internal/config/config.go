package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	Backend struct {
		BaseURL      string        `mapstructure:"base_url"`
		PollInterval time.Duration `mapstructure:"poll_interval"`
	} `mapstructure:"backend"`

	Session struct {
		StorePath string `mapstructure:"store_path"`
	} `mapstructure:"session"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	// Позже можно будет переопределять через ENV (APP_*), если надо
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	v.SetDefault("backend.poll_interval", 5*time.Minute)
	v.SetDefault("session.store_path", "sessions.json")
	v.SetDefault("http.addr", ":8081")

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
