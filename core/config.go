package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugAddr                 string
		CookieName                string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		ShutdownTimeout           time.Duration
	}

	DatabaseConfig struct {
		URI            string
		Name           string
		ConnectTimeout time.Duration
	}

	OpenAIConfig struct {
		APIKey      string
		Model       string
		Temperature float64
	}

	Config struct {
		Debug           bool
		TestMode        bool
		Env             string
		Build           string
		AppName         string
		SecretKey       string
		WorkDir         string
		FrontendBaseURL string

		DefaultFromEmail          mail.Address
		SendgridAPIKey            string
		RollbarToken              string
		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		OpenAI   OpenAIConfig
	}
)

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "SmartSeats")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.addr", ":8000")
	conf.SetDefault("server.debugAddr", ":8001")
	conf.SetDefault("server.cookieName", "token")
	conf.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("database.uri", "mongodb://localhost:27017")
	conf.SetDefault("database.name", "smartseats")
	conf.SetDefault("database.connectTimeout", 10*time.Second)
	conf.SetDefault("openai.model", "gpt-4")
	conf.SetDefault("openai.temperature", 0.7)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	conf.AutomaticEnv()

	return &Config{
		Debug:           conf.GetBool("debug"),
		TestMode:        conf.GetBool("testMode"),
		Env:             env,
		Build:           conf.GetString("build"),
		AppName:         conf.GetString("appName"),
		SecretKey:       conf.GetString("secretKey"),
		WorkDir:         wd,
		FrontendBaseURL: conf.GetString("frontendBaseURL"),

		DefaultFromEmail:          mail.Address{Address: conf.GetString("defaultFromEmail")},
		SendgridAPIKey:            conf.GetString("sendgridApiKey"),
		RollbarToken:              conf.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),

		Server: ServerConfig{
			Host:                      conf.GetString("server.host"),
			Addr:                      conf.GetString("server.addr"),
			DebugAddr:                 conf.GetString("server.debugAddr"),
			CookieName:                conf.GetString("server.cookieName"),
			JWTExpirationDelta:        conf.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("server.jwtRefreshExpirationDelta"),
			ShutdownTimeout:           conf.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			URI:            conf.GetString("database.uri"),
			Name:           conf.GetString("database.name"),
			ConnectTimeout: conf.GetDuration("database.connectTimeout"),
		},
		OpenAI: OpenAIConfig{
			APIKey:      conf.GetString("openai.apiKey"),
			Model:       conf.GetString("openai.model"),
			Temperature: conf.GetFloat64("openai.temperature"),
		},
	}
}
