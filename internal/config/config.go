// Package config contém a leitura da configuração do portal do aluno.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config contém os parâmetros de configuração do portal.
type Config struct {
	RunAddress         string `env:"RUN_ADDRESS"`
	DatabaseURI        string `env:"DATABASE_URI"`
	LMSAddressTemplate string `env:"LMS_ADDRESS_TEMPLATE"`
	SessionSecret      string `env:"SESSION_SECRET"`
	AdminToken         string `env:"ADMIN_TOKEN"`
}

// Parse lê a configuração das flags de linha de comando e das variáveis de
// ambiente; ambiente tem precedência.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envLMSTemplate := cfg.LMSAddressTemplate
	envSessionSecret := cfg.SessionSecret
	envAdminToken := cfg.AdminToken

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.LMSAddressTemplate, "l", "", "LMS address template, %s is the campus")
	flag.StringVar(&cfg.SessionSecret, "s", "", "session signing secret")
	flag.StringVar(&cfg.AdminToken, "t", "", "admin API token")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envLMSTemplate != "" {
		cfg.LMSAddressTemplate = envLMSTemplate
	}
	if envSessionSecret != "" {
		cfg.SessionSecret = envSessionSecret
	}
	if envAdminToken != "" {
		cfg.AdminToken = envAdminToken
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}
