// Package config concentra a configuração via variáveis de ambiente
// (com suporte a .env) para os binários ficarem enxutos.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultBaseURL     = "https://dadosabertos.ans.gov.br/FTP/PDA/demonstracoes_contabeis/"
	defaultCadastroURL = "https://dadosabertos.ans.gov.br/FTP/PDA/operadoras_de_plano_de_saude_ativas/"
)

type Config struct {
	Port        string
	BaseURL     string
	CadastroURL string
	DataDir     string
	DatabaseURL string

	HTTPTimeout time.Duration
	HTTPRetries int
	HTTPBackoff time.Duration

	InvalidCNPJStrategy string
}

// Load lê .env (se existir) e o ambiente. Valores ausentes caem nos
// defaults; DatabaseURL é validado só por quem precisa de banco.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:                envOr("PORT", "8080"),
		BaseURL:             envOr("ANS_BASE_URL", defaultBaseURL),
		CadastroURL:         envOr("ANS_CADASTRO_URL", defaultCadastroURL),
		DataDir:             envOr("DATA_DIR", "data"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		HTTPTimeout:         time.Duration(envInt("HTTP_TIMEOUT_S", 60)) * time.Second,
		HTTPRetries:         envInt("HTTP_RETRIES", 3),
		HTTPBackoff:         time.Duration(envInt("HTTP_BACKOFF_S", 1)) * time.Second,
		InvalidCNPJStrategy: envOr("INVALID_CNPJ_STRATEGY", "keep_mark"),
	}
	cfg.Port = strings.TrimPrefix(cfg.Port, ":")
	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
