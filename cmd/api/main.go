package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Jesseh78/intuitivecare-test/internal/config"
	"github.com/Jesseh78/intuitivecare-test/internal/statscache"
	"github.com/Jesseh78/intuitivecare-test/internal/store"
	"github.com/Jesseh78/intuitivecare-test/pkg/utils"
)

// TTL do payload de /api/estatisticas; o cache é único para o processo.
const statsTTL = 300 * time.Second

func main() {
	logger := utils.Logger()
	defer logger.Sync()

	cfg := config.Load()

	st, err := store.NewPostgres(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("banco indisponível", zap.Error(err))
	}
	defer st.Close()

	srv := newServer(st, statscache.New[store.Estatisticas](statsTTL), logger)

	logger.Info("api de operadoras no ar", zap.String("porta", cfg.Port))
	if err := srv.router().Run(":" + cfg.Port); err != nil {
		logger.Fatal("servidor encerrou com erro", zap.Error(err))
	}
}
