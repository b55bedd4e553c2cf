package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Jesseh78/intuitivecare-test/internal/statscache"
	"github.com/Jesseh78/intuitivecare-test/internal/store"
)

type server struct {
	store store.Querier
	stats *statscache.Cache[store.Estatisticas]
	log   *zap.Logger
}

func newServer(st store.Querier, stats *statscache.Cache[store.Estatisticas], log *zap.Logger) *server {
	if log == nil {
		log = zap.NewNop()
	}
	return &server{store: st, stats: stats, log: log}
}

func (s *server) router() *gin.Engine {
	r := gin.Default()
	r.Use(corsGET)

	api := r.Group("/api")
	api.GET("/operadoras", s.handleListOperadoras)
	api.GET("/operadoras/:cnpj", s.handleGetOperadora)
	api.GET("/operadoras/:cnpj/despesas", s.handleDespesas)
	api.GET("/estatisticas", s.handleEstatisticas)
	return r
}

// API só de leitura; libera GET para o frontend local.
func corsGET(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET")
	c.Next()
}

func (s *server) handleListOperadoras(c *gin.Context) {
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	q := c.Query("q")

	items, total, err := s.store.ListOperadoras(c.Request.Context(), page, limit, q)
	if err != nil {
		s.fail(c, "listando operadoras", err)
		return
	}
	if items == nil {
		items = []store.Operadora{}
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "total": total, "page": page, "limit": limit})
}

func (s *server) handleGetOperadora(c *gin.Context) {
	op, err := s.store.GetOperadora(c.Request.Context(), c.Param("cnpj"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Operadora não encontrada"})
		return
	}
	if err != nil {
		s.fail(c, "buscando operadora", err)
		return
	}
	c.JSON(http.StatusOK, op)
}

func (s *server) handleDespesas(c *gin.Context) {
	id := c.Param("cnpj")
	if _, err := s.store.GetOperadora(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Operadora não encontrada"})
			return
		}
		s.fail(c, "buscando operadora", err)
		return
	}

	despesas, err := s.store.Despesas(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "buscando histórico de despesas", err)
		return
	}
	if despesas == nil {
		despesas = []store.Despesa{}
	}
	c.JSON(http.StatusOK, despesas)
}

func (s *server) handleEstatisticas(c *gin.Context) {
	force := c.Query("force") == "true"
	est, cached, err := s.stats.Get(force, func() (store.Estatisticas, error) {
		return s.store.Estatisticas(c.Request.Context())
	})
	if err != nil {
		s.fail(c, "calculando estatísticas", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_despesas":      est.TotalDespesas,
		"media_despesas":      est.MediaDespesas,
		"top5_operadoras":     orEmptyTop(est.Top5Operadoras),
		"distribuicao_por_uf": orEmptyUF(est.DistribuicaoPorUF),
		"cached":              cached,
	})
}

// fail registra o detalhe e devolve um 500 genérico.
func (s *server) fail(c *gin.Context, op string, err error) {
	s.log.Error("erro interno", zap.String("op", op), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "erro interno"})
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func orEmptyTop(xs []store.TopOperadora) []store.TopOperadora {
	if xs == nil {
		return []store.TopOperadora{}
	}
	return xs
}

func orEmptyUF(xs []store.UFTotal) []store.UFTotal {
	if xs == nil {
		return []store.UFTotal{}
	}
	return xs
}
