package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jesseh78/intuitivecare-test/internal/statscache"
	"github.com/Jesseh78/intuitivecare-test/internal/store"
)

type fakeStore struct {
	operadoras map[string]store.Operadora
	despesas   map[string][]store.Despesa
	statsCalls int
	failAll    bool
}

func (f *fakeStore) ListOperadoras(_ context.Context, page, limit int, q string) ([]store.Operadora, int, error) {
	if f.failAll {
		return nil, 0, errors.New("banco fora")
	}
	var out []store.Operadora
	for _, o := range f.operadoras {
		out = append(out, o)
	}
	return out, len(out), nil
}

func (f *fakeStore) GetOperadora(_ context.Context, id string) (store.Operadora, error) {
	if f.failAll {
		return store.Operadora{}, errors.New("banco fora")
	}
	o, ok := f.operadoras[id]
	if !ok {
		return store.Operadora{}, store.ErrNotFound
	}
	return o, nil
}

func (f *fakeStore) Despesas(_ context.Context, id string) ([]store.Despesa, error) {
	return f.despesas[id], nil
}

func (f *fakeStore) Estatisticas(_ context.Context) (store.Estatisticas, error) {
	f.statsCalls++
	return store.Estatisticas{TotalDespesas: 1000, MediaDespesas: 250}, nil
}

func newTestServer(fs *fakeStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return newServer(fs, statscache.New[store.Estatisticas](5*time.Minute), nil).router()
}

func doGET(t *testing.T, r *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	var body map[string]any
	if json.Unmarshal(w.Body.Bytes(), &body) != nil {
		body = nil
	}
	return w, body
}

func seededStore() *fakeStore {
	sp := "SP"
	return &fakeStore{
		operadoras: map[string]store.Operadora{
			"11222333000181": {CNPJ: "11222333000181", RazaoSocial: "ACME SAUDE", UF: &sp},
		},
		despesas: map[string][]store.Despesa{
			"11222333000181": {{Ano: 2024, Trimestre: 1, ValorDespesas: 100}},
		},
	}
}

func TestListOperadoras(t *testing.T) {
	r := newTestServer(seededStore())
	w, body := doGET(t, r, "/api/operadoras?page=1&limit=10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(1), body["page"])
	assert.Equal(t, float64(10), body["limit"])
	assert.Len(t, body["data"], 1)
}

func TestListOperadorasClampsPagination(t *testing.T) {
	r := newTestServer(seededStore())
	w, body := doGET(t, r, "/api/operadoras?page=0&limit=9999")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["page"])
	assert.Equal(t, float64(100), body["limit"])
}

func TestGetOperadora(t *testing.T) {
	r := newTestServer(seededStore())

	w, body := doGET(t, r, "/api/operadoras/11222333000181")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ACME SAUDE", body["razao_social"])

	w, _ = doGET(t, r, "/api/operadoras/00000000000000")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDespesas(t *testing.T) {
	r := newTestServer(seededStore())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/operadoras/11222333000181/despesas", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var list []store.Despesa
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 2024, list[0].Ano)

	w, _ = doGET(t, r, "/api/operadoras/999/despesas")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEstatisticasUsesCache(t *testing.T) {
	fs := seededStore()
	r := newTestServer(fs)

	w, body := doGET(t, r, "/api/estatisticas")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, float64(1000), body["total_despesas"])

	_, body = doGET(t, r, "/api/estatisticas")
	assert.Equal(t, true, body["cached"])
	assert.Equal(t, 1, fs.statsCalls)

	_, body = doGET(t, r, "/api/estatisticas?force=true")
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, 2, fs.statsCalls)
}

func TestInternalErrorIsGeneric500(t *testing.T) {
	r := newTestServer(&fakeStore{failAll: true})
	w, body := doGET(t, r, "/api/operadoras")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "erro interno", body["error"])
}
