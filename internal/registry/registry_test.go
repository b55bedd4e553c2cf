package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

type fakeFetcher struct {
	pages     map[string]string
	downloads map[string][]byte
	fail      bool
}

func (f *fakeFetcher) GetText(_ context.Context, url string) (string, error) {
	if f.fail {
		return "", fmt.Errorf("rede fora")
	}
	return f.pages[url], nil
}

func (f *fakeFetcher) Download(_ context.Context, url, dest string) error {
	if f.fail {
		return fmt.Errorf("rede fora")
	}
	b, ok := f.downloads[url]
	if !ok {
		return fmt.Errorf("404: %s", url)
	}
	return os.WriteFile(dest, b, 0o644)
}

func TestDownloadLatestPicksLastCSV(t *testing.T) {
	dir := "http://ans.test/cadastro/"
	f := &fakeFetcher{
		pages: map[string]string{
			dir: `<a href="Relatorio_2023.csv">x</a> <a href="Relatorio_2024.csv">y</a> <a href="leiame.txt">z</a>`,
		},
		downloads: map[string][]byte{
			"http://ans.test/cadastro/Relatorio_2024.csv": []byte("conteudo"),
		},
	}
	cache := filepath.Join(t.TempDir(), "operadoras_ativas.csv")
	require.NoError(t, DownloadLatest(context.Background(), f, dir, cache, nil))

	b, err := os.ReadFile(cache)
	require.NoError(t, err)
	assert.Equal(t, "conteudo", string(b))
}

func TestDownloadLatestFallsBackToCache(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "operadoras_ativas.csv")
	require.NoError(t, os.WriteFile(cache, []byte("cache antigo"), 0o644))

	f := &fakeFetcher{fail: true}
	require.NoError(t, DownloadLatest(context.Background(), f, "http://ans.test/cadastro/", cache, nil))

	b, _ := os.ReadFile(cache)
	assert.Equal(t, "cache antigo", string(b))
}

func TestDownloadLatestNoCachePropagates(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "operadoras_ativas.csv")
	f := &fakeFetcher{fail: true}
	assert.Error(t, DownloadLatest(context.Background(), f, "http://ans.test/cadastro/", cache, nil))
}

func writeLatin1(t *testing.T, content string) string {
	t.Helper()
	enc, err := charmap.Windows1252.NewEncoder().String(content)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "cadastro.csv")
	require.NoError(t, os.WriteFile(path, []byte(enc), 0o644))
	return path
}

func TestLoadDecodesAndNormalizes(t *testing.T) {
	path := writeLatin1(t,
		"REGISTRO_OPERADORA;CNPJ;Razao_Social;Modalidade;UF\n"+
			"123456;11.222.333/0001-81;ACME SAÚDE;Cooperativa Médica;SP\n"+
			"654321;191;BETA;Seguradora;RJ\n"+
			"999999;;VAZIO;Autogestão;MG\n")

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{"11222333000181", "123456", "Cooperativa Médica", "SP"}, entries[0])
	// CNPJ curto ganha pad para 14
	assert.Equal(t, "00000000000191", entries[1].CNPJ)
	assert.Equal(t, "Cooperativa Médica", entries[0].Modalidade) // latin-1 decodificado
}

func TestLoadMissingColumnsIsFatal(t *testing.T) {
	path := writeLatin1(t, "CNPJ;Razao_Social\n11222333000181;ACME\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RegistroANS")
	assert.Contains(t, err.Error(), "Razao_Social")
}

func TestDedupeCompletenessThenRegistro(t *testing.T) {
	in := []Entry{
		{"11222333000181", "300", "", ""},
		{"11222333000181", "200", "Seguradora", "SP"}, // mais completo, vence
		{"00000000000191", "555", "Medicina de Grupo", "RJ"},
		{"00000000000191", "111", "Odontologia", "MG"}, // empate: menor registro vence
	}
	out := Dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, "111", out[0].RegistroANS) // CNPJ 000...191 ordena primeiro
	assert.Equal(t, "200", out[1].RegistroANS)
}
