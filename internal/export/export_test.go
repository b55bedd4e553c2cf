package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jesseh78/intuitivecare-test/internal/data"
)

func TestRun(t *testing.T) {
	root := t.TempDir()
	processed := filepath.Join(root, "processed")
	sqlDir := filepath.Join(root, "sql_data")

	require.NoError(t, data.WriteCSV(filepath.Join(processed, "consolidado_enriquecido.csv"),
		[]string{"CNPJ", "RazaoSocial", "Trimestre", "Ano", "ValorDespesas", "RegistroANS", "Modalidade", "UF", "CNPJ_VALIDO"},
		[][]string{
			{"11222333000181", "ACME", "1", "2024", "100.5", "123456", "Seguradora", "SP", "true"},
			{"11222333000181", "ACME", "2", "2024", "200", "123456", "Seguradora", "SP", "true"},
			{"00000000000191", "BETA", "1", "2024", "50", "", "", "", "true"},
		}))
	require.NoError(t, data.WriteCSV(filepath.Join(processed, "despesas_agregadas.csv"),
		[]string{"RazaoSocial", "UF", "TotalDespesas", "MediaDespesasTrimestre", "DesvioPadraoDespesas"},
		[][]string{{"ACME", "SP", "300.5", "150.25", "70.36"}}))

	require.NoError(t, Run(processed, sqlDir))

	header, rows, err := data.ReadCSV(filepath.Join(sqlDir, "consolidado_enriquecido.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cnpj", "razao_social", "trimestre", "ano", "valor_despesas", "registro_ans", "modalidade", "uf"}, header)
	assert.Len(t, rows, 3)

	header, rows, err = data.ReadCSV(filepath.Join(sqlDir, "operadoras_ativas.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cnpj", "registro_ans", "modalidade", "uf"}, header)
	// deduplicado por CNPJ
	require.Len(t, rows, 2)
	assert.Equal(t, "11222333000181", rows[0][0])
	assert.Equal(t, "00000000000191", rows[1][0])

	header, rows, err = data.ReadCSV(filepath.Join(sqlDir, "despesas_agregadas.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"razao_social", "uf", "total_despesas", "media_despesas_tri", "desvio_padrao_despesas"}, header)
	assert.Len(t, rows, 1)
}

func TestRunToleratesShortRows(t *testing.T) {
	root := t.TempDir()
	processed := filepath.Join(root, "processed")
	sqlDir := filepath.Join(root, "sql_data")

	// linha truncada à mão, mais curta que a coluna CNPJ
	require.NoError(t, data.WriteCSV(filepath.Join(processed, "consolidado_enriquecido.csv"),
		[]string{"Trimestre", "Ano", "CNPJ", "RazaoSocial", "ValorDespesas", "RegistroANS", "Modalidade", "UF"},
		[][]string{
			{"1", "2024", "11222333000181", "ACME", "100", "123456", "Seguradora", "SP"},
			{"1", "2024"},
		}))
	require.NoError(t, data.WriteCSV(filepath.Join(processed, "despesas_agregadas.csv"),
		[]string{"RazaoSocial", "UF", "TotalDespesas", "MediaDespesasTrimestre", "DesvioPadraoDespesas"},
		[][]string{{"ACME", "SP", "100", "100", ""}}))

	require.NoError(t, Run(processed, sqlDir))

	_, rows, err := data.ReadCSV(filepath.Join(sqlDir, "consolidado_enriquecido.csv"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRunMissingArtifactFails(t *testing.T) {
	root := t.TempDir()
	assert.Error(t, Run(filepath.Join(root, "processed"), filepath.Join(root, "sql_data")))
}
