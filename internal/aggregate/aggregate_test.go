package aggregate

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jesseh78/intuitivecare-test/internal/data"
	"github.com/Jesseh78/intuitivecare-test/internal/enrich"
)

func rec(nome, uf string, valor float64) enrich.Record {
	return enrich.Record{RazaoSocial: nome, UF: uf, Valor: valor}
}

func TestAggregateStats(t *testing.T) {
	groups := Aggregate([]enrich.Record{
		rec("ACME", "SP", 100),
		rec("ACME", "SP", 200),
		rec("ACME", "SP", 300),
		rec("ACME", "SP", 400),
	})
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, 1000.0, g.Total)
	assert.Equal(t, 250.0, g.Media)
	assert.InDelta(t, 129.10, g.DesvioPadrao, 0.01)
	assert.Equal(t, 4, g.N)
}

func TestAggregateSingleRowGroupHasNaNStdDev(t *testing.T) {
	groups := Aggregate([]enrich.Record{rec("SOZINHA", "RJ", 42)})
	require.Len(t, groups, 1)
	assert.Equal(t, 42.0, groups[0].Total)
	assert.Equal(t, 42.0, groups[0].Media)
	assert.True(t, math.IsNaN(groups[0].DesvioPadrao))
}

func TestAggregateSortsByTotalDesc(t *testing.T) {
	groups := Aggregate([]enrich.Record{
		rec("PEQUENA", "SP", 10),
		rec("GRANDE", "RJ", 500),
		rec("MEDIA", "MG", 100),
		rec("GRANDE", "RJ", 500),
	})
	require.Len(t, groups, 3)
	assert.Equal(t, "GRANDE", groups[0].RazaoSocial)
	assert.Equal(t, "MEDIA", groups[1].RazaoSocial)
	assert.Equal(t, "PEQUENA", groups[2].RazaoSocial)
}

func TestAggregateSeparatesByUF(t *testing.T) {
	groups := Aggregate([]enrich.Record{
		rec("ACME", "SP", 100),
		rec("ACME", "RJ", 100),
	})
	assert.Len(t, groups, 2)
}

// Agregar um dataset já agregado (grupos de cardinalidade 1) reproduz os
// mesmos totais.
func TestAggregateIdempotentOnSingletonGroups(t *testing.T) {
	first := Aggregate([]enrich.Record{
		rec("A", "SP", 100),
		rec("A", "SP", 300),
		rec("B", "RJ", 50),
	})

	reloaded := make([]enrich.Record, 0, len(first))
	for _, g := range first {
		reloaded = append(reloaded, rec(g.RazaoSocial, g.UF, g.Total))
	}
	second := Aggregate(reloaded)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Total, second[i].Total)
	}
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	groups := Aggregate([]enrich.Record{
		rec("ACME", "SP", 100),
		rec("ACME", "SP", 200),
		rec("SOZINHA", "RJ", 400),
	})
	path := filepath.Join(dir, "despesas_agregadas.csv")
	require.NoError(t, Write(path, groups))

	header, rows, err := data.ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, AggregatedHeader, header)
	require.Len(t, rows, 2)
	// desvio padrão indefinido sai como célula vazia, não zero
	assert.Equal(t, "SOZINHA", rows[0][0])
	assert.Equal(t, "", rows[0][4])

	enrPath := filepath.Join(dir, "consolidado_enriquecido.csv")
	require.NoError(t, data.WriteCSV(enrPath,
		[]string{"CNPJ", "RazaoSocial", "Trimestre", "Ano", "ValorDespesas", "RegistroANS", "Modalidade", "UF"},
		[][]string{{"11222333000181", "ACME", "1", "2024", "150.5", "123", "Seguradora", "SP"}},
	))
	recs, err := LoadEnriched(enrPath)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 150.5, recs[0].Valor)
	assert.Equal(t, "SP", recs[0].UF)
}
