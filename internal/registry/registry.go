// Package registry baixa e normaliza o cadastro de operadoras ativas da
// ANS, a referência usada no enriquecimento do consolidado.
package registry

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/Jesseh78/intuitivecare-test/internal/cnpj"
	"github.com/Jesseh78/intuitivecare-test/internal/data"
	"github.com/Jesseh78/intuitivecare-test/internal/discovery"
)

// Entry é uma operadora do cadastro, já com CNPJ normalizado.
type Entry struct {
	CNPJ        string
	RegistroANS string
	Modalidade  string
	UF          string
}

// Fetcher é o que o cadastro precisa do cliente HTTP.
type Fetcher interface {
	GetText(ctx context.Context, url string) (string, error)
	Download(ctx context.Context, url, dest string) error
}

// DownloadLatest baixa o CSV mais recente do diretório do cadastro para
// cachePath. Se a rede falhar e existir um cache local não vazio, o cache
// é reaproveitado; sem cache o erro sobe.
func DownloadLatest(ctx context.Context, f Fetcher, dirURL, cachePath string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	err := downloadOnce(ctx, f, dirURL, cachePath)
	if err == nil {
		return nil
	}
	if st, statErr := os.Stat(cachePath); statErr == nil && st.Size() > 0 {
		log.Warn("falha ao baixar cadastro, usando cache local",
			zap.String("cache", cachePath), zap.Error(err))
		return nil
	}
	return err
}

func downloadOnce(ctx context.Context, f Fetcher, dirURL, cachePath string) error {
	page, err := f.GetText(ctx, dirURL)
	if err != nil {
		return err
	}

	var csvLinks []string
	for _, h := range discovery.ExtractLinks(page) {
		if strings.HasSuffix(strings.ToLower(h), ".csv") {
			csvLinks = append(csvLinks, h)
		}
	}
	if len(csvLinks) == 0 {
		return fmt.Errorf("registry: nenhum CSV no diretório de cadastro %s", dirURL)
	}
	sort.Strings(csvLinks)
	chosen := csvLinks[len(csvLinks)-1]

	url := chosen
	if !strings.HasPrefix(chosen, "http") {
		url = strings.TrimRight(dirURL, "/") + "/" + strings.TrimLeft(chosen, "/")
	}
	return f.Download(ctx, url, cachePath)
}

// Load lê o cadastro baixado. O arquivo vem separado por ponto-e-vírgula
// em Windows-1252; as colunas são mapeadas pelo nome e a ausência de
// alguma obrigatória é erro fatal com a lista do que faltou e do que foi
// encontrado.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(charmap.Windows1252.NewDecoder().Reader(f))
	r.Comma = ';'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("registry: lendo %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("registry: cadastro vazio: %s", path)
	}

	idxCNPJ, idxRegistro, idxModalidade, idxUF := -1, -1, -1, -1
	for i, h := range rows[0] {
		switch lc := strings.ToLower(strings.TrimSpace(h)); {
		case lc == "cnpj":
			idxCNPJ = i
		case lc == "registro_operadora" || lc == "registro_operadora_ans" || lc == "registro" || lc == "registro_ans":
			idxRegistro = i
		case strings.Contains(lc, "modalidade"):
			idxModalidade = i
		case lc == "uf":
			idxUF = i
		}
	}
	var missing []string
	for _, c := range []struct {
		name string
		idx  int
	}{{"CNPJ", idxCNPJ}, {"RegistroANS", idxRegistro}, {"Modalidade", idxModalidade}, {"UF", idxUF}} {
		if c.idx < 0 {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("registry: cadastro sem colunas esperadas %v; colunas encontradas: %v", missing, rows[0])
	}

	var entries []Entry
	for _, row := range rows[1:] {
		num := cnpj.NormalizePad(field(row, idxCNPJ))
		if len(num) != 14 {
			continue
		}
		entries = append(entries, Entry{
			CNPJ:        num,
			RegistroANS: strings.TrimSpace(field(row, idxRegistro)),
			Modalidade:  strings.TrimSpace(field(row, idxModalidade)),
			UF:          strings.TrimSpace(field(row, idxUF)),
		})
	}
	return entries, nil
}

// Dedupe garante no máximo uma entrada por CNPJ. Ganha a linha com mais
// campos preenchidos entre (RegistroANS, Modalidade, UF); persistindo o
// empate, a de menor RegistroANS. O resultado sai ordenado por CNPJ.
func Dedupe(entries []Entry) []Entry {
	best := map[string]Entry{}
	for _, e := range entries {
		cur, ok := best[e.CNPJ]
		if !ok || better(e, cur) {
			best[e.CNPJ] = e
		}
	}
	out := make([]Entry, 0, len(best))
	for _, e := range best {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CNPJ < out[j].CNPJ })
	return out
}

func better(a, b Entry) bool {
	sa, sb := completeness(a), completeness(b)
	if sa != sb {
		return sa > sb
	}
	return a.RegistroANS < b.RegistroANS
}

func completeness(e Entry) int {
	n := 0
	for _, v := range []string{e.RegistroANS, e.Modalidade, e.UF} {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// NormalizedHeader é o contrato do artefato de cadastro normalizado.
var NormalizedHeader = []string{"CNPJ", "RegistroANS", "Modalidade", "UF"}

func WriteNormalized(path string, entries []Entry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.CNPJ, e.RegistroANS, e.Modalidade, e.UF})
	}
	return data.WriteCSV(path, NormalizedHeader, rows)
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
