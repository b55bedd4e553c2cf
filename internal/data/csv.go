package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// WriteCSV grava cabeçalho + linhas em UTF-8, criando o diretório se
// preciso.
func WriteCSV(path string, header []string, rows [][]string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadCSV lê um artefato escrito por WriteCSV e devolve cabeçalho e
// linhas separados.
func ReadCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("csv vazio: %s", path)
	}
	return all[0], all[1:], nil
}

// RequireColumns valida o contrato de um artefato de entrada: devolve os
// índices das colunas pedidas ou um erro nomeando as ausentes e as
// encontradas.
func RequireColumns(path string, header []string, required []string) (map[string]int, error) {
	idx := map[string]int{}
	for i, h := range header {
		idx[h] = i
	}
	var missing []string
	for _, c := range required {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s não tem colunas obrigatórias %v; encontradas: %v", path, missing, header)
	}
	out := map[string]int{}
	for _, c := range required {
		out[c] = idx[c]
	}
	return out, nil
}
