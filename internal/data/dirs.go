// Package data cuida do layout de diretórios e dos artefatos CSV trocados
// entre as etapas do pipeline. Cada etapa persiste sua saída como arquivo
// para que a seguinte (ou uma inspeção manual) parta dele.
package data

import (
	"os"
	"path/filepath"
	"strings"
)

// Dirs resolve os subdiretórios padrão a partir da raiz de dados.
type Dirs struct {
	Root string
}

func NewDirs(root string) Dirs {
	if root == "" {
		root = "data"
	}
	return Dirs{Root: root}
}

func (d Dirs) Raw() string       { return filepath.Join(d.Root, "raw") }
func (d Dirs) Processed() string { return filepath.Join(d.Root, "processed") }
func (d Dirs) Reference() string { return filepath.Join(d.Root, "reference") }
func (d Dirs) SQLData() string   { return filepath.Join(d.Root, "sql_data") }

func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// SafeFilename troca caracteres proibidos em nomes de arquivo por "_".
func SafeFilename(name string) string {
	const bad = `<>:"/\|?*`
	out := strings.Map(func(r rune) rune {
		if strings.ContainsRune(bad, r) {
			return '_'
		}
		return r
	}, name)
	return strings.TrimSpace(out)
}
