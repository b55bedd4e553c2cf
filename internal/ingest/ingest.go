// Package ingest executa o step 1 por trimestre: baixa os zips, extrai e
// passa cada arquivo candidato pelo sniffer de tabelas. Cada trimestre
// acumula em privado e os resultados são fundidos só depois que todos
// terminam, então o paralelismo não muda o resultado.
package ingest

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Jesseh78/intuitivecare-test/internal/data"
	"github.com/Jesseh78/intuitivecare-test/internal/discovery"
	"github.com/Jesseh78/intuitivecare-test/internal/table"
)

// Fetcher é o que o ingest precisa do cliente HTTP.
type Fetcher interface {
	GetText(ctx context.Context, url string) (string, error)
	Download(ctx context.Context, url, dest string) error
}

type Result struct {
	Records     []table.Record
	NonPositive []table.Record
}

func (r *Result) merge(o Result) {
	r.Records = append(r.Records, o.Records...)
	r.NonPositive = append(r.NonPositive, o.NonPositive...)
}

// maxParallelQuarters limita os downloads simultâneos contra o FTP da ANS.
const maxParallelQuarters = 3

// Quarters processa todos os trimestres descobertos e devolve a união das
// linhas extraídas, na ordem da lista de entrada.
func Quarters(ctx context.Context, d *discovery.Discoverer, f Fetcher, quarters []discovery.Quarter, rawDir string, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	partial := make([]Result, len(quarters))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelQuarters)
	for i, q := range quarters {
		i, q := i, q
		g.Go(func() error {
			res, err := one(ctx, d, f, q, rawDir, log)
			if err != nil {
				return err
			}
			partial[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var out Result
	for _, p := range partial {
		out.merge(p)
	}
	return out, nil
}

func one(ctx context.Context, d *discovery.Discoverer, f Fetcher, q discovery.Quarter, rawDir string, log *zap.Logger) (Result, error) {
	var zipURLs []string
	if q.IsArchive() {
		zipURLs = []string{q.URL}
	} else {
		urls, err := d.ZipLinks(ctx, q.URL)
		if err != nil {
			return Result{}, err
		}
		zipURLs = urls
	}
	if len(zipURLs) == 0 {
		log.Warn("trimestre sem zips", zap.Int("ano", q.Year), zap.Int("trimestre", q.Quarter))
		return Result{}, nil
	}

	qdir := filepath.Join(rawDir, fmt.Sprintf("%d_T%d", q.Year, q.Quarter))
	if err := data.EnsureDir(qdir); err != nil {
		return Result{}, err
	}

	var res Result
	for _, zurl := range zipURLs {
		files, err := fetchAndExtract(ctx, f, zurl, qdir)
		if err != nil {
			return Result{}, err
		}
		for _, path := range files {
			if !table.IsExpenseFile(path) {
				continue
			}
			tab, err := table.Read(path)
			if err != nil {
				log.Debug("arquivo ilegível, pulando", zap.String("arquivo", path), zap.Error(err))
				continue
			}
			recs, nonPos, ok := table.Extract(tab, q.Year, q.Quarter, path)
			if !ok {
				log.Debug("esquema desconhecido, pulando", zap.String("arquivo", path))
				continue
			}
			res.Records = append(res.Records, recs...)
			res.NonPositive = append(res.NonPositive, nonPos...)
		}
	}
	log.Info("trimestre processado",
		zap.Int("ano", q.Year),
		zap.Int("trimestre", q.Quarter),
		zap.Int("linhas", len(res.Records)),
	)
	return res, nil
}

// fetchAndExtract baixa o zip (reaproveitando download anterior, já que o
// step é re-executável) e extrai tudo em um subdiretório com o nome base
// do arquivo.
func fetchAndExtract(ctx context.Context, f Fetcher, zurl, qdir string) ([]string, error) {
	name := data.SafeFilename(zurl[strings.LastIndex(zurl, "/")+1:])
	zipPath := filepath.Join(qdir, name)
	if _, err := os.Stat(zipPath); err != nil {
		if err := f.Download(ctx, zurl, zipPath); err != nil {
			return nil, err
		}
	}
	destDir := filepath.Join(qdir, strings.TrimSuffix(name, filepath.Ext(name)))
	return extractZip(zipPath, destDir)
}

func extractZip(zipPath, destDir string) ([]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("abrindo %s: %w", zipPath, err)
	}
	defer zr.Close()

	var files []string
	for _, zf := range zr.File {
		target := filepath.Join(destDir, filepath.Clean(zf.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			continue
		}
		if zf.FileInfo().IsDir() {
			if err := data.EnsureDir(target); err != nil {
				return nil, err
			}
			continue
		}
		if err := data.EnsureDir(filepath.Dir(target)); err != nil {
			return nil, err
		}
		if err := copyZipFile(zf, target); err != nil {
			return nil, err
		}
		files = append(files, target)
	}
	return files, nil
}

func copyZipFile(zf *zip.File, target string) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
