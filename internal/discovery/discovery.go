// Package discovery localiza os arquivos trimestrais nas listagens HTML do
// FTP público da ANS. A estrutura remota não é estável: há anos com
// subpastas por trimestre (2023/1T/ ou 2023/Q1/) e anos com zips nomeados
// direto na pasta do ano (1T2023.zip). As duas formas são reconhecidas.
package discovery

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// ErrNoQuartersFound indica que a varredura terminou sem nenhum trimestre
// reconhecido; nada parcial é persistido nesse caso.
var ErrNoQuartersFound = errors.New("discovery: nenhuma pasta ou arquivo trimestral encontrado")

var (
	yearRe    = regexp.MustCompile(`^(19|20)\d{2}$`)
	quarterRe = regexp.MustCompile(`(?i)^(?:Q([1-4])|([1-4])T|0?([1-4]))$`)
	flatZipRe = regexp.MustCompile(`(?i)^([1-4])T((?:19|20)\d{2})\.zip$`)
)

// Quarter aponta para a origem dos dados de um trimestre: uma pasta de
// listagem (URL terminada em "/") ou um zip direto.
type Quarter struct {
	Year    int
	Quarter int
	URL     string
}

// IsArchive informa se a URL já é o próprio zip (layout plano).
func (q Quarter) IsArchive() bool {
	return strings.HasSuffix(strings.ToLower(q.URL), ".zip")
}

// TextFetcher é o que o discoverer precisa do cliente HTTP.
type TextFetcher interface {
	GetText(ctx context.Context, url string) (string, error)
}

type Discoverer struct {
	fetcher  TextFetcher
	log      *zap.Logger
	maxDepth int
}

func New(fetcher TextFetcher, log *zap.Logger) *Discoverer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Discoverer{fetcher: fetcher, log: log, maxDepth: 2}
}

// LatestQuarters varre a listagem a partir de baseURL e devolve os n
// trimestres mais recentes por (ano, trimestre), sem duplicar URLs.
func (d *Discoverer) LatestQuarters(ctx context.Context, baseURL string, n int) ([]Quarter, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	found := map[string]Quarter{}
	queue := []struct {
		url   string
		depth int
	}{{baseURL, 0}}
	seen := map[string]bool{}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur.url] {
			continue
		}
		seen[cur.url] = true

		page, err := d.fetcher.GetText(ctx, cur.url)
		if err != nil {
			return nil, err
		}
		links := ExtractLinks(page)

		var yearDirs []string
		for _, h := range links {
			if isDirLink(h) && yearRe.MatchString(strings.Trim(h, "/")) {
				yearDirs = append(yearDirs, h)
			}
		}

		if len(yearDirs) > 0 {
			for _, y := range yearDirs {
				year, _ := strconv.Atoi(strings.Trim(y, "/"))
				yearURL := joinURL(cur.url, y)
				if err := d.scanYear(ctx, yearURL, year, found); err != nil {
					return nil, err
				}
			}
			// estrutura encontrada neste nível; não desce mais a partir daqui
			continue
		}

		if cur.depth < d.maxDepth {
			for _, h := range links {
				if isDirLink(h) {
					queue = append(queue, struct {
						url   string
						depth int
					}{joinURL(cur.url, h), cur.depth + 1})
				}
			}
		}
	}

	if len(found) == 0 {
		return nil, ErrNoQuartersFound
	}

	out := make([]Quarter, 0, len(found))
	for _, q := range found {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		if out[i].Quarter != out[j].Quarter {
			return out[i].Quarter > out[j].Quarter
		}
		return out[i].URL < out[j].URL
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	d.log.Info("trimestres descobertos", zap.Int("total", len(found)), zap.Int("selecionados", len(out)))
	return out, nil
}

// scanYear procura dentro da pasta do ano tanto subpastas de trimestre
// quanto zips no padrão plano 1T2023.zip.
func (d *Discoverer) scanYear(ctx context.Context, yearURL string, year int, found map[string]Quarter) error {
	page, err := d.fetcher.GetText(ctx, yearURL)
	if err != nil {
		return err
	}
	for _, h := range ExtractLinks(page) {
		if isDirLink(h) {
			if qn, ok := normalizeQuarter(h); ok {
				u := joinURL(yearURL, h)
				found[u] = Quarter{Year: year, Quarter: qn, URL: u}
			}
			continue
		}
		name := strings.Trim(h, "/")
		if m := flatZipRe.FindStringSubmatch(lastSegment(name)); m != nil {
			qn, _ := strconv.Atoi(m[1])
			zipYear, _ := strconv.Atoi(m[2])
			u := joinURL(yearURL, h)
			found[u] = Quarter{Year: zipYear, Quarter: qn, URL: u}
		}
	}
	return nil
}

// ZipLinks lista os .zip de uma pasta de trimestre, com URLs absolutas.
func (d *Discoverer) ZipLinks(ctx context.Context, folderURL string) ([]string, error) {
	page, err := d.fetcher.GetText(ctx, folderURL)
	if err != nil {
		return nil, err
	}
	var zips []string
	for _, h := range ExtractLinks(page) {
		if strings.HasSuffix(strings.ToLower(h), ".zip") {
			zips = append(zips, joinURL(folderURL, h))
		}
	}
	return zips, nil
}

// ExtractLinks devolve os hrefs de âncoras de uma página de listagem.
func ExtractLinks(page string) []string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil
	}
	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key == "href" && a.Val != "" {
					links = append(links, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

func isDirLink(href string) bool {
	return strings.HasSuffix(href, "/") &&
		!strings.HasPrefix(href, "?") &&
		href != "../" && href != "./"
}

func normalizeQuarter(name string) (int, bool) {
	n := strings.Trim(strings.TrimSpace(name), "/")
	m := quarterRe.FindStringSubmatch(n)
	if m == nil {
		return 0, false
	}
	for _, g := range m[1:] {
		if g != "" {
			v, _ := strconv.Atoi(g)
			return v, true
		}
	}
	return 0, false
}

func joinURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}

func lastSegment(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
