package discovery

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) GetText(_ context.Context, url string) (string, error) {
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("404: %s", url)
	}
	return page, nil
}

func listing(hrefs ...string) string {
	out := "<html><body><pre>"
	for _, h := range hrefs {
		out += `<a href="` + h + `">` + h + `</a>` + "\n"
	}
	return out + "</pre></body></html>"
}

func TestLatestQuartersNestedLayout(t *testing.T) {
	base := "http://ans.test/pda/"
	f := &fakeFetcher{pages: map[string]string{
		base:                          listing("../", "demonstracoes/", "?C=M;O=A"),
		base + "demonstracoes/":       listing("../", "2023/", "2024/"),
		base + "demonstracoes/2023/":  listing("../", "1T/", "2T/", "3T/", "4T/"),
		base + "demonstracoes/2024/":  listing("../", "Q1/", "02/"),
	}}

	qs, err := New(f, nil).LatestQuarters(context.Background(), base, 3)
	require.NoError(t, err)
	require.Len(t, qs, 3)

	assert.Equal(t, Quarter{2024, 2, base + "demonstracoes/2024/02/"}, qs[0])
	assert.Equal(t, Quarter{2024, 1, base + "demonstracoes/2024/Q1/"}, qs[1])
	assert.Equal(t, Quarter{2023, 4, base + "demonstracoes/2023/4T/"}, qs[2])
	assert.False(t, qs[0].IsArchive())
}

func TestLatestQuartersFlatLayout(t *testing.T) {
	base := "http://ans.test/pda/"
	f := &fakeFetcher{pages: map[string]string{
		base:           listing("../", "2024/", "2025/"),
		base + "2024/": listing("../", "1T2024.zip", "2T2024.zip", "leiame.txt"),
		base + "2025/": listing("../", "1t2025.zip"),
	}}

	qs, err := New(f, nil).LatestQuarters(context.Background(), base, 3)
	require.NoError(t, err)
	require.Len(t, qs, 3)

	assert.Equal(t, Quarter{2025, 1, base + "2025/1t2025.zip"}, qs[0])
	assert.Equal(t, Quarter{2024, 2, base + "2024/2T2024.zip"}, qs[1])
	assert.Equal(t, Quarter{2024, 1, base + "2024/1T2024.zip"}, qs[2])
	assert.True(t, qs[0].IsArchive())
}

func TestLatestQuartersMixedLayouts(t *testing.T) {
	base := "http://ans.test/pda/"
	f := &fakeFetcher{pages: map[string]string{
		base:           listing("2023/", "2024/"),
		base + "2023/": listing("3T/", "4T/"),
		base + "2024/": listing("1T2024.zip"),
	}}

	qs, err := New(f, nil).LatestQuarters(context.Background(), base, 3)
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, 2024, qs[0].Year)
	assert.Equal(t, 1, qs[0].Quarter)
	assert.Equal(t, 2023, qs[1].Year)
	assert.Equal(t, 4, qs[1].Quarter)
}

func TestLatestQuartersNothingFound(t *testing.T) {
	base := "http://ans.test/pda/"
	f := &fakeFetcher{pages: map[string]string{
		base:            listing("outros/", "leiame.txt"),
		base + "outros/": listing("docs.pdf"),
	}}

	_, err := New(f, nil).LatestQuarters(context.Background(), base, 3)
	assert.ErrorIs(t, err, ErrNoQuartersFound)
}

func TestZipLinks(t *testing.T) {
	folder := "http://ans.test/pda/2024/1T/"
	f := &fakeFetcher{pages: map[string]string{
		folder: listing("../", "despesas.zip", "leiame.txt", "/pda/2024/1T/extra.ZIP"),
	}}

	zips, err := New(f, nil).ZipLinks(context.Background(), folder)
	require.NoError(t, err)
	assert.Equal(t, []string{folder + "despesas.zip", "http://ans.test/pda/2024/1T/extra.ZIP"}, zips)
}
