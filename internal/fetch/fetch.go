// Package fetch é o cliente HTTP do pipeline: GET com retry linear e
// download em streaming para disco.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// ErrFetchExhausted indica que todas as tentativas falharam; o erro da
// última tentativa segue encadeado.
var ErrFetchExhausted = errors.New("fetch: tentativas esgotadas")

type Config struct {
	Timeout   time.Duration
	Retries   int
	Backoff   time.Duration
	UserAgent string
}

func DefaultConfig() Config {
	return Config{
		Timeout:   60 * time.Second,
		Retries:   3,
		Backoff:   time.Second,
		UserAgent: "intuitivecare-test/1.0 (contact: candidate)",
	}
}

type Client struct {
	http *http.Client
	cfg  Config
	log  *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Client {
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		http: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
		log:  log,
	}
}

// GetText baixa o corpo de url como texto.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	var body string
	err := c.retry(ctx, url, "GET", func(resp *http.Response) error {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = string(b)
		return nil
	})
	return body, err
}

// Download grava o corpo de url em dest sem carregar o payload inteiro
// em memória.
func (c *Client) Download(ctx context.Context, url, dest string) error {
	return c.retry(ctx, url, "DOWNLOAD", func(resp *http.Response) error {
		f, err := os.Create(dest)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(f, resp.Body); err != nil {
			return err
		}
		return f.Sync()
	})
}

// retry executa o GET até cfg.Retries vezes com backoff linear
// (backoff * tentativa) entre falhas.
func (c *Client) retry(ctx context.Context, url, op string, consume func(*http.Response) error) error {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.Retries; attempt++ {
		lastErr = c.once(ctx, url, consume)
		if lastErr == nil {
			return nil
		}
		c.log.Warn("falha de rede, tentando novamente",
			zap.String("op", op),
			zap.String("url", url),
			zap.Int("tentativa", attempt),
			zap.Error(lastErr),
		)
		if attempt < c.cfg.Retries {
			select {
			case <-time.After(c.cfg.Backoff * time.Duration(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("%w: %s após %d tentativas: %w", ErrFetchExhausted, url, c.cfg.Retries, lastErr)
}

func (c *Client) once(ctx context.Context, url string, consume func(*http.Response) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return consume(resp)
}
