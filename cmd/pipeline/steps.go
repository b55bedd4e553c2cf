package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Jesseh78/intuitivecare-test/internal/aggregate"
	"github.com/Jesseh78/intuitivecare-test/internal/config"
	"github.com/Jesseh78/intuitivecare-test/internal/consolidate"
	"github.com/Jesseh78/intuitivecare-test/internal/data"
	"github.com/Jesseh78/intuitivecare-test/internal/discovery"
	"github.com/Jesseh78/intuitivecare-test/internal/enrich"
	"github.com/Jesseh78/intuitivecare-test/internal/export"
	"github.com/Jesseh78/intuitivecare-test/internal/fetch"
	"github.com/Jesseh78/intuitivecare-test/internal/ingest"
	"github.com/Jesseh78/intuitivecare-test/internal/registry"
	"github.com/Jesseh78/intuitivecare-test/pkg/utils"
)

// latestQuarters é quantos trimestres o fetch considera, contando do mais
// recente para trás.
const latestQuarters = 3

type env struct {
	cfg  config.Config
	dirs data.Dirs
	log  *zap.Logger
}

func newEnv() env {
	cfg := config.Load()
	return env{cfg: cfg, dirs: data.NewDirs(cfg.DataDir), log: utils.Logger()}
}

func (e env) client() *fetch.Client {
	fc := fetch.DefaultConfig()
	fc.Timeout = e.cfg.HTTPTimeout
	fc.Retries = e.cfg.HTTPRetries
	fc.Backoff = e.cfg.HTTPBackoff
	return fetch.New(fc, e.log)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	e := newEnv()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for _, dir := range []string{e.dirs.Raw(), e.dirs.Processed()} {
		if err := data.EnsureDir(dir); err != nil {
			return err
		}
	}

	client := e.client()
	disc := discovery.New(client, e.log)

	quarters, err := disc.LatestQuarters(ctx, e.cfg.BaseURL, latestQuarters)
	if err != nil {
		return err
	}
	for _, q := range quarters {
		e.log.Info("trimestre selecionado", zap.Int("ano", q.Year), zap.Int("trimestre", q.Quarter))
	}

	res, err := ingest.Quarters(ctx, disc, client, quarters, e.dirs.Raw(), e.log)
	if err != nil {
		return err
	}

	cons, err := consolidate.Resolve(res.Records, res.NonPositive)
	if err != nil {
		return err
	}

	outCSV := filepath.Join(e.dirs.Processed(), "consolidado_despesas.csv")
	if err := consolidate.WriteConsolidated(outCSV, cons.Records); err != nil {
		return err
	}
	suspCSV := filepath.Join(e.dirs.Processed(), "suspeitos_step1.csv")
	if err := consolidate.WriteSuspects(suspCSV, cons.Suspects); err != nil {
		return err
	}

	e.log.Info("consolidado gravado",
		zap.String("arquivo", outCSV),
		zap.Int("linhas", len(cons.Records)),
		zap.Int("suspeitos", len(cons.Suspects)),
	)
	return nil
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	e := newEnv()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	strat, err := strategy(e.cfg)
	if err != nil {
		return err
	}

	for _, dir := range []string{e.dirs.Reference(), e.dirs.Processed()} {
		if err := data.EnsureDir(dir); err != nil {
			return err
		}
	}

	records, err := enrich.LoadConsolidated(filepath.Join(e.dirs.Processed(), "consolidado_despesas.csv"))
	if err != nil {
		return err
	}

	cachePath := filepath.Join(e.dirs.Reference(), "operadoras_ativas.csv")
	if err := registry.DownloadLatest(ctx, e.client(), e.cfg.CadastroURL, cachePath, e.log); err != nil {
		return err
	}
	entries, err := registry.Load(cachePath)
	if err != nil {
		return err
	}
	entries = registry.Dedupe(entries)

	normCSV := filepath.Join(e.dirs.Processed(), "operadoras_ativas_normalizado.csv")
	if err := registry.WriteNormalized(normCSV, entries); err != nil {
		return err
	}

	res, err := enrich.Enrich(records, entries, strat)
	if err != nil {
		return err
	}

	enrichedCSV := filepath.Join(e.dirs.Processed(), "consolidado_enriquecido.csv")
	if err := enrich.WriteEnriched(enrichedCSV, res.Records, strat); err != nil {
		return err
	}
	missCSV := filepath.Join(e.dirs.Processed(), "suspeitos_sem_cadastro.csv")
	if err := enrich.WriteJoinMisses(missCSV, res.JoinMisses); err != nil {
		return err
	}

	e.log.Info("enriquecimento concluído",
		zap.String("arquivo", enrichedCSV),
		zap.Int("linhas", len(res.Records)),
		zap.Int("sem_cadastro", len(res.JoinMisses)),
		zap.String("estrategia", string(strat)),
	)
	return nil
}

func runAggregate(*cobra.Command, []string) error {
	e := newEnv()

	records, err := aggregate.LoadEnriched(filepath.Join(e.dirs.Processed(), "consolidado_enriquecido.csv"))
	if err != nil {
		return err
	}

	groups := aggregate.Aggregate(records)
	outCSV := filepath.Join(e.dirs.Processed(), "despesas_agregadas.csv")
	if err := aggregate.Write(outCSV, groups); err != nil {
		return err
	}

	e.log.Info("agregado gravado", zap.String("arquivo", outCSV), zap.Int("grupos", len(groups)))
	return nil
}

func runExport(*cobra.Command, []string) error {
	e := newEnv()

	if err := data.EnsureDir(e.dirs.SQLData()); err != nil {
		return err
	}
	if err := export.Run(e.dirs.Processed(), e.dirs.SQLData()); err != nil {
		return err
	}

	e.log.Info("export concluído", zap.String("diretorio", e.dirs.SQLData()))
	return nil
}
