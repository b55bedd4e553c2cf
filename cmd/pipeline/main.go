// Comando pipeline roda os passos de ingestão e preparação dos dados da
// ANS: fetch (descoberta + download + consolidação), enrich (validação +
// cadastro), aggregate e export. `all` encadeia os quatro.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jesseh78/intuitivecare-test/internal/config"
	"github.com/Jesseh78/intuitivecare-test/internal/enrich"
)

var rootCmd = &cobra.Command{
	Use:           "pipeline",
	Short:         "Pipeline de despesas das operadoras de saúde (dados abertos ANS)",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Descobre os últimos trimestres, baixa os zips e consolida as despesas",
	Long: `Varre o diretório de demonstrações contábeis da ANS, escolhe os três
trimestres mais recentes, baixa e extrai os zips, reconhece os arquivos de
despesas e grava consolidado_despesas.csv + suspeitos_step1.csv em
data/processed/.`,
	RunE: runFetch,
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Valida CNPJs e cruza o consolidado com o cadastro de operadoras ativas",
	Long: `Lê consolidado_despesas.csv, baixa (ou reaproveita) o cadastro de
operadoras ativas, normaliza e deduplica o cadastro e grava o consolidado
enriquecido. CNPJs inválidos seguem a estratégia escolhida: drop descarta
as linhas, keep_mark as mantém com a coluna CNPJ_VALIDO.`,
	RunE: runEnrich,
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Agrega o consolidado enriquecido por razão social e UF",
	RunE:  runAggregate,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Gera as cópias snake_case prontas para carga em SQL",
	RunE:  runExport,
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Roda fetch, enrich, aggregate e export em sequência",
	RunE:  runAll,
}

var flagStrategy string

func init() {
	enrichCmd.Flags().StringVar(&flagStrategy, "strategy", "",
		fmt.Sprintf("o que fazer com CNPJ inválido: %s ou %s (default: INVALID_CNPJ_STRATEGY)",
			enrich.StrategyDrop, enrich.StrategyKeepMark))
	allCmd.Flags().StringVar(&flagStrategy, "strategy", "",
		"estratégia para CNPJ inválido, repassada ao passo enrich")

	rootCmd.AddCommand(fetchCmd, enrichCmd, aggregateCmd, exportCmd, allCmd)
}

// strategy resolve a estratégia efetiva: flag > variável de ambiente.
func strategy(cfg config.Config) (enrich.Strategy, error) {
	s := flagStrategy
	if s == "" {
		s = cfg.InvalidCNPJStrategy
	}
	return enrich.ParseStrategy(s)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}

func runAll(cmd *cobra.Command, args []string) error {
	for _, step := range []func(*cobra.Command, []string) error{
		runFetch, runEnrich, runAggregate, runExport,
	} {
		if err := step(cmd, args); err != nil {
			return err
		}
	}
	return nil
}
