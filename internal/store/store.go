// Package store faz as consultas de leitura da API contra o Postgres já
// carregado com os artefatos sql_data.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jesseh78/intuitivecare-test/internal/cnpj"
)

// ErrNotFound indica operadora inexistente; a API traduz para 404.
var ErrNotFound = errors.New("store: operadora não encontrada")

type Operadora struct {
	CNPJ        string  `json:"cnpj"`
	RazaoSocial string  `json:"razao_social"`
	RegistroANS *string `json:"registro_ans"`
	Modalidade  *string `json:"modalidade"`
	UF          *string `json:"uf"`
}

type Despesa struct {
	Ano           int     `json:"ano"`
	Trimestre     int     `json:"trimestre"`
	ValorDespesas float64 `json:"valor_despesas"`
}

type TopOperadora struct {
	RazaoSocial   string  `json:"razao_social"`
	TotalDespesas float64 `json:"total_despesas"`
}

type UFTotal struct {
	UF            *string `json:"uf"`
	TotalDespesas float64 `json:"total_despesas"`
}

type Estatisticas struct {
	TotalDespesas     float64        `json:"total_despesas"`
	MediaDespesas     float64        `json:"media_despesas"`
	Top5Operadoras    []TopOperadora `json:"top5_operadoras"`
	DistribuicaoPorUF []UFTotal      `json:"distribuicao_por_uf"`
}

// Querier é o contrato que os handlers da API enxergam; em teste entra um
// fake no lugar do Postgres.
type Querier interface {
	ListOperadoras(ctx context.Context, page, limit int, q string) ([]Operadora, int, error)
	GetOperadora(ctx context.Context, id string) (Operadora, error)
	Despesas(ctx context.Context, id string) ([]Despesa, error)
	Estatisticas(ctx context.Context) (Estatisticas, error)
}

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("store: DATABASE_URL não definido")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: conectando ao banco: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Close() { s.pool.Close() }

// searchFilter monta o WHERE da busca textual. A razão social entra
// sempre, por substring; o CNPJ só entra quando a consulta tem dígitos —
// senão o LIKE viraria '%%' e casaria com todas as linhas.
func searchFilter(q string) (string, []any) {
	if q == "" {
		return "", nil
	}
	digits := cnpj.Normalize(q)
	if digits == "" {
		return "WHERE razao_social ILIKE $1", []any{"%" + q + "%"}
	}
	return "WHERE razao_social ILIKE $1 OR cnpj LIKE $2", []any{"%" + q + "%", "%" + digits + "%"}
}

func (s *Postgres) ListOperadoras(ctx context.Context, page, limit int, q string) ([]Operadora, int, error) {
	offset := (page - 1) * limit

	where, args := searchFilter(q)

	var total int
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM operadoras_ativas_view "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := fmt.Sprintf(`
		SELECT cnpj, razao_social, registro_ans, modalidade, uf
		FROM operadoras_ativas_view
		%s
		ORDER BY razao_social ASC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	rows, err := s.pool.Query(ctx, sql, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Operadora
	for rows.Next() {
		var o Operadora
		if err := rows.Scan(&o.CNPJ, &o.RazaoSocial, &o.RegistroANS, &o.Modalidade, &o.UF); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (s *Postgres) GetOperadora(ctx context.Context, id string) (Operadora, error) {
	var o Operadora
	err := s.pool.QueryRow(ctx, `
		SELECT cnpj, razao_social, registro_ans, modalidade, uf
		FROM operadoras_ativas_view
		WHERE cnpj = $1
		LIMIT 1`, cnpj.Normalize(id),
	).Scan(&o.CNPJ, &o.RazaoSocial, &o.RegistroANS, &o.Modalidade, &o.UF)
	if errors.Is(err, pgx.ErrNoRows) {
		return Operadora{}, ErrNotFound
	}
	return o, err
}

func (s *Postgres) Despesas(ctx context.Context, id string) ([]Despesa, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT ano, trimestre, SUM(valor_despesas) AS total
		FROM despesas_trimestrais
		WHERE cnpj = $1
		GROUP BY ano, trimestre
		ORDER BY ano ASC, trimestre ASC`, cnpj.Normalize(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Despesa
	for rows.Next() {
		var d Despesa
		if err := rows.Scan(&d.Ano, &d.Trimestre, &d.ValorDespesas); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Postgres) Estatisticas(ctx context.Context) (Estatisticas, error) {
	var est Estatisticas
	if err := s.pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(valor_despesas),0), COALESCE(AVG(valor_despesas),0) FROM despesas_trimestrais",
	).Scan(&est.TotalDespesas, &est.MediaDespesas); err != nil {
		return Estatisticas{}, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT razao_social, COALESCE(SUM(valor_despesas),0) AS total
		FROM despesas_trimestrais
		GROUP BY razao_social
		ORDER BY total DESC
		LIMIT 5`)
	if err != nil {
		return Estatisticas{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var t TopOperadora
		if err := rows.Scan(&t.RazaoSocial, &t.TotalDespesas); err != nil {
			return Estatisticas{}, err
		}
		est.Top5Operadoras = append(est.Top5Operadoras, t)
	}
	if err := rows.Err(); err != nil {
		return Estatisticas{}, err
	}

	ufRows, err := s.pool.Query(ctx, `
		SELECT uf, COALESCE(SUM(valor_despesas),0) AS total
		FROM despesas_trimestrais
		GROUP BY uf
		ORDER BY total DESC`)
	if err != nil {
		return Estatisticas{}, err
	}
	defer ufRows.Close()
	for ufRows.Next() {
		var u UFTotal
		if err := ufRows.Scan(&u.UF, &u.TotalDespesas); err != nil {
			return Estatisticas{}, err
		}
		est.DistribuicaoPorUF = append(est.DistribuicaoPorUF, u)
	}
	return est, ufRows.Err()
}
