package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/workoutapi/internal/model"
	"github.com/hitoshi/workoutapi/internal/pagination"
)

// athleteColumns はアスリートと参照エンティティをJOINして取得する列。
// scanAthlete の引数順と一致させること。
const athleteColumns = `a.pk_id, a.id, a.nome, a.cpf, a.peso, a.altura, a.sexo, a.created_at,
	        a.categoria_id, a.centro_treinamento_id,
	        c.pk_id, c.id, c.nome,
	        ct.pk_id, ct.id, ct.nome, ct.endereco, ct.proprietario`

const athleteFrom = `FROM atletas a
	 INNER JOIN categorias c ON c.pk_id = a.categoria_id
	 INNER JOIN centros_treinamento ct ON ct.pk_id = a.centro_treinamento_id`

// PostgresAthleteRepo はPostgreSQLを使用したアスリートリポジトリ。
type PostgresAthleteRepo struct {
	db DBTX
}

// NewPostgresAthleteRepo はPostgresAthleteRepoを生成する。
func NewPostgresAthleteRepo(db DBTX) *PostgresAthleteRepo {
	return &PostgresAthleteRepo{db: db}
}

// rowScanner は *sql.Row と *sql.Rows の共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAthlete(s rowScanner) (*model.Athlete, error) {
	a := &model.Athlete{}
	err := s.Scan(
		&a.PKID, &a.ID, &a.Nome, &a.CPF, &a.Peso, &a.Altura, &a.Sexo, &a.CreatedAt,
		&a.CategoriaID, &a.CentroTreinamentoID,
		&a.Categoria.PKID, &a.Categoria.ID, &a.Categoria.Nome,
		&a.CentroTreinamento.PKID, &a.CentroTreinamento.ID, &a.CentroTreinamento.Nome,
		&a.CentroTreinamento.Endereco, &a.CentroTreinamento.Proprietario,
	)
	if err != nil {
		return nil, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

// FindByID は指定IDのアスリートを取得する。見つからない場合はnilを返す。
func (r *PostgresAthleteRepo) FindByID(ctx context.Context, id string) (*model.Athlete, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+athleteColumns+` `+athleteFrom+` WHERE a.id = $1`,
		id,
	)

	a, err := scanAthlete(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アスリートの取得に失敗しました: %w", err)
	}
	return a, nil
}

// buildAthleteWhere は絞り込み条件からWHERE句とパラメータを構築する。
// 条件が指定されていない場合は空文字列を返す。
func buildAthleteWhere(filter model.AthleteFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Nome != "" {
		args = append(args, containsPattern(filter.Nome))
		conds = append(conds, fmt.Sprintf(`a.nome ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if filter.CPF != "" {
		args = append(args, filter.CPF)
		conds = append(conds, fmt.Sprintf(`a.cpf = $%d`, len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List は絞り込み条件に一致するアスリートを範囲指定で取得し、総件数と共に返す。
func (r *PostgresAthleteRepo) List(ctx context.Context, filter model.AthleteFilter, p pagination.Params) ([]*model.Athlete, int, error) {
	where, args := buildAthleteWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM atletas a`+where,
		args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("アスリート件数の取得に失敗しました: %w", err)
	}

	if total == 0 || p.Offset >= total {
		return []*model.Athlete{}, total, nil
	}

	args = append(args, p.Limit, p.Offset)
	query := fmt.Sprintf(
		`SELECT %s %s%s ORDER BY a.created_at ASC, a.pk_id ASC LIMIT $%d OFFSET $%d`,
		athleteColumns, athleteFrom, where, len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("アスリート一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	athletes := make([]*model.Athlete, 0, p.Limit)
	for rows.Next() {
		a, err := scanAthlete(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("アスリート一覧の読み取りに失敗しました: %w", err)
		}
		athletes = append(athletes, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("アスリート一覧の走査に失敗しました: %w", err)
	}

	return athletes, total, nil
}

// Create はアスリートを作成する。
func (r *PostgresAthleteRepo) Create(ctx context.Context, a *model.Athlete) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO atletas (id, nome, cpf, peso, altura, sexo, created_at,
		                      categoria_id, centro_treinamento_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING pk_id`,
		a.ID, a.Nome, a.CPF, a.Peso, a.Altura, string(a.Sexo), a.CreatedAt,
		a.CategoriaID, a.CentroTreinamentoID,
	).Scan(&a.PKID)
	if err != nil {
		return fmt.Errorf("アスリートの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はアスリートの可変フィールドを更新する。
func (r *PostgresAthleteRepo) Update(ctx context.Context, a *model.Athlete) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE atletas SET nome = $2, peso = $3, altura = $4, sexo = $5
		 WHERE id = $1`,
		a.ID, a.Nome, a.Peso, a.Altura, string(a.Sexo),
	)
	if err != nil {
		return fmt.Errorf("アスリートの更新に失敗しました: %w", err)
	}
	return checkRowsAffected(result, a.ID)
}

// DeleteByID は指定IDのアスリートを削除する。
func (r *PostgresAthleteRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM atletas WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("アスリートの削除に失敗しました: %w", err)
	}
	return checkRowsAffected(result, id)
}

// checkRowsAffected は影響行数が0の場合にErrNotFoundを返す。
func checkRowsAffected(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: atleta %s", ErrNotFound, id)
	}
	return nil
}

// compile-time interface check
var _ AthleteRepository = (*PostgresAthleteRepo)(nil)
