package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/workoutapi/internal/model"
)

// PostgresCategoryRepo はPostgreSQLを使用したカテゴリリポジトリ。
type PostgresCategoryRepo struct {
	db DBTX
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(db DBTX) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

// FindByName は名前でカテゴリを検索する。見つからない場合はnilを返す。
func (r *PostgresCategoryRepo) FindByName(ctx context.Context, nome string) (*model.Category, error) {
	c := &model.Category{}
	err := r.db.QueryRowContext(ctx,
		`SELECT pk_id, id, nome FROM categorias WHERE nome = $1`,
		nome,
	).Scan(&c.PKID, &c.ID, &c.Nome)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	return c, nil
}

// PostgresTrainingCenterRepo はPostgreSQLを使用したトレーニングセンターリポジトリ。
type PostgresTrainingCenterRepo struct {
	db DBTX
}

// NewPostgresTrainingCenterRepo はPostgresTrainingCenterRepoを生成する。
func NewPostgresTrainingCenterRepo(db DBTX) *PostgresTrainingCenterRepo {
	return &PostgresTrainingCenterRepo{db: db}
}

// FindByName は名前でトレーニングセンターを検索する。見つからない場合はnilを返す。
func (r *PostgresTrainingCenterRepo) FindByName(ctx context.Context, nome string) (*model.TrainingCenter, error) {
	ct := &model.TrainingCenter{}
	err := r.db.QueryRowContext(ctx,
		`SELECT pk_id, id, nome, endereco, proprietario
		 FROM centros_treinamento WHERE nome = $1`,
		nome,
	).Scan(&ct.PKID, &ct.ID, &ct.Nome, &ct.Endereco, &ct.Proprietario)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("トレーニングセンターの取得に失敗しました: %w", err)
	}
	return ct, nil
}

// compile-time interface check
var (
	_ CategoryRepository       = (*PostgresCategoryRepo)(nil)
	_ TrainingCenterRepository = (*PostgresTrainingCenterRepo)(nil)
)
