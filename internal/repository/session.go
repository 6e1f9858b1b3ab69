package repository

import (
	"context"
	"fmt"
	"log/slog"
)

// PostgresSessionProvider は *sql.DB 上でトランザクション単位のSessionを提供する。
type PostgresSessionProvider struct {
	db     TxBeginner
	logger *slog.Logger
}

// NewPostgresSessionProvider はPostgresSessionProviderを生成する。
func NewPostgresSessionProvider(db TxBeginner, logger *slog.Logger) *PostgresSessionProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSessionProvider{db: db, logger: logger}
}

// WithSession はトランザクションを開始し、そのトランザクションに束縛したSessionでfnを実行する。
func (p *PostgresSessionProvider) WithSession(ctx context.Context, fn func(ctx context.Context, s Session) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				p.logger.Error("failed to roll back transaction after panic",
					slog.String("error", rbErr.Error()),
					slog.Any("panic", rec),
				)
			}
			panic(rec)
		}
	}()

	if err := fn(ctx, &postgresSession{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			p.logger.Error("failed to roll back transaction",
				slog.String("rollback_error", rbErr.Error()),
				slog.String("original_error", err.Error()),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// postgresSession はトランザクションに束縛されたリポジトリ群を返す。
type postgresSession struct {
	q DBTX
}

func (s *postgresSession) Categories() CategoryRepository {
	return NewPostgresCategoryRepo(s.q)
}

func (s *postgresSession) TrainingCenters() TrainingCenterRepository {
	return NewPostgresTrainingCenterRepo(s.q)
}

func (s *postgresSession) Athletes() AthleteRepository {
	return NewPostgresAthleteRepo(s.q)
}

// compile-time interface check
var _ SessionProvider = (*PostgresSessionProvider)(nil)
