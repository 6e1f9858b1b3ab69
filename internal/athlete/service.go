// Package athlete はアスリート管理のドメインロジックを提供する。
//
// すべての操作は1つのSessionProvider.WithSession呼び出しの中で実行され、
// 参照解決から書き込みまでが単一トランザクションに収まる。
package athlete

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/workoutapi/internal/metrics"
	"github.com/hitoshi/workoutapi/internal/model"
	"github.com/hitoshi/workoutapi/internal/pagination"
	"github.com/hitoshi/workoutapi/internal/repository"
	"github.com/hitoshi/workoutapi/internal/security"
)

// 永続化失敗メトリクスの操作ラベル
const (
	opCreate = model.PersistenceOpCreate
	opList   = "list"
	opGet    = "get"
	opUpdate = "update"
	opDelete = "delete"
)

// CreateInput はアスリート登録の入力。
// 参照エンティティは名前で指定する。
type CreateInput struct {
	Nome                  string
	CPF                   string
	Peso                  decimal.Decimal
	Altura                decimal.Decimal
	Sexo                  model.Sexo
	CategoriaNome         string
	CentroTreinamentoNome string
}

// Service はアスリート管理のサービス層。
type Service struct {
	sessions  repository.SessionProvider
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	logger    *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorとloggerはnilの場合、それぞれ何もしない実装とslog.Defaultを使用する。
func NewService(
	sessions repository.SessionProvider,
	sanitizer security.TextSanitizer,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sessions:  sessions,
		sanitizer: sanitizer,
		metrics:   collector,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Create はアスリートを登録する。
// カテゴリ、トレーニングセンターの順に名前で解決し、見つからない場合は
// REFERENCE_NOT_FOUNDを返して何も永続化しない。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Athlete, error) {
	nome, err := s.cleanName(in.Nome)
	if err != nil {
		return nil, err
	}

	var created *model.Athlete
	err = s.sessions.WithSession(ctx, func(ctx context.Context, sess repository.Session) error {
		categoria, err := sess.Categories().FindByName(ctx, in.CategoriaNome)
		if err != nil {
			return err
		}
		if categoria == nil {
			return model.NewCategoryNotFoundError(in.CategoriaNome)
		}

		centro, err := sess.TrainingCenters().FindByName(ctx, in.CentroTreinamentoNome)
		if err != nil {
			return err
		}
		if centro == nil {
			return model.NewTrainingCenterNotFoundError(in.CentroTreinamentoNome)
		}

		a := &model.Athlete{
			ID:                  s.newID(),
			Nome:                nome,
			CPF:                 in.CPF,
			Peso:                in.Peso,
			Altura:              in.Altura,
			Sexo:                in.Sexo,
			CreatedAt:           s.now().UTC().Truncate(time.Microsecond),
			CategoriaID:         categoria.PKID,
			CentroTreinamentoID: centro.PKID,
			Categoria:           *categoria,
			CentroTreinamento:   *centro,
		}
		if err := sess.Athletes().Create(ctx, a); err != nil {
			return err
		}

		created = a
		return nil
	})
	if err != nil {
		return nil, s.translateError(opCreate, err, in.CPF, "")
	}

	s.metrics.RecordAthleteCreated()
	s.logger.Info("athlete created",
		slog.String("athlete_id", created.ID),
		slog.String("categoria", created.Categoria.Nome),
		slog.String("centro_treinamento", created.CentroTreinamento.Nome),
	)
	return created, nil
}

// List は絞り込み条件に一致するアスリートをページ単位で返す。
// 並び順は登録日時の昇順で固定される。
func (s *Service) List(ctx context.Context, filter model.AthleteFilter, p pagination.Params) (*pagination.Page[*model.Athlete], error) {
	var (
		athletes []*model.Athlete
		total    int
	)
	err := s.sessions.WithSession(ctx, func(ctx context.Context, sess repository.Session) error {
		var err error
		athletes, total, err = sess.Athletes().List(ctx, filter, p)
		return err
	})
	if err != nil {
		return nil, s.translateError(opList, err, "", "")
	}

	return pagination.NewPage(athletes, total, p), nil
}

// Get は指定IDのアスリートを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Athlete, error) {
	var found *model.Athlete
	err := s.sessions.WithSession(ctx, func(ctx context.Context, sess repository.Session) error {
		a, err := sess.Athletes().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if a == nil {
			return model.NewAthleteNotFoundError(id)
		}
		found = a
		return nil
	})
	if err != nil {
		return nil, s.translateError(opGet, err, "", id)
	}
	return found, nil
}

// Update はパッチで指定されたフィールドのみを更新し、永続化後の状態を返す。
// パッチが空の場合は現在の状態をそのまま返す。
func (s *Service) Update(ctx context.Context, id string, patch model.AthletePatch) (*model.Athlete, error) {
	if patch.Nome != nil {
		nome, err := s.cleanName(*patch.Nome)
		if err != nil {
			return nil, err
		}
		patch.Nome = &nome
	}

	var updated *model.Athlete
	err := s.sessions.WithSession(ctx, func(ctx context.Context, sess repository.Session) error {
		repo := sess.Athletes()

		a, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if a == nil {
			return model.NewAthleteNotFoundError(id)
		}

		if patch.IsEmpty() {
			updated = a
			return nil
		}

		patch.Apply(a)
		if err := repo.Update(ctx, a); err != nil {
			return err
		}

		// 永続化された値（NUMERICの丸めなど）を返すため読み直す
		refreshed, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if refreshed == nil {
			return model.NewAthleteNotFoundError(id)
		}
		updated = refreshed
		return nil
	})
	if err != nil {
		return nil, s.translateError(opUpdate, err, "", id)
	}

	return updated, nil
}

// Delete は指定IDのアスリートを削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.sessions.WithSession(ctx, func(ctx context.Context, sess repository.Session) error {
		return sess.Athletes().DeleteByID(ctx, id)
	})
	if err != nil {
		return s.translateError(opDelete, err, "", id)
	}

	s.metrics.RecordAthleteDeleted()
	s.logger.Info("athlete deleted", slog.String("athlete_id", id))
	return nil
}

// cleanName は名前からマークアップと前後の空白を取り除く。
// 結果が空になる場合はバリデーションエラーを返す。
func (s *Service) cleanName(raw string) (string, error) {
	nome := s.sanitizer.Sanitize(raw)
	if nome == "" {
		return "", model.NewValidationError("nome não pode ser vazio")
	}
	return nome, nil
}

// translateError はセッション内で発生したエラーをAPIErrorに変換する。
// APIErrorはそのまま返し、UNIQUE制約違反はCPF重複、対象行なしは未検出として扱う。
// それ以外はすべて永続化エラーとする。
func (s *Service) translateError(op string, err error, cpf, id string) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if repository.IsUniqueViolation(err) {
		s.metrics.RecordAthleteConflict()
		return model.NewDuplicateCPFError(cpf)
	}

	if errors.Is(err, repository.ErrNotFound) {
		return model.NewAthleteNotFoundError(id)
	}

	s.metrics.RecordPersistenceFailure(op)
	s.logger.Error("athlete persistence failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	return model.NewPersistenceError(op, err)
}
