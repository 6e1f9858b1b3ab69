// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/workoutapi/internal/model"
	"github.com/hitoshi/workoutapi/internal/pagination"
)

// DBTX は *sql.DB と *sql.Tx の双方が満たすクエリ実行インターフェース。
// リポジトリはこのインターフェース越しにSQLを発行する。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CategoryRepository はカテゴリの参照インターフェース。
type CategoryRepository interface {
	// FindByName は名前でカテゴリを検索する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, nome string) (*model.Category, error)
}

// TrainingCenterRepository はトレーニングセンターの参照インターフェース。
type TrainingCenterRepository interface {
	// FindByName は名前でトレーニングセンターを検索する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, nome string) (*model.TrainingCenter, error)
}

// AthleteRepository はアスリートデータの永続化インターフェース。
type AthleteRepository interface {
	// FindByID は指定IDのアスリートを参照エンティティ付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Athlete, error)

	// List は絞り込み条件に一致するアスリートのうちpで指定された範囲と、条件に一致する総件数を返す。
	// 並び順はcreated_at昇順（同時刻はpk_id昇順）で固定する。
	List(ctx context.Context, filter model.AthleteFilter, p pagination.Params) ([]*model.Athlete, int, error)

	// Create はアスリートを作成し、採番された内部IDをa.PKIDに設定する。
	// CPFのUNIQUE制約違反は IsUniqueViolation で判定できるエラーとして返す。
	Create(ctx context.Context, a *model.Athlete) error

	// Update はnome、peso、altura、sexoを上書き更新する。
	// 対象が存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, a *model.Athlete) error

	// DeleteByID は指定IDのアスリートを削除する。
	// 対象が存在しない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id string) error
}

// Session は1リクエスト分のトランザクションに束縛されたリポジトリ群。
type Session interface {
	Categories() CategoryRepository
	TrainingCenters() TrainingCenterRepository
	Athletes() AthleteRepository
}

// SessionProvider はトランザクションスコープのSessionを提供する。
type SessionProvider interface {
	// WithSession はトランザクションを開始してfnを実行する。
	// fnがnilを返した場合はコミットし、エラーを返した場合（panicを含む）はロールバックする。
	WithSession(ctx context.Context, fn func(ctx context.Context, s Session) error) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
