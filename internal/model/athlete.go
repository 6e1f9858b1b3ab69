// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sexo はアスリートの性別を表す。
type Sexo string

const (
	// SexoMasculino は男性を示す。
	SexoMasculino Sexo = "M"
	// SexoFeminino は女性を示す。
	SexoFeminino Sexo = "F"
)

// Athlete はアスリートを表す。
// PKIDは外部キー連携専用の内部IDで、APIにはIDのみを公開する。
type Athlete struct {
	PKID                int64
	ID                  string
	Nome                string
	CPF                 string
	Peso                decimal.Decimal
	Altura              decimal.Decimal
	Sexo                Sexo
	CreatedAt           time.Time
	CategoriaID         int64
	CentroTreinamentoID int64

	// 読み取り時に解決される参照エンティティ
	Categoria         Category
	CentroTreinamento TrainingCenter
}

// AthleteFilter はアスリート一覧の絞り込み条件。
// 空文字列のフィールドは条件に含めない。
type AthleteFilter struct {
	Nome string // 部分一致（大文字小文字を区別しない）
	CPF  string // 完全一致
}

// AthletePatch はアスリートの部分更新内容を表す。
// nilのフィールドは変更しない。
type AthletePatch struct {
	Nome   *string
	Peso   *decimal.Decimal
	Altura *decimal.Decimal
	Sexo   *Sexo
}

// IsEmpty は更新対象のフィールドが1つもない場合にtrueを返す。
func (p AthletePatch) IsEmpty() bool {
	return p.Nome == nil && p.Peso == nil && p.Altura == nil && p.Sexo == nil
}

// Apply はパッチの指定フィールドのみをアスリートに反映する。
func (p AthletePatch) Apply(a *Athlete) {
	if p.Nome != nil {
		a.Nome = *p.Nome
	}
	if p.Peso != nil {
		a.Peso = *p.Peso
	}
	if p.Altura != nil {
		a.Altura = *p.Altura
	}
	if p.Sexo != nil {
		a.Sexo = *p.Sexo
	}
}
