package model

// Category はアスリートが所属するカテゴリを表す。
// このサービスからは参照のみ行い、作成・更新はしない。
type Category struct {
	PKID int64
	ID   string
	Nome string
}

// TrainingCenter はアスリートが所属するトレーニングセンターを表す。
// このサービスからは参照のみ行い、作成・更新はしない。
type TrainingCenter struct {
	PKID         int64
	ID           string
	Nome         string
	Endereco     string
	Proprietario string
}
