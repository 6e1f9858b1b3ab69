package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// uniqueViolationCode はPostgreSQLのUNIQUE制約違反のエラーコード。
const uniqueViolationCode = "23505"

// ErrNotFound は更新・削除対象の行が存在しないことを示す。
var ErrNotFound = errors.New("record not found")

// IsUniqueViolation はerrがPostgreSQLのUNIQUE制約違反かどうかを判定する。
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode
}

// likeEscaper はLIKEパターンのメタ文字をエスケープする。
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern は部分一致用のILIKEパターンを返す。
// 入力中の % と _ はリテラルとして扱う。
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
