// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は利用者が入力したプレーンテキスト項目（アスリート名など）から
// HTMLマークアップを除去する。bluemondayのStrictPolicyを使用し、
// すべてのタグと属性を取り除いたテキストのみを残す。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト項目のサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize はマークアップを除去し、前後の空白を取り除いた文字列を返す。
	// エンティティ参照は元の文字に戻すため、"&" などの記号はそのまま保持される。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに利用できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizePasses はエスケープされたマークアップを剥がす際の最大反復回数。
const maxSanitizePasses = 8

// Sanitize はマークアップを除去したテキストを返す。
// エンティティを戻した結果に新たなタグが現れなくなるまで除去を繰り返す。
func (s *textSanitizer) Sanitize(raw string) string {
	cleaned := strings.TrimSpace(raw)
	for i := 0; i < maxSanitizePasses && cleaned != ""; i++ {
		next := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(cleaned)))
		if next == cleaned {
			break
		}
		cleaned = next
	}
	return cleaned
}
