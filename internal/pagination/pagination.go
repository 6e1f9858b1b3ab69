// Package pagination はlimit/offset方式のページネーションを提供する。
package pagination

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// DefaultLimit はlimit未指定時の取得件数。
	DefaultLimit = 50
	// MaxLimit はlimitに指定できる上限。
	MaxLimit = 100
)

// Params はクエリパラメータから得たページ指定。
type Params struct {
	Limit  int
	Offset int
}

// Config はlimitのデフォルト値と上限を保持する。
type Config struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultConfig はデフォルトのページネーション設定を返す。
func DefaultConfig() Config {
	return Config{DefaultLimit: DefaultLimit, MaxLimit: MaxLimit}
}

// Parse はクエリパラメータ limit / offset を解析する。
// 未指定の場合はデフォルト値を使用し、範囲外の値はエラーを返す。
func (c Config) Parse(q url.Values) (Params, error) {
	p := Params{Limit: c.DefaultLimit}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, fmt.Errorf("limit must be an integer: %q", raw)
		}
		if limit < 1 || limit > c.MaxLimit {
			return Params{}, fmt.Errorf("limit must be between 1 and %d: %d", c.MaxLimit, limit)
		}
		p.Limit = limit
	}

	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, fmt.Errorf("offset must be an integer: %q", raw)
		}
		if offset < 0 {
			return Params{}, fmt.Errorf("offset must not be negative: %d", offset)
		}
		p.Offset = offset
	}

	return p, nil
}

// Page はlimit/offsetで切り出した結果と総件数を保持するエンベロープ。
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewPage はページを生成する。itemsがnilの場合は空スライスとして扱う。
func NewPage[T any](items []T, total int, p Params) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:  items,
		Total:  total,
		Limit:  p.Limit,
		Offset: p.Offset,
	}
}

// Map はページの各要素を変換した新しいページを返す。メタデータはそのまま引き継ぐ。
func Map[T, U any](page *Page[T], fn func(T) U) *Page[U] {
	items := make([]U, len(page.Items))
	for i, item := range page.Items {
		items[i] = fn(item)
	}
	return &Page[U]{
		Items:  items,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
}
