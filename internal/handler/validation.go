package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// decimalScale はpeso/alturaカラム（NUMERIC(n,2)）の小数桁数。
const decimalScale = 2

// validate はリクエストスキーマ検証用の共有バリデーター。
var validate = newValidator()

// newValidator はJSONフィールド名でエラーを報告し、decimal.Decimalを数値として検証するバリデーターを生成する。
// decimal.Decimalは保存時と同じ小数2桁に丸めてから範囲を検証する。
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.Round(decimalScale).InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// validateRequest は構造体タグに従ってリクエストを検証し、
// 失敗した場合はフィールドごとの説明をまとめた文字列を返す。
func validateRequest(v interface{}) (string, bool) {
	err := validate.Struct(v)
	if err == nil {
		return "", true
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error(), false
	}

	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, describeFieldError(fe))
	}
	return strings.Join(details, "; "), false
}

// describeFieldError は検証エラー1件を利用者向けの説明に変換する。
func describeFieldError(fe validator.FieldError) string {
	field := fieldPath(fe)

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s é obrigatório", field)
	case "max":
		return fmt.Sprintf("%s deve ter no máximo %s caracteres", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s deve ter no mínimo %s caracteres", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s deve ter exatamente %s caracteres", field, fe.Param())
	case "number":
		return fmt.Sprintf("%s deve conter apenas dígitos", field)
	case "oneof":
		return fmt.Sprintf("%s deve ser um de: %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s deve ser maior que %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s deve ser menor que %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s é inválido (%s)", field, fe.Tag())
	}
}

// fieldPath はトップレベル構造体名を除いたJSONパス（例: categoria.nome）を返す。
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
