package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, athlete, system
	Action   string // ユーザー向け対処方法
	Cause    error  // 元となったエラー（永続化エラーのみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は元となったエラーを返す。
func (e *APIError) Unwrap() error {
	return e.Cause
}

// 定義済みエラーコード
const (
	ErrCodeReferenceNotFound = "REFERENCE_NOT_FOUND"
	ErrCodeAthleteNotFound   = "ATHLETE_NOT_FOUND"
	ErrCodeDuplicateKey      = "DUPLICATE_KEY"
	ErrCodePersistence       = "PERSISTENCE_ERROR"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeInvalidID         = "INVALID_ID"
	ErrCodeInvalidPagination = "INVALID_PAGINATION"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// HasCode はerrがAPIErrorであり、指定コードを持つ場合にtrueを返す。
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// NewCategoryNotFoundError はカテゴリ未検出エラーを生成する。
func NewCategoryNotFoundError(nome string) *APIError {
	return &APIError{
		Code:     ErrCodeReferenceNotFound,
		Message:  fmt.Sprintf("A categoria %s não foi encontrada.", nome),
		Category: "validation",
		Action:   "Informe o nome de uma categoria existente.",
	}
}

// NewTrainingCenterNotFoundError はトレーニングセンター未検出エラーを生成する。
func NewTrainingCenterNotFoundError(nome string) *APIError {
	return &APIError{
		Code:     ErrCodeReferenceNotFound,
		Message:  fmt.Sprintf("O centro de treinamento %s não foi encontrado.", nome),
		Category: "validation",
		Action:   "Informe o nome de um centro de treinamento existente.",
	}
}

// NewAthleteNotFoundError はアスリート未検出エラーを生成する。
func NewAthleteNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeAthleteNotFound,
		Message:  fmt.Sprintf("Atleta não encontrado no id: %s", id),
		Category: "athlete",
		Action:   "Verifique o id do atleta.",
	}
}

// NewDuplicateCPFError はCPF重複エラーを生成する。
func NewDuplicateCPFError(cpf string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateKey,
		Message:  fmt.Sprintf("Já existe um atleta cadastrado com o cpf: %s", cpf),
		Category: "athlete",
		Action:   "Utilize um CPF que ainda não esteja cadastrado.",
	}
}

// PersistenceOpCreate は登録処理を表す永続化操作名。
const PersistenceOpCreate = "create"

// NewPersistenceError は想定外の永続化エラーを生成する。
// メッセージには元のエラー内容を含め、登録以外の操作では中立的な文言を使う。
func NewPersistenceError(op string, cause error) *APIError {
	verb := "acessar"
	if op == PersistenceOpCreate {
		verb = "inserir"
	}
	return &APIError{
		Code:     ErrCodePersistence,
		Message:  fmt.Sprintf("Ocorreu um erro ao %s os dados no banco: %v", verb, cause),
		Category: "system",
		Action:   "Tente novamente mais tarde.",
		Cause:    cause,
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Não foi possível interpretar o corpo da requisição.",
		Category: "validation",
		Action:   "Envie um JSON válido.",
	}
}

// NewValidationError は入力値のバリデーションエラーを生成する。
func NewValidationError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("Dados inválidos: %s", detail),
		Category: "validation",
		Action:   "Corrija os campos informados e tente novamente.",
	}
}

// NewInvalidIDError は不正な形式のIDを指定された場合のエラーを生成する。
func NewInvalidIDError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidID,
		Message:  fmt.Sprintf("Id inválido: %s", id),
		Category: "validation",
		Action:   "Informe um UUID válido.",
	}
}

// NewInvalidPaginationError はページネーションパラメータが無効な場合のエラーを生成する。
func NewInvalidPaginationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPagination,
		Message:  fmt.Sprintf("Parâmetros de paginação inválidos: %s", reason),
		Category: "validation",
		Action:   "Use limit entre 1 e o máximo permitido e offset maior ou igual a zero.",
	}
}

// NewInternalError は内部サーバーエラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Ocorreu um erro interno.",
		Category: "system",
		Action:   "Tente novamente mais tarde.",
	}
}
