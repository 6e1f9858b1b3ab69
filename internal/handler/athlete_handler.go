package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hitoshi/workoutapi/internal/athlete"
	"github.com/hitoshi/workoutapi/internal/model"
	"github.com/hitoshi/workoutapi/internal/pagination"
)

// maxRequestBodyBytes はリクエストボディの上限サイズ。
const maxRequestBodyBytes = 1 << 20

// AthleteServiceInterface はアスリートハンドラーが必要とするサービスインターフェース。
type AthleteServiceInterface interface {
	// Create はアスリートを登録する。
	Create(ctx context.Context, in athlete.CreateInput) (*model.Athlete, error)
	// List は絞り込み条件に一致するアスリートをページ単位で返す。
	List(ctx context.Context, filter model.AthleteFilter, p pagination.Params) (*pagination.Page[*model.Athlete], error)
	// Get は指定IDのアスリートを返す。
	Get(ctx context.Context, id string) (*model.Athlete, error)
	// Update は指定フィールドのみを更新し、永続化後の状態を返す。
	Update(ctx context.Context, id string, patch model.AthletePatch) (*model.Athlete, error)
	// Delete は指定IDのアスリートを削除する。
	Delete(ctx context.Context, id string) error
}

// AthleteHandler はアスリート管理のHTTPハンドラー。
type AthleteHandler struct {
	service    AthleteServiceInterface
	pagination pagination.Config
}

// NewAthleteHandler はAthleteHandlerを生成する。
func NewAthleteHandler(service AthleteServiceInterface, pageCfg pagination.Config) *AthleteHandler {
	return &AthleteHandler{
		service:    service,
		pagination: pageCfg,
	}
}

// categoriaRef はカテゴリを名前で参照する。
type categoriaRef struct {
	Nome string `json:"nome" validate:"required,max=10"`
}

// centroTreinamentoRef はトレーニングセンターを名前で参照する。
type centroTreinamentoRef struct {
	Nome string `json:"nome" validate:"required,max=20"`
}

// atletaIn はアスリート登録リクエストのボディ。
type atletaIn struct {
	Nome              string               `json:"nome" validate:"required,max=50"`
	CPF               string               `json:"cpf" validate:"required,len=11,number"`
	Peso              decimal.Decimal      `json:"peso" validate:"gt=0,lt=10000"`
	Altura            decimal.Decimal      `json:"altura" validate:"gt=0,lt=100"`
	Sexo              string               `json:"sexo" validate:"required,oneof=M F"`
	Categoria         categoriaRef         `json:"categoria"`
	CentroTreinamento centroTreinamentoRef `json:"centro_treinamento"`
}

// atletaUpdate はアスリート部分更新リクエストのボディ。
// 省略されたフィールドとnullのフィールドは変更しない。
type atletaUpdate struct {
	Nome   *string          `json:"nome" validate:"omitnil,min=1,max=50"`
	Peso   *decimal.Decimal `json:"peso" validate:"omitnil,gt=0,lt=10000"`
	Altura *decimal.Decimal `json:"altura" validate:"omitnil,gt=0,lt=100"`
	Sexo   *string          `json:"sexo" validate:"omitnil,oneof=M F"`
}

// atletaOut はアスリート詳細のAPIレスポンス。
type atletaOut struct {
	ID                string               `json:"id"`
	CreatedAt         time.Time            `json:"created_at"`
	Nome              string               `json:"nome"`
	CPF               string               `json:"cpf"`
	Peso              json.Number          `json:"peso"`
	Altura            json.Number          `json:"altura"`
	Sexo              string               `json:"sexo"`
	Categoria         categoriaRef         `json:"categoria"`
	CentroTreinamento centroTreinamentoRef `json:"centro_treinamento"`
}

// atletaResumoOut は一覧表示用のアスリート概要レスポンス。
type atletaResumoOut struct {
	Nome              string               `json:"nome"`
	Categoria         categoriaRef         `json:"categoria"`
	CentroTreinamento centroTreinamentoRef `json:"centro_treinamento"`
}

// Create はアスリート登録を処理する。
// POST /atletas/
func (h *AthleteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req atletaIn
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if detail, ok := validateRequest(&req); !ok {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, model.NewValidationError(detail))
		return
	}

	a, err := h.service.Create(r.Context(), athlete.CreateInput{
		Nome:                  req.Nome,
		CPF:                   req.CPF,
		Peso:                  req.Peso,
		Altura:                req.Altura,
		Sexo:                  model.Sexo(req.Sexo),
		CategoriaNome:         req.Categoria.Nome,
		CentroTreinamentoNome: req.CentroTreinamento.Nome,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAtletaOut(a))
}

// List はアスリート一覧を返す。
// GET /atletas/?nome=&cpf=&limit=&offset=
func (h *AthleteHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	p, err := h.pagination.Parse(q)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, model.NewInvalidPaginationError(err.Error()))
		return
	}

	filter := model.AthleteFilter{
		Nome: q.Get("nome"),
		CPF:  q.Get("cpf"),
	}

	page, err := h.service.List(r.Context(), filter, p)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pagination.Map(page, toAtletaResumoOut))
}

// Get はアスリート詳細を返す。
// GET /atletas/{id}
func (h *AthleteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := athleteIDParam(w, r)
	if !ok {
		return
	}

	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAtletaOut(a))
}

// Update はアスリートを部分更新する。
// PATCH /atletas/{id}
func (h *AthleteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := athleteIDParam(w, r)
	if !ok {
		return
	}

	var req atletaUpdate
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if detail, ok := validateRequest(&req); !ok {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, model.NewValidationError(detail))
		return
	}

	patch := model.AthletePatch{
		Nome:   req.Nome,
		Peso:   req.Peso,
		Altura: req.Altura,
	}
	if req.Sexo != nil {
		sexo := model.Sexo(*req.Sexo)
		patch.Sexo = &sexo
	}

	a, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAtletaOut(a))
}

// Delete はアスリートを削除する。
// DELETE /atletas/{id}
func (h *AthleteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := athleteIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetupAthleteRoutes はアスリート管理のルーティングを設定する。
// writeMiddleware が nil でない場合、POST/PATCH/DELETE に書き込み専用レート制限を適用する。
func SetupAthleteRoutes(r chi.Router, h *AthleteHandler, writeMiddleware func(http.Handler) http.Handler) {
	writes := r
	if writeMiddleware != nil {
		writes = r.With(writeMiddleware)
	}

	r.Get("/", h.List)
	writes.Post("/", h.Create)

	r.Get("/{id}", h.Get)
	writes.Patch("/{id}", h.Update)
	writes.Delete("/{id}", h.Delete)
}

// --- ヘルパー関数 ---

// athleteIDParam はURLパスのidを検証し、正規化したUUID v4文字列を返す。
// 不正な形式の場合は422を書き込んでfalseを返す。
func athleteIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil || id.Version() != 4 {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, model.NewInvalidIDError(raw))
		return "", false
	}
	return id.String(), true
}

// decodeJSONBody はリクエストボディをJSONとしてデコードする。
// 失敗した場合は422を書き込んでfalseを返す。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		apiErr := model.NewInvalidRequestError()
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apiErr = model.NewValidationError("corpo da requisição muito grande")
		}
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, apiErr)
		return false
	}
	return true
}

// toAtletaOut はmodel.AthleteからAPIレスポンスに変換する。
func toAtletaOut(a *model.Athlete) atletaOut {
	return atletaOut{
		ID:                a.ID,
		CreatedAt:         a.CreatedAt.UTC(),
		Nome:              a.Nome,
		CPF:               a.CPF,
		Peso:              json.Number(a.Peso.String()),
		Altura:            json.Number(a.Altura.String()),
		Sexo:              string(a.Sexo),
		Categoria:         categoriaRef{Nome: a.Categoria.Nome},
		CentroTreinamento: centroTreinamentoRef{Nome: a.CentroTreinamento.Nome},
	}
}

// toAtletaResumoOut はmodel.Athleteから一覧用の概要レスポンスに変換する。
func toAtletaResumoOut(a *model.Athlete) atletaResumoOut {
	return atletaResumoOut{
		Nome:              a.Nome,
		Categoria:         categoriaRef{Nome: a.Categoria.Nome},
		CentroTreinamento: centroTreinamentoRef{Nome: a.CentroTreinamento.Nome},
	}
}
