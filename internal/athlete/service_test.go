package athlete

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/workoutapi/internal/metrics"
	"github.com/hitoshi/workoutapi/internal/model"
	"github.com/hitoshi/workoutapi/internal/pagination"
	"github.com/hitoshi/workoutapi/internal/security"
)

var fixedNow = time.Date(2024, 3, 10, 12, 30, 0, 123456789, time.FixedZone("BRT", -3*60*60))

// newTestService はインメモリストアと固定時刻・連番IDを使うServiceを生成する。
func newTestService(t *testing.T, store *memStore) *Service {
	t.Helper()

	svc := NewService(store, security.NewTextSanitizer(), nil, slog.New(slog.NewJSONHandler(io.Discard, nil)))

	var mu sync.Mutex
	seq := 0
	tick := fixedNow
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}
	svc.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("00000000-0000-4000-8000-%012d", seq)
	}
	return svc
}

func validInput() CreateInput {
	return CreateInput{
		Nome:                  "Joao",
		CPF:                   "12345678900",
		Peso:                  decimal.RequireFromString("75.5"),
		Altura:                decimal.RequireFromString("1.70"),
		Sexo:                  model.SexoMasculino,
		CategoriaNome:         "Scale",
		CentroTreinamentoNome: "CT King",
	}
}

func TestCreate_Success(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	a, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, "00000000-0000-4000-8000-000000000001", a.ID)
	assert.Equal(t, "Joao", a.Nome)
	assert.Equal(t, "12345678900", a.CPF)
	assert.True(t, a.Peso.Equal(decimal.RequireFromString("75.5")))
	assert.Equal(t, model.SexoMasculino, a.Sexo)
	assert.Equal(t, "Scale", a.Categoria.Nome)
	assert.Equal(t, "CT King", a.CentroTreinamento.Nome)
	assert.Equal(t, int64(1), a.CategoriaID)
	assert.Equal(t, int64(1), a.CentroTreinamentoID)

	assert.Equal(t, time.UTC, a.CreatedAt.Location())
	assert.Zero(t, a.CreatedAt.Nanosecond()%int(time.Microsecond), "created_at should be truncated to microseconds")

	assert.Equal(t, 1, store.count())
	assert.Equal(t, 1, store.commits)
}

func TestCreate_SanitizesName(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	in := validInput()
	in.Nome = "  <b>Joao</b> Silva "

	a, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Joao Silva", a.Nome)
}

func TestCreate_NameEmptyAfterSanitizing(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	in := validInput()
	in.Nome = "<script>x</script>"

	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.True(t, model.HasCode(err, model.ErrCodeValidationFailed))
	assert.Zero(t, store.commits+store.rollbacks, "no session should be opened")
}

func TestCreate_UnknownCategory(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	in := validInput()
	in.CategoriaNome = "Master"

	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.True(t, model.HasCode(err, model.ErrCodeReferenceNotFound))
	assert.Contains(t, err.Error(), "categoria Master")
	assert.Equal(t, 0, store.count())
	assert.Equal(t, 1, store.rollbacks)
}

func TestCreate_UnknownTrainingCenter(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	in := validInput()
	in.CentroTreinamentoNome = "CT Nowhere"

	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.True(t, model.HasCode(err, model.ErrCodeReferenceNotFound))
	assert.Contains(t, err.Error(), "centro de treinamento CT Nowhere")
	assert.Equal(t, 0, store.count())
}

func TestCreate_CategoryCheckedBeforeTrainingCenter(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	in := validInput()
	in.CategoriaNome = "Master"
	in.CentroTreinamentoNome = "CT Nowhere"

	_, err := svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "categoria Master")
}

func TestCreate_DuplicateCPF(t *testing.T) {
	store := newMemStore()
	reg := prometheus.NewRegistry()
	svc := newTestService(t, store)
	svc.metrics = metrics.NewCollector(reg)

	_, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.Nome = "Outro"
	_, err = svc.Create(context.Background(), in)
	require.Error(t, err)
	assert.True(t, model.HasCode(err, model.ErrCodeDuplicateKey))
	assert.Contains(t, err.Error(), "12345678900")

	assert.Equal(t, 1, store.count())
	assert.Equal(t, 1, store.rollbacks)
}

func TestCreate_ConcurrentSameCPF_OnlyOneSucceeds(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), validInput())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, conflicts := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case model.HasCode(err, model.ErrCodeDuplicateKey):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, 1, store.count())
}

func TestCreate_PersistenceFailureRollsBack(t *testing.T) {
	store := newMemStore()
	store.createErr = errConnectionReset
	svc := newTestService(t, store)

	_, err := svc.Create(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, model.HasCode(err, model.ErrCodePersistence))
	assert.Contains(t, err.Error(), "connection reset by peer")
	assert.ErrorIs(t, err, errConnectionReset)

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "erro ao inserir os dados")

	assert.Equal(t, 0, store.count())
	assert.Equal(t, 1, store.rollbacks)
	assert.Equal(t, 0, store.commits)
}

func TestList_FiltersAndPaginates(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	names := []string{"Joao Silva", "Maria", "joana", "Pedro"}
	for i, n := range names {
		in := validInput()
		in.Nome = n
		in.CPF = fmt.Sprintf("%011d", i+1)
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	t.Run("no filter returns creation order", func(t *testing.T) {
		page, err := svc.List(ctx, model.AthleteFilter{}, pagination.Params{Limit: 50})
		require.NoError(t, err)
		require.Len(t, page.Items, 4)
		assert.Equal(t, 4, page.Total)
		for i, a := range page.Items {
			assert.Equal(t, names[i], a.Nome)
		}
	})

	t.Run("nome is case-insensitive substring", func(t *testing.T) {
		page, err := svc.List(ctx, model.AthleteFilter{Nome: "JOA"}, pagination.Params{Limit: 50})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Joao Silva", page.Items[0].Nome)
		assert.Equal(t, "joana", page.Items[1].Nome)
	})

	t.Run("cpf is exact and conjunctive with nome", func(t *testing.T) {
		page, err := svc.List(ctx, model.AthleteFilter{Nome: "joa", CPF: "00000000003"}, pagination.Params{Limit: 50})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "joana", page.Items[0].Nome)

		page, err = svc.List(ctx, model.AthleteFilter{Nome: "Maria", CPF: "00000000003"}, pagination.Params{Limit: 50})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, 0, page.Total)
	})

	t.Run("limit and offset", func(t *testing.T) {
		page, err := svc.List(ctx, model.AthleteFilter{}, pagination.Params{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Maria", page.Items[0].Nome)
		assert.Equal(t, "joana", page.Items[1].Nome)
		assert.Equal(t, 4, page.Total)
		assert.Equal(t, 2, page.Limit)
		assert.Equal(t, 1, page.Offset)
	})

	t.Run("offset past the end", func(t *testing.T) {
		page, err := svc.List(ctx, model.AthleteFilter{}, pagination.Params{Limit: 10, Offset: 10})
		require.NoError(t, err)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
		assert.Equal(t, 4, page.Total)
	})
}

func TestList_EmptyStore(t *testing.T) {
	svc := newTestService(t, newMemStore())

	page, err := svc.List(context.Background(), model.AthleteFilter{}, pagination.Params{Limit: 50})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Total)
}

func TestList_PersistenceFailure(t *testing.T) {
	store := newMemStore()
	store.listErr = errConnectionReset
	svc := newTestService(t, store)

	_, err := svc.List(context.Background(), model.AthleteFilter{}, pagination.Params{Limit: 50})
	require.Error(t, err)
	assert.True(t, model.HasCode(err, model.ErrCodePersistence))

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "erro ao acessar os dados")
}

func TestGet(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		got, err := svc.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, created.CPF, got.CPF)
		assert.Equal(t, created.CreatedAt, got.CreatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		missing := "ffffffff-ffff-4fff-bfff-ffffffffffff"
		_, err := svc.Get(ctx, missing)
		require.Error(t, err)
		assert.True(t, model.HasCode(err, model.ErrCodeAthleteNotFound))
		assert.Contains(t, err.Error(), missing)
	})
}

func TestUpdate_PartialFieldsOnly(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	peso := decimal.RequireFromString("80.125")
	updated, err := svc.Update(ctx, created.ID, model.AthletePatch{Peso: &peso})
	require.NoError(t, err)

	assert.True(t, updated.Peso.Equal(decimal.RequireFromString("80.13")), "persisted value should be returned, got %s", updated.Peso)
	assert.Equal(t, created.Nome, updated.Nome)
	assert.True(t, created.Altura.Equal(updated.Altura))
	assert.Equal(t, created.Sexo, updated.Sexo)
	assert.Equal(t, created.CPF, updated.CPF)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Peso.Equal(updated.Peso))
}

func TestUpdate_SanitizesName(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	nome := "<em>Joao</em> Pedro"
	updated, err := svc.Update(ctx, created.ID, model.AthletePatch{Nome: &nome})
	require.NoError(t, err)
	assert.Equal(t, "Joao Pedro", updated.Nome)
}

func TestUpdate_EmptyPatchReturnsCurrentState(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	got, err := svc.Update(ctx, created.ID, model.AthletePatch{})
	require.NoError(t, err)
	assert.Equal(t, created.Nome, got.Nome)
	assert.True(t, created.Peso.Equal(got.Peso))
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(t, newMemStore())

	sexo := model.SexoFeminino
	_, err := svc.Update(context.Background(), "ffffffff-ffff-4fff-bfff-ffffffffffff", model.AthletePatch{Sexo: &sexo})
	require.Error(t, err)
	assert.True(t, model.HasCode(err, model.ErrCodeAthleteNotFound))
}

func TestDelete(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.Equal(t, 0, store.count())

	_, err = svc.Get(ctx, created.ID)
	assert.True(t, model.HasCode(err, model.ErrCodeAthleteNotFound))

	err = svc.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, model.HasCode(err, model.ErrCodeAthleteNotFound))
}

func TestDelete_FreesCPF(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Create(ctx, validInput())
	assert.NoError(t, err)
}
