package athlete

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lib/pq"

	"github.com/hitoshi/workoutapi/internal/model"
	"github.com/hitoshi/workoutapi/internal/pagination"
	"github.com/hitoshi/workoutapi/internal/repository"
)

// memStore はトランザクションの挙動を模したインメモリのSessionProvider。
// WithSessionは作業用コピー上でfnを実行し、成功時のみ反映する。
type memStore struct {
	mu         sync.Mutex
	categories map[string]*model.Category
	centers    map[string]*model.TrainingCenter
	athletes   []*model.Athlete
	nextPK     int64

	commits   int
	rollbacks int

	// 次のAthletes().Createで返すエラー
	createErr error
	// 次のAthletes().Listで返すエラー
	listErr error
}

func newMemStore() *memStore {
	return &memStore{
		categories: map[string]*model.Category{
			"Scale": {PKID: 1, ID: "c0000000-0000-4000-8000-000000000001", Nome: "Scale"},
			"RX":    {PKID: 2, ID: "c0000000-0000-4000-8000-000000000002", Nome: "RX"},
		},
		centers: map[string]*model.TrainingCenter{
			"CT King": {PKID: 1, ID: "d0000000-0000-4000-8000-000000000001", Nome: "CT King", Endereco: "Rua X, Q02", Proprietario: "Marcos"},
		},
		nextPK: 1,
	}
}

func (m *memStore) WithSession(ctx context.Context, fn func(ctx context.Context, s repository.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := &memSession{store: m, athletes: cloneAthletes(m.athletes), nextPK: m.nextPK}

	defer func() {
		if rec := recover(); rec != nil {
			m.rollbacks++
			panic(rec)
		}
	}()

	if err := fn(ctx, work); err != nil {
		m.rollbacks++
		return err
	}

	m.athletes = work.athletes
	m.nextPK = work.nextPK
	m.commits++
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.athletes)
}

func cloneAthletes(src []*model.Athlete) []*model.Athlete {
	out := make([]*model.Athlete, len(src))
	for i, a := range src {
		cp := *a
		out[i] = &cp
	}
	return out
}

type memSession struct {
	store    *memStore
	athletes []*model.Athlete
	nextPK   int64
}

func (s *memSession) Categories() repository.CategoryRepository { return memCategoryRepo{s} }
func (s *memSession) TrainingCenters() repository.TrainingCenterRepository { return memCenterRepo{s} }
func (s *memSession) Athletes() repository.AthleteRepository { return memAthleteRepo{s} }

type memCategoryRepo struct{ s *memSession }

func (r memCategoryRepo) FindByName(_ context.Context, nome string) (*model.Category, error) {
	c, ok := r.s.store.categories[nome]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

type memCenterRepo struct{ s *memSession }

func (r memCenterRepo) FindByName(_ context.Context, nome string) (*model.TrainingCenter, error) {
	ct, ok := r.s.store.centers[nome]
	if !ok {
		return nil, nil
	}
	cp := *ct
	return &cp, nil
}

type memAthleteRepo struct{ s *memSession }

func (r memAthleteRepo) FindByID(_ context.Context, id string) (*model.Athlete, error) {
	for _, a := range r.s.athletes {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memAthleteRepo) List(_ context.Context, filter model.AthleteFilter, p pagination.Params) ([]*model.Athlete, int, error) {
	if err := r.s.store.listErr; err != nil {
		return nil, 0, err
	}

	var matched []*model.Athlete
	for _, a := range r.s.athletes {
		if filter.Nome != "" && !strings.Contains(strings.ToLower(a.Nome), strings.ToLower(filter.Nome)) {
			continue
		}
		if filter.CPF != "" && a.CPF != filter.CPF {
			continue
		}
		cp := *a
		matched = append(matched, &cp)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].PKID < matched[j].PKID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := len(matched)
	if p.Offset >= total {
		return []*model.Athlete{}, total, nil
	}
	end := min(p.Offset+p.Limit, total)
	return matched[p.Offset:end], total, nil
}

func (r memAthleteRepo) Create(_ context.Context, a *model.Athlete) error {
	if err := r.s.store.createErr; err != nil {
		r.s.store.createErr = nil
		return fmt.Errorf("アスリートの作成に失敗しました: %w", err)
	}
	for _, existing := range r.s.athletes {
		if existing.CPF == a.CPF {
			return fmt.Errorf("アスリートの作成に失敗しました: %w",
				&pq.Error{Code: "23505", Constraint: "atletas_cpf_key"})
		}
	}
	a.PKID = r.s.nextPK
	r.s.nextPK++
	cp := *a
	r.s.athletes = append(r.s.athletes, &cp)
	return nil
}

func (r memAthleteRepo) Update(_ context.Context, a *model.Athlete) error {
	for _, existing := range r.s.athletes {
		if existing.ID == a.ID {
			existing.Nome = a.Nome
			existing.Peso = a.Peso.Round(2)
			existing.Altura = a.Altura.Round(2)
			existing.Sexo = a.Sexo
			return nil
		}
	}
	return fmt.Errorf("%w: atleta %s", repository.ErrNotFound, a.ID)
}

func (r memAthleteRepo) DeleteByID(_ context.Context, id string) error {
	for i, existing := range r.s.athletes {
		if existing.ID == id {
			r.s.athletes = append(r.s.athletes[:i], r.s.athletes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: atleta %s", repository.ErrNotFound, id)
}

var errConnectionReset = errors.New("connection reset by peer")

// compile-time interface check
var _ repository.SessionProvider = (*memStore)(nil)
