package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSnapshot struct {
	services map[string][]Service
	err      error
}

func (m *memSnapshot) Load(_ context.Context, tenantID string) ([]Service, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.services[tenantID], nil
}

func (m *memSnapshot) Save(_ context.Context, tenantID string, services []Service) error {
	if m.services == nil {
		m.services = map[string][]Service{}
	}
	m.services[tenantID] = services
	return nil
}

type fakeRemote struct {
	services []Service
	err      error
	calls    int
}

func (f *fakeRemote) SearchServices(context.Context, string) ([]Service, error) {
	f.calls++
	return f.services, f.err
}

func (f *fakeRemote) ListServices(context.Context) ([]Service, error) {
	return f.services, f.err
}

func salonServices() []Service {
	return []Service{
		{ID: 1, Name: "Corte Feminino", Category: "Cabelo", DurationMinutes: 60, Price: 90, Visible: true},
		{ID: 2, Name: "Corte Masculino", Category: "Cabelo", DurationMinutes: 30, Price: 50, Visible: true},
		{ID: 3, Name: "Manicure Simples", Category: "Unhas", DurationMinutes: 40, Price: 35, Visible: true},
		{ID: 4, Name: "Pé e Mão", Category: "Unhas", DurationMinutes: 80, Price: 70, Visible: true},
		{ID: 5, Name: "Depilação Axila", Category: "Depilação", DurationMinutes: 20, Price: 30, Visible: true},
		{ID: 6, Name: "Escova", Category: "Cabelo", DurationMinutes: 45, Price: 60, Visible: false},
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "depilacao axila", Fold("  Depilação   AXILA "))
	assert.Equal(t, "pe e mao", Fold("Pé e Mão"))
}

func TestIsCategoryTerm(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"unha", true},
		{"quero unha", true},
		{"Depilação", true},
		{"cabelo", true},
		{"corte feminino", false},
		{"manicure simples", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCategoryTerm(tt.query))
		})
	}
}

func TestLocalSuggest(t *testing.T) {
	local := NewLocal(&memSnapshot{services: map[string][]Service{"salon": salonServices()}})
	ctx := context.Background()

	got, err := local.Suggest(ctx, "salon", "corte", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Corte Feminino", got[0].Name)

	got, err = local.Suggest(ctx, "salon", "corte feminino", 5)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, 1, got[0].ID)

	got, err = local.Suggest(ctx, "salon", "unhas", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	got, err = local.Suggest(ctx, "salon", "escova", 5)
	require.NoError(t, err)
	assert.Empty(t, got, "hidden services are never suggested")

	got, err = local.Suggest(ctx, "salon", "corte", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLocalExists(t *testing.T) {
	local := NewLocal(&memSnapshot{services: map[string][]Service{"salon": salonServices()}})

	ok, err := local.Exists(context.Background(), "salon", 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = local.Exists(context.Background(), "salon", 99)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewLocal(&memSnapshot{err: errors.New("boom")}).Exists(context.Background(), "salon", 1)
	assert.Error(t, err)
}

func TestResolverResolve(t *testing.T) {
	ctx := context.Background()
	snapshot := &memSnapshot{services: map[string][]Service{"salon": salonServices()}}

	t.Run("local exact match", func(t *testing.T) {
		remote := &fakeRemote{}
		res, err := NewResolver(NewLocal(snapshot), remote).Resolve(ctx, "salon", "corte feminino")
		require.NoError(t, err)
		assert.Equal(t, Found, res.Kind)
		assert.Equal(t, 1, res.Service.ID)
		assert.Zero(t, remote.calls)
	})

	t.Run("category term never resolves", func(t *testing.T) {
		remote := &fakeRemote{services: []Service{{ID: 9, Name: "Cabelo", DurationMinutes: 30, Visible: true}}}
		res, err := NewResolver(NewLocal(snapshot), remote).Resolve(ctx, "salon", "cabelo")
		require.NoError(t, err)
		assert.NotEqual(t, Found, res.Kind)
		assert.Zero(t, remote.calls)
	})

	t.Run("category term with suggestions is ambiguous", func(t *testing.T) {
		res, err := NewResolver(NewLocal(snapshot), nil).Resolve(ctx, "salon", "quero unha")
		require.NoError(t, err)
		assert.Equal(t, Ambiguous, res.Kind)
		assert.NotEmpty(t, res.Suggestions)
	})

	t.Run("remote fallback filters unbookable services", func(t *testing.T) {
		remote := &fakeRemote{services: []Service{
			{ID: 20, Name: "Hidratação Pacote", DurationMinutes: 60, Visible: true, HasChildren: true},
			{ID: 0, Name: "Hidratação", DurationMinutes: 60, Visible: true},
			{ID: 21, Name: "Hidratação Profunda", DurationMinutes: 50, Visible: true},
		}}
		res, err := NewResolver(NewLocal(snapshot), remote).Resolve(ctx, "salon", "hidratação")
		require.NoError(t, err)
		assert.Equal(t, Found, res.Kind)
		assert.Equal(t, 21, res.Service.ID)
	})

	t.Run("remote prefers exact name", func(t *testing.T) {
		remote := &fakeRemote{services: []Service{
			{ID: 30, Name: "Luzes Completas", DurationMinutes: 120, Visible: true},
			{ID: 31, Name: "Luzes", DurationMinutes: 90, Visible: true},
		}}
		res, err := NewResolver(NewLocal(snapshot), remote).Resolve(ctx, "salon", "luzes")
		require.NoError(t, err)
		assert.Equal(t, 31, res.Service.ID)
	})

	t.Run("remote failure degrades to not found", func(t *testing.T) {
		remote := &fakeRemote{err: errors.New("timeout")}
		res, err := NewResolver(NewLocal(snapshot), remote).Resolve(ctx, "salon", "botox capilar")
		require.NoError(t, err)
		assert.Equal(t, NotFound, res.Kind)
	})

	t.Run("local failure is returned", func(t *testing.T) {
		_, err := NewResolver(NewLocal(&memSnapshot{err: errors.New("redis down")}), nil).Resolve(ctx, "salon", "corte")
		assert.Error(t, err)
	})
}

func TestSyncerRefresh(t *testing.T) {
	snapshot := &memSnapshot{}
	source := &fakeRemote{services: salonServices()}

	n, err := NewSyncer(source, snapshot).Refresh(context.Background(), "salon")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, snapshot.services["salon"], 5)
}
