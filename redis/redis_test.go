package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/NextMind-AI/marlie/catalog"
	"github.com/NextMind-AI/marlie/dialog"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewClient(mr.Addr(), "", 0), mr
}

func TestStateStoreGetMissing(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewStateStore(client, time.Hour)

	st, err := store.Get(context.Background(), "salon", "5563999990000")

	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestStateStorePatchCreatesAndMerges(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewStateStore(client, time.Hour)
	ctx := context.Background()

	step := dialog.StepCollectingDate
	slots := dialog.Slots{ServiceName: "Corte Feminino"}
	require.NoError(t, store.Patch(ctx, "salon", "5563999990000", dialog.StatePatch{Step: &step, Slots: &slots}))

	last := "amanhã"
	require.NoError(t, store.Patch(ctx, "salon", "5563999990000", dialog.StatePatch{LastText: &last}))

	st, err := store.Get(ctx, "salon", "5563999990000")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, dialog.StepCollectingDate, st.Step)
	assert.Equal(t, "Corte Feminino", st.Slots.ServiceName)
	assert.Equal(t, dialog.SlotDate, st.Slots.Awaiting)
	assert.Equal(t, "amanhã", st.LastText)
	assert.Equal(t, dialog.StateVersion, st.Version)

	ttl := mr.TTL("conversation_state:salon:5563999990000")
	assert.Equal(t, time.Hour, ttl)

	raw, err := mr.Get("conversation_state:salon:5563999990000")
	require.NoError(t, err)
	assert.Contains(t, raw, `"etapaAtual":"collecting_date"`)
	assert.Contains(t, raw, `"nomeServico":"Corte Feminino"`)
}

func TestStateStoreConcurrentPatchesAllApply(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewStateStore(client, 0)
	store.maxRetries = 50
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			contact := dialog.ContactInfo{Name: "Maria"}
			assert.NoError(t, store.Patch(ctx, "salon", "5563999990000", dialog.StatePatch{ContactInfo: &contact}))
		}()
	}
	wg.Wait()

	st, err := store.Get(ctx, "salon", "5563999990000")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "Maria", st.ContactInfo.Name)
	assert.Equal(t, dialog.StepInitial, st.Step)
}

func TestStateStoreReplaceListDelete(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewStateStore(client, 0)
	ctx := context.Background()
	base := time.Date(2030, 5, 9, 10, 0, 0, 0, time.UTC)

	older := dialog.NewState("salon", "5563911110000", base)
	newer := dialog.NewState("salon", "5563922220000", base.Add(time.Hour))
	other := dialog.NewState("barber", "5563933330000", base)
	for _, st := range []*dialog.State{older, newer, other} {
		require.NoError(t, store.Replace(ctx, st))
	}

	states, err := store.List(ctx, "salon")
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "5563922220000", states[0].Phone)
	assert.Equal(t, "5563911110000", states[1].Phone)

	require.NoError(t, store.Delete(ctx, "salon", "5563922220000"))
	st, err := store.Get(ctx, "salon", "5563922220000")
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestStateStoreSkipsUnreadableDocuments(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewStateStore(client, 0)
	require.NoError(t, mr.Set("conversation_state:salon:broken", "{not json"))
	require.NoError(t, store.Replace(context.Background(), dialog.NewState("salon", "5563911110000", time.Now())))

	states, err := store.List(context.Background(), "salon")

	require.NoError(t, err)
	assert.Len(t, states, 1)

	_, err = store.Get(context.Background(), "salon", "broken")
	assert.Error(t, err)
}

func TestCatalogStoreRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewCatalogStore(client)
	ctx := context.Background()

	services, err := store.Load(ctx, "salon")
	require.NoError(t, err)
	assert.Nil(t, services)

	want := []catalog.Service{
		{ID: 1, Name: "Corte Feminino", DurationMinutes: 60, Price: 90, Visible: true},
	}
	require.NoError(t, store.Save(ctx, "salon", want))

	got, err := store.Load(ctx, "salon")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
