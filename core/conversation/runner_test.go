package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/hrbot/core/actions"
	"github.com/m3rciful/hrbot/core/dialogue"
	"github.com/m3rciful/hrbot/core/langdetect"
	"github.com/m3rciful/hrbot/core/telegram/state"
	"github.com/m3rciful/hrbot/core/translate"
)

func newRunner(t *testing.T, detected string) (*Runner, *state.MemoryStore) {
	t.Helper()
	reg, err := actions.NewRegistry(actions.Deps{
		Translator: translate.Func(func(_ context.Context, text, target string) (string, error) {
			return "[" + target + "] " + text, nil
		}),
		Detector: langdetect.Func(func(string) (string, float64) { return detected, 0.9 }),
	})
	require.NoError(t, err)
	store := state.NewMemoryStore(50)
	return NewRunner(reg, store), store
}

func TestRouteTable(t *testing.T) {
	r, _ := newRunner(t, "en")
	fresh := dialogue.NewTracker("u")
	known := dialogue.NewTracker("u")
	known.Slots[dialogue.SlotLanguage] = "en"

	cases := []struct {
		name    string
		tracker *dialogue.Tracker
		turn    Turn
		action  string
		lang    string
	}{
		{"start command", known, Text("/start"), actions.Greet, ""},
		{"first message greets", fresh, Text("hello"), actions.Greet, ""},
		{"later text thanks", known, Text("my id is 7"), actions.Thanks, ""},
		{"pf button", known, Payload("/PF"), actions.PF, ""},
		{"payroll menu", known, Payload("/Payroll_Att"), actions.PayrollMenu, ""},
		{"payroll detail", known, Payload("Payroll"), actions.Pay, ""},
		{"attendance", known, Payload("Attendance"), actions.Attendance, ""},
		{"reimbursement", known, Payload("/Reimbursement"), actions.ReimbursementMenu, ""},
		{"travel", known, Payload("TA"), actions.TravelAllowance, ""},
		{"driver", known, Payload("DS"), actions.DriverSalary, ""},
		{"petrol", known, Payload("PA"), actions.PetrolAllowance, ""},
		{"language menu", known, Payload("/Language_Opt"), actions.Language, ""},
		{"exit", known, Payload("/goodbye"), actions.Goodbye, ""},
		{"language pick", known, Payload("te"), "", "te"},
		{"unknown payload", known, Payload("/bonus"), actions.Default, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action, lang := r.Route(tc.tracker, tc.turn)
			require.Equal(t, tc.action, action)
			require.Equal(t, tc.lang, lang)
		})
	}
}

func TestHandleConversationFlow(t *testing.T) {
	r, store := newRunner(t, "hi")
	ctx := context.Background()

	reply, err := r.Handle(ctx, "emp-9", Text("नमस्ते"))
	require.NoError(t, err)
	require.Equal(t, actions.Greet, reply.Action)
	require.Contains(t, reply.Messages[0].Text, "[hi] ")

	tr, err := store.Load(ctx, "emp-9")
	require.NoError(t, err)
	require.Equal(t, "hi", tr.StringSlot(dialogue.SlotLanguage, "en"))

	reply, err = r.Handle(ctx, "emp-9", Payload("/Language_Opt"))
	require.NoError(t, err)
	require.Len(t, reply.Messages[0].Buttons, 7)

	reply, err = r.Handle(ctx, "emp-9", Payload("en"))
	require.NoError(t, err)
	require.Empty(t, reply.Action)
	require.Equal(t, "en", reply.Language)

	reply, err = r.Handle(ctx, "emp-9", Payload("/PF"))
	require.NoError(t, err)
	require.Equal(t, "Can you tell me what kind of details you need from your PF?", reply.Messages[0].Text)

	reply, err = r.Handle(ctx, "emp-9", Text("UAN balance please"))
	require.NoError(t, err)
	require.Equal(t, actions.Thanks, reply.Action)

	tr, err = store.Load(ctx, "emp-9")
	require.NoError(t, err)
	require.Equal(t, []string{"UAN balance please", "/PF"}, tr.RecentUserTexts(2))

	require.NoError(t, r.Reset(ctx, "emp-9"))
	reply, err = r.Handle(ctx, "emp-9", Text("hello again"))
	require.NoError(t, err)
	require.Equal(t, actions.Greet, reply.Action)
}

func TestHandleRejectsEmptyInput(t *testing.T) {
	r, _ := newRunner(t, "en")
	_, err := r.Handle(context.Background(), "", Text("hi"))
	require.Error(t, err)
	_, err = r.Handle(context.Background(), "u", Turn{})
	require.Error(t, err)
}

type failingStore struct{ state.MemoryStore }

func (*failingStore) Load(context.Context, string) (*dialogue.Tracker, error) {
	return nil, errors.New("db down")
}

func TestHandleStoreFailure(t *testing.T) {
	reg, err := actions.NewRegistry(actions.Deps{})
	require.NoError(t, err)
	r := NewRunner(reg, &failingStore{})
	_, err = r.Handle(context.Background(), "u", Text("hello"))
	require.ErrorContains(t, err, "db down")
}

func TestHandleSerializesTurnsPerSender(t *testing.T) {
	base, _ := newRunner(t, "en")
	store := state.NewMemoryStore(0)
	r := NewRunner(base.Registry(), store)
	ctx := context.Background()

	const senders, turns = 4, 12
	var mu sync.Mutex
	greets := map[string]int{}
	var wg sync.WaitGroup
	for s := 0; s < senders; s++ {
		id := fmt.Sprintf("emp-%d", s)
		for i := 0; i < turns; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				reply, err := r.Handle(ctx, id, Text("hello"))
				if err != nil {
					t.Error(err)
					return
				}
				if reply.Action == actions.Greet {
					mu.Lock()
					greets[id]++
					mu.Unlock()
				}
			}()
		}
	}
	wg.Wait()

	for s := 0; s < senders; s++ {
		id := fmt.Sprintf("emp-%d", s)
		require.Equal(t, 1, greets[id], id)
		tr, err := store.Load(ctx, id)
		require.NoError(t, err)
		require.Len(t, tr.RecentUserTexts(2*turns), turns)
	}
	require.Zero(t, r.heldLocks())

	require.NoError(t, r.Reset(ctx, "emp-0"))
	require.Zero(t, r.heldLocks())
}
