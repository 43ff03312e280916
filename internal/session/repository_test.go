package session

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/admission-chat/internal/domain"
	"github.com/Rrens/admission-chat/internal/repository/memory"
	"github.com/Rrens/admission-chat/internal/store"
)

const stateKey = "vu-chat-sessions"

type fixture struct {
	repo    *Repository
	adapter *store.Adapter[domain.SessionState]
	kv      *memory.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	kv := memory.NewStore()
	adapter := store.New(kv, stateKey, domain.EmptySessionState)
	repo := NewRepository(context.Background(), adapter)

	clock := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	seq := 0
	repo.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return fixture{repo: repo, adapter: adapter, kv: kv}
}

func TestCreateSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.repo.CreateSession(ctx)
	second := f.repo.CreateSession(ctx)

	assert.Equal(t, domain.DefaultSessionTitle, first.Title)
	assert.Empty(t, first.Messages)

	sessions := f.repo.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID, "new sessions go to the head of the list")
	assert.Equal(t, first.ID, sessions[1].ID)

	activeID, ok := f.repo.ActiveSessionID()
	require.True(t, ok)
	assert.Equal(t, second.ID, activeID)

	// persisted immediately
	stored := f.adapter.Load(ctx)
	require.Len(t, stored.Sessions, 2)
	require.NotNil(t, stored.ActiveSessionID)
	assert.Equal(t, second.ID, *stored.ActiveSessionID)
}

func TestSwitchSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.repo.CreateSession(ctx)
	second := f.repo.CreateSession(ctx)

	assert.True(t, f.repo.SwitchSession(ctx, first.ID))
	id, _ := f.repo.ActiveSessionID()
	assert.Equal(t, first.ID, id)

	assert.False(t, f.repo.SwitchSession(ctx, "missing"))
	id, _ = f.repo.ActiveSessionID()
	assert.Equal(t, first.ID, id, "unknown ids are ignored")
	assert.NotEqual(t, second.ID, id)
}

func TestAddMessage_PreservesCountAndOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.repo.CreateSession(ctx)

	const n = 25
	for i := 0; i < n; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		_, ok := f.repo.AddMessage(ctx, domain.NewMessage{Role: role, Content: fmt.Sprintf("message %d", i)})
		require.True(t, ok)
	}

	active, ok := f.repo.ActiveSession()
	require.True(t, ok)
	require.Len(t, active.Messages, n)
	for i, m := range active.Messages {
		assert.Equal(t, fmt.Sprintf("message %d", i), m.Content)
		assert.NotEmpty(t, m.ID)
		assert.False(t, m.CreatedAt.IsZero())
	}
}

func TestAddMessage_NoActiveSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, ok := f.repo.AddMessage(ctx, domain.NewMessage{Role: domain.RoleUser, Content: "hello"})
	assert.False(t, ok)
	assert.Empty(t, f.repo.Sessions())
}

func TestAddMessage_DerivesTitleFromFirstUserMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.repo.CreateSession(ctx)

	f.repo.AddMessage(ctx, domain.NewMessage{Role: domain.RoleUser, Content: "What are the admission requirements for next year please"})
	f.repo.AddMessage(ctx, domain.NewMessage{Role: domain.RoleUser, Content: "And the fees?"})

	got, ok := f.repo.Session(s.ID)
	require.True(t, ok)
	assert.Equal(t, "What are the admission requirements", got.Title)
}

func TestAddMessage_KeepsManualTitle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.repo.CreateSession(ctx)

	f.repo.RenameSession(ctx, s.ID, "Scholarships")
	f.repo.AddMessage(ctx, domain.NewMessage{Role: domain.RoleUser, Content: "Which scholarships exist?"})

	got, _ := f.repo.Session(s.ID)
	assert.Equal(t, "Scholarships", got.Title)
}

func TestGenerateTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"five words", "What are the admission requirements for next year please", "What are the admission requirements"},
		{"short", "Hostel?", "Hostel?"},
		{"long words truncated", "Supercalifragilisticexpialidocious antidisestablishmentarianism pneumonoultramicroscopic",
			"Supercalifragilisticexpialidocious antidisestablis..."},
		{"exactly fifty", strings.Repeat("a", 50), strings.Repeat("a", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateTitle(tt.in))
		})
	}
}

func TestUpdateMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.repo.CreateSession(ctx)

	msg, _ := f.repo.AddMessage(ctx, domain.NewMessage{Role: domain.RoleAssistant, Content: "Fees are"})

	content := "Fees are $10,000"
	updated, ok := f.repo.UpdateMessage(ctx, msg.ID, domain.MessagePatch{Content: &content})
	require.True(t, ok)
	assert.Equal(t, content, updated.Content)

	_, ok = f.repo.UpdateMessage(ctx, "missing", domain.MessagePatch{Content: &content})
	assert.False(t, ok)
}

func TestFeedbackRoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.repo.CreateSession(ctx)

	sources := []domain.Source{{Category: "fees", Filename: "fees.pdf", Snippet: "Tuition is..."}}
	msg, _ := f.repo.AddMessage(ctx, domain.NewMessage{Role: domain.RoleAssistant, Content: "Fees are $10,000", Sources: sources})

	like := domain.FeedbackLike
	_, ok := f.repo.UpdateMessage(ctx, msg.ID, domain.MessagePatch{Feedback: &like})
	require.True(t, ok)

	stored := f.adapter.Load(ctx)
	require.Len(t, stored.Sessions, 1)
	require.Len(t, stored.Sessions[0].Messages, 1)
	got := stored.Sessions[0].Messages[0]

	require.NotNil(t, got.Feedback)
	assert.Equal(t, domain.FeedbackLike, *got.Feedback)
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, msg.Role, got.Role)
	assert.Equal(t, msg.Content, got.Content)
	assert.Equal(t, msg.Sources, got.Sources)
	assert.True(t, msg.CreatedAt.Equal(got.CreatedAt))
}

func TestDeleteSession_ActiveFallsOverToFirstRemaining(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a := f.repo.CreateSession(ctx)
	b := f.repo.CreateSession(ctx)
	c := f.repo.CreateSession(ctx) // list: c, b, a

	// activate the middle one, then delete it
	f.repo.SwitchSession(ctx, b.ID)
	require.True(t, f.repo.DeleteSession(ctx, b.ID))

	id, ok := f.repo.ActiveSessionID()
	require.True(t, ok)
	assert.Equal(t, c.ID, id)

	// deleting a non-active session leaves the active one alone
	require.True(t, f.repo.DeleteSession(ctx, a.ID))
	id, _ = f.repo.ActiveSessionID()
	assert.Equal(t, c.ID, id)

	require.True(t, f.repo.DeleteSession(ctx, c.ID))
	_, ok = f.repo.ActiveSessionID()
	assert.False(t, ok)
	assert.Nil(t, f.repo.State().ActiveSessionID)

	assert.False(t, f.repo.DeleteSession(ctx, "missing"))
}

func TestRenameSession_LeavesMessagesAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	target := f.repo.CreateSession(ctx)
	f.repo.AddMessage(ctx, domain.NewMessage{Role: domain.RoleUser, Content: "Is there a hostel?"})
	f.repo.CreateSession(ctx) // target is no longer active

	before, _ := f.repo.Session(target.ID)
	require.True(t, f.repo.RenameSession(ctx, target.ID, "Hostel questions"))
	after, _ := f.repo.Session(target.ID)

	assert.Equal(t, "Hostel questions", after.Title)
	assert.Equal(t, before.Messages, after.Messages)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))

	assert.False(t, f.repo.RenameSession(ctx, "missing", "x"))
}

func TestEnsureSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created := f.repo.EnsureSession(ctx)
	again := f.repo.EnsureSession(ctx)
	assert.Equal(t, created.ID, again.ID)
	assert.Len(t, f.repo.Sessions(), 1)
}

func TestDanglingActiveReference(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewStore()
	adapter := store.New(kv, stateKey, domain.EmptySessionState)

	gone := "deleted-elsewhere"
	adapter.Save(ctx, domain.SessionState{
		Sessions:        []domain.ChatSession{{ID: "kept", Title: "Kept"}},
		ActiveSessionID: &gone,
	})

	repo := NewRepository(ctx, adapter)
	_, ok := repo.ActiveSession()
	assert.False(t, ok)

	_, ok = repo.AddMessage(ctx, domain.NewMessage{Role: domain.RoleUser, Content: "hi"})
	assert.False(t, ok)
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.repo.CreateSession(ctx)

	// another writer replaces the record
	f.adapter.Save(ctx, domain.EmptySessionState())
	f.repo.Reload(ctx)

	assert.Empty(t, f.repo.Sessions())
}

func TestSnapshotsAreCopies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.repo.CreateSession(ctx)
	f.repo.AddMessage(ctx, domain.NewMessage{Role: domain.RoleUser, Content: "original"})

	snap, _ := f.repo.Session(s.ID)
	snap.Messages[0].Content = "mutated"
	snap.Title = "mutated"

	fresh, _ := f.repo.Session(s.ID)
	assert.Equal(t, "original", fresh.Messages[0].Content)
	assert.NotEqual(t, "mutated", fresh.Title)
}

// notifyingKV is a memory store whose external-change notifications are fired by the test
type notifyingKV struct {
	*memory.Store
	onChange chan func()
}

func (n *notifyingKV) Watch(ctx context.Context, key string, onChange func()) error {
	n.onChange <- onChange
	<-ctx.Done()
	return nil
}

func TestWatch_FollowsExternalWritesAndSkipsCorruptOnes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := &notifyingKV{Store: memory.NewStore(), onChange: make(chan func(), 1)}
	adapter := store.New(kv, stateKey, domain.EmptySessionState)
	repo := NewRepository(ctx, adapter)
	repo.CreateSession(ctx)
	repo.CreateSession(ctx)

	done := make(chan error, 1)
	go func() { done <- repo.Watch(ctx) }()

	var notify func()
	select {
	case notify = <-kv.onChange:
	case <-time.After(2 * time.Second):
		t.Fatal("watch never registered")
	}

	// half written record from another process
	require.NoError(t, kv.Set(ctx, stateKey, []byte(`{"sessions":[`)))
	notify()
	assert.Len(t, repo.Sessions(), 2, "a record that cannot be decoded must not replace live sessions")

	repo.CreateSession(ctx)
	assert.Len(t, adapter.Load(ctx).Sessions, 3)

	// a complete record from another process is adopted
	require.NoError(t, kv.Set(ctx, stateKey, []byte(`{"sessions":[{"id":"ext","title":"Fees","messages":[]}],"activeSessionId":"ext"}`)))
	notify()
	sessions := repo.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, "ext", sessions[0].ID)
	id, ok := repo.ActiveSessionID()
	require.True(t, ok)
	assert.Equal(t, "ext", id)

	cancel()
	assert.NoError(t, <-done)
}
