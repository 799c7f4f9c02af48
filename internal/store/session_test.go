package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKV is an in-memory KV with injectable failures, standing in for a
// durable backend.
type fakeKV struct {
	data map[string]string
	fail bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.fail {
		return "", false, errors.New("backend unreachable")
	}
	val, ok := f.data[key]
	return val, ok, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if f.fail {
		return errors.New("backend unreachable")
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Del(ctx context.Context, key string) error {
	if f.fail {
		return errors.New("backend unreachable")
	}
	delete(f.data, key)
	return nil
}

func (f *fakeKV) Name() string { return "fake" }
func (f *fakeKV) Close() error { return nil }

func TestNewConversationStartsWithPreamble(t *testing.T) {
	conv := NewConversation()
	require.Len(t, conv, 1)
	assert.Equal(t, RoleSystem, conv[0].Role)
	assert.NotEmpty(t, conv[0].Text())
}

func TestGetUnknownIDReturnsAbsent(t *testing.T) {
	s := NewSessionStore(nil)
	_, ok := s.Get(context.Background(), "never-seen")
	assert.False(t, ok)
}

func TestSaveInMemoryOnly(t *testing.T) {
	s := NewSessionStore(nil)
	conv := NewConversation().Append(RoleUser, "hello")

	durable := s.Save(context.Background(), "c1", conv)
	assert.False(t, durable, "save without a durable backend reports false")

	got, ok := s.Get(context.Background(), "c1")
	require.True(t, ok)
	assert.Equal(t, conv, got)
	assert.Equal(t, "memory", s.Backend())
}

func TestSaveWritesDurableBackend(t *testing.T) {
	kv := newFakeKV()
	s := NewSessionStore(kv)
	conv := NewConversation().Append(RoleUser, "hello")

	durable := s.Save(context.Background(), "c1", conv)
	assert.True(t, durable)
	assert.Contains(t, kv.data, "conv:c1")

	got, ok := s.Get(context.Background(), "c1")
	require.True(t, ok)
	assert.Equal(t, conv, got, "durable round-trip preserves every turn")
}

func TestDurableFailureFallsBackToMemory(t *testing.T) {
	kv := newFakeKV()
	s := NewSessionStore(kv)
	conv := NewConversation().Append(RoleUser, "hello")

	kv.fail = true
	durable := s.Save(context.Background(), "c1", conv)
	assert.False(t, durable, "failed durable write reports false")

	got, ok := s.Get(context.Background(), "c1")
	require.True(t, ok, "in-memory map still serves the conversation")
	assert.Equal(t, conv, got)
}

func TestGetPrefersDurableBackend(t *testing.T) {
	kv := newFakeKV()
	s := NewSessionStore(kv)

	// Simulate a conversation written by another process.
	kv.data["conv:c1"] = `[{"role":"system","content":[{"type":"text","text":"preamble"}]}]`

	got, ok := s.Get(context.Background(), "c1")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "preamble", got[0].Text())
}

func TestGetSkipsCorruptDurableEntry(t *testing.T) {
	kv := newFakeKV()
	s := NewSessionStore(kv)
	kv.data["conv:c1"] = "not json"

	_, ok := s.Get(context.Background(), "c1")
	assert.False(t, ok)
}

func TestDeleteRemovesBothBackends(t *testing.T) {
	kv := newFakeKV()
	s := NewSessionStore(kv)
	conv := NewConversation()
	s.Save(context.Background(), "c1", conv)

	deleted := s.Delete(context.Background(), "c1")
	assert.True(t, deleted)
	assert.NotContains(t, kv.data, "conv:c1")

	_, ok := s.Get(context.Background(), "c1")
	assert.False(t, ok)
}

func TestDeleteReportsDurableFailure(t *testing.T) {
	kv := newFakeKV()
	s := NewSessionStore(kv)
	s.Save(context.Background(), "c1", NewConversation())

	kv.fail = true
	deleted := s.Delete(context.Background(), "c1")
	assert.False(t, deleted)

	kv.fail = false
	_, ok := s.Get(context.Background(), "c1")
	require.True(t, ok, "durable copy survives, memory copy is gone but durable wins on read")
}

func TestDeleteUnknownIDIsNoOp(t *testing.T) {
	s := NewSessionStore(nil)
	assert.False(t, s.Delete(context.Background(), "never-seen"))
}

func TestGetReturnsIndependentCopy(t *testing.T) {
	s := NewSessionStore(nil)
	ctx := context.Background()

	// Repeated appends leave the slice with spare capacity (len 3, cap 4),
	// so further appends write in place unless Get copies.
	conv := NewConversation().Append(RoleUser, "hello").Append(RoleAssistant, "hi")
	s.Save(ctx, "c1", conv)

	first, ok := s.Get(ctx, "c1")
	require.True(t, ok)
	second, ok := s.Get(ctx, "c1")
	require.True(t, ok)

	first = first.Append(RoleUser, "from first")
	second = second.Append(RoleUser, "from second")

	assert.Equal(t, "from first", first[len(first)-1].Text())
	assert.Equal(t, "from second", second[len(second)-1].Text())

	stored, _ := s.Get(ctx, "c1")
	assert.Len(t, stored, 3, "appends to handed-out conversations must not touch the stored one")
}

func TestConcurrentGetAndAppendDoNotShareBackingArray(t *testing.T) {
	s := NewSessionStore(nil)
	ctx := context.Background()
	s.Save(ctx, "c1", NewConversation().Append(RoleUser, "hello").Append(RoleAssistant, "hi"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv, ok := s.Get(ctx, "c1")
			if !ok {
				t.Error("conversation went missing")
				return
			}
			conv = conv.Append(RoleUser, "concurrent")
			conv = conv.Append(RoleAssistant, "reply")
			s.Save(ctx, "c1", conv)
		}()
	}
	wg.Wait()

	stored, ok := s.Get(ctx, "c1")
	require.True(t, ok)
	assert.Len(t, stored, 5, "last save wins; partial interleavings must not corrupt turns")
	for _, turn := range stored {
		assert.NotEmpty(t, turn.Text())
	}
}

func TestBackendLabel(t *testing.T) {
	assert.Equal(t, "memory", NewSessionStore(nil).Backend())
	assert.Equal(t, "fake", NewSessionStore(newFakeKV()).Backend())
}
