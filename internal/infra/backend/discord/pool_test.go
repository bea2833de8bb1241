package discord

import (
	"context"
	"errors"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SymoHTL/CloudCord/internal/domain"
)

type fakeSession struct {
	token string

	mu       sync.Mutex
	sent     int
	resolved int
	deleted  [][]string

	openErr   error
	openDelay time.Duration
	deleteErr error
	closed    bool
}

func (s *fakeSession) Open(ctx context.Context) error {
	if s.openDelay > 0 {
		select {
		case <-time.After(s.openDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.openErr
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) SendFile(_ context.Context, _, _ string, r io.Reader) (domain.StoredSegment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.StoredSegment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent++
	return domain.StoredSegment{MessageID: "msg-" + s.token, Size: int64(len(data))}, nil
}

func (s *fakeSession) Message(_ context.Context, _, messageID string) (domain.AttachmentMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved++
	return domain.AttachmentMeta{MessageID: messageID, FileName: "f.bin", URL: "https://cdn/" + messageID}, nil
}

func (s *fakeSession) DeleteMessages(_ context.Context, _ string, messageIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, append([]string(nil), messageIDs...))
	return s.deleteErr
}

func (s *fakeSession) Channel(context.Context, string) error { return nil }

func newTestPool(t *testing.T, cfg Config, sessions map[string]*fakeSession) *Pool {
	t.Helper()
	p := New(cfg, log.New(io.Discard, "", 0))
	p.newSession = func(token string) (Session, error) {
		s, ok := sessions[token]
		if !ok {
			return nil, errors.New("unknown token " + token)
		}
		return s, nil
	}
	return p
}

func TestInit_LogsInAllTokens(t *testing.T) {
	sessions := map[string]*fakeSession{
		"t1": {token: "t1"},
		"t2": {token: "t2"},
		"t3": {token: "t3"},
	}
	p := newTestPool(t, Config{Tokens: []string{"t1", "t2", "t3"}, ChannelID: "ch"}, sessions)

	require.NoError(t, p.Init(context.Background()))
	assert.Len(t, p.sessions, 3)
}

func TestInit_NoTokens(t *testing.T) {
	p := newTestPool(t, Config{ChannelID: "ch"}, nil)
	err := p.Init(context.Background())
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}

func TestInit_OneLoginFailureClosesTheRest(t *testing.T) {
	sessions := map[string]*fakeSession{
		"good": {token: "good"},
		"bad":  {token: "bad", openErr: errors.New("invalid token")},
	}
	p := newTestPool(t, Config{Tokens: []string{"good", "bad"}, ChannelID: "ch"}, sessions)

	err := p.Init(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
	assert.True(t, sessions["good"].closed, "успешная сессия закрывается при откате")
}

func TestInit_StartupDeadline(t *testing.T) {
	sessions := map[string]*fakeSession{
		"slow": {token: "slow", openDelay: time.Second},
	}
	p := newTestPool(t, Config{
		Tokens:         []string{"slow"},
		ChannelID:      "ch",
		StartupTimeout: 20 * time.Millisecond,
	}, sessions)

	err := p.Init(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendSegment_UsesPooledSessions(t *testing.T) {
	sessions := map[string]*fakeSession{
		"t1": {token: "t1"},
		"t2": {token: "t2"},
	}
	p := newTestPool(t, Config{Tokens: []string{"t1", "t2"}, ChannelID: "ch"}, sessions)
	require.NoError(t, p.Init(context.Background()))

	for i := 0; i < 50; i++ {
		seg, err := p.SendSegment(context.Background(), "f.bin", strings.NewReader("payload"))
		require.NoError(t, err)
		assert.EqualValues(t, 7, seg.Size)
	}
	// выбор случайный — за 50 вызовов обе сессии почти наверняка поработали
	assert.Equal(t, 50, sessions["t1"].sent+sessions["t2"].sent)
}

func TestSendSegment_BeforeInit(t *testing.T) {
	p := newTestPool(t, Config{Tokens: []string{"t1"}, ChannelID: "ch"}, nil)
	_, err := p.SendSegment(context.Background(), "f", strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}

func TestResolve_CachesMetadata(t *testing.T) {
	sess := &fakeSession{token: "t1"}
	p := newTestPool(t, Config{Tokens: []string{"t1"}, ChannelID: "ch"}, map[string]*fakeSession{"t1": sess})
	require.NoError(t, p.Init(context.Background()))

	for i := 0; i < 5; i++ {
		meta, err := p.Resolve(context.Background(), "123")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/123", meta.URL)
	}
	assert.Equal(t, 1, sess.resolved, "повторные вызовы идут из кеша")
}

func TestDeleteSegments_Batches(t *testing.T) {
	sess := &fakeSession{token: "t1"}
	p := newTestPool(t, Config{Tokens: []string{"t1"}, ChannelID: "ch"}, map[string]*fakeSession{"t1": sess})
	require.NoError(t, p.Init(context.Background()))

	ids := make([]string, 250)
	for i := range ids {
		ids[i] = "m" + strconv.Itoa(i)
	}
	require.NoError(t, p.DeleteSegments(context.Background(), ids))

	require.Len(t, sess.deleted, 3)
	assert.Len(t, sess.deleted[0], 100)
	assert.Len(t, sess.deleted[1], 100)
	assert.Len(t, sess.deleted[2], 50)
}

func TestDeleteSegments_BestEffort(t *testing.T) {
	sess := &fakeSession{token: "t1", deleteErr: errors.New("missing permissions")}
	p := newTestPool(t, Config{Tokens: []string{"t1"}, ChannelID: "ch"}, map[string]*fakeSession{"t1": sess})
	require.NoError(t, p.Init(context.Background()))

	// ошибка бекенда не всплывает наружу
	assert.NoError(t, p.DeleteSegments(context.Background(), []string{"a", "b", "c"}))
}

func TestDeleteSegments_EvictsMetadataCache(t *testing.T) {
	sess := &fakeSession{token: "t1"}
	p := newTestPool(t, Config{Tokens: []string{"t1"}, ChannelID: "ch"}, map[string]*fakeSession{"t1": sess})
	require.NoError(t, p.Init(context.Background()))

	_, err := p.Resolve(context.Background(), "42")
	require.NoError(t, err)
	require.NoError(t, p.DeleteSegments(context.Background(), []string{"42"}))

	_, err = p.Resolve(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 2, sess.resolved, "после удаления метаданные резолвятся заново")
}
