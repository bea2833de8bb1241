package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SymoHTL/CloudCord/internal/domain"
)

// ---- фейки ----

type fakeRepo struct {
	mu   sync.Mutex
	recs map[string][]domain.SegmentRecord

	appendErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{recs: map[string][]domain.SegmentRecord{}}
}

func (r *fakeRepo) Close()                            {}
func (r *fakeRepo) Ping(context.Context) error        { return nil }
func (r *fakeRepo) ListSegments(_ context.Context, fileID string) ([]domain.SegmentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	segs := append([]domain.SegmentRecord(nil), r.recs[fileID]...)
	if len(segs) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].StartByte < segs[j].StartByte })
	return segs, nil
}

func (r *fakeRepo) AppendSegments(_ context.Context, recs []domain.SegmentRecord) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range recs {
		r.recs[rec.FileID] = append(r.recs[rec.FileID], rec)
	}
	return nil
}

func (r *fakeRepo) DeleteFile(_ context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.recs, fileID)
	return nil
}

// fakeBackend хранит полезную нагрузку сегментов и отдаёт её через httptest
// CDN с поддержкой Range (http.ServeContent).
type fakeBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
	nextID  int
	cdn     *httptest.Server

	failAfter int // после скольких записей падать; 0 = не падать
	sent      int
	deleted   []string
	deleteErr error
}

func newFakeBackend(t *testing.T) *fakeBackend {
	b := &fakeBackend{objects: map[string][]byte{}}
	b.cdn = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/attachments/")
		b.mu.Lock()
		data, ok := b.objects[id]
		b.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, "seg.bin", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(b.cdn.Close)
	return b
}

func (b *fakeBackend) Ping(context.Context) error { return nil }

func (b *fakeBackend) SendSegment(_ context.Context, _ string, r io.Reader) (domain.StoredSegment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.StoredSegment{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent++
	if b.failAfter > 0 && b.sent > b.failAfter {
		return domain.StoredSegment{}, errors.New("discord said no")
	}
	b.nextID++
	id := strconv.Itoa(b.nextID)
	b.objects[id] = data
	return domain.StoredSegment{MessageID: id, Size: int64(len(data))}, nil
}

func (b *fakeBackend) Resolve(_ context.Context, messageID string) (domain.AttachmentMeta, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[messageID]; !ok {
		return domain.AttachmentMeta{}, fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}
	return domain.AttachmentMeta{
		MessageID: messageID,
		FileName:  "seg.bin",
		URL:       b.cdn.URL + "/attachments/" + messageID,
	}, nil
}

func (b *fakeBackend) DeleteSegments(_ context.Context, ids []string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		delete(b.objects, id)
		b.deleted = append(b.deleted, id)
	}
	return nil
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) ([]byte, error)    { return nil, nil }
func (nopCache) Set(context.Context, string, []byte, int) error { return nil }
func (nopCache) Del(context.Context, ...string) error           { return nil }
func (nopCache) Ping(context.Context) error                     { return nil }
func (nopCache) Close()                                         {}

func newTestStore(t *testing.T, maxSegment int64) (*Store, *fakeRepo, *fakeBackend) {
	repo := newFakeRepo()
	backend := newFakeBackend(t)
	logger := log.New(io.Discard, "", 0)
	return New(logger, repo, backend, nopCache{}, maxSegment), repo, backend
}

// ---- upload ----

func TestUpload_SplitsIntoContiguousSegments(t *testing.T) {
	const maxSeg = 1024
	s, _, _ := newTestStore(t, maxSeg)

	// ровно 4 полных сегмента, без хвоста
	content := bytes.Repeat([]byte{'a'}, 4*maxSeg)
	fileID, segs, err := s.Upload(context.Background(), "", 0, bytes.NewReader(content), "a.bin")
	require.NoError(t, err)
	require.Len(t, segs, 4)
	assert.Len(t, fileID, domain.FileIDLength)

	wantBounds := [][2]int64{{0, 1023}, {1024, 2047}, {2048, 3071}, {3072, 4095}}
	var total int64
	for i, seg := range segs {
		assert.Equal(t, wantBounds[i][0], seg.StartByte, "segment %d start", i)
		assert.Equal(t, wantBounds[i][1], seg.EndByte, "segment %d end", i)
		assert.Equal(t, int64(maxSeg), seg.Size, "segment %d size", i)
		total += seg.Size
	}
	// сумма размеров == покрытый диапазон
	assert.Equal(t, segs[len(segs)-1].EndByte-segs[0].StartByte+1, total)
}

func TestUpload_ContiguityInvariant(t *testing.T) {
	const maxSeg = 100
	s, _, _ := newTestStore(t, maxSeg)

	for _, size := range []int{1, 99, 100, 101, 250, 1000} {
		t.Run(strconv.Itoa(size), func(t *testing.T) {
			content := make([]byte, size)
			for i := range content {
				content[i] = byte(i)
			}
			_, segs, err := s.Upload(context.Background(), "", 0, bytes.NewReader(content), "f")
			require.NoError(t, err)

			assert.EqualValues(t, 0, segs[0].StartByte)
			for i := 1; i < len(segs); i++ {
				assert.Equal(t, segs[i-1].EndByte+1, segs[i].StartByte,
					"нет дыр и пересечений между %d и %d", i-1, i)
			}
			assert.EqualValues(t, size, domain.TotalSize(segs))
		})
	}
}

func TestUpload_EmptyStreamRejected(t *testing.T) {
	s, repo, _ := newTestStore(t, 1024)

	_, _, err := s.Upload(context.Background(), "", 0, bytes.NewReader(nil), "empty")
	require.ErrorIs(t, err, domain.ErrNothingUploaded)
	assert.Empty(t, repo.recs)
}

func TestUpload_BackendFailureAbortsAndOrphans(t *testing.T) {
	s, repo, backend := newTestStore(t, 10)
	backend.failAfter = 2

	content := bytes.Repeat([]byte{'x'}, 45) // 5 кусков, падение на третьем
	_, _, err := s.Upload(context.Background(), "", 0, bytes.NewReader(content), "f")
	require.ErrorIs(t, err, domain.ErrUploadFailed)

	// индекс пуст, но два сегмента остались в бекенде сиротами
	assert.Empty(t, repo.recs)
	assert.Len(t, backend.objects, 2)
}

func TestUpload_IndexFailurePropagates(t *testing.T) {
	s, repo, backend := newTestStore(t, 10)
	repo.appendErr = errors.New("db down")

	_, _, err := s.Upload(context.Background(), "", 0, strings.NewReader("0123456789abc"), "f")
	require.Error(t, err)
	// сегменты уже в бекенде, но строк индекса нет — те же сироты
	assert.Len(t, backend.objects, 2)
}

func TestUpload_ChunkedAppendTrustsCallerOffset(t *testing.T) {
	s, _, _ := newTestStore(t, 10)

	fileID, first, err := s.Upload(context.Background(), "", 0, strings.NewReader("0123456789"), "f")
	require.NoError(t, err)
	require.EqualValues(t, 9, first[len(first)-1].EndByte)

	// клиент продолжает с endByte+1
	_, second, err := s.Upload(context.Background(), fileID, 10, strings.NewReader("abcde"), "f")
	require.NoError(t, err)
	assert.EqualValues(t, 10, second[0].StartByte)
	assert.EqualValues(t, 14, second[0].EndByte)

	segs, err := s.Layout(context.Background(), fileID)
	require.NoError(t, err)
	assert.EqualValues(t, 15, domain.TotalSize(segs))
}

// ---- download ----

func uploadContent(t *testing.T, s *Store, content []byte) (string, []domain.SegmentRecord) {
	t.Helper()
	fileID, segs, err := s.Upload(context.Background(), "", 0, bytes.NewReader(content), "f")
	require.NoError(t, err)
	return fileID, segs
}

func TestDownload_FullRoundTrip(t *testing.T) {
	const maxSeg = 64
	s, _, _ := newTestStore(t, maxSeg)

	for _, size := range []int{1, maxSeg - 1, maxSeg, maxSeg + 1, 5 * maxSeg} {
		t.Run(strconv.Itoa(size), func(t *testing.T) {
			content := make([]byte, size)
			for i := range content {
				content[i] = byte(i * 7)
			}
			fileID, _ := uploadContent(t, s, content)

			segs, err := s.Layout(context.Background(), fileID)
			require.NoError(t, err)

			var out bytes.Buffer
			require.NoError(t, s.StreamAll(context.Background(), segs, &out))
			assert.Equal(t, content, out.Bytes())
		})
	}
}

func TestDownload_RangeCorrectness(t *testing.T) {
	const maxSeg = 50
	s, _, _ := newTestStore(t, maxSeg)

	content := make([]byte, 220)
	for i := range content {
		content[i] = byte(i)
	}
	fileID, _ := uploadContent(t, s, content)
	segs, err := s.Layout(context.Background(), fileID)
	require.NoError(t, err)

	cases := []struct{ start, end int64 }{
		{0, 0},
		{0, 219},
		{10, 40},    // внутри первого сегмента
		{45, 55},    // через границу сегментов
		{49, 150},   // несколько сегментов
		{200, 219},  // хвост
		{219, 219},  // последний байт
		{100, 9999}, // end прижимается
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d-%d", tc.start, tc.end), func(t *testing.T) {
			rng, sel, err := ResolveRange(segs, ByteRange{Start: tc.start, End: tc.end})
			require.NoError(t, err)

			var out bytes.Buffer
			require.NoError(t, s.StreamRange(context.Background(), sel, rng, &out))

			wantEnd := min(tc.end, int64(len(content)-1))
			assert.Equal(t, content[tc.start:wantEnd+1], out.Bytes())
		})
	}
}

func TestDownload_CrossSegmentBoundaryNoGapNoDup(t *testing.T) {
	const maxSeg = 1000
	s, _, _ := newTestStore(t, maxSeg)

	content := make([]byte, 2500)
	for i := range content {
		content[i] = byte(i % 251)
	}
	fileID, _ := uploadContent(t, s, content)
	segs, err := s.Layout(context.Background(), fileID)
	require.NoError(t, err)

	// диапазон обнимает границу первого и второго сегмента
	rng, sel, err := ResolveRange(segs, ByteRange{Start: 990, End: 1010})
	require.NoError(t, err)
	require.Len(t, sel, 2)

	var out bytes.Buffer
	require.NoError(t, s.StreamRange(context.Background(), sel, rng, &out))
	assert.Equal(t, content[990:1011], out.Bytes())
	assert.Equal(t, 21, out.Len())
}

func TestDownload_RangeNotSatisfiable(t *testing.T) {
	s, _, _ := newTestStore(t, 100)
	content := bytes.Repeat([]byte{'z'}, 150)
	fileID, _ := uploadContent(t, s, content)
	segs, err := s.Layout(context.Background(), fileID)
	require.NoError(t, err)

	_, _, err = ResolveRange(segs, ByteRange{Start: 150, End: 200})
	assert.ErrorIs(t, err, domain.ErrRangeNotSatisfiable)

	_, _, err = ResolveRange(segs, ByteRange{Start: 9000, End: 9001})
	assert.ErrorIs(t, err, domain.ErrRangeNotSatisfiable)
}

func TestLayout_UnknownFile(t *testing.T) {
	s, _, _ := newTestStore(t, 100)
	_, err := s.Layout(context.Background(), strings.Repeat("q", 64))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- delete ----

func TestDelete_RemovesBackendObjectsAndIndex(t *testing.T) {
	s, repo, backend := newTestStore(t, 10)
	fileID, segs := uploadContent(t, s, bytes.Repeat([]byte{'d'}, 35))
	require.Len(t, segs, 4)

	require.NoError(t, s.Delete(context.Background(), fileID))
	assert.Empty(t, repo.recs)
	assert.Len(t, backend.deleted, 4)
}

func TestDelete_UnknownFileIsNoop(t *testing.T) {
	s, _, _ := newTestStore(t, 10)
	// посторонний файл не должен пострадать
	otherID, _ := uploadContent(t, s, []byte("keep me"))

	require.NoError(t, s.Delete(context.Background(), strings.Repeat("n", 64)))

	segs, err := s.Layout(context.Background(), otherID)
	require.NoError(t, err)
	assert.NotEmpty(t, segs)
}

func TestDelete_BackendFailureStillCleansIndex(t *testing.T) {
	s, repo, backend := newTestStore(t, 10)
	fileID, _ := uploadContent(t, s, bytes.Repeat([]byte{'d'}, 25))
	backend.deleteErr = errors.New("channel gone")

	require.NoError(t, s.Delete(context.Background(), fileID))
	assert.Empty(t, repo.recs, "строки индекса чистятся несмотря на ошибку бекенда")
}
