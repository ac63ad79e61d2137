package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebelanger/pastecove/internal/common"
	"github.com/ebelanger/pastecove/internal/dbx"
	"github.com/ebelanger/pastecove/internal/logging"
	"github.com/ebelanger/pastecove/internal/server/limits"
	"github.com/ebelanger/pastecove/internal/server/models"
	"github.com/ebelanger/pastecove/internal/server/repositories/documents"
	"github.com/ebelanger/pastecove/internal/server/repositories/pastes"
	"github.com/ebelanger/pastecove/internal/server/repositories/tokens"
	"github.com/ebelanger/pastecove/internal/snowflake"
)

// -------- test fakes --------

type fakePastesRepo struct {
	pastes.Repository

	paste     *models.Paste
	insertErr error
	inserted  *models.Paste

	updateEditedErr error
	updatedName     *string

	// conflicts makes the next N UpdateEdited calls fail the check-and-set;
	// onConflict runs on each, simulating the racing winner's commit.
	conflicts  int
	onConflict func()

	expired []*models.Paste

	deleted   bool
	deleteErr error
}

func (f *fakePastesRepo) Insert(ctx context.Context, p *models.Paste) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = p
	f.paste = p
	return nil
}

func (f *fakePastesRepo) Get(ctx context.Context, id int64) (*models.Paste, error) {
	if f.paste == nil || f.paste.ID != id {
		return nil, common.ErrNotFound
	}
	p := *f.paste
	return &p, nil
}

func (f *fakePastesRepo) AddView(ctx context.Context, id int64) (int64, error) {
	if f.paste == nil || f.paste.ID != id {
		return 0, common.ErrNotFound
	}
	f.paste.Views++
	return f.paste.Views, nil
}

func (f *fakePastesRepo) UpdateEdited(ctx context.Context, id int64, prev *time.Time, next time.Time) error {
	if f.updateEditedErr != nil {
		return f.updateEditedErr
	}
	if f.conflicts > 0 {
		f.conflicts--
		if f.onConflict != nil {
			f.onConflict()
		}
		return common.ErrEditConflict
	}
	f.paste.Edited = &next
	return nil
}

func (f *fakePastesRepo) UpdateName(ctx context.Context, id int64, name *string) error {
	f.updatedName = name
	return nil
}

func (f *fakePastesRepo) SelectExpired(ctx context.Context, now time.Time) ([]*models.Paste, error) {
	return f.expired, nil
}

func (f *fakePastesRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	if f.deleted || f.paste == nil || f.paste.ID != id {
		return false, nil
	}
	f.deleted = true
	return true, nil
}

type fakeDocumentsRepo struct {
	documents.Repository

	docs      []*models.Document
	insertErr error
	removed   []int64
	updated   []*models.Document
}

func (f *fakeDocumentsRepo) Insert(ctx context.Context, d *models.Document) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.docs = append(f.docs, d)
	return nil
}

func (f *fakeDocumentsRepo) Update(ctx context.Context, d *models.Document) error {
	f.updated = append(f.updated, d)
	return nil
}

func (f *fakeDocumentsRepo) Get(ctx context.Context, pasteID, id int64) (*models.Document, error) {
	for _, d := range f.docs {
		if d.PasteID == pasteID && d.ID == id {
			return d, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeDocumentsRepo) ListByPaste(ctx context.Context, pasteID int64) ([]*models.Document, error) {
	var out []*models.Document
	for _, d := range f.docs {
		if d.PasteID == pasteID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocumentsRepo) Delete(ctx context.Context, id int64) error {
	f.removed = append(f.removed, id)
	return nil
}

type fakeTokensRepo struct {
	tokens.Repository

	token    *models.PasteToken
	inserted *models.PasteToken
}

func (f *fakeTokensRepo) Insert(ctx context.Context, t *models.PasteToken) error {
	f.inserted = t
	f.token = t
	return nil
}

func (f *fakeTokensRepo) GetByPaste(ctx context.Context, pasteID int64) (*models.PasteToken, error) {
	if f.token == nil || f.token.PasteID != pasteID {
		return nil, common.ErrNotFound
	}
	return f.token, nil
}

type fakeRepoManager struct {
	p *fakePastesRepo
	d *fakeDocumentsRepo
	t *fakeTokensRepo
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *fakeRepoManager) Pastes(db dbx.DBTX) pastes.Repository                { return m.p }
func (m *fakeRepoManager) Documents(db dbx.DBTX) documents.Repository          { return m.d }
func (m *fakeRepoManager) Tokens(db dbx.DBTX) tokens.Repository                { return m.t }

type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}}
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, body []byte, contentType string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = body
	return int64(len(body)), nil
}

func (f *fakeBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return body, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

// -------- helpers --------

func testPolicy() *limits.Policy {
	return limits.New(limits.Bounds{
		MinDocumentCount: 1,
		MaxDocumentCount: 10,
		MinDocumentSize:  1,
		MaxDocumentSize:  5_000_000,
		MinTotalSize:     1,
		MaxTotalSize:     10_000_000,
		MinNameLength:    3,
		MaxNameLength:    50,
		MaxExpiryHours:   24 * 365,
		UnsupportedTypes: []string{"image/*", "application/pdf"},
	})
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func newTestService(t *testing.T, db *sql.DB, repos *fakeRepoManager, blobs *fakeBlobStore) *PasteService {
	t.Helper()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := NewPasteService(db, repos, blobs, snowflake.New(nil), testPolicy(), log, nil)
	return svc
}

func newDocs(names ...string) []NewDocument {
	out := make([]NewDocument, len(names))
	for i, n := range names {
		out[i] = NewDocument{Name: n, Content: []byte("content of " + n)}
	}
	return out
}

// -------- tests --------

func TestCreate_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repos := &fakeRepoManager{p: &fakePastesRepo{}, d: &fakeDocumentsRepo{}, t: &fakeTokensRepo{}}
	blobs := newFakeBlobStore()
	svc := newTestService(t, db, repos, blobs)

	view, token, err := svc.Create(context.Background(), CreateRequest{Documents: newDocs("main.go", "notes.txt")})
	require.NoError(t, err)

	assert.NotZero(t, view.Paste.ID)
	assert.Len(t, view.Documents, 2)
	assert.Equal(t, DefaultContentType, view.Documents[0].Type)
	assert.Contains(t, token, ".")

	// Blob per document, keyed paste_id/document_id.
	assert.Len(t, blobs.objects, 2)
	for _, d := range view.Documents {
		assert.Contains(t, blobs.objects, d.StorageKey())
	}

	require.NotNil(t, repos.p.inserted)
	require.NotNil(t, repos.t.inserted)
	assert.Equal(t, view.Paste.ID, repos.t.inserted.PasteID)
	assert.Equal(t, token, repos.t.inserted.Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_ValidationRejectsBeforeAnyWrite(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	repos := &fakeRepoManager{p: &fakePastesRepo{}, d: &fakeDocumentsRepo{}, t: &fakeTokensRepo{}}
	blobs := newFakeBlobStore()
	svc := newTestService(t, db, repos, blobs)

	_, _, err := svc.Create(context.Background(), CreateRequest{
		Documents: []NewDocument{{Name: "ab", Content: []byte("x")}},
	})

	var v *limits.Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, limits.NameTooShort, v.Kind)
	assert.Empty(t, blobs.objects)
	assert.Nil(t, repos.p.inserted)
}

func TestCreate_BlobFailureCompensates(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	repos := &fakeRepoManager{p: &fakePastesRepo{}, d: &fakeDocumentsRepo{}, t: &fakeTokensRepo{}}
	blobs := newFakeBlobStore()
	svc := newTestService(t, db, repos, blobs)

	// Failing the second write leaves the first blob written; the call must
	// compensate it before returning.
	svc.blobs = &failSecondPut{inner: blobs}

	_, _, err := svc.Create(context.Background(), CreateRequest{Documents: newDocs("aaa.txt", "bbb.txt")})
	require.ErrorIs(t, err, common.ErrStoreUnavailable)

	assert.Empty(t, blobs.objects)
	assert.Nil(t, repos.p.inserted)
}

type failSecondPut struct {
	inner *fakeBlobStore
	mu    sync.Mutex
	puts  int
}

func (f *failSecondPut) Put(ctx context.Context, key string, body []byte, contentType string) (int64, error) {
	f.mu.Lock()
	f.puts++
	fail := f.puts == 2
	f.mu.Unlock()
	if fail {
		return 0, common.ErrStoreUnavailable
	}
	return f.inner.Put(ctx, key, body, contentType)
}
func (f *failSecondPut) Get(ctx context.Context, key string) ([]byte, error) {
	return f.inner.Get(ctx, key)
}
func (f *failSecondPut) Delete(ctx context.Context, key string) error {
	return f.inner.Delete(ctx, key)
}

func TestCreate_MetadataFailureCompensatesBlobs(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	repos := &fakeRepoManager{
		p: &fakePastesRepo{insertErr: errors.New("insert failed")},
		d: &fakeDocumentsRepo{},
		t: &fakeTokensRepo{},
	}
	blobs := newFakeBlobStore()
	svc := newTestService(t, db, repos, blobs)

	_, _, err := svc.Create(context.Background(), CreateRequest{Documents: newDocs("main.go")})
	require.Error(t, err)

	assert.Empty(t, blobs.objects)
	assert.Len(t, blobs.deleted, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_CountsView(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	p := &models.Paste{ID: 42, Creation: time.Now().UTC()}
	repos := &fakeRepoManager{
		p: &fakePastesRepo{paste: p},
		d: &fakeDocumentsRepo{docs: []*models.Document{{ID: 1, PasteID: 42, Name: "a.txt", Type: "text/plain"}}},
		t: &fakeTokensRepo{},
	}
	svc := newTestService(t, db, repos, newFakeBlobStore())

	view, err := svc.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.Paste.Views)
	assert.Len(t, view.Documents, 1)

	view, err = svc.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(2), view.Paste.Views)
}

func TestGet_ExpiredReadsAsAbsent(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	past := time.Now().UTC().Add(-time.Hour)
	repos := &fakeRepoManager{
		p: &fakePastesRepo{paste: &models.Paste{ID: 42, Expiry: &past}},
		d: &fakeDocumentsRepo{},
		t: &fakeTokensRepo{},
	}
	svc := newTestService(t, db, repos, newFakeBlobStore())

	_, err := svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Zero(t, repos.p.paste.Views, "an absent read must not count a view")
}

func TestGet_ServesAtViewCapUntilSwept(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	maxViews := int64(2)
	repos := &fakeRepoManager{
		p: &fakePastesRepo{paste: &models.Paste{ID: 42, Views: 2, MaxViews: &maxViews}},
		d: &fakeDocumentsRepo{},
		t: &fakeTokensRepo{},
	}
	svc := newTestService(t, db, repos, newFakeBlobStore())

	// The counter may pass the cap between sweeps; deletion is the
	// sweeper's job, not the fetch path's.
	view, err := svc.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(3), view.Paste.Views)
}

func TestGetDocument_RowDecidesExistence(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	doc := &models.Document{ID: 7, PasteID: 42, Name: "a.txt", Type: "text/plain", Size: 5}
	repos := &fakeRepoManager{
		p: &fakePastesRepo{},
		d: &fakeDocumentsRepo{docs: []*models.Document{doc}},
		t: &fakeTokensRepo{},
	}
	blobs := newFakeBlobStore()
	blobs.objects[doc.StorageKey()] = []byte("hello")
	svc := newTestService(t, db, repos, blobs)

	content, got, err := svc.GetDocument(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), content)
	assert.Equal(t, doc.Name, got.Name)

	// An orphan blob without a row is unreachable.
	blobs.objects["42/8"] = []byte("orphan")
	_, _, err = svc.GetDocument(context.Background(), 42, 8)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPatch_RejectsBadToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	repos := &fakeRepoManager{
		p: &fakePastesRepo{paste: &models.Paste{ID: 42}},
		d: &fakeDocumentsRepo{},
		t: &fakeTokensRepo{token: &models.PasteToken{PasteID: 42, Token: "right"}},
	}
	blobs := newFakeBlobStore()
	svc := newTestService(t, db, repos, blobs)

	_, err := svc.Patch(context.Background(), 42, "wrong", PatchRequest{Add: newDocs("new.txt")})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Empty(t, blobs.objects)
}

func TestPatch_AddsAndRemovesDocuments(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	old := &models.Document{ID: 1, PasteID: 42, Name: "old.txt", Type: "text/plain", Size: 10}
	repos := &fakeRepoManager{
		p: &fakePastesRepo{paste: &models.Paste{ID: 42, Creation: time.Now().UTC()}},
		d: &fakeDocumentsRepo{docs: []*models.Document{old}},
		t: &fakeTokensRepo{token: &models.PasteToken{PasteID: 42, Token: "tok"}},
	}
	blobs := newFakeBlobStore()
	svc := newTestService(t, db, repos, blobs)

	name := "renamed"
	view, err := svc.Patch(context.Background(), 42, "tok", PatchRequest{
		Name:   &name,
		Add:    newDocs("new.txt"),
		Remove: []int64{1},
	})
	require.NoError(t, err)

	require.Len(t, view.Documents, 1)
	assert.Equal(t, "new.txt", view.Documents[0].Name)
	assert.NotNil(t, view.Paste.Edited)
	assert.Equal(t, []int64{1}, repos.d.removed)
	require.NotNil(t, repos.p.updatedName)
	assert.Equal(t, "renamed", *repos.p.updatedName)
	assert.Len(t, blobs.objects, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatch_DeletesRemovedDocumentBlobs(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	keep := &models.Document{ID: 2, PasteID: 42, Name: "keep.txt", Type: "text/plain", Size: 4}
	gone := &models.Document{ID: 1, PasteID: 42, Name: "gone.txt", Type: "text/plain", Size: 4}
	repos := &fakeRepoManager{
		p: &fakePastesRepo{paste: &models.Paste{ID: 42}},
		d: &fakeDocumentsRepo{docs: []*models.Document{gone, keep}},
		t: &fakeTokensRepo{token: &models.PasteToken{PasteID: 42, Token: "tok"}},
	}
	blobs := newFakeBlobStore()
	blobs.objects[gone.StorageKey()] = []byte("gone")
	blobs.objects[keep.StorageKey()] = []byte("keep")
	svc := newTestService(t, db, repos, blobs)

	_, err := svc.Patch(context.Background(), 42, "tok", PatchRequest{Remove: []int64{1}})
	require.NoError(t, err)

	assert.NotContains(t, blobs.objects, gone.StorageKey(), "removed document's content must not outlive its row")
	assert.Contains(t, blobs.deleted, gone.StorageKey())
	assert.Contains(t, blobs.objects, keep.StorageKey())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatch_ConflictRevalidatesResultingSet(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	old := &models.Document{ID: 1, PasteID: 42, Name: "a.txt", Type: "text/plain", Size: 4}
	repos := &fakeRepoManager{
		p: &fakePastesRepo{paste: &models.Paste{ID: 42}},
		d: &fakeDocumentsRepo{docs: []*models.Document{old}},
		t: &fakeTokensRepo{token: &models.PasteToken{PasteID: 42, Token: "tok"}},
	}
	// The racing winner fills the paste to its document cap while this patch
	// is between validation and commit.
	repos.p.conflicts = 1
	repos.p.onConflict = func() {
		repos.d.docs = append(repos.d.docs, &models.Document{ID: 2, PasteID: 42, Name: "b.txt", Type: "text/plain", Size: 4})
	}
	blobs := newFakeBlobStore()
	svc := newTestService(t, db, repos, blobs)

	bounds := testPolicy().Bounds()
	bounds.MaxDocumentCount = 2
	svc.policy = limits.New(bounds)

	_, err := svc.Patch(context.Background(), 42, "tok", PatchRequest{Add: newDocs("new.txt")})

	// The retry sees the winner's set, revalidates, and rejects instead of
	// committing a third document past the cap.
	var v *limits.Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, limits.TooManyDocuments, v.Kind)
	assert.Empty(t, blobs.objects, "the added blob must be compensated")
	assert.Len(t, repos.d.docs, 2, "only the winner's commit survives")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatch_ConflictRetryCommitsWinnersState(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	old := &models.Document{ID: 1, PasteID: 42, Name: "a.txt", Type: "text/plain", Size: 4}
	repos := &fakeRepoManager{
		p: &fakePastesRepo{paste: &models.Paste{ID: 42}},
		d: &fakeDocumentsRepo{docs: []*models.Document{old}},
		t: &fakeTokensRepo{token: &models.PasteToken{PasteID: 42, Token: "tok"}},
	}
	// The racing winner removes the stored document before our commit lands.
	repos.p.conflicts = 1
	repos.p.onConflict = func() {
		repos.d.docs = nil
	}
	blobs := newFakeBlobStore()
	svc := newTestService(t, db, repos, blobs)

	view, err := svc.Patch(context.Background(), 42, "tok", PatchRequest{Add: newDocs("new.txt")})
	require.NoError(t, err)

	// The final set is the winner's state plus this patch, never the stale
	// listing merged back in.
	require.Len(t, view.Documents, 1)
	assert.Equal(t, "new.txt", view.Documents[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatch_ConflictAfterRetries(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	for i := 0; i < patchAttempts; i++ {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	repos := &fakeRepoManager{
		p: &fakePastesRepo{
			paste:           &models.Paste{ID: 42},
			updateEditedErr: common.ErrEditConflict,
		},
		d: &fakeDocumentsRepo{},
		t: &fakeTokensRepo{token: &models.PasteToken{PasteID: 42, Token: "tok"}},
	}
	blobs := newFakeBlobStore()
	svc := newTestService(t, db, repos, blobs)

	_, err := svc.Patch(context.Background(), 42, "tok", PatchRequest{Add: newDocs("new.txt")})
	require.ErrorIs(t, err, common.ErrEditConflict)

	// The blob written for the new document was compensated.
	assert.Empty(t, blobs.objects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_RemovesBlobsThenRow(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	doc := &models.Document{ID: 1, PasteID: 42, Name: "a.txt", Type: "text/plain"}
	repos := &fakeRepoManager{
		p: &fakePastesRepo{paste: &models.Paste{ID: 42}},
		d: &fakeDocumentsRepo{docs: []*models.Document{doc}},
		t: &fakeTokensRepo{token: &models.PasteToken{PasteID: 42, Token: "tok"}},
	}
	blobs := newFakeBlobStore()
	blobs.objects[doc.StorageKey()] = []byte("x")
	svc := newTestService(t, db, repos, blobs)

	require.NoError(t, svc.Delete(context.Background(), 42, "tok"))
	assert.True(t, repos.p.deleted)
	assert.Empty(t, blobs.objects)

	// Deleting again observes absence.
	err := svc.Delete(context.Background(), 42, "tok")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestLimitsSnapshot_ReportsConfiguredBounds(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	repos := &fakeRepoManager{p: &fakePastesRepo{}, d: &fakeDocumentsRepo{}, t: &fakeTokensRepo{}}
	svc := newTestService(t, db, repos, newFakeBlobStore())

	got := svc.LimitsSnapshot()
	assert.Equal(t, testPolicy().Bounds(), got)
	assert.Equal(t, 10, got.MaxDocumentCount)
}

func TestDelete_RejectsBadToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	repos := &fakeRepoManager{
		p: &fakePastesRepo{paste: &models.Paste{ID: 42}},
		d: &fakeDocumentsRepo{},
		t: &fakeTokensRepo{token: &models.PasteToken{PasteID: 42, Token: "tok"}},
	}
	svc := newTestService(t, db, repos, newFakeBlobStore())

	err := svc.Delete(context.Background(), 42, "nope")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.False(t, repos.p.deleted)
}
