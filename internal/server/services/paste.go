// Package services implements the storage coordinator: the single component
// that sequences writes across the relational store and the object store so
// that readers never observe metadata for content that does not exist.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/ebelanger/pastecove/internal/common"
	"github.com/ebelanger/pastecove/internal/dbx"
	"github.com/ebelanger/pastecove/internal/logging"
	"github.com/ebelanger/pastecove/internal/server/blob"
	"github.com/ebelanger/pastecove/internal/server/limits"
	"github.com/ebelanger/pastecove/internal/server/metrics"
	"github.com/ebelanger/pastecove/internal/server/models"
	"github.com/ebelanger/pastecove/internal/server/repositories/repomanager"
	"github.com/ebelanger/pastecove/internal/snowflake"
)

// DefaultContentType is assumed for documents submitted without a type.
const DefaultContentType = "text/plain"

const (
	// blobConcurrency caps parallel object-store writes per request.
	blobConcurrency = 4

	// patchAttempts bounds the check-and-set retry loop before a patch is
	// rejected with ErrEditConflict.
	patchAttempts = 4
)

// NewDocument is a document submitted with its content.
type NewDocument struct {
	Name    string
	Type    string
	Content []byte
}

// EditDocument modifies an existing document. Nil fields keep the stored
// value; nil Content keeps the stored bytes.
type EditDocument struct {
	ID      int64
	Name    *string
	Type    *string
	Content []byte
}

// CreateRequest carries everything needed to create a paste. Nil Expiry and
// MaxViews take the configured defaults.
type CreateRequest struct {
	Name      *string
	Expiry    *time.Time
	MaxViews  *int64
	Documents []NewDocument
}

// PatchRequest describes an edit to an existing paste. The resulting document
// set is validated as a whole before any store is touched.
type PatchRequest struct {
	Name   *string
	Add    []NewDocument
	Edit   []EditDocument
	Remove []int64
}

// PasteView is the read model returned by Create, Get and Patch.
type PasteView struct {
	Paste     *models.Paste
	Documents []*models.Document
}

// PasteService coordinates the relational store, the object store and the
// limits policy. It owns transaction boundaries; repositories stay
// transaction-agnostic behind dbx.DBTX.
type PasteService struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	blobs   blob.Store
	ids     *snowflake.Generator
	policy  *limits.Policy
	log     logging.Logger
	metrics *metrics.Metrics

	now func() time.Time
}

// NewPasteService constructs the coordinator. metrics may be nil.
func NewPasteService(db *sql.DB, repos repomanager.RepositoryManager, blobs blob.Store,
	ids *snowflake.Generator, policy *limits.Policy, log logging.Logger, m *metrics.Metrics) *PasteService {
	return &PasteService{
		db:      db,
		repos:   repos,
		blobs:   blobs,
		ids:     ids,
		policy:  policy,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// LimitsSnapshot returns the effective bounds and defaults, for config
// read-out by callers.
func (s *PasteService) LimitsSnapshot() limits.Bounds {
	return s.policy.Bounds()
}

// Create validates the request, writes document content to the object store,
// and only then commits the metadata in one transaction. On any failure every
// blob written by this call is deleted before the error is returned, so a
// failed create leaves no trace in either store.
func (s *PasteService) Create(ctx context.Context, req CreateRequest) (*PasteView, string, error) {
	now := s.now().UTC()

	checks := make([]limits.CheckDocument, len(req.Documents))
	for i, d := range req.Documents {
		checks[i] = limits.CheckDocument{Name: d.Name, Type: contentType(d.Type), Size: int64(len(d.Content))}
	}
	if err := s.policy.ValidateDocuments(checks); err != nil {
		return nil, "", err
	}

	expiry := req.Expiry
	if expiry == nil {
		expiry = s.policy.DefaultExpiry(now)
	} else if err := s.policy.ValidateExpiry(*expiry, now); err != nil {
		return nil, "", err
	}
	maxViews := req.MaxViews
	if maxViews == nil {
		maxViews = s.policy.DefaultMaxViews()
	}

	pasteID, err := s.ids.NextID()
	if err != nil {
		return nil, "", err
	}
	token, err := s.ids.NewToken(pasteID)
	if err != nil {
		return nil, "", err
	}

	paste := &models.Paste{
		ID:       pasteID,
		Name:     req.Name,
		Creation: now,
		Expiry:   expiry,
		MaxViews: maxViews,
	}

	docs := make([]*models.Document, len(req.Documents))
	for i, d := range req.Documents {
		docID, err := s.ids.NextID()
		if err != nil {
			return nil, "", err
		}
		docs[i] = &models.Document{
			ID:      docID,
			PasteID: pasteID,
			Type:    contentType(d.Type),
			Name:    d.Name,
			Size:    int64(len(d.Content)),
		}
	}

	written, err := s.writeBlobs(ctx, docs, req.Documents)
	if err != nil {
		s.compensate(ctx, written)
		return nil, "", err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Pastes(tx).Insert(ctx, paste); err != nil {
			return err
		}
		if err := s.repos.Tokens(tx).Insert(ctx, &models.PasteToken{PasteID: pasteID, Token: token}); err != nil {
			return err
		}
		docRepo := s.repos.Documents(tx)
		for _, d := range docs {
			if err := docRepo.Insert(ctx, d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.compensate(ctx, written)
		return nil, "", fmt.Errorf("error creating paste: %w", err)
	}

	s.metrics.IncPastesCreated()
	s.log.Info(ctx, "paste created", "paste_id", pasteID, "documents", len(docs))
	return &PasteView{Paste: paste, Documents: docs}, token, nil
}

// Get returns a paste with its document metadata and counts the view. Pastes
// past their expiry timestamp read as absent even before the sweeper collects
// them; a paste at its view cap is still served until the next sweep, so the
// counter can pass the cap by a bounded amount.
func (s *PasteService) Get(ctx context.Context, id int64) (*PasteView, error) {
	paste, err := s.repos.Pastes(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if paste.Expiry != nil && !paste.Expiry.After(s.now().UTC()) {
		return nil, common.ErrNotFound
	}

	views, err := s.repos.Pastes(s.db).AddView(ctx, id)
	if err != nil {
		return nil, err
	}
	paste.Views = views

	docs, err := s.repos.Documents(s.db).ListByPaste(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.IncPastesFetched()
	return &PasteView{Paste: paste, Documents: docs}, nil
}

// GetDocument returns one document's content and metadata. Existence is
// decided by the relational row, so content still lingering in the object
// store after a delete is unreachable.
func (s *PasteService) GetDocument(ctx context.Context, pasteID, docID int64) ([]byte, *models.Document, error) {
	doc, err := s.repos.Documents(s.db).Get(ctx, pasteID, docID)
	if err != nil {
		return nil, nil, err
	}
	content, err := s.blobs.Get(ctx, doc.StorageKey())
	if err != nil {
		return nil, nil, err
	}
	return content, doc, nil
}

// Patch edits a paste after verifying the bearer token. New content is
// written to the object store first; the metadata commit is an optimistic
// check-and-set on the paste's edited column. A conflicted attempt resolves
// the patch again from the stored state, re-validating the resulting set, so
// an edit that lost a race never commits on top of what it validated before
// the winner landed. After a bounded number of attempts the edit is rejected
// with ErrEditConflict. Compensation on failure removes blobs added by this
// call only.
func (s *PasteService) Patch(ctx context.Context, id int64, token string, req PatchRequest) (*PasteView, error) {
	if err := s.authorize(ctx, id, token); err != nil {
		return nil, err
	}

	// Added documents keep their minted IDs across conflict retries so their
	// storage keys stay stable.
	added := make([]*models.Document, len(req.Add))
	for i, d := range req.Add {
		docID, err := s.ids.NextID()
		if err != nil {
			return nil, err
		}
		added[i] = &models.Document{
			ID:      docID,
			PasteID: id,
			Type:    contentType(d.Type),
			Name:    d.Name,
			Size:    int64(len(d.Content)),
		}
	}

	plan, err := s.resolvePatch(ctx, id, req, added)
	if err != nil {
		return nil, err
	}

	written, err := s.writeBlobs(ctx, added, req.Add)
	if err != nil {
		s.compensate(ctx, written)
		return nil, err
	}
	// Replaced content overwrites the stable key in place; these keys are
	// never compensated because the old bytes are already gone.
	for _, e := range plan.edited {
		if e.content == nil {
			continue
		}
		if _, err := s.blobs.Put(ctx, e.doc.StorageKey(), e.content, e.doc.Type); err != nil {
			s.compensate(ctx, written)
			return nil, err
		}
	}

	editedAt := s.now().UTC()
	backoff := retry.WithMaxRetries(patchAttempts-1, retry.NewConstant(25*time.Millisecond))
	first := true
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if !first {
			// The previous attempt lost the race. Resolve the patch against
			// the winner's state; a set that no longer validates rejects
			// here instead of committing a merge.
			fresh, err := s.resolvePatch(ctx, id, req, added)
			if err != nil {
				return err
			}
			plan = fresh
		}
		first = false

		txErr := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if err := s.repos.Pastes(tx).UpdateEdited(ctx, id, plan.paste.Edited, editedAt); err != nil {
				return err
			}
			docRepo := s.repos.Documents(tx)
			for _, d := range plan.removed {
				if err := docRepo.Delete(ctx, d.ID); err != nil {
					return err
				}
			}
			for _, e := range plan.edited {
				if err := docRepo.Update(ctx, e.doc); err != nil {
					return err
				}
			}
			for _, d := range added {
				if err := docRepo.Insert(ctx, d); err != nil {
					return err
				}
			}
			if req.Name != nil {
				if err := s.repos.Pastes(tx).UpdateName(ctx, id, req.Name); err != nil {
					return err
				}
			}
			return nil
		})
		if errors.Is(txErr, common.ErrEditConflict) {
			return retry.RetryableError(txErr)
		}
		return txErr
	})
	if err != nil {
		s.compensate(ctx, written)
		return nil, err
	}

	// Removed documents' content is unreachable once the commit lands; delete
	// it best-effort, same as Purge.
	for _, d := range plan.removed {
		if err := s.blobs.Delete(ctx, d.StorageKey()); err != nil {
			s.log.Warn(ctx, "blob delete failed, continuing", "key", d.StorageKey(), "error", err)
		}
	}

	plan.paste.Edited = &editedAt
	if req.Name != nil {
		plan.paste.Name = req.Name
	}
	s.log.Info(ctx, "paste patched", "paste_id", id, "added", len(added), "removed", len(plan.removed))
	return &PasteView{Paste: plan.paste, Documents: plan.resulting}, nil
}

// patchPlan is a patch resolved against one observed paste state.
type patchPlan struct {
	paste     *models.Paste
	resulting []*models.Document
	edited    []editedDoc
	removed   []*models.Document
}

// resolvePatch reads the stored paste state and resolves req against it,
// validating the resulting document set as a whole. The caller mints added
// once; they are constant across retries.
func (s *PasteService) resolvePatch(ctx context.Context, id int64, req PatchRequest, added []*models.Document) (*patchPlan, error) {
	paste, err := s.repos.Pastes(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	existing, err := s.repos.Documents(s.db).ListByPaste(ctx, id)
	if err != nil {
		return nil, err
	}

	kept, edited, removed, err := applyEdits(existing, req)
	if err != nil {
		return nil, err
	}

	resulting := append(append([]*models.Document{}, kept...), added...)
	checks := make([]limits.CheckDocument, len(resulting))
	for i, d := range resulting {
		checks[i] = limits.CheckDocument{Name: d.Name, Type: d.Type, Size: d.Size}
	}
	if err := s.policy.ValidateDocuments(checks); err != nil {
		return nil, err
	}

	return &patchPlan{paste: paste, resulting: resulting, edited: edited, removed: removed}, nil
}

// Delete removes a paste after verifying the bearer token.
func (s *PasteService) Delete(ctx context.Context, id int64, token string) error {
	if err := s.authorize(ctx, id, token); err != nil {
		return err
	}
	return s.Purge(ctx, id)
}

// Purge removes a paste without authorization. The sweeper uses it directly;
// Delete reaches it after a token check. Blob deletes run first and never
// block the relational delete: a leaked blob is unreachable once its row is
// gone, while the reverse order could leave referenced content missing.
func (s *PasteService) Purge(ctx context.Context, id int64) error {
	docs, err := s.repos.Documents(s.db).ListByPaste(ctx, id)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := s.blobs.Delete(ctx, d.StorageKey()); err != nil {
			s.log.Warn(ctx, "blob delete failed, continuing", "key", d.StorageKey(), "error", err)
		}
	}

	deleted, err := s.repos.Pastes(s.db).Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return common.ErrNotFound
	}
	s.metrics.IncPastesDeleted()
	s.log.Info(ctx, "paste deleted", "paste_id", id)
	return nil
}

// Expired lists pastes due for collection at now.
func (s *PasteService) Expired(ctx context.Context, now time.Time) ([]*models.Paste, error) {
	return s.repos.Pastes(s.db).SelectExpired(ctx, now)
}

func (s *PasteService) authorize(ctx context.Context, id int64, token string) error {
	stored, err := s.repos.Tokens(s.db).GetByPaste(ctx, id)
	if err != nil {
		return err
	}
	if stored.Token != token {
		return common.ErrUnauthorized
	}
	return nil
}

// writeBlobs stores content for docs concurrently and returns the keys that
// were written, including on failure, so the caller can compensate.
func (s *PasteService) writeBlobs(ctx context.Context, docs []*models.Document, content []NewDocument) ([]string, error) {
	var mu sync.Mutex
	var written []string

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(blobConcurrency)
	for i := range docs {
		doc, body := docs[i], content[i].Content
		g.Go(func() error {
			if _, err := s.blobs.Put(ctx, doc.StorageKey(), body, doc.Type); err != nil {
				return err
			}
			mu.Lock()
			written = append(written, doc.StorageKey())
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return written, err
}

// compensate removes blobs written by a request that failed after the object
// store was touched. Failures here only leak unreachable content and are
// logged, not returned.
func (s *PasteService) compensate(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	s.metrics.IncBlobCompensations()
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.log.Warn(ctx, "compensating blob delete failed", "key", key, "error", err)
		}
	}
}

type editedDoc struct {
	doc     *models.Document
	content []byte
}

// applyEdits resolves a patch against the stored documents and returns the
// surviving set, the rows to update and the rows to remove. Unknown document
// IDs reject with ErrNotFound before any store is written.
func applyEdits(existing []*models.Document, req PatchRequest) ([]*models.Document, []editedDoc, []*models.Document, error) {
	byID := make(map[int64]*models.Document, len(existing))
	for _, d := range existing {
		byID[d.ID] = d
	}

	removing := make(map[int64]struct{}, len(req.Remove))
	for _, id := range req.Remove {
		if _, ok := byID[id]; !ok {
			return nil, nil, nil, fmt.Errorf("document %d: %w", id, common.ErrNotFound)
		}
		removing[id] = struct{}{}
	}

	var edits []editedDoc
	for _, e := range req.Edit {
		stored, ok := byID[e.ID]
		if !ok {
			return nil, nil, nil, fmt.Errorf("document %d: %w", e.ID, common.ErrNotFound)
		}
		if _, gone := removing[e.ID]; gone {
			return nil, nil, nil, fmt.Errorf("document %d is both edited and removed", e.ID)
		}
		next := *stored
		if e.Name != nil {
			next.Name = *e.Name
		}
		if e.Type != nil {
			next.Type = contentType(*e.Type)
		}
		if e.Content != nil {
			next.Size = int64(len(e.Content))
		}
		*stored = next
		edits = append(edits, editedDoc{doc: stored, content: e.Content})
	}

	var kept, removed []*models.Document
	for _, d := range existing {
		if _, gone := removing[d.ID]; gone {
			removed = append(removed, d)
			continue
		}
		kept = append(kept, d)
	}
	return kept, edits, removed, nil
}

func contentType(t string) string {
	if t == "" {
		return DefaultContentType
	}
	return t
}
