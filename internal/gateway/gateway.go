// Package gateway is the single backend contract the admin console and the
// public renderer talk to. It composes the document store and the blob store
// and, through Guarded, enforces the admin policy on every write.
package gateway

import (
	"context"

	"github.com/ziadkadry99/folio/internal/apperr"
	"github.com/ziadkadry99/folio/internal/auth"
	"github.com/ziadkadry99/folio/internal/blob"
	"github.com/ziadkadry99/folio/internal/content"
	"github.com/ziadkadry99/folio/internal/gate"
	"github.com/ziadkadry99/folio/internal/store"
)

// Lister is the read side used by renderers.
type Lister interface {
	ListAll(ctx context.Context, cat content.Category) ([]content.Record, error)
}

// Backend is the full document and blob contract.
type Backend interface {
	Lister
	Get(ctx context.Context, cat content.Category, id string) (*content.Record, error)
	Create(ctx context.Context, cat content.Category, fields content.Fields) (string, error)
	Update(ctx context.Context, cat content.Category, id string, fields content.Fields) error
	Delete(ctx context.Context, cat content.Category, id string) error
	UploadBlob(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// Gateway is the Backend over local storage.
type Gateway struct {
	docs  *store.Store
	blobs *blob.Store
}

// New creates a Gateway.
func New(docs *store.Store, blobs *blob.Store) *Gateway {
	return &Gateway{docs: docs, blobs: blobs}
}

func (g *Gateway) ListAll(ctx context.Context, cat content.Category) ([]content.Record, error) {
	return g.docs.ListAll(ctx, cat)
}

func (g *Gateway) Get(ctx context.Context, cat content.Category, id string) (*content.Record, error) {
	return g.docs.Get(ctx, cat, id)
}

func (g *Gateway) Create(ctx context.Context, cat content.Category, fields content.Fields) (string, error) {
	return g.docs.Create(ctx, cat, fields)
}

func (g *Gateway) Update(ctx context.Context, cat content.Category, id string, fields content.Fields) error {
	return g.docs.Update(ctx, cat, id, fields)
}

func (g *Gateway) Delete(ctx context.Context, cat content.Category, id string) error {
	return g.docs.Delete(ctx, cat, id)
}

// UploadBlob stores data at path and returns its public URL. The uploader
// recorded with the blob is the identity in ctx, if any.
func (g *Gateway) UploadBlob(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	var uploadedBy string
	if id := auth.FromContext(ctx); id != nil {
		uploadedBy = id.Email
	}
	return g.blobs.Upload(ctx, path, data, contentType, uploadedBy)
}

// Guarded wraps a Backend and rejects writes whose context identity is not
// allowed by the policy. Reads pass through; published content is public.
type Guarded struct {
	next   Backend
	policy gate.Policy
}

// NewGuarded wraps next with policy enforcement.
func NewGuarded(next Backend, policy gate.Policy) *Guarded {
	return &Guarded{next: next, policy: policy}
}

func (g *Guarded) check(ctx context.Context, op string) error {
	id := auth.FromContext(ctx)
	if id == nil {
		return apperr.Errorf(apperr.Unauthorized, op, "not signed in")
	}
	if !g.policy.Allowed(id.Email) {
		return apperr.Errorf(apperr.Unauthorized, op, "%s is not an admin", id.Email)
	}
	return nil
}

func (g *Guarded) ListAll(ctx context.Context, cat content.Category) ([]content.Record, error) {
	return g.next.ListAll(ctx, cat)
}

func (g *Guarded) Get(ctx context.Context, cat content.Category, id string) (*content.Record, error) {
	return g.next.Get(ctx, cat, id)
}

func (g *Guarded) Create(ctx context.Context, cat content.Category, fields content.Fields) (string, error) {
	if err := g.check(ctx, "create"); err != nil {
		return "", err
	}
	return g.next.Create(ctx, cat, fields)
}

func (g *Guarded) Update(ctx context.Context, cat content.Category, id string, fields content.Fields) error {
	if err := g.check(ctx, "update"); err != nil {
		return err
	}
	return g.next.Update(ctx, cat, id, fields)
}

func (g *Guarded) Delete(ctx context.Context, cat content.Category, id string) error {
	if err := g.check(ctx, "delete"); err != nil {
		return err
	}
	return g.next.Delete(ctx, cat, id)
}

func (g *Guarded) UploadBlob(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if err := g.check(ctx, "upload"); err != nil {
		return "", err
	}
	return g.next.UploadBlob(ctx, path, data, contentType)
}
