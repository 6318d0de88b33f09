package children

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/Tabitha-Home/THMS-CLIENT/shared"
	"github.com/Tabitha-Home/THMS-CLIENT/storage"
	"github.com/Tabitha-Home/THMS-CLIENT/transport"

	"github.com/pkg/errors"
)

var (
	ErrEmptyChildId = errors.New("childId cannot be empty")
)

// Service is the single seam between the dashboard pages and the backend:
// it transforms on the way out, unwraps envelopes and overlays photo
// overrides on the way in. It never swallows an error and never leaks a raw
// transport failure shape.
type Service interface {
	ListChildren(ctx context.Context, params map[string]string) (ChildList, error)
	GetChild(ctx context.Context, childId string) (ChildTransport, error)
	AddChild(ctx context.Context, form map[string]interface{}) (ChildTransport, error)
	UpdateChild(ctx context.Context, childId string, form map[string]interface{}) (ChildTransport, error)
	DeleteChild(ctx context.Context, childId string) error
	UpdateChildPhoto(ctx context.Context, childId, filename string, content []byte) (ChildTransport, error)
	ClearChildPhoto(childId string) error
	SearchChildren(ctx context.Context, query string) (ChildList, error)
	ChildStats(ctx context.Context) (ChildStats, error)
	PhotoMetadata(childId string) (storage.PhotoMetadata, error)
	ClearAllPhotos() error
}

type ChildService struct {
	Client transport.Client `inject:""`
	Photos storage.Store    `inject:""`
	Logger *shared.Logger   `inject:""`
}

func (c *ChildService) ListChildren(ctx context.Context, params map[string]string) (ChildList, error) {
	query := url.Values{}
	for key, value := range params {
		query.Set(key, value)
	}

	raw := json.RawMessage{}
	if err := c.Client.Get(ctx, "/children", query, &raw); err != nil {
		return ChildList{}, errors.Wrap(err, "failed to fetch children")
	}

	list, err := unwrapChildList(raw)
	if err != nil {
		return ChildList{}, errors.Wrap(err, "failed to fetch children")
	}

	for i := range list.Items {
		c.overlayPhoto(&list.Items[i])
	}
	c.Logger.Debug(ctx, "fetched children", "count", len(list.Items), "total", list.Total)
	return list, nil
}

func (c *ChildService) GetChild(ctx context.Context, childId string) (ChildTransport, error) {
	if childId == "" {
		return ChildTransport{}, ErrEmptyChildId
	}

	raw := json.RawMessage{}
	if err := c.Client.Get(ctx, "/children/"+childId, nil, &raw); err != nil {
		return ChildTransport{}, errors.Wrap(err, "failed to fetch child")
	}

	child, err := unwrapChild(raw)
	if err != nil {
		return ChildTransport{}, errors.Wrap(err, "failed to fetch child")
	}

	c.overlayPhoto(&child)
	return child, nil
}

func (c *ChildService) AddChild(ctx context.Context, form map[string]interface{}) (ChildTransport, error) {
	payload, err := TransformForWrite(form)
	if err != nil {
		return ChildTransport{}, errors.Wrap(err, "failed to create child record")
	}
	if err := ValidateRecord(payload); err != nil {
		return ChildTransport{}, err
	}

	raw := json.RawMessage{}
	if err := c.Client.Post(ctx, "/children", payload, &raw); err != nil {
		return ChildTransport{}, errors.Wrap(err, "failed to create child record")
	}

	// no overlay on create, the record cannot have a photo override yet
	child, err := unwrapChild(raw)
	if err != nil {
		return ChildTransport{}, errors.Wrap(err, "failed to create child record")
	}
	return child, nil
}

func (c *ChildService) UpdateChild(ctx context.Context, childId string, form map[string]interface{}) (ChildTransport, error) {
	if childId == "" {
		return ChildTransport{}, ErrEmptyChildId
	}

	payload, err := TransformForWrite(form)
	if err != nil {
		return ChildTransport{}, errors.Wrap(err, "failed to update child")
	}
	if err := ValidateRecord(payload); err != nil {
		return ChildTransport{}, err
	}

	raw := json.RawMessage{}
	if err := c.Client.Patch(ctx, "/children/"+childId, payload, &raw); err != nil {
		return ChildTransport{}, errors.Wrap(err, "failed to update child")
	}

	child, err := unwrapChild(raw)
	if err != nil {
		return ChildTransport{}, errors.Wrap(err, "failed to update child")
	}

	c.overlayPhoto(&child)
	return child, nil
}

// DeleteChild removes the record and cascades into the override store, so a
// later read of the same id cannot resurrect a stale photo.
func (c *ChildService) DeleteChild(ctx context.Context, childId string) error {
	if childId == "" {
		return ErrEmptyChildId
	}

	if err := c.Client.Delete(ctx, "/children/"+childId); err != nil {
		return errors.Wrap(err, "failed to delete child")
	}

	if err := c.Photos.Clear(childId); err != nil {
		return errors.Wrap(err, "failed to clear photo override")
	}
	c.Logger.Info(ctx, "deleted child", "childId", childId)
	return nil
}

// UpdateChildPhoto stores the photo locally and returns a record shaped
// result carrying the new url, so the caller can merge it into cached state
// without a full refetch. The reserved POST /children/:id/photo endpoint is
// deliberately bypassed, see the override store documentation.
func (c *ChildService) UpdateChildPhoto(ctx context.Context, childId, filename string, content []byte) (ChildTransport, error) {
	if childId == "" {
		return ChildTransport{}, ErrEmptyChildId
	}

	dataUrl, err := c.Photos.Put(ctx, childId, filename, content)
	if err != nil {
		return ChildTransport{}, errors.Wrap(err, "photo upload failed")
	}

	return ChildTransport{Id: childId, PhotoUrl: dataUrl}, nil
}

// ClearChildPhoto drops the local override so reads fall back to the server
// photo. The record itself is untouched.
func (c *ChildService) ClearChildPhoto(childId string) error {
	if childId == "" {
		return ErrEmptyChildId
	}
	return c.Photos.Clear(childId)
}

func (c *ChildService) SearchChildren(ctx context.Context, query string) (ChildList, error) {
	params := url.Values{}
	params.Set("q", query)

	raw := json.RawMessage{}
	if err := c.Client.Get(ctx, "/children/search", params, &raw); err != nil {
		return ChildList{}, errors.Wrap(err, "search failed")
	}

	list, err := unwrapChildList(raw)
	if err != nil {
		return ChildList{}, errors.Wrap(err, "search failed")
	}

	for i := range list.Items {
		c.overlayPhoto(&list.Items[i])
	}
	return list, nil
}

func (c *ChildService) ChildStats(ctx context.Context) (ChildStats, error) {
	raw := json.RawMessage{}
	if err := c.Client.Get(ctx, "/children/stats", nil, &raw); err != nil {
		return ChildStats{}, errors.Wrap(err, "failed to fetch statistics")
	}

	stats, err := unwrapStats(raw)
	if err != nil {
		return ChildStats{}, errors.Wrap(err, "failed to fetch statistics")
	}
	return stats, nil
}

func (c *ChildService) PhotoMetadata(childId string) (storage.PhotoMetadata, error) {
	if childId == "" {
		return storage.PhotoMetadata{}, ErrEmptyChildId
	}
	return c.Photos.Metadata(childId)
}

func (c *ChildService) ClearAllPhotos() error {
	return c.Photos.ClearAll()
}

// overlayPhoto applies the deterministic photo resolution: local override
// first, server value untouched otherwise.
func (c *ChildService) overlayPhoto(child *ChildTransport) {
	id := child.Id
	if id == "" {
		id = child.ChildId
	}
	if id == "" {
		return
	}

	if override, ok := c.Photos.Get(id); ok {
		child.PhotoUrl = override
	}
}

// ServiceMiddleware is a chainable behavior modifier for the child service.
type ServiceMiddleware func(Service) Service
