package cache

import (
	"context"

	"github.com/Tabitha-Home/THMS-CLIENT/children"
	"github.com/Tabitha-Home/THMS-CLIENT/storage"
)

// Each read shape lives in its own collection namespace. Detail entries in
// particular must never share a namespace with list queries: a list filtered
// by id would fingerprint to the same key and serve the wrong value type.
const (
	childrenCollection = "children"
	detailCollection   = "children/detail"
	searchCollection   = "children/search"
	statsCollection    = "children/stats"
)

// CachedChildService wraps the child service with the query cache: list,
// detail, search and stats reads populate through the cache, every mutation
// invalidates all read collections. Concurrent mutations against the same id
// are not serialized here; the pages disable concurrent actions on a single
// record instead.
type CachedChildService struct {
	Service children.Service `inject:"childService"`
	Queries *Queries         `inject:""`
}

func (c *CachedChildService) ListChildren(ctx context.Context, params map[string]string) (children.ChildList, error) {
	key := Key{Collection: childrenCollection, Params: Fingerprint(params)}
	value, err := c.Queries.Get(ctx, key, func(ctx context.Context) (interface{}, error) {
		return c.Service.ListChildren(ctx, params)
	})
	if err != nil {
		return children.ChildList{}, err
	}
	list, ok := value.(children.ChildList)
	if !ok {
		// a foreign value under this key counts as a miss
		c.Queries.InvalidateOne(key)
		return c.Service.ListChildren(ctx, params)
	}
	return list, nil
}

func (c *CachedChildService) GetChild(ctx context.Context, childId string) (children.ChildTransport, error) {
	key := c.detailKey(childId)
	value, err := c.Queries.Get(ctx, key, func(ctx context.Context) (interface{}, error) {
		return c.Service.GetChild(ctx, childId)
	})
	if err != nil {
		return children.ChildTransport{}, err
	}
	child, ok := value.(children.ChildTransport)
	if !ok {
		c.Queries.InvalidateOne(key)
		return c.Service.GetChild(ctx, childId)
	}
	return child, nil
}

func (c *CachedChildService) AddChild(ctx context.Context, form map[string]interface{}) (children.ChildTransport, error) {
	child, err := c.Service.AddChild(ctx, form)
	if err != nil {
		return children.ChildTransport{}, err
	}
	c.invalidateReads()
	return child, nil
}

func (c *CachedChildService) UpdateChild(ctx context.Context, childId string, form map[string]interface{}) (children.ChildTransport, error) {
	child, err := c.Service.UpdateChild(ctx, childId, form)
	if err != nil {
		return children.ChildTransport{}, err
	}
	c.invalidateReads()
	return child, nil
}

func (c *CachedChildService) DeleteChild(ctx context.Context, childId string) error {
	if err := c.Service.DeleteChild(ctx, childId); err != nil {
		return err
	}
	c.invalidateReads()
	return nil
}

func (c *CachedChildService) UpdateChildPhoto(ctx context.Context, childId, filename string, content []byte) (children.ChildTransport, error) {
	child, err := c.Service.UpdateChildPhoto(ctx, childId, filename, content)
	if err != nil {
		return children.ChildTransport{}, err
	}
	// the overlay changed, cached reads of this record are stale now
	c.invalidateReads()
	return child, nil
}

func (c *CachedChildService) ClearChildPhoto(childId string) error {
	if err := c.Service.ClearChildPhoto(childId); err != nil {
		return err
	}
	c.invalidateReads()
	return nil
}

func (c *CachedChildService) SearchChildren(ctx context.Context, query string) (children.ChildList, error) {
	key := Key{Collection: searchCollection, Params: Fingerprint(map[string]string{"q": query})}
	value, err := c.Queries.Get(ctx, key, func(ctx context.Context) (interface{}, error) {
		return c.Service.SearchChildren(ctx, query)
	})
	if err != nil {
		return children.ChildList{}, err
	}
	list, ok := value.(children.ChildList)
	if !ok {
		c.Queries.InvalidateOne(key)
		return c.Service.SearchChildren(ctx, query)
	}
	return list, nil
}

func (c *CachedChildService) ChildStats(ctx context.Context) (children.ChildStats, error) {
	key := Key{Collection: statsCollection}
	value, err := c.Queries.Get(ctx, key, func(ctx context.Context) (interface{}, error) {
		return c.Service.ChildStats(ctx)
	})
	if err != nil {
		return children.ChildStats{}, err
	}
	stats, ok := value.(children.ChildStats)
	if !ok {
		c.Queries.InvalidateOne(key)
		return c.Service.ChildStats(ctx)
	}
	return stats, nil
}

func (c *CachedChildService) PhotoMetadata(childId string) (storage.PhotoMetadata, error) {
	return c.Service.PhotoMetadata(childId)
}

func (c *CachedChildService) ClearAllPhotos() error {
	if err := c.Service.ClearAllPhotos(); err != nil {
		return err
	}
	c.invalidateReads()
	return nil
}

func (c *CachedChildService) detailKey(childId string) Key {
	return Key{Collection: detailCollection, Params: "id=" + childId}
}

func (c *CachedChildService) invalidateReads() {
	c.Queries.Invalidate(childrenCollection)
	c.Queries.Invalidate(detailCollection)
	c.Queries.Invalidate(searchCollection)
	c.Queries.Invalidate(statsCollection)
}
