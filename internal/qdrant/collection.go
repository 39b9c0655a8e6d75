package qdrant

import (
	"context"

	"github.com/qdrant/go-client/qdrant"
)

// IndexExists checks if a collection exists.
func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false, errClosed()
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	exists, err := c.client.CollectionExists(ctx, name)
	if err != nil {
		return false, classify("collection exists", err)
	}

	if exists {
		if info, err := c.collectionInfo(ctx, name); err == nil {
			c.log.Debug("Collection found",
				"collection", info.Name,
				"points", info.PointsCount,
				"status", info.Status,
				"segments", info.SegmentsCount,
			)
		}
	}

	return exists, nil
}

func (c *Client) collectionInfo(ctx context.Context, name string) (*CollectionInfo, error) {
	info, err := c.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, classify("collection info", err)
	}

	return toCollectionInfo(name, info), nil
}

func toCollectionInfo(name string, info *qdrant.CollectionInfo) *CollectionInfo {
	statusStr := "unknown"
	switch info.GetStatus() {
	case qdrant.CollectionStatus_Green:
		statusStr = "green"
	case qdrant.CollectionStatus_Yellow:
		statusStr = "yellow"
	case qdrant.CollectionStatus_Red:
		statusStr = "red"
	}

	return &CollectionInfo{
		Name:          name,
		PointsCount:   info.GetPointsCount(),
		Status:        statusStr,
		SegmentsCount: info.GetSegmentsCount(),
	}
}
