package feedsync

import (
	"context"

	"github.com/feedr/feedr/internal/gateway"
	"github.com/feedr/feedr/internal/models"
)

// gatewaySource adapts the gateway client to the controller's Source.
type gatewaySource struct {
	c *gateway.Client
}

// NewGatewaySource wraps a gateway client as a controller Source.
func NewGatewaySource(c *gateway.Client) Source {
	return gatewaySource{c: c}
}

func (s gatewaySource) RecentFeeds(ctx context.Context, petID string, limit int) ([]models.Feed, error) {
	return s.c.RecentFeeds(ctx, petID, limit)
}

func (s gatewaySource) SubscribeFeeds(ctx context.Context, ownerID, petID string, fn func(models.Feed)) (Handle, error) {
	sub, err := s.c.SubscribeFeeds(ctx, ownerID, petID, fn)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
