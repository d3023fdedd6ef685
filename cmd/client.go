package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/feedr/feedr/internal/clientconfig"
	"github.com/feedr/feedr/internal/gateway"
	"github.com/feedr/feedr/internal/models"
)

const cliTimeout = 15 * time.Second

func cliContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cliTimeout)
}

// newClient builds a gateway client against the configured server.
func newClient() *gateway.Client {
	return gateway.New(clientconfig.GetServerURL(), clientconfig.FileStore{})
}

// requireSession resolves the persisted session and fails when logged out.
func requireSession(ctx context.Context, c *gateway.Client) (*models.Identity, error) {
	identity, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, fmt.Errorf("not logged in (run 'feedr login')")
	}
	return identity, nil
}

// resolvePet maps a pet name or id to a pet record.
func resolvePet(ctx context.Context, c *gateway.Client, nameOrID string) (*models.Pet, error) {
	pets, err := c.ListPets(ctx)
	if err != nil {
		return nil, err
	}
	if nameOrID == "" {
		if len(pets) == 0 {
			return nil, fmt.Errorf("no pets registered (run 'feedr pets add')")
		}
		return &pets[0], nil
	}
	for i := range pets {
		if pets[i].ID == nameOrID || pets[i].Name == nameOrID {
			return &pets[i], nil
		}
	}
	return nil, fmt.Errorf("no pet named %q", nameOrID)
}
