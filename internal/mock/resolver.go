package mock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/docmock/internal/endpoint"
	"github.com/dgallion1/docmock/internal/store"
)

var ErrNoEndpoint = errors.New("no mock endpoint")

// Definitions is the lookup surface the resolver needs.
type Definitions interface {
	GetDefinition(ctx context.Context, id string) (*endpoint.Definition, error)
	FindByPath(ctx context.Context, apiPath, method string, looseMethod bool) (*endpoint.Definition, error)
}

// Resolver maps inbound calls to definitions.
type Resolver struct {
	defs        Definitions
	looseMethod bool
}

// NewResolver builds a resolver. With looseMethod, a path that matches but
// whose method does not still resolves.
func NewResolver(defs Definitions, looseMethod bool) *Resolver {
	return &Resolver{defs: defs, looseMethod: looseMethod}
}

// Resolve finds the definition serving method and path.
func (r *Resolver) Resolve(ctx context.Context, path, method string) (*endpoint.Definition, error) {
	if path == "" {
		return nil, ErrNoEndpoint
	}
	d, err := r.defs.FindByPath(ctx, path, strings.ToUpper(method), r.looseMethod)
	return d, translate(err, method+" "+path)
}

// ByID finds a definition by id.
func (r *Resolver) ByID(ctx context.Context, id string) (*endpoint.Definition, error) {
	d, err := r.defs.GetDefinition(ctx, id)
	return d, translate(err, id)
}

func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNoEndpoint)
	}
	return err
}
