package evo

import (
	"context"

	"bardo/internal/model"
)

type Operator interface {
	Name() string
	Apply(ctx context.Context, genome model.Genome) (model.Genome, error)
}
