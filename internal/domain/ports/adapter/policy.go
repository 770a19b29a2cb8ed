package adapter

import "context"

// PolicyGenerator renders the final insurance policy document.
type PolicyGenerator interface {
	Generate(ctx context.Context) ([]byte, error)
}
