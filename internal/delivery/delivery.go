package delivery

import "context"

// Delivery is a long-running inbound adapter started by main.
type Delivery interface {
	Serve(ctx context.Context) error
}
