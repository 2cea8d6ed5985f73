package contracts

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Worker is a background job that runs for the life of the process.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}
