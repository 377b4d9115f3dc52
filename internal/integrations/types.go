// internal/integrations/types.go
package integrations

import (
	"context"
	"encoding/json"

	"github.com/bartek5186/pcm2feed/internal/feed"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Integration interface {
	Name() string
	Start(ctx context.Context) error // blokuje do ctx.Done (long-running) lub odpala własną pętlę
	Stop()                           // idempotent
}

// Runner – integracja, którą można odpalić jednorazowo na żądanie (CLI / tray)
type Runner interface {
	RunOnce(ctx context.Context) error
}

// Deps – to, co syncer daje każdej integracji
type Deps struct {
	Log     zerolog.Logger
	DB      *gorm.DB
	Metrics feed.Recorder // może być nil
}

type Factory func(deps Deps, raw json.RawMessage) (Integration, error)
