package bus

import (
	"context"

	"github.com/connectfour/backend/internal/app"
	"github.com/connectfour/backend/internal/store"
)

// Router binds commands to processors. Each command runs in a fresh store
// transaction; on any failure before Commit, Close drops buffered writes and
// releases the per-game lock, so no partial effects persist.
type Router struct {
	mapper    *store.GameMapper
	publisher app.EventPublisher
	scheduler app.TaskScheduler
	relay     app.RealtimeRelay
}

func NewRouter(
	mapper *store.GameMapper,
	publisher app.EventPublisher,
	scheduler app.TaskScheduler,
	relay app.RealtimeRelay,
) *Router {
	return &Router{
		mapper:    mapper,
		publisher: publisher,
		scheduler: scheduler,
		relay:     relay,
	}
}

func (r *Router) CreateGame(ctx context.Context, cmd app.CreateGameCommand) error {
	tx := r.mapper.Begin()
	defer tx.Close(ctx)

	return app.NewCreateGameProcessor(tx, r.publisher, r.relay).Process(ctx, cmd)
}

func (r *Router) MakeMove(ctx context.Context, cmd app.MakeMoveCommand) error {
	tx := r.mapper.Begin()
	defer tx.Close(ctx)

	return app.NewMakeMoveProcessor(tx, r.publisher, r.scheduler, r.relay).Process(ctx, cmd)
}

func (r *Router) EndGame(ctx context.Context, cmd app.EndGameCommand) error {
	tx := r.mapper.Begin()
	defer tx.Close(ctx)

	return app.NewEndGameProcessor(tx, r.scheduler).Process(ctx, cmd)
}

func (r *Router) TryToLoseByTime(ctx context.Context, cmd app.TryToLoseByTimeCommand) error {
	tx := r.mapper.Begin()
	defer tx.Close(ctx)

	return app.NewTryToLoseByTimeProcessor(tx, r.publisher, r.relay).Process(ctx, cmd)
}
