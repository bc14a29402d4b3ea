package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/connectfour/backend/internal/api"
	"github.com/connectfour/backend/internal/app"
	"github.com/connectfour/backend/internal/bus"
	"github.com/connectfour/backend/internal/centrifugo"
	"github.com/connectfour/backend/internal/config"
	"github.com/connectfour/backend/internal/domain"
	"github.com/connectfour/backend/internal/natsconn"
	"github.com/connectfour/backend/internal/redisconn"
	"github.com/connectfour/backend/internal/scheduler"
	"github.com/connectfour/backend/internal/store"
)

const usage = `Usage: connect-four <command> [flags]

Commands:
  create-game    create a game between two players
  end-game       end a game unconditionally
  run-consumer   consume inbound commands from the message bus
  run-executor   fire scheduled lose-by-time tasks
  create-stream  create the games stream on the bus
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "create-game":
		runCreateGame(cfg, os.Args[2:])
	case "end-game":
		runEndGame(cfg, os.Args[2:])
	case "run-consumer":
		runConsumer(cfg)
	case "run-executor":
		runExecutor(cfg)
	case "create-stream":
		runCreateStream(cfg)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

// deps holds everything a command processor run needs. Constructed once per
// process; transactions are opened per command by the router.
type deps struct {
	rdb    *redis.Client
	js     nats.JetStreamContext
	router *bus.Router
	close  func()
}

func buildDeps(cfg *config.Config) *deps {
	rdb, err := redisconn.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	nc, js, err := natsconn.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}

	mapper := store.NewGameMapper(rdb, store.Config{
		GameExpiresIn: cfg.GameExpiresIn,
		LockExpiresIn: cfg.LockExpiresIn,
	})
	publisher := bus.NewNATSEventPublisher(js, cfg.Debug())
	taskScheduler := scheduler.NewRedisTaskScheduler(rdb, cfg.Debug())
	relay := centrifugo.NewClient(cfg.CentrifugoURL, cfg.CentrifugoAPIKey)

	return &deps{
		rdb:    rdb,
		js:     js,
		router: bus.NewRouter(mapper, publisher, taskScheduler, relay),
		close: func() {
			nc.Close()
			rdb.Close()
		},
	}
}

func runCreateGame(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("create-game", flag.ExitOnError)
	gameID := fs.String("id", "", "game id (32 hex chars; random if empty)")
	lobbyID := fs.String("lobby-id", "", "lobby id (32 hex chars)")
	firstID := fs.String("first-player-id", "", "first player id")
	firstTime := fs.String("first-player-time", "00:01:00", "first player clock (HH:MM:SS)")
	firstComm := fs.String("first-player-communication", "other", "first player communication type (centrifugo|other)")
	secondID := fs.String("second-player-id", "", "second player id")
	secondTime := fs.String("second-player-time", "00:01:00", "second player clock (HH:MM:SS)")
	secondComm := fs.String("second-player-communication", "other", "second player communication type (centrifugo|other)")
	fs.Parse(args)

	cmd := app.CreateGameCommand{
		GameID:       parseGameIDOrNew(*gameID),
		LobbyID:      parseLobbyIDFlag(*lobbyID),
		FirstPlayer:  parsePlayerFlags(*firstID, *firstTime, *firstComm),
		SecondPlayer: parsePlayerFlags(*secondID, *secondTime, *secondComm),
		CreatedAt:    time.Now().UTC(),
		OperationID:  newOperationID(),
	}

	d := buildDeps(cfg)
	defer d.close()

	if err := d.router.CreateGame(context.Background(), cmd); err != nil {
		log.Fatalf("Failed to create game: %v", err)
	}
	log.Printf("Game %s created", cmd.GameID.Hex())
}

func runEndGame(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("end-game", flag.ExitOnError)
	gameID := fs.String("id", "", "game id (32 hex chars)")
	fs.Parse(args)

	id, err := domain.ParseGameID(*gameID)
	if err != nil {
		log.Fatalf("Invalid game id: %v", err)
	}

	d := buildDeps(cfg)
	defer d.close()

	cmd := app.EndGameCommand{GameID: id, OperationID: newOperationID()}
	if err := d.router.EndGame(context.Background(), cmd); err != nil {
		log.Fatalf("Failed to end game: %v", err)
	}
	log.Printf("Game %s ended", id.Hex())
}

func runConsumer(cfg *config.Config) {
	d := buildDeps(cfg)
	defer d.close()

	if err := natsconn.EnsureStream(d.js); err != nil {
		log.Fatalf("Failed to ensure games stream: %v", err)
	}

	api.StartHealthServer(cfg.Port, "consumer")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Starting connect-four message consumer")
	if err := bus.NewConsumer(d.js, d.router, cfg.Debug()).Run(ctx); err != nil {
		log.Fatalf("Consumer failed: %v", err)
	}
}

func runExecutor(cfg *config.Config) {
	d := buildDeps(cfg)
	defer d.close()

	api.StartHealthServer(cfg.Port, "executor")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Starting connect-four task executor")
	poller := scheduler.NewPoller(d.rdb, cfg.SchedulerPollInterval, d.router.TryToLoseByTime)
	poller.Run(ctx)
}

func runCreateStream(cfg *config.Config) {
	nc, js, err := natsconn.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Close()

	if err := natsconn.EnsureStream(js); err != nil {
		log.Fatalf("Failed to create games stream: %v", err)
	}
	log.Printf("Stream %s is ready", natsconn.StreamName)
}

func parseGameIDOrNew(s string) domain.GameID {
	if s == "" {
		return domain.NewGameID()
	}
	id, err := domain.ParseGameID(s)
	if err != nil {
		log.Fatalf("Invalid game id: %v", err)
	}
	return id
}

func parseLobbyIDFlag(s string) domain.LobbyID {
	if s == "" {
		return domain.NewLobbyID()
	}
	id, err := domain.ParseLobbyID(s)
	if err != nil {
		log.Fatalf("Invalid lobby id: %v", err)
	}
	return id
}

func parsePlayerFlags(id, clock, communication string) domain.Player {
	userID, err := domain.ParseUserID(id)
	if err != nil {
		log.Fatalf("Invalid player id: %v", err)
	}

	playerTime, err := bus.ParseClockDuration(clock)
	if err != nil {
		// Also accept Go duration syntax for convenience.
		playerTime, err = time.ParseDuration(clock)
		if err != nil {
			log.Fatalf("Invalid player time %q", clock)
		}
	}

	communicationType := domain.CommunicationType(communication)
	if communicationType != domain.CommunicationTypeCentrifugo && communicationType != domain.CommunicationTypeOther {
		log.Fatalf("Invalid communication type %q", communication)
	}

	return domain.Player{
		ID:                userID,
		Time:              playerTime,
		CommunicationType: communicationType,
	}
}

func newOperationID() app.OperationID {
	return app.OperationID(uuid.New().String())
}
