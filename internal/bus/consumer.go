package bus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/connectfour/backend/internal/app"
	"github.com/connectfour/backend/internal/natsconn"
)

const (
	subjectCreateGame = "connection_hub.connect_four.game.created"
	subjectEndGame    = "connection_hub.connect_four.game.player_disqualified"
	subjectMakeMove   = "api_gateway.connect_four.game.move_was_made"

	fetchBatchSize = 16
	fetchMaxWait   = 2 * time.Second
	handleTimeout  = 10 * time.Second
)

// errBadMessage marks payloads that can never decode; they are terminated
// instead of redelivered.
var errBadMessage = errors.New("malformed message")

// Consumer pulls inbound commands off the games stream with one durable
// consumer per subject and routes each message to its processor. Failed
// messages are nacked for redelivery; command-level errors (duplicate
// create, missing game) are terminal and acked away.
type Consumer struct {
	js     nats.JetStreamContext
	router *Router
	debug  bool
}

func NewConsumer(js nats.JetStreamContext, router *Router, debug bool) *Consumer {
	return &Consumer{js: js, router: router, debug: debug}
}

// Run spawns one pull loop per command subject and blocks until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	bindings := []struct {
		subject string
		durable string
		handle  func(ctx context.Context, data []byte) error
	}{
		{subjectCreateGame, "connect_four_game_created", c.handleCreateGame},
		{subjectEndGame, "connect_four_game_player_disqualified", c.handleEndGame},
		{subjectMakeMove, "connect_four_game_move_was_made", c.handleMakeMove},
	}

	for _, binding := range bindings {
		sub, err := c.js.PullSubscribe(
			binding.subject,
			binding.durable,
			nats.BindStream(natsconn.StreamName),
			nats.ManualAck(),
		)
		if err != nil {
			return err
		}

		log.Printf("[CONSUMER] subscribed to %s (durable=%s)", binding.subject, binding.durable)
		go c.pullLoop(ctx, sub, binding.subject, binding.handle)
	}

	<-ctx.Done()
	log.Println("[CONSUMER] stopping")
	return nil
}

func (c *Consumer) pullLoop(
	ctx context.Context,
	sub *nats.Subscription,
	subject string,
	handle func(ctx context.Context, data []byte) error,
) {
	for {
		if ctx.Err() != nil {
			return
		}

		msgs, err := sub.Fetch(fetchBatchSize, nats.MaxWait(fetchMaxWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || ctx.Err() != nil {
				continue
			}
			log.Printf("[CONSUMER] fetch on %s failed: %v", subject, err)
			continue
		}

		for _, msg := range msgs {
			c.dispatch(ctx, subject, msg, handle)
		}
	}
}

func (c *Consumer) dispatch(
	ctx context.Context,
	subject string,
	msg *nats.Msg,
	handle func(ctx context.Context, data []byte) error,
) {
	if c.debug {
		log.Printf("[CONSUMER] message on %s: %s", subject, msg.Data)
	}

	handleCtx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	err := handle(handleCtx, msg.Data)
	switch {
	case err == nil:
		msg.Ack()

	case errors.Is(err, app.ErrGameAlreadyExists),
		errors.Is(err, app.ErrGameDoesNotExist),
		errors.Is(err, errBadMessage):
		// Terminal for this command; redelivery cannot succeed.
		log.Printf("[CONSUMER] terminal error on %s: %v", subject, err)
		msg.Term()

	default:
		log.Printf("[CONSUMER] handling %s failed: %v", subject, err)
		msg.Nak()
	}
}

func (c *Consumer) handleCreateGame(ctx context.Context, data []byte) error {
	cmd, err := decodeCreateGameCommand(data)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadMessage, err)
	}
	return c.router.CreateGame(ctx, cmd)
}

func (c *Consumer) handleEndGame(ctx context.Context, data []byte) error {
	cmd, err := decodeEndGameCommand(data)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadMessage, err)
	}
	return c.router.EndGame(ctx, cmd)
}

func (c *Consumer) handleMakeMove(ctx context.Context, data []byte) error {
	cmd, err := decodeMakeMoveCommand(data)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadMessage, err)
	}
	return c.router.MakeMove(ctx, cmd)
}
