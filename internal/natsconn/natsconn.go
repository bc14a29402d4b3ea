package natsconn

import (
	"time"

	"github.com/nats-io/nats.go"
)

// StreamName is the single JetStream stream carrying both inbound commands
// and outbound domain events.
const StreamName = "games"

// StreamSubjects lists every subject bound to the games stream: the four
// event subjects this service publishes and the three command subjects the
// connection hub and API gateway publish for it.
var StreamSubjects = []string{
	"connect_four.game.created",
	"connect_four.game.ended",
	"connect_four.game.move_accepted",
	"connect_four.game.move_rejected",
	"connection_hub.connect_four.game.created",
	"connection_hub.connect_four.game.player_disqualified",
	"api_gateway.connect_four.game.move_was_made",
}

// Connect establishes a NATS connection and returns it with a JetStream
// context.
func Connect(natsURL string) (*nats.Conn, nats.JetStreamContext, error) {
	nc, err := nats.Connect(
		natsURL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, err
	}

	return nc, js, nil
}

// EnsureStream creates the games stream if it does not exist yet. Safe to
// call on every boot.
func EnsureStream(js nats.JetStreamContext) error {
	_, err := js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	if err != nats.ErrStreamNotFound {
		return err
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: StreamSubjects,
	})
	return err
}
