package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectfour/backend/internal/domain"
)

type fakeStore struct {
	games     map[domain.GameID]*domain.Game
	listed    []*domain.Game
	saved     []*domain.Game
	updated   []*domain.Game
	locked    []domain.GameID
	committed bool
}

func newFakeStore(games ...*domain.Game) *fakeStore {
	s := &fakeStore{games: make(map[domain.GameID]*domain.Game)}
	for _, game := range games {
		s.games[game.ID] = game
	}
	return s
}

func (s *fakeStore) ByID(_ context.Context, gameID domain.GameID, acquire bool) (*domain.Game, error) {
	if acquire {
		s.locked = append(s.locked, gameID)
	}
	return s.games[gameID], nil
}

func (s *fakeStore) ListByPlayerIDs(_ context.Context, _ [2]domain.UserID, _ SortGamesBy, _ int) ([]*domain.Game, error) {
	return s.listed, nil
}

func (s *fakeStore) Save(_ context.Context, game *domain.Game) error {
	s.saved = append(s.saved, game)
	return nil
}

func (s *fakeStore) Update(_ context.Context, game *domain.Game) error {
	s.updated = append(s.updated, game)
	return nil
}

func (s *fakeStore) Commit(context.Context) error {
	s.committed = true
	return nil
}

type fakePublisher struct {
	events []Event
}

func (p *fakePublisher) Publish(_ context.Context, event Event) error {
	p.events = append(p.events, event)
	return nil
}

type fakeScheduler struct {
	scheduled   []TryToLoseByTimeTask
	unscheduled []string
}

func (s *fakeScheduler) Schedule(_ context.Context, task TryToLoseByTimeTask) error {
	s.scheduled = append(s.scheduled, task)
	return nil
}

func (s *fakeScheduler) Unschedule(_ context.Context, taskID string) error {
	s.unscheduled = append(s.unscheduled, taskID)
	return nil
}

type relayPub struct {
	channel string
	data    any
}

type fakeRelay struct {
	published []relayPub
}

func (r *fakeRelay) Publish(_ context.Context, channel string, data any) error {
	r.published = append(r.published, relayPub{channel: channel, data: data})
	return nil
}

func testPlayers(withCentrifugo bool) (domain.Player, domain.Player) {
	firstComm := domain.CommunicationTypeOther
	if withCentrifugo {
		firstComm = domain.CommunicationTypeCentrifugo
	}
	first := domain.Player{ID: domain.NewUserID(), Time: time.Minute, CommunicationType: firstComm}
	second := domain.Player{ID: domain.NewUserID(), Time: time.Minute, CommunicationType: domain.CommunicationTypeOther}
	return first, second
}

func TestCreateGamePublishesEventAndCommits(t *testing.T) {
	first, second := testPlayers(true)
	store := newFakeStore()
	publisher := &fakePublisher{}
	relay := &fakeRelay{}

	cmd := CreateGameCommand{
		GameID:       domain.NewGameID(),
		LobbyID:      domain.NewLobbyID(),
		FirstPlayer:  first,
		SecondPlayer: second,
		CreatedAt:    time.Now().UTC(),
		OperationID:  "op-1",
	}

	err := NewCreateGameProcessor(store, publisher, relay).Process(context.Background(), cmd)
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	game := store.saved[0]
	assert.Equal(t, cmd.GameID, game.ID)
	assert.Equal(t, domain.GameStatusNotStarted, game.Status)
	assert.True(t, store.committed)

	require.Len(t, publisher.events, 1)
	event, ok := publisher.events[0].(GameCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, cmd.GameID, event.GameID)
	assert.Equal(t, cmd.LobbyID, event.LobbyID)
	assert.Equal(t, OperationID("op-1"), event.OperationID)

	require.Len(t, relay.published, 1)
	assert.Equal(t, "lobbies:"+cmd.LobbyID.Hex(), relay.published[0].channel)
}

func TestCreateGameRejectsDuplicateID(t *testing.T) {
	first, second := testPlayers(false)
	existing := domain.NewGame(domain.NewGameID(), first, second, time.Now().UTC(), nil)
	store := newFakeStore(existing)
	publisher := &fakePublisher{}

	cmd := CreateGameCommand{
		GameID:       existing.ID,
		LobbyID:      domain.NewLobbyID(),
		FirstPlayer:  first,
		SecondPlayer: second,
		CreatedAt:    time.Now().UTC(),
	}

	err := NewCreateGameProcessor(store, publisher, &fakeRelay{}).Process(context.Background(), cmd)

	assert.ErrorIs(t, err, ErrGameAlreadyExists)
	assert.Empty(t, store.saved)
	assert.Empty(t, publisher.events)
	assert.False(t, store.committed)
}

func TestCreateGameSwapsColorsAgainstLastGame(t *testing.T) {
	first, second := testPlayers(false)
	lastGame := domain.NewGame(domain.NewGameID(), first, second, time.Now().UTC(), nil)
	store := newFakeStore()
	store.listed = []*domain.Game{lastGame}

	cmd := CreateGameCommand{
		GameID:       domain.NewGameID(),
		LobbyID:      domain.NewLobbyID(),
		FirstPlayer:  first,
		SecondPlayer: second,
		CreatedAt:    time.Now().UTC(),
	}

	err := NewCreateGameProcessor(store, &fakePublisher{}, &fakeRelay{}).Process(context.Background(), cmd)
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	game := store.saved[0]
	assert.Equal(t, domain.ChipTypeSecond, game.Players[first.ID].ChipType)
	assert.Equal(t, domain.ChipTypeFirst, game.Players[second.ID].ChipType)
	assert.Equal(t, second.ID, game.CurrentTurn)
}

func TestCreateGameSkipsRelayWithoutCentrifugoPlayers(t *testing.T) {
	first, second := testPlayers(false)
	store := newFakeStore()
	relay := &fakeRelay{}

	cmd := CreateGameCommand{
		GameID:       domain.NewGameID(),
		LobbyID:      domain.NewLobbyID(),
		FirstPlayer:  first,
		SecondPlayer: second,
		CreatedAt:    time.Now().UTC(),
	}

	err := NewCreateGameProcessor(store, &fakePublisher{}, relay).Process(context.Background(), cmd)
	require.NoError(t, err)

	assert.Empty(t, relay.published)
	assert.True(t, store.committed)
}

func TestMakeMoveAcceptedSchedulesTimeoutForNextPlayer(t *testing.T) {
	first, second := testPlayers(true)
	game := domain.NewGame(domain.NewGameID(), first, second, time.Now().UTC(), nil)
	oldStateID := game.StateID

	store := newFakeStore(game)
	publisher := &fakePublisher{}
	sched := &fakeScheduler{}
	relay := &fakeRelay{}

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	p := NewMakeMoveProcessor(store, publisher, sched, relay)
	p.now = func() time.Time { return now }

	cmd := MakeMoveCommand{
		GameID:        game.ID,
		CurrentUserID: first.ID,
		Column:        3,
		OperationID:   "op-2",
	}
	require.NoError(t, p.Process(context.Background(), cmd))

	assert.Equal(t, []domain.GameID{game.ID}, store.locked)
	require.Len(t, store.updated, 1)
	assert.True(t, store.committed)

	// The timeout armed for the pre-move state is cancelled and a fresh one
	// scheduled against the new state for the player now on turn.
	assert.Equal(t, []string{TryToLoseByTimeTaskID(oldStateID)}, sched.unscheduled)
	require.Len(t, sched.scheduled, 1)
	task := sched.scheduled[0]
	assert.Equal(t, TryToLoseByTimeTaskID(game.StateID), task.ID)
	assert.Equal(t, game.StateID, task.GameStateID)
	assert.Equal(t, now.Add(time.Minute), task.ExecuteAt)

	require.Len(t, publisher.events, 1)
	event, ok := publisher.events[0].(MoveAcceptedEvent)
	require.True(t, ok)
	assert.Equal(t, domain.ChipLocation{Row: 6, Column: 3}, event.ChipLocation)
	assert.Equal(t, second.ID, event.CurrentTurn)

	require.Len(t, relay.published, 1)
	assert.Equal(t, "games:"+game.ID.Hex(), relay.published[0].channel)
}

func TestMakeMoveRejectedStillPersistsWithoutScheduling(t *testing.T) {
	first, second := testPlayers(false)
	game := domain.NewGame(domain.NewGameID(), first, second, time.Now().UTC(), nil)

	store := newFakeStore(game)
	publisher := &fakePublisher{}
	sched := &fakeScheduler{}

	// Not the second player's turn yet.
	cmd := MakeMoveCommand{
		GameID:        game.ID,
		CurrentUserID: second.ID,
		Column:        0,
		OperationID:   "op-3",
	}
	p := NewMakeMoveProcessor(store, publisher, sched, &fakeRelay{})
	require.NoError(t, p.Process(context.Background(), cmd))

	require.Len(t, store.updated, 1)
	assert.True(t, store.committed)
	assert.Empty(t, sched.unscheduled)
	assert.Empty(t, sched.scheduled)

	require.Len(t, publisher.events, 1)
	event, ok := publisher.events[0].(MoveRejectedEvent)
	require.True(t, ok)
	assert.Equal(t, domain.RejectionOtherPlayerTurn, event.Reason)
}

func TestMakeMoveWinUnschedulesWithoutReschedule(t *testing.T) {
	first, second := testPlayers(false)
	game := domain.NewGame(domain.NewGameID(), first, second, time.Now().UTC(), nil)

	// Play first's opening move, then stage three in a row for the win.
	require.IsType(t, domain.MoveAccepted{},
		domain.MakeMove(game, first.ID, 0, time.Now().UTC()))
	game.CurrentTurn = first.ID
	for column := 1; column < 3; column++ {
		chip := domain.ChipTypeFirst
		game.Board[6][column] = &chip
	}
	oldStateID := game.StateID

	store := newFakeStore(game)
	publisher := &fakePublisher{}
	sched := &fakeScheduler{}

	cmd := MakeMoveCommand{
		GameID:        game.ID,
		CurrentUserID: first.ID,
		Column:        3,
		OperationID:   "op-4",
	}
	p := NewMakeMoveProcessor(store, publisher, sched, &fakeRelay{})
	require.NoError(t, p.Process(context.Background(), cmd))

	assert.Equal(t, []string{TryToLoseByTimeTaskID(oldStateID)}, sched.unscheduled)
	assert.Empty(t, sched.scheduled)

	require.Len(t, publisher.events, 1)
	event, ok := publisher.events[0].(GameEndedEvent)
	require.True(t, ok)
	assert.Equal(t, GameEndReasonWin, event.Reason)
	require.NotNil(t, event.ChipLocation)
	assert.Equal(t, domain.ChipLocation{Row: 6, Column: 3}, *event.ChipLocation)
}

func TestMakeMoveMissingGame(t *testing.T) {
	p := NewMakeMoveProcessor(newFakeStore(), &fakePublisher{}, &fakeScheduler{}, &fakeRelay{})

	err := p.Process(context.Background(), MakeMoveCommand{
		GameID:        domain.NewGameID(),
		CurrentUserID: domain.NewUserID(),
		Column:        0,
	})

	assert.ErrorIs(t, err, ErrGameDoesNotExist)
}

func TestEndGameUnschedulesAndCommits(t *testing.T) {
	first, second := testPlayers(false)
	game := domain.NewGame(domain.NewGameID(), first, second, time.Now().UTC(), nil)
	oldStateID := game.StateID

	store := newFakeStore(game)
	sched := &fakeScheduler{}

	cmd := EndGameCommand{GameID: game.ID, OperationID: "op-5"}
	require.NoError(t, NewEndGameProcessor(store, sched).Process(context.Background(), cmd))

	assert.Equal(t, []string{TryToLoseByTimeTaskID(oldStateID)}, sched.unscheduled)
	require.Len(t, store.updated, 1)
	assert.Equal(t, domain.GameStatusEnded, store.updated[0].Status)
	assert.True(t, store.committed)
}

func TestTryToLoseByTimeStaleFiringIsNoOp(t *testing.T) {
	first, second := testPlayers(true)
	game := domain.NewGame(domain.NewGameID(), first, second, time.Now().UTC(), nil)

	store := newFakeStore(game)
	publisher := &fakePublisher{}
	relay := &fakeRelay{}

	cmd := TryToLoseByTimeCommand{
		GameID:      game.ID,
		GameStateID: domain.NewGameStateID(),
	}
	err := NewTryToLoseByTimeProcessor(store, publisher, relay).Process(context.Background(), cmd)

	require.NoError(t, err)
	assert.Empty(t, store.updated)
	assert.Empty(t, publisher.events)
	assert.Empty(t, relay.published)
	assert.False(t, store.committed)
	assert.Equal(t, domain.GameStatusNotStarted, game.Status)
}

func TestTryToLoseByTimeEndsGame(t *testing.T) {
	first, second := testPlayers(true)
	game := domain.NewGame(domain.NewGameID(), first, second, time.Now().UTC(), nil)

	store := newFakeStore(game)
	publisher := &fakePublisher{}
	relay := &fakeRelay{}

	cmd := TryToLoseByTimeCommand{
		GameID:      game.ID,
		GameStateID: game.StateID,
		OperationID: "op-6",
	}
	err := NewTryToLoseByTimeProcessor(store, publisher, relay).Process(context.Background(), cmd)
	require.NoError(t, err)

	require.Len(t, store.updated, 1)
	assert.Equal(t, domain.GameStatusEnded, game.Status)
	assert.Equal(t, time.Duration(0), game.Players[first.ID].TimeLeft)
	assert.True(t, store.committed)

	require.Len(t, publisher.events, 1)
	event, ok := publisher.events[0].(GameEndedEvent)
	require.True(t, ok)
	assert.Equal(t, GameEndReasonLossByTime, event.Reason)
	assert.Nil(t, event.ChipLocation)
	assert.Equal(t, first.ID, event.LastTurn)
	assert.Equal(t, OperationID("op-6"), event.OperationID)

	require.Len(t, relay.published, 1)
	assert.Equal(t, "games:"+game.ID.Hex(), relay.published[0].channel)
}
