package game

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/brainrotduel/server/internal/content"
)

const maxIDAttempts = 32

type Options struct {
	TotalRounds  int
	RoundTimeout time.Duration
	RevealDelay  time.Duration
	GraceTimeout time.Duration
	SettleWindow time.Duration
}

func (o Options) withDefaults() Options {
	if o.TotalRounds <= 0 {
		o.TotalRounds = 5
	}
	if o.RoundTimeout <= 0 {
		o.RoundTimeout = 30 * time.Second
	}
	if o.RevealDelay < 0 {
		o.RevealDelay = 0
	}
	if o.GraceTimeout <= 0 {
		o.GraceTimeout = 30 * time.Second
	}
	if o.SettleWindow <= 0 {
		o.SettleWindow = 5 * time.Second
	}
	return o
}

// Registry owns the set of rooms. Cross-room state lives behind its RWMutex;
// everything inside a room is serialized by that room's own lock, so no room
// ever blocks on another room's operations.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	pool   []content.Pair
	opts   Options
	notify Notifier
	log    zerolog.Logger
}

func NewRegistry(pool []content.Pair, opts Options, log zerolog.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		pool:  pool,
		opts:  opts.withDefaults(),
		log:   log,
	}
}

// SetNotifier wires the gateway in for timer-driven fan-out. Must be called
// before the registry starts serving traffic.
func (r *Registry) SetNotifier(n Notifier) { r.notify = n }

func (r *Registry) Get(roomID string) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm := r.rooms[roomID]
	if rm == nil {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

// ListRooms returns lobby summaries of all live rooms, sorted by creation
// time so the lobby ordering is stable across refreshes.
func (r *Registry) ListRooms() []RoomSummary {
	r.mu.RLock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	r.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	out := make([]RoomSummary, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, rm.Summary())
	}
	return out
}

// CreateRoom creates a room with the creator as its only member.
func (r *Registry) CreateRoom(name string, creator Player) (*Room, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	creator.Score = 0
	creator.joinedAt = time.Now().UTC()

	r.mu.Lock()
	id := ""
	for i := 0; i < maxIDAttempts; i++ {
		candidate := randomCode(6)
		if r.rooms[candidate] == nil {
			id = candidate
			break
		}
	}
	if id == "" {
		r.mu.Unlock()
		r.log.Error().Str("room", name).Msg("room id generation exhausted")
		return nil, ErrIDSpaceExhausted
	}
	rm := &Room{
		ID:          id,
		Name:        strings.TrimSpace(name),
		Status:      RoomWaiting,
		Players:     []*Player{&creator},
		CreatedBy:   creator.ID,
		CreatedAt:   creator.joinedAt,
		chat:        []ChatMessage{},
		usedContent: make(map[int]struct{}),
		gameStatus:  GameWaiting,
		reg:         r,
	}
	r.rooms[id] = rm
	r.mu.Unlock()

	r.log.Info().Str("room", id).Str("name", rm.Name).Str("creator", creator.ID).Msg("room created")
	r.notifyList()
	return rm, nil
}

// JoinRoom adds a player to a room. Joining a room the player is already a
// member of is idempotent and returns the current room with joined=false,
// which tolerates reconnect races. The second join starts round 1.
func (r *Registry) JoinRoom(roomID string, p Player) (room *Room, joined bool, err error) {
	rm, err := r.Get(roomID)
	if err != nil {
		return nil, false, err
	}

	rm.mu.Lock()
	if rm.memberLocked(p.ID) != nil {
		rm.mu.Unlock()
		return rm, false, nil
	}
	if rm.Status == RoomClosed || rm.ended {
		rm.mu.Unlock()
		return nil, false, ErrRoomClosed
	}
	if len(rm.Players) >= 2 {
		rm.mu.Unlock()
		return nil, false, ErrRoomFull
	}
	if len(rm.Players) == 1 && len(r.pool) < r.opts.TotalRounds {
		rm.mu.Unlock()
		return nil, false, ErrExhaustedContent
	}
	if rm.graceTimer != nil {
		rm.graceTimer.Stop()
		rm.graceTimer = nil
	}
	p.Score = 0
	p.joinedAt = time.Now().UTC()
	rm.Players = append(rm.Players, &p)

	started := false
	if len(rm.Players) == 2 {
		rm.Status = RoomInProgress
		if err := rm.startRoundLocked(1); err != nil {
			// Pool size is checked above, getting here means a bug.
			r.log.Error().Err(err).Str("room", rm.ID).Msg("failed to start round 1")
			rm.Status = RoomWaiting
		} else {
			started = true
		}
	}
	rm.mu.Unlock()

	r.log.Info().Str("room", roomID).Str("player", p.ID).Bool("started", started).Msg("player joined")
	r.notifyList()
	if started {
		r.notifyState(rm)
	}
	return rm, true, nil
}

// LeaveRoom removes a player. Leaving mid-game forfeits the game to the
// remaining player and closes the room after the settlement window; a room
// left empty is torn down after the grace timeout so quick reconnects can
// still find it.
func (r *Registry) LeaveRoom(roomID, playerID string) error {
	rm, err := r.Get(roomID)
	if err != nil {
		return err
	}

	rm.mu.Lock()
	idx := -1
	for i, p := range rm.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		rm.mu.Unlock()
		return ErrNotInRoom
	}
	rm.Players = append(rm.Players[:idx], rm.Players[idx+1:]...)

	forfeited := false
	if rm.Status == RoomInProgress && !rm.ended && len(rm.Players) == 1 {
		rm.stopRoundTimersLocked()
		rm.ended = true
		rm.winnerID = rm.Players[0].ID
		rm.gameStatus = GameEnded
		rm.ranking = rm.computeRankingLocked()
		rm.settleTimer = time.AfterFunc(r.opts.SettleWindow, func() { r.handleSettle(rm) })
		forfeited = true
	}
	if len(rm.Players) == 0 {
		rm.stopAllTimersLocked()
		rm.graceTimer = time.AfterFunc(r.opts.GraceTimeout, func() { r.handleGraceExpiry(rm) })
	}
	rm.mu.Unlock()

	r.log.Info().Str("room", roomID).Str("player", playerID).Bool("forfeit", forfeited).Msg("player left")
	r.notifyList()
	if forfeited {
		r.notifyState(rm)
	}
	return nil
}

// handleSettle closes a forfeited room once the settlement window elapses.
func (r *Registry) handleSettle(rm *Room) {
	rm.mu.Lock()
	if rm.Status == RoomClosed {
		rm.mu.Unlock()
		return
	}
	rm.Status = RoomClosed
	rm.stopAllTimersLocked()
	rm.mu.Unlock()

	r.remove(rm, "settled")
}

// handleGraceExpiry tears down a room that stayed empty through the grace
// timeout. A join in the meantime cancels the timer, so re-check emptiness
// in case the stop raced the firing.
func (r *Registry) handleGraceExpiry(rm *Room) {
	rm.mu.Lock()
	if len(rm.Players) > 0 || rm.Status == RoomClosed {
		rm.mu.Unlock()
		return
	}
	rm.Status = RoomClosed
	rm.stopAllTimersLocked()
	rm.mu.Unlock()

	r.remove(rm, "empty")
}

func (r *Registry) remove(rm *Room, reason string) {
	r.mu.Lock()
	delete(r.rooms, rm.ID)
	r.mu.Unlock()

	r.log.Info().Str("room", rm.ID).Str("reason", reason).Msg("room removed")
	if n := r.notify; n != nil {
		n.RoomClosed(rm.ID)
	}
	r.notifyList()
}

func (r *Registry) notifyList() {
	if n := r.notify; n != nil {
		n.RoomListChanged(r.ListRooms())
	}
}

func (r *Registry) notifyState(rm *Room) {
	if n := r.notify; n != nil {
		n.GameStateChanged(rm.ID, rm.State())
	}
}

func randomCode(n int) string {
	letters := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
