// Package ws is the session gateway: the only component that talks to
// client connections. It validates inbound frames, maps each one to a single
// registry or engine operation and fans the resulting state out to the
// sockets bound to the affected room.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/brainrotduel/server/internal/game"
)

type Gateway struct {
	reg      *game.Registry
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

func New(reg *game.Registry, log zerolog.Logger) *Gateway {
	g := &Gateway{
		reg: reg,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
	reg.SetNotifier(g)
	return g
}

// Handle upgrades an HTTP request to a websocket session.
func (g *Gateway) Handle(c *gin.Context) {
	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	cl := newClient(uuid.NewString(), conn, g.log)

	g.mu.Lock()
	g.clients[cl] = struct{}{}
	g.mu.Unlock()

	g.log.Info().Str("conn", cl.id).Msg("socket connected")
	go cl.writePump()
	go cl.readPump(g)
}

// handleMessage dispatches one inbound frame. Unknown or malformed frames
// produce an ERROR reply, never a dropped connection.
func (g *Gateway) handleMessage(cl *Client, raw []byte) {
	var env clientEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		g.sendError(cl, KindUnknownMessage, "malformed message")
		return
	}

	switch env.Type {
	case TypeGetRooms:
		cl.enqueue(roomsUpdateMsg{Type: TypeRoomsUpdate, Rooms: g.reg.ListRooms()})
	case TypeCreateRoom:
		g.handleCreateRoom(cl, env)
	case TypeJoinRoom:
		g.handleJoinRoom(cl, env)
	case TypeLeaveRoom:
		g.handleLeaveRoom(cl, env)
	case TypeSubmitGuess:
		g.handleSubmitGuess(cl, env)
	case TypeChatMessage:
		g.handleChatMessage(cl, env)
	default:
		g.log.Debug().Str("type", env.Type).Msg("unknown message type")
		g.sendError(cl, KindUnknownMessage, "unknown message type: "+env.Type)
	}
}

func (g *Gateway) handleCreateRoom(cl *Client, env clientEnvelope) {
	if env.Player == nil || env.Player.Name == "" {
		g.sendError(cl, KindMissingField, "player is required")
		return
	}
	playerID := env.Player.ID
	if playerID == "" {
		playerID = uuid.NewString()
	}
	room, err := g.reg.CreateRoom(env.Name, game.Player{ID: playerID, Name: env.Player.Name})
	if err != nil {
		g.sendError(cl, kindFor(err), err.Error())
		return
	}
	cl.playerID = playerID
	cl.playerName = env.Player.Name
	g.bind(cl, room.ID)
	cl.enqueue(roomJoinedMsg{Type: TypeRoomJoined, Room: room.View()})
}

func (g *Gateway) handleJoinRoom(cl *Client, env clientEnvelope) {
	if env.RoomID == "" || env.Player == nil || env.Player.Name == "" {
		g.sendError(cl, KindMissingField, "roomId and player are required")
		return
	}
	playerID := env.Player.ID
	if playerID == "" {
		playerID = uuid.NewString()
	}
	room, joined, err := g.reg.JoinRoom(env.RoomID, game.Player{ID: playerID, Name: env.Player.Name})
	if err != nil {
		g.sendError(cl, kindFor(err), err.Error())
		return
	}
	cl.playerID = playerID
	cl.playerName = env.Player.Name
	g.bind(cl, room.ID)

	view := room.View()
	cl.enqueue(roomJoinedMsg{Type: TypeRoomJoined, Room: view})
	// A client entering an in-progress room needs the current round to render;
	// no broadcast is due, so hand it the snapshot directly.
	if view.Status == game.RoomInProgress {
		cl.enqueue(gameStateMsg{Type: TypeGameStateUpdate, RoomID: room.ID, GameState: room.State()})
	}
	if joined {
		for _, p := range view.Players {
			if p.ID == playerID {
				g.broadcastRoomExcept(room.ID, cl, playerJoinedMsg{Type: TypePlayerJoined, RoomID: room.ID, Player: p})
				break
			}
		}
	}
}

func (g *Gateway) handleLeaveRoom(cl *Client, env clientEnvelope) {
	roomID, playerID := env.RoomID, env.PlayerID
	if roomID == "" {
		roomID = cl.roomID
	}
	if playerID == "" {
		playerID = cl.playerID
	}
	if roomID == "" || playerID == "" {
		g.sendError(cl, KindMissingField, "roomId and playerId are required")
		return
	}
	if err := g.reg.LeaveRoom(roomID, playerID); err != nil {
		g.sendError(cl, kindFor(err), err.Error())
		return
	}
	g.unbind(cl)
	g.broadcastRoom(roomID, playerLeftMsg{Type: TypePlayerLeft, RoomID: roomID, PlayerID: playerID})
}

func (g *Gateway) handleSubmitGuess(cl *Client, env clientEnvelope) {
	roomID, playerID := env.RoomID, env.PlayerID
	if playerID == "" {
		playerID = cl.playerID
	}
	if roomID == "" || playerID == "" {
		g.sendError(cl, KindMissingField, "roomId and playerId are required")
		return
	}
	room, err := g.reg.Get(roomID)
	if err != nil {
		g.sendError(cl, kindFor(err), err.Error())
		return
	}
	if _, err := room.SubmitGuess(playerID, env.Guess); err != nil {
		// An expired guess already resolved the round as a timeout and the
		// resulting state was broadcast; it is not a client error.
		if err != game.ErrExpired {
			g.sendError(cl, kindFor(err), err.Error())
		}
		return
	}
}

func (g *Gateway) handleChatMessage(cl *Client, env clientEnvelope) {
	roomID, playerID := env.RoomID, cl.playerID
	if env.Player != nil && env.Player.ID != "" {
		playerID = env.Player.ID
	}
	if roomID == "" || playerID == "" {
		g.sendError(cl, KindMissingField, "roomId and player are required")
		return
	}
	room, err := g.reg.Get(roomID)
	if err != nil {
		g.sendError(cl, kindFor(err), err.Error())
		return
	}
	msg, err := room.PostChat(playerID, env.Message)
	if err != nil {
		g.sendError(cl, kindFor(err), err.Error())
		return
	}
	g.broadcastRoom(roomID, chatUpdateMsg{Type: TypeChatUpdate, Message: msg})
}

// disconnect is called when a client's read pump exits. The player's seat is
// vacated so the registry can forfeit or tear down the room as appropriate —
// unless the player already re-joined on a fresh socket, in which case the
// stale close must not touch the seat.
func (g *Gateway) disconnect(cl *Client) {
	roomID, playerID := cl.roomID, cl.playerID
	g.unbind(cl)

	g.mu.Lock()
	delete(g.clients, cl)
	rebound := false
	if roomID != "" && playerID != "" {
		for other := range g.rooms[roomID] {
			if other.playerID == playerID {
				rebound = true
				break
			}
		}
	}
	g.mu.Unlock()
	// The send channel stays open; the write pump exits on its own once the
	// underlying connection is closed, so late broadcasts cannot panic on a
	// closed channel.

	if roomID != "" && playerID != "" && !rebound {
		if err := g.reg.LeaveRoom(roomID, playerID); err == nil {
			g.broadcastRoom(roomID, playerLeftMsg{Type: TypePlayerLeft, RoomID: roomID, PlayerID: playerID})
		}
	}
	g.log.Info().Str("conn", cl.id).Msg("socket disconnected")
}

func (g *Gateway) bind(cl *Client, roomID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cl.roomID != "" && cl.roomID != roomID {
		if members := g.rooms[cl.roomID]; members != nil {
			delete(members, cl)
		}
	}
	cl.roomID = roomID
	if g.rooms[roomID] == nil {
		g.rooms[roomID] = make(map[*Client]struct{})
	}
	g.rooms[roomID][cl] = struct{}{}
}

func (g *Gateway) unbind(cl *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cl.roomID == "" {
		return
	}
	if members := g.rooms[cl.roomID]; members != nil {
		delete(members, cl)
		if len(members) == 0 {
			delete(g.rooms, cl.roomID)
		}
	}
	cl.roomID = ""
}

func (g *Gateway) sendError(cl *Client, kind, message string) {
	cl.enqueue(errorMsg{Type: TypeError, Kind: kind, Message: message})
}

func (g *Gateway) broadcastRoom(roomID string, msg any) {
	g.broadcastRoomExcept(roomID, nil, msg)
}

func (g *Gateway) broadcastRoomExcept(roomID string, except *Client, msg any) {
	g.mu.RLock()
	targets := make([]*Client, 0, len(g.rooms[roomID]))
	for cl := range g.rooms[roomID] {
		if cl != except {
			targets = append(targets, cl)
		}
	}
	g.mu.RUnlock()

	for _, cl := range targets {
		if !cl.enqueue(msg) {
			g.log.Warn().Str("conn", cl.id).Str("room", roomID).Msg("send queue full, dropping message")
		}
	}
}

func (g *Gateway) broadcastAll(msg any) {
	g.mu.RLock()
	targets := make([]*Client, 0, len(g.clients))
	for cl := range g.clients {
		targets = append(targets, cl)
	}
	g.mu.RUnlock()

	for _, cl := range targets {
		if !cl.enqueue(msg) {
			g.log.Warn().Str("conn", cl.id).Msg("send queue full, dropping message")
		}
	}
}

// The gateway is the registry's Notifier, fanning out timer-driven state
// changes that no client message triggered.

func (g *Gateway) RoomListChanged(rooms []game.RoomSummary) {
	g.broadcastAll(roomsUpdateMsg{Type: TypeRoomsUpdate, Rooms: rooms})
}

func (g *Gateway) GameStateChanged(roomID string, state game.GameState) {
	g.broadcastRoom(roomID, gameStateMsg{Type: TypeGameStateUpdate, RoomID: roomID, GameState: state})
}

func (g *Gateway) RoomClosed(roomID string) {
	g.mu.Lock()
	for cl := range g.rooms[roomID] {
		cl.roomID = ""
	}
	delete(g.rooms, roomID)
	g.mu.Unlock()
}
