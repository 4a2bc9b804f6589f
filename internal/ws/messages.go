package ws

import "github.com/brainrotduel/server/internal/game"

// Client -> server message types.
const (
	TypeGetRooms    = "GET_ROOMS"
	TypeCreateRoom  = "CREATE_ROOM"
	TypeJoinRoom    = "JOIN_ROOM"
	TypeLeaveRoom   = "LEAVE_ROOM"
	TypeSubmitGuess = "SUBMIT_GUESS"
	TypeChatMessage = "CHAT_MESSAGE"
)

// Server -> client message types.
const (
	TypeRoomsUpdate     = "ROOMS_UPDATE"
	TypeRoomJoined      = "ROOM_JOINED"
	TypePlayerJoined    = "PLAYER_JOINED"
	TypePlayerLeft      = "PLAYER_LEFT"
	TypeGameStateUpdate = "GAME_STATE_UPDATE"
	TypeChatUpdate      = "CHAT_UPDATE"
	TypeError           = "ERROR"
)

// playerRef is the player identity a client includes in CREATE_ROOM,
// JOIN_ROOM and CHAT_MESSAGE payloads.
type playerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// clientEnvelope is the single inbound frame shape; which fields are
// populated depends on Type.
type clientEnvelope struct {
	Type     string     `json:"type"`
	Name     string     `json:"name,omitempty"`
	RoomID   string     `json:"roomId,omitempty"`
	PlayerID string     `json:"playerId,omitempty"`
	Guess    string     `json:"guess,omitempty"`
	Message  string     `json:"message,omitempty"`
	Player   *playerRef `json:"player,omitempty"`
}

type roomsUpdateMsg struct {
	Type  string             `json:"type"`
	Rooms []game.RoomSummary `json:"rooms"`
}

type roomJoinedMsg struct {
	Type string        `json:"type"`
	Room game.RoomView `json:"room"`
}

type playerJoinedMsg struct {
	Type   string      `json:"type"`
	RoomID string      `json:"roomId"`
	Player game.Player `json:"player"`
}

type playerLeftMsg struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

type gameStateMsg struct {
	Type      string         `json:"type"`
	RoomID    string         `json:"roomId"`
	GameState game.GameState `json:"gameState"`
}

type chatUpdateMsg struct {
	Type    string           `json:"type"`
	Message game.ChatMessage `json:"message"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Error kinds surfaced to clients.
const (
	KindUnknownMessage = "UNKNOWN_MESSAGE"
	KindInvalidName    = "INVALID_NAME"
	KindRoomNotFound   = "ROOM_NOT_FOUND"
	KindRoomFull       = "ROOM_FULL"
	KindRoomClosed     = "ROOM_CLOSED"
	KindNotInRoom      = "NOT_IN_ROOM"
	KindNotYourTurn    = "NOT_YOUR_TURN"
	KindRoundNotActive = "ROUND_NOT_ACTIVE"
	KindEmptyMessage   = "EMPTY_MESSAGE"
	KindMissingField   = "MISSING_FIELD"
	KindRateLimited    = "RATE_LIMITED"
	KindInternal       = "INTERNAL"
)

func kindFor(err error) string {
	switch err {
	case game.ErrInvalidName:
		return KindInvalidName
	case game.ErrRoomNotFound:
		return KindRoomNotFound
	case game.ErrRoomFull:
		return KindRoomFull
	case game.ErrRoomClosed:
		return KindRoomClosed
	case game.ErrNotInRoom:
		return KindNotInRoom
	case game.ErrNotYourTurn:
		return KindNotYourTurn
	case game.ErrRoundNotActive:
		return KindRoundNotActive
	case game.ErrEmptyMessage:
		return KindEmptyMessage
	case game.ErrExhaustedContent, game.ErrIDSpaceExhausted:
		return KindInternal
	default:
		return KindInternal
	}
}
