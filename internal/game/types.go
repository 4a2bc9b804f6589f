package game

import (
	"time"
)

type RoomStatus string

const (
	RoomWaiting    RoomStatus = "waiting"
	RoomInProgress RoomStatus = "in_progress"
	RoomFull       RoomStatus = "full"
	RoomClosed     RoomStatus = "closed"
)

type GameStatus string

const (
	GameWaiting        GameStatus = "waiting"
	GameRoundStarted   GameStatus = "round_started"
	GameCorrectGuess   GameStatus = "correct_guess"
	GameIncorrectGuess GameStatus = "incorrect_guess"
	GameRoundEnded     GameStatus = "round_ended"
	GameEnded          GameStatus = "game_ended"
)

type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`

	// scoredRound is the round index at which the player reached their
	// current score, used as a tie-breaker in the final ranking.
	scoredRound int
	joinedAt    time.Time
}

type Guess struct {
	PlayerID    string    `json:"playerId"`
	Guess       string    `json:"guess"`
	SubmittedAt time.Time `json:"submittedAt"`
	IsCorrect   bool      `json:"isCorrect"`
}

type Round struct {
	Index        int       `json:"index"`
	TotalRounds  int       `json:"totalRounds"`
	Image        string    `json:"image"`
	Answer       string    `json:"-"`
	TurnPlayerID string    `json:"turnPlayerId"`
	Deadline     time.Time `json:"deadline"`
	Resolved     bool      `json:"resolved"`
	Guesses      []Guess   `json:"-"`
}

type ChatMessage struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"roomId"`
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// RoomSummary is the lobby view of a room. The chat log is excluded to keep
// ROOMS_UPDATE payloads small.
type RoomSummary struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    RoomStatus `json:"status"`
	Players   []Player   `json:"players"`
	CreatedBy string     `json:"createdBy"`
}

// RoomView is the full view sent to a player entering a room, chat included.
type RoomView struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Status    RoomStatus    `json:"status"`
	Players   []Player      `json:"players"`
	CreatedBy string        `json:"createdBy"`
	Chat      []ChatMessage `json:"chat"`
}

type Standing struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// GameState is the per-room snapshot broadcast to clients. The correct answer
// is only filled in once the round has resolved.
type GameState struct {
	CurrentRound  int        `json:"currentRound"`
	TotalRounds   int        `json:"totalRounds"`
	CurrentImage  string     `json:"currentImage"`
	CorrectAnswer string     `json:"correctAnswer,omitempty"`
	TimeRemaining int        `json:"timeRemaining"`
	Status        GameStatus `json:"status"`
	LastGuess     *Guess     `json:"lastGuess,omitempty"`
	CurrentPlayer string     `json:"currentPlayer,omitempty"`
	WinnerID      string     `json:"winnerId,omitempty"`
	Ranking       []Standing `json:"ranking,omitempty"`
}

// Notifier receives state fan-out for mutations that do not originate from a
// client message, such as deadline timeouts and scheduled round advances. The
// session gateway implements it; a nil notifier is valid and drops events.
type Notifier interface {
	RoomListChanged(rooms []RoomSummary)
	GameStateChanged(roomID string, state GameState)
	RoomClosed(roomID string)
}
