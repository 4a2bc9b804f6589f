package game

import (
	"sync"
	"time"
)

// Room is a 2-player game session. All mutation happens under mu; the
// registry, round engine and chat relay take the lock in their operations so
// every change to one room is serialized. Snapshot methods return copies that
// are safe to hand to the gateway without holding the lock.
type Room struct {
	mu sync.Mutex

	ID        string
	Name      string
	Status    RoomStatus
	Players   []*Player
	CreatedBy string
	CreatedAt time.Time

	chat    []ChatMessage
	chatSeq int64

	round       *Round
	roundIndex  int
	usedContent map[int]struct{}
	lastTurn    string
	gameStatus  GameStatus
	lastGuess   *Guess

	ended    bool
	winnerID string
	ranking  []Standing

	// Pending timers, all cancelled by whichever transition supersedes them.
	deadlineTimer *time.Timer
	advanceTimer  *time.Timer
	graceTimer    *time.Timer
	settleTimer   *time.Timer

	reg *Registry
}

func (rm *Room) memberLocked(playerID string) *Player {
	for _, p := range rm.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (rm *Room) playersLocked() []Player {
	out := make([]Player, 0, len(rm.Players))
	for _, p := range rm.Players {
		out = append(out, *p)
	}
	return out
}

func (rm *Room) stopRoundTimersLocked() {
	if rm.deadlineTimer != nil {
		rm.deadlineTimer.Stop()
		rm.deadlineTimer = nil
	}
	if rm.advanceTimer != nil {
		rm.advanceTimer.Stop()
		rm.advanceTimer = nil
	}
}

func (rm *Room) stopAllTimersLocked() {
	rm.stopRoundTimersLocked()
	if rm.graceTimer != nil {
		rm.graceTimer.Stop()
		rm.graceTimer = nil
	}
	if rm.settleTimer != nil {
		rm.settleTimer.Stop()
		rm.settleTimer = nil
	}
}

// Summary returns the lobby view of the room.
func (rm *Room) Summary() RoomSummary {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.summaryLocked()
}

func (rm *Room) summaryLocked() RoomSummary {
	return RoomSummary{
		ID:        rm.ID,
		Name:      rm.Name,
		Status:    rm.Status,
		Players:   rm.playersLocked(),
		CreatedBy: rm.CreatedBy,
	}
}

// View returns the full room view including the chat log.
func (rm *Room) View() RoomView {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	chat := make([]ChatMessage, len(rm.chat))
	copy(chat, rm.chat)
	return RoomView{
		ID:        rm.ID,
		Name:      rm.Name,
		Status:    rm.Status,
		Players:   rm.playersLocked(),
		CreatedBy: rm.CreatedBy,
		Chat:      chat,
	}
}

// State returns the current game snapshot for broadcast.
func (rm *Room) State() GameState {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.stateLocked()
}

func (rm *Room) stateLocked() GameState {
	st := GameState{
		TotalRounds: rm.reg.opts.TotalRounds,
		Status:      rm.gameStatus,
		LastGuess:   rm.lastGuess,
	}
	if r := rm.round; r != nil {
		st.CurrentRound = r.Index
		st.CurrentImage = r.Image
		st.CurrentPlayer = r.TurnPlayerID
		if remaining := time.Until(r.Deadline); remaining > 0 && !r.Resolved {
			st.TimeRemaining = int(remaining.Round(time.Second) / time.Second)
		}
		if r.Resolved || rm.ended {
			st.CorrectAnswer = r.Answer
		}
	}
	if rm.ended {
		st.Status = GameEnded
		st.WinnerID = rm.winnerID
		st.Ranking = rm.ranking
	}
	return st
}
