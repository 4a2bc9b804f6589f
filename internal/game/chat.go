package game

import (
	"strconv"
	"strings"
	"time"
)

// PostChat appends a message to the room's chat log. Ids are monotonic per
// room and assigned server-side, as is the timestamp, so arrival order at
// the relay is the canonical ordering. The sender's name is taken from the
// membership record rather than the message payload.
func (rm *Room) PostChat(playerID, text string) (ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return ChatMessage{}, ErrEmptyMessage
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	p := rm.memberLocked(playerID)
	if p == nil {
		return ChatMessage{}, ErrNotInRoom
	}
	rm.chatSeq++
	msg := ChatMessage{
		ID:         strconv.FormatInt(rm.chatSeq, 10),
		RoomID:     rm.ID,
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Message:    text,
		Timestamp:  time.Now().UTC(),
	}
	rm.chat = append(rm.chat, msg)
	return msg, nil
}

// Chat returns a copy of the room's chat log in append order.
func (rm *Room) Chat() []ChatMessage {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	out := make([]ChatMessage, len(rm.chat))
	copy(out, rm.chat)
	return out
}
