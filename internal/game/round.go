package game

import (
	"sort"
	"strings"
	"time"
)

// Round lifecycle. A round ends only on a correct guess or on its deadline,
// never on a single wrong guess: the turn player may keep re-guessing until
// the timer runs out. Consecutive rounds alternate the turn player, starting
// with the room creator in round 1.

func (rm *Room) startRoundLocked(index int) error {
	pool := rm.reg.pool
	if len(pool) < rm.reg.opts.TotalRounds {
		return ErrExhaustedContent
	}
	pick := -1
	for i := range pool {
		if _, used := rm.usedContent[i]; !used {
			pick = i
			break
		}
	}
	if pick == -1 {
		return ErrExhaustedContent
	}
	rm.usedContent[pick] = struct{}{}

	turn := rm.nextTurnLocked(index)
	rm.stopRoundTimersLocked()
	rm.round = &Round{
		Index:        index,
		TotalRounds:  rm.reg.opts.TotalRounds,
		Image:        pool[pick].ImageURL,
		Answer:       pool[pick].Answer,
		TurnPlayerID: turn,
		Deadline:     time.Now().UTC().Add(rm.reg.opts.RoundTimeout),
	}
	rm.roundIndex = index
	rm.lastTurn = turn
	rm.gameStatus = GameRoundStarted
	rm.lastGuess = nil
	rm.deadlineTimer = time.AfterFunc(rm.reg.opts.RoundTimeout, func() { rm.reg.handleDeadline(rm, index) })
	return nil
}

func (rm *Room) nextTurnLocked(index int) string {
	if index == 1 {
		if creator := rm.memberLocked(rm.CreatedBy); creator != nil {
			return creator.ID
		}
		return rm.Players[0].ID
	}
	for _, p := range rm.Players {
		if p.ID != rm.lastTurn {
			return p.ID
		}
	}
	return rm.Players[0].ID
}

// SubmitGuess evaluates a guess from the turn player. Matching is a trimmed,
// case-insensitive exact comparison against the round's answer. A correct
// guess scores one point, resolves the round and schedules the advance; an
// incorrect one leaves the round active and the turn unchanged. A guess that
// lands after the deadline resolves the round as a timeout instead and
// reports ErrExpired.
func (rm *Room) SubmitGuess(playerID, text string) (Guess, error) {
	rm.mu.Lock()
	if rm.ended {
		rm.mu.Unlock()
		return Guess{}, ErrRoundNotActive
	}
	r := rm.round
	if r == nil || r.Resolved {
		rm.mu.Unlock()
		return Guess{}, ErrRoundNotActive
	}
	if playerID != r.TurnPlayerID {
		rm.mu.Unlock()
		return Guess{}, ErrNotYourTurn
	}
	now := time.Now().UTC()
	if now.After(r.Deadline) {
		rm.resolveTimeoutLocked(now)
		rm.mu.Unlock()
		rm.reg.notifyState(rm)
		return Guess{}, ErrExpired
	}

	g := Guess{
		PlayerID:    playerID,
		Guess:       text,
		SubmittedAt: now,
		IsCorrect:   matchAnswer(text, r.Answer),
	}
	r.Guesses = append(r.Guesses, g)
	rm.lastGuess = &g
	if g.IsCorrect {
		p := rm.memberLocked(playerID)
		p.Score++
		p.scoredRound = r.Index
		r.Resolved = true
		rm.gameStatus = GameCorrectGuess
		rm.scheduleAdvanceLocked(r.Index)
	} else {
		rm.gameStatus = GameIncorrectGuess
	}
	rm.mu.Unlock()

	rm.reg.notifyState(rm)
	return g, nil
}

func matchAnswer(guess, answer string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(answer))
}

// resolveTimeoutLocked marks the round resolved with no score change and
// records a synthetic incorrect guess.
func (rm *Room) resolveTimeoutLocked(now time.Time) {
	r := rm.round
	g := Guess{
		PlayerID:    r.TurnPlayerID,
		SubmittedAt: now,
		IsCorrect:   false,
	}
	r.Guesses = append(r.Guesses, g)
	r.Resolved = true
	rm.lastGuess = &g
	rm.gameStatus = GameRoundEnded
	rm.scheduleAdvanceLocked(r.Index)
}

func (rm *Room) scheduleAdvanceLocked(index int) {
	if rm.advanceTimer != nil {
		rm.advanceTimer.Stop()
	}
	rm.advanceTimer = time.AfterFunc(rm.reg.opts.RevealDelay, func() { rm.reg.handleAdvance(rm, index) })
}

// handleDeadline fires when a round's deadline elapses. It re-checks the
// round under the room lock: a guess that won the race to the serialization
// point has already resolved the round and the timer is a no-op.
func (r *Registry) handleDeadline(rm *Room, index int) {
	rm.mu.Lock()
	rd := rm.round
	if rm.ended || rd == nil || rd.Index != index || rd.Resolved {
		rm.mu.Unlock()
		return
	}
	rm.resolveTimeoutLocked(time.Now().UTC())
	rm.mu.Unlock()

	r.log.Info().Str("room", rm.ID).Int("round", index).Msg("round timed out")
	r.notifyState(rm)
}

// handleAdvance moves a resolved round to the next round, or ends the game
// when all rounds are played.
func (r *Registry) handleAdvance(rm *Room, index int) {
	rm.mu.Lock()
	rd := rm.round
	if rm.ended || rd == nil || rd.Index != index || !rd.Resolved {
		rm.mu.Unlock()
		return
	}
	if err := rm.advanceLocked(); err != nil {
		r.log.Error().Err(err).Str("room", rm.ID).Msg("failed to advance round")
		rm.endGameLocked()
	}
	rm.mu.Unlock()

	r.notifyList()
	r.notifyState(rm)
}

// Advance starts the next round when rounds remain, otherwise ends the game
// and computes the final ranking. Only valid on a resolved round.
func (rm *Room) Advance() error {
	rm.mu.Lock()
	if rm.ended {
		rm.mu.Unlock()
		return ErrRoundNotActive
	}
	if rm.round == nil || !rm.round.Resolved {
		rm.mu.Unlock()
		return ErrRoundNotActive
	}
	err := rm.advanceLocked()
	rm.mu.Unlock()

	rm.reg.notifyList()
	rm.reg.notifyState(rm)
	return err
}

func (rm *Room) advanceLocked() error {
	if rm.advanceTimer != nil {
		rm.advanceTimer.Stop()
		rm.advanceTimer = nil
	}
	if rm.roundIndex < rm.reg.opts.TotalRounds {
		return rm.startRoundLocked(rm.roundIndex + 1)
	}
	rm.endGameLocked()
	return nil
}

func (rm *Room) endGameLocked() {
	rm.stopRoundTimersLocked()
	rm.ended = true
	rm.gameStatus = GameEnded
	rm.ranking = rm.computeRankingLocked()
	if len(rm.ranking) > 0 {
		rm.winnerID = rm.ranking[0].PlayerID
	}
	if len(rm.Players) == 2 {
		rm.Status = RoomFull
	}
}

// computeRankingLocked orders players by score descending; ties go to
// whoever reached that score in an earlier round, then to join order.
func (rm *Room) computeRankingLocked() []Standing {
	players := make([]*Player, len(rm.Players))
	copy(players, rm.Players)
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		if players[i].scoredRound != players[j].scoredRound {
			return players[i].scoredRound < players[j].scoredRound
		}
		return players[i].joinedAt.Before(players[j].joinedAt)
	})
	out := make([]Standing, 0, len(players))
	for _, p := range players {
		out = append(out, Standing{PlayerID: p.ID, Name: p.Name, Score: p.Score})
	}
	return out
}
