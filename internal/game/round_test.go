package game

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/brainrotduel/server/internal/content"
)

func testPool(n int) []content.Pair {
	pairs := []content.Pair{
		{ImageURL: "img1.jpeg", Answer: "tralalelo tralala"},
		{ImageURL: "img2.jpeg", Answer: "assassino cappuccino"},
		{ImageURL: "img3.jpeg", Answer: "mama mia pizzeria"},
		{ImageURL: "img4.jpeg", Answer: "gelato magnifico"},
		{ImageURL: "img5.jpeg", Answer: "parmigiano tarantino"},
	}
	return pairs[:n]
}

// newTestRegistry uses hour-long timers so rounds only move when the test
// says so.
func newTestRegistry(t *testing.T, opts Options) *Registry {
	t.Helper()
	if opts.TotalRounds == 0 {
		opts.TotalRounds = 5
	}
	if opts.RoundTimeout == 0 {
		opts.RoundTimeout = time.Hour
	}
	if opts.RevealDelay == 0 {
		opts.RevealDelay = time.Hour
	}
	if opts.GraceTimeout == 0 {
		opts.GraceTimeout = time.Hour
	}
	if opts.SettleWindow == 0 {
		opts.SettleWindow = time.Hour
	}
	return NewRegistry(testPool(5), opts, zerolog.Nop())
}

func startGame(t *testing.T, reg *Registry) (*Room, Player, Player) {
	t.Helper()
	alice := Player{ID: "a", Name: "Alice"}
	bob := Player{ID: "b", Name: "Bob"}
	room, err := reg.CreateRoom("Pasta", alice)
	if err != nil {
		t.Fatalf("should be able to create room: %v", err)
	}
	if _, _, err := reg.JoinRoom(room.ID, bob); err != nil {
		t.Fatalf("should be able to join room: %v", err)
	}
	return room, alice, bob
}

func TestRoundOneTurnIsCreator(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	room, alice, _ := startGame(t, reg)

	st := room.State()
	if st.Status != GameRoundStarted {
		t.Fatalf("expected status %s, got %s", GameRoundStarted, st.Status)
	}
	if st.CurrentRound != 1 {
		t.Fatalf("expected round 1, got %d", st.CurrentRound)
	}
	if st.CurrentPlayer != alice.ID {
		t.Fatalf("round 1 turn should be the creator, got %s", st.CurrentPlayer)
	}
	if st.CorrectAnswer != "" {
		t.Fatal("answer should not be revealed while round is active")
	}
}

func TestWrongGuessesNeverResolveRound(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	room, alice, _ := startGame(t, reg)

	for i := 0; i < 5; i++ {
		g, err := room.SubmitGuess(alice.ID, "definitely wrong")
		if err != nil {
			t.Fatalf("wrong guess should be recorded, not rejected: %v", err)
		}
		if g.IsCorrect {
			t.Fatal("guess should be incorrect")
		}
	}

	st := room.State()
	if st.Status != GameIncorrectGuess {
		t.Fatalf("expected status %s, got %s", GameIncorrectGuess, st.Status)
	}
	if st.CurrentRound != 1 {
		t.Fatalf("round should still be 1, got %d", st.CurrentRound)
	}
	if st.CurrentPlayer != alice.ID {
		t.Fatalf("turn player should be unchanged, got %s", st.CurrentPlayer)
	}
	if room.round.Resolved {
		t.Fatal("round should not resolve on wrong guesses")
	}
	if room.Players[0].Score != 0 {
		t.Fatalf("score should be unchanged, got %d", room.Players[0].Score)
	}
}

func TestCorrectGuessScoresAndResolves(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	room, alice, _ := startGame(t, reg)

	// Case-insensitive, whitespace-trimmed exact match.
	g, err := room.SubmitGuess(alice.ID, "  TRALALELO Tralala  ")
	if err != nil {
		t.Fatalf("correct guess should be accepted: %v", err)
	}
	if !g.IsCorrect {
		t.Fatal("guess should be correct")
	}

	st := room.State()
	if st.Status != GameCorrectGuess {
		t.Fatalf("expected status %s, got %s", GameCorrectGuess, st.Status)
	}
	if st.CorrectAnswer != "tralalelo tralala" {
		t.Fatalf("answer should be revealed after resolution, got %q", st.CorrectAnswer)
	}
	if room.Players[0].Score != 1 {
		t.Fatalf("expected score 1, got %d", room.Players[0].Score)
	}

	accepted := 0
	for _, rec := range room.round.Guesses {
		if rec.IsCorrect {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("exactly one accepted guess per resolved round, got %d", accepted)
	}
}

func TestNotYourTurn(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	room, _, bob := startGame(t, reg)

	if _, err := room.SubmitGuess(bob.ID, "tralalelo tralala"); err != ErrNotYourTurn {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if room.Players[1].Score != 0 {
		t.Fatal("rejected guess must not mutate state")
	}
}

func TestGuessAfterResolveRejected(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	room, alice, _ := startGame(t, reg)

	if _, err := room.SubmitGuess(alice.ID, "tralalelo tralala"); err != nil {
		t.Fatalf("correct guess should be accepted: %v", err)
	}
	if _, err := room.SubmitGuess(alice.ID, "tralalelo tralala"); err != ErrRoundNotActive {
		t.Fatalf("expected ErrRoundNotActive, got %v", err)
	}
	if room.Players[0].Score != 1 {
		t.Fatalf("duplicate submission must not score twice, got %d", room.Players[0].Score)
	}
}

func TestTurnAlternatesAcrossRounds(t *testing.T) {
	reg := newTestRegistry(t, Options{TotalRounds: 3})
	room, alice, bob := startGame(t, reg)

	answers := []string{"tralalelo tralala", "assassino cappuccino", "mama mia pizzeria"}
	turns := []string{alice.ID, bob.ID, alice.ID}

	for i := 0; i < 3; i++ {
		st := room.State()
		if st.CurrentRound != i+1 {
			t.Fatalf("expected round %d, got %d", i+1, st.CurrentRound)
		}
		if st.CurrentPlayer != turns[i] {
			t.Fatalf("round %d: expected turn %s, got %s", i+1, turns[i], st.CurrentPlayer)
		}
		if _, err := room.SubmitGuess(turns[i], answers[i]); err != nil {
			t.Fatalf("round %d guess failed: %v", i+1, err)
		}
		if err := room.Advance(); err != nil {
			t.Fatalf("round %d advance failed: %v", i+1, err)
		}
	}

	st := room.State()
	if st.Status != GameEnded {
		t.Fatalf("expected status %s, got %s", GameEnded, st.Status)
	}
}

func TestAdvanceRequiresResolvedRound(t *testing.T) {
	reg := newTestRegistry(t, Options{})
	room, _, _ := startGame(t, reg)

	if err := room.Advance(); err != ErrRoundNotActive {
		t.Fatalf("expected ErrRoundNotActive, got %v", err)
	}
}

func TestRoundTimeout(t *testing.T) {
	reg := newTestRegistry(t, Options{RoundTimeout: 30 * time.Millisecond, RevealDelay: 30 * time.Millisecond})
	room, _, bob := startGame(t, reg)

	time.Sleep(45 * time.Millisecond)

	room.mu.Lock()
	resolved := room.round.Resolved
	status := room.gameStatus
	last := room.lastGuess
	scores := []int{room.Players[0].Score, room.Players[1].Score}
	room.mu.Unlock()

	if !resolved {
		t.Fatal("round should resolve at the deadline")
	}
	if status != GameRoundEnded {
		t.Fatalf("expected status %s, got %s", GameRoundEnded, status)
	}
	if last == nil || last.IsCorrect {
		t.Fatal("timeout should record a synthetic incorrect guess")
	}
	if scores[0] != 0 || scores[1] != 0 {
		t.Fatal("timeout must not change scores")
	}

	// The reveal delay elapses and round 2 starts with the other player.
	time.Sleep(60 * time.Millisecond)
	st := room.State()
	if st.CurrentRound != 2 {
		t.Fatalf("expected auto-advance to round 2, got %d", st.CurrentRound)
	}
	if st.CurrentPlayer != bob.ID {
		t.Fatalf("round 2 turn should pass to the other player, got %s", st.CurrentPlayer)
	}
}

func TestGuessRacesTimeoutAtSerializationPoint(t *testing.T) {
	reg := newTestRegistry(t, Options{RoundTimeout: 30 * time.Millisecond})
	room, alice, _ := startGame(t, reg)

	// Whichever of guess and deadline reaches the room lock first wins; the
	// loser observes the round as no longer active.
	time.Sleep(45 * time.Millisecond)
	_, err := room.SubmitGuess(alice.ID, "tralalelo tralala")
	if err != ErrRoundNotActive && err != ErrExpired {
		t.Fatalf("expected ErrRoundNotActive or ErrExpired after deadline, got %v", err)
	}
	if room.Players[0].Score != 0 {
		t.Fatal("late guess must not score")
	}
}

func TestFinalRankingPrefersEarlierScore(t *testing.T) {
	reg := newTestRegistry(t, Options{TotalRounds: 2})
	room, alice, bob := startGame(t, reg)

	if _, err := room.SubmitGuess(alice.ID, "tralalelo tralala"); err != nil {
		t.Fatalf("round 1 guess failed: %v", err)
	}
	if err := room.Advance(); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if _, err := room.SubmitGuess(bob.ID, "assassino cappuccino"); err != nil {
		t.Fatalf("round 2 guess failed: %v", err)
	}
	if err := room.Advance(); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	st := room.State()
	if st.Status != GameEnded {
		t.Fatalf("expected status %s, got %s", GameEnded, st.Status)
	}
	if len(st.Ranking) != 2 {
		t.Fatalf("expected 2 standings, got %d", len(st.Ranking))
	}
	// 1-1 tie: Alice reached her score in round 1, Bob in round 2.
	if st.Ranking[0].PlayerID != alice.ID {
		t.Fatalf("tie should go to the earlier scorer, got %s", st.Ranking[0].PlayerID)
	}
	if st.WinnerID != alice.ID {
		t.Fatalf("expected winner %s, got %s", alice.ID, st.WinnerID)
	}
	if room.Status != RoomFull {
		t.Fatalf("finished room with both players seated should be %s, got %s", RoomFull, room.Status)
	}
}

func TestEndToEndScenario(t *testing.T) {
	reg := newTestRegistry(t, Options{})

	alice := Player{ID: "a", Name: "Alice"}
	bob := Player{ID: "b", Name: "Bob"}
	room, err := reg.CreateRoom("Pasta", alice)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if room.Status != RoomWaiting {
		t.Fatalf("new room should be %s, got %s", RoomWaiting, room.Status)
	}

	if _, _, err := reg.JoinRoom(room.ID, bob); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if room.Summary().Status != RoomInProgress {
		t.Fatalf("room with 2 players should be %s", RoomInProgress)
	}

	st := room.State()
	if st.CurrentRound != 1 || st.CurrentPlayer != alice.ID {
		t.Fatalf("round 1 should start with the creator, got round %d turn %s", st.CurrentRound, st.CurrentPlayer)
	}

	g, err := room.SubmitGuess(alice.ID, "Tralalelo Tralala")
	if err != nil || !g.IsCorrect {
		t.Fatalf("case-insensitive correct guess should be accepted, err=%v correct=%v", err, g.IsCorrect)
	}
	if room.Summary().Players[0].Score != 1 {
		t.Fatal("Alice should have 1 point")
	}

	if err := room.Advance(); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	st = room.State()
	if st.CurrentRound != 2 || st.CurrentPlayer != bob.ID {
		t.Fatalf("round 2 should start with Bob, got round %d turn %s", st.CurrentRound, st.CurrentPlayer)
	}
}

func TestContentNotRepeatedWithinGame(t *testing.T) {
	reg := newTestRegistry(t, Options{TotalRounds: 5})
	room, alice, bob := startGame(t, reg)

	answers := []string{"tralalelo tralala", "assassino cappuccino", "mama mia pizzeria", "gelato magnifico", "parmigiano tarantino"}
	seen := make(map[string]bool)
	turn := alice.ID
	for i := 0; i < 5; i++ {
		st := room.State()
		if seen[st.CurrentImage] {
			t.Fatalf("image %s repeated within a game", st.CurrentImage)
		}
		seen[st.CurrentImage] = true
		if _, err := room.SubmitGuess(turn, answers[i]); err != nil {
			t.Fatalf("round %d guess failed: %v", i+1, err)
		}
		if err := room.Advance(); err != nil {
			t.Fatalf("round %d advance failed: %v", i+1, err)
		}
		if turn == alice.ID {
			turn = bob.ID
		} else {
			turn = alice.ID
		}
	}
}

func TestExhaustedContent(t *testing.T) {
	reg := NewRegistry(testPool(2), Options{TotalRounds: 5}, zerolog.Nop())
	alice := Player{ID: "a", Name: "Alice"}
	bob := Player{ID: "b", Name: "Bob"}

	room, err := reg.CreateRoom("Pasta", alice)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, _, err := reg.JoinRoom(room.ID, bob); err != ErrExhaustedContent {
		t.Fatalf("expected ErrExhaustedContent with a short pool, got %v", err)
	}
	if room.Summary().Status != RoomWaiting {
		t.Fatal("room must stay waiting when the game cannot start")
	}
}
