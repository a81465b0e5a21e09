// Package scoring computes guesser and artist points for finished rounds.
// All functions are pure; the round loop in core feeds them a room snapshot
// and applies the results.
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Stunned1/Skribbl-Clone/internal/protocol"
)

// Tunables for round scoring. A correct guess earns between MinGuessScore
// and MaxGuessScore depending on remaining time, plus a placement bonus for
// the earliest guesses. Guesses landing within TieWindow of the first guess
// in a placement run share that run's bonus and consume the following ranks.
const (
	MaxGuessScore = 500
	MinGuessScore = 100

	ArtistBase     = 320.0
	ArtistCapRatio = 0.80

	TieWindow = 200 * time.Millisecond

	StreakBonusPerTier = 50
	MaxStreak          = 5
)

var rankBonuses = [...]int{100, 60, 30, 0, 0, 0, 0, 0}

// TimeScore converts a guess's normalized remaining time into points,
// interpolating linearly between the floor and the ceiling.
func TimeScore(normalized float64) int {
	if normalized < 0 {
		normalized = 0
	} else if normalized > 1 {
		normalized = 1
	}
	return int(math.Floor(MinGuessScore + (MaxGuessScore-MinGuessScore)*normalized))
}

// GuesserScores computes each guesser's total for the round: time score plus
// placement bonus. Placement is decided by guess timestamps.
func GuesserScores(guesses []protocol.Guess) map[uuid.UUID]int {
	scores := make(map[uuid.UUID]int, len(guesses))
	if len(guesses) == 0 {
		return scores
	}

	ordered := make([]protocol.Guess, len(guesses))
	copy(ordered, guesses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	for _, g := range ordered {
		scores[g.PlayerID] = TimeScore(g.NormalizedTime)
	}

	// Walk placement runs: a run is the maximal prefix of remaining guesses
	// within TieWindow of the run's first guess. Every member gets the bonus
	// at the run's starting rank, and the run consumes that many ranks.
	i, bonusIndex := 0, 0
	for i < len(ordered) && bonusIndex < len(rankBonuses) {
		anchor := ordered[i].Timestamp
		runLen := 1
		for i+runLen < len(ordered) && ordered[i+runLen].Timestamp.Sub(anchor) <= TieWindow {
			runLen++
		}
		for j := i; j < i+runLen; j++ {
			scores[ordered[j].PlayerID] += rankBonuses[bonusIndex]
		}
		i += runLen
		bonusIndex += runLen
	}
	return scores
}

// MedianNormalizedTime returns the median of the guesses' normalized times,
// or 0 when nobody guessed.
func MedianNormalizedTime(guesses []protocol.Guess) float64 {
	if len(guesses) == 0 {
		return 0
	}
	times := make([]float64, 0, len(guesses))
	for _, g := range guesses {
		times = append(times, g.NormalizedTime)
	}
	sort.Float64s(times)
	mid := len(times) / 2
	if len(times)%2 == 0 {
		return (times[mid-1] + times[mid]) / 2
	}
	return times[mid]
}

// FractionGuessed is the share of eligible guessers (everyone but the
// drawer) who found the word.
func FractionGuessed(numGuesses, totalPlayers int) float64 {
	eligible := totalPlayers - 1
	if eligible <= 0 {
		return 0
	}
	return float64(numGuesses) / float64(eligible)
}

// ArtistScore computes the drawer's points: a base scaled by how many
// guessed and how fast, plus the streak bonus, capped relative to the best
// guesser so the drawer never dwarfs the round's winner. No guesses means
// no points.
func ArtistScore(guesses []protocol.Guess, guesserScores map[uuid.UUID]int, artistStreak, totalPlayers int) int {
	if len(guesses) == 0 {
		return 0
	}
	raw := ArtistBase * FractionGuessed(len(guesses), totalPlayers) * (0.5 + 0.5*MedianNormalizedTime(guesses))
	bonus := StreakBonusPerTier * min(artistStreak, MaxStreak)

	top := 0
	for _, s := range guesserScores {
		if s > top {
			top = s
		}
	}
	ceiling := int(math.Floor(ArtistCapRatio * float64(top)))

	score := int(math.Round(raw + float64(bonus)))
	if score > ceiling {
		score = ceiling
	}
	return score
}

// NextStreak returns the drawer's streak after a round: it advances when a
// majority of eligible guessers answered within the first half of the round,
// and resets otherwise. A round without guesses always resets.
func NextStreak(current int, guesses []protocol.Guess, totalPlayers, roundDuration int) int {
	eligible := totalPlayers - 1
	if len(guesses) == 0 || eligible <= 0 {
		return 0
	}
	halfway := roundDuration / 2
	required := eligible/2 + 1
	fast := 0
	for _, g := range guesses {
		if g.TimeRemaining >= halfway {
			fast++
		}
	}
	if fast >= required {
		return min(current+1, MaxStreak)
	}
	return 0
}

// ComputeRound assembles the full scoring breakdown for the room's current
// round. ArtistStreak in the result is the streak the round was scored
// with, before any post-round update.
func ComputeRound(room *protocol.Room) protocol.RoundScores {
	streak := 0
	if room.CurrentDrawer != nil {
		if drawer, ok := room.Players[*room.CurrentDrawer]; ok {
			streak = drawer.ArtistStreak
		}
	}
	word := ""
	if room.Word != nil {
		word = *room.Word
	}

	guesses := room.CurrentRoundGuesses
	guesserScores := GuesserScores(guesses)
	correct := make([]protocol.Guess, len(guesses))
	copy(correct, guesses)

	return protocol.RoundScores{
		RoundNumber:     room.RoundNumber,
		Word:            word,
		GuesserScores:   guesserScores,
		ArtistScore:     ArtistScore(guesses, guesserScores, streak, len(room.Players)),
		ArtistStreak:    streak,
		RoundDuration:   room.RoundDuration,
		CorrectGuesses:  correct,
		MedianGuessTime: MedianNormalizedTime(guesses),
		FractionGuessed: FractionGuessed(len(guesses), len(room.Players)),
	}
}
