package stats

import (
	"context"

	"github.com/verte-zerg/versetype/internal/model"
)

// Source lists stored challenges and their character stats.
type Source interface {
	ListChallenges(ctx context.Context, cfg model.StatsConfig) ([]model.ChallengeAggregate, error)
	ListCharAggregates(ctx context.Context, challengeIDs []int64) ([]model.CharAggregate, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Challenges         []model.ChallengeAggregate
	WindowChallengeIDs []int64
	CharAggsAll        []model.CharAggregate
	CharAggsWindow     []model.CharAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src Source, cfg model.StatsConfig) (Report, error) {
	challenges, err := src.ListChallenges(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(challenges) > cfg.Last {
		challenges = challenges[len(challenges)-cfg.Last:]
	}

	windowIDs := lastChallengeIDs(challenges, cfg.CurveWindow)
	charAggsAll, err := src.ListCharAggregates(ctx, challengeIDs(challenges))
	if err != nil {
		return Report{}, err
	}
	charAggsWindow, err := src.ListCharAggregates(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Challenges:         challenges,
		WindowChallengeIDs: windowIDs,
		CharAggsAll:        charAggsAll,
		CharAggsWindow:     charAggsWindow,
	}, nil
}

func challengeIDs(challenges []model.ChallengeAggregate) []int64 {
	ids := make([]int64, len(challenges))
	for i, c := range challenges {
		ids[i] = c.ChallengeID
	}
	return ids
}

func lastChallengeIDs(challenges []model.ChallengeAggregate, window int) []int64 {
	if window <= 0 || len(challenges) <= window {
		return challengeIDs(challenges)
	}
	return challengeIDs(challenges[len(challenges)-window:])
}
