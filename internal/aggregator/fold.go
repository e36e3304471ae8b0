// Package aggregator folds a player's match records into one aggregate
// document. The fold is pure and order-insensitive for every field except
// the best/worst tie break, which keeps the first record seen.
package aggregator

import (
	"fmt"
	"math"
	"time"

	"github.com/rewindlabs/rewind/internal/domain"
)

// Fold computes the aggregate over records. An empty record set yields a
// completed aggregate with zero sums.
func Fold(puuid string, records []*domain.PlayerMatchStats, now time.Time) *domain.PlayerAggregate {
	agg := domain.EmptyAggregate(puuid, now)
	if len(records) == 0 {
		return agg
	}

	for _, r := range records {
		agg.MatchCount++
		if r.Won {
			agg.Wins++
		} else {
			agg.Losses++
		}
		agg.Kills += r.Kills
		agg.Deaths += r.Deaths
		agg.Assists += r.Assists
		agg.CS += r.CS
		agg.VisionScore += r.VisionScore
		agg.WardsPlaced += r.WardsPlaced
		agg.WardsKilled += r.WardsKilled
		agg.DurationSeconds += r.DurationSeconds
		if r.EarlySurrender {
			agg.EarlySurrenders++
		}
		if r.FirstBlood {
			agg.FirstBloods++
		}

		agg.Pings.Add(r.Pings)
		countPosition(&agg.Positions, r.Position)
		foldChampion(agg, r)
		foldHighlights(agg, r)
	}

	finalizeChampions(agg)
	agg.Performance = performance(agg)

	return agg
}

func countPosition(p *domain.PositionCounts, position string) {
	switch position {
	case "TOP":
		p.Top++
	case "JUNGLE":
		p.Jungle++
	case "MIDDLE":
		p.Middle++
	case "BOTTOM":
		p.Bottom++
	case "UTILITY":
		p.Utility++
	}
}

func foldChampion(agg *domain.PlayerAggregate, r *domain.PlayerMatchStats) {
	cs, ok := agg.Champions[r.Champion]
	if !ok {
		cs = &domain.ChampionStats{}
		agg.Champions[r.Champion] = cs
	}

	cs.Games++
	if r.Won {
		cs.Wins++
	} else {
		cs.Losses++
	}
	cs.Kills += r.Kills
	cs.Deaths += r.Deaths
	cs.Assists += r.Assists
	cs.CS += r.CS
	cs.VisionScore += r.VisionScore
	cs.DurationSeconds += r.DurationSeconds
}

func foldHighlights(agg *domain.PlayerAggregate, r *domain.PlayerMatchStats) {
	ratio := KDARatio(r.Kills, r.Deaths, r.Assists)

	// Best is the highest-KDA win, worst the lowest-KDA loss.
	// Strict comparisons keep the first record on ties.
	if r.Won {
		if agg.Best == nil || ratio > agg.Best.KDARatio {
			agg.Best = highlight(r, ratio)
		}
	} else {
		if agg.Worst == nil || ratio < agg.Worst.KDARatio {
			agg.Worst = highlight(r, ratio)
		}
	}
}

func highlight(r *domain.PlayerMatchStats, ratio float64) *domain.MatchHighlight {
	return &domain.MatchHighlight{
		MatchID:     r.MatchID,
		Champion:    r.Champion,
		KDA:         fmt.Sprintf("%d/%d/%d", r.Kills, r.Deaths, r.Assists),
		KDARatio:    round2(ratio),
		CS:          r.CS,
		VisionScore: r.VisionScore,
		Won:         r.Won,
	}
}

func finalizeChampions(agg *domain.PlayerAggregate) {
	for _, cs := range agg.Champions {
		games := float64(cs.Games)
		cs.WinRate = round1(float64(cs.Wins) / games * 100)
		cs.AvgKills = round2(float64(cs.Kills) / games)
		cs.AvgDeaths = round2(float64(cs.Deaths) / games)
		cs.AvgAssists = round2(float64(cs.Assists) / games)
		cs.AvgCS = round2(float64(cs.CS) / games)
		cs.AvgVisionScore = round2(float64(cs.VisionScore) / games)
		cs.CSPerMinute = PerMinute(cs.CS, cs.DurationSeconds)
		cs.VisionPerMinute = PerMinute(cs.VisionScore, cs.DurationSeconds)
	}
}

func performance(agg *domain.PlayerAggregate) domain.PerformanceMetrics {
	games := float64(agg.MatchCount)
	return domain.PerformanceMetrics{
		CSPerMinute:            PerMinute(agg.CS, agg.DurationSeconds),
		VisionPerMinute:        PerMinute(agg.VisionScore, agg.DurationSeconds),
		AvgKills:               round2(float64(agg.Kills) / games),
		AvgDeaths:              round2(float64(agg.Deaths) / games),
		AvgAssists:             round2(float64(agg.Assists) / games),
		AvgCS:                  round2(float64(agg.CS) / games),
		AvgVisionScore:         round2(float64(agg.VisionScore) / games),
		AvgGameDurationMinutes: round2(float64(agg.DurationSeconds) / games / 60),
	}
}

// KDARatio is (kills+assists)/deaths, or kills+assists for deathless games
func KDARatio(kills, deaths, assists int) float64 {
	if deaths > 0 {
		return float64(kills+assists) / float64(deaths)
	}
	return float64(kills + assists)
}

// PerMinute converts a per-game total into a per-minute rate, rounded to
// two decimals. Zero duration yields 0.0 rather than dividing by zero.
func PerMinute(value, durationSeconds int) float64 {
	if durationSeconds == 0 {
		return 0.0
	}
	return round2(float64(value) / float64(durationSeconds) * 60)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
