package trend

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrInsufficientData means fewer than two dated points were available
var ErrInsufficientData = errors.New("trend needs at least two data points")

// flatSlopeEpsilon is the absolute per-day slope below which a trend is
// reported as flat
const flatSlopeEpsilon = 1e-9

// Direction classifies the sign of a trend slope
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Point is one dated measurement
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Result summarizes the trend of a measurement series
type Result struct {
	Slope         float64   `json:"slope"` // value units per day
	Direction     Direction `json:"direction"`
	First         Point     `json:"first"`
	Last          Point     `json:"last"`
	PercentChange float64   `json:"percent_change"`
	Points        int       `json:"points"`
}

// Compute fits a least-squares line through the points, ordered by date, and
// classifies the direction of the slope.
func Compute(points []Point) (*Result, error) {
	if len(points) < 2 {
		return nil, ErrInsufficientData
	}

	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	origin := sorted[0].Date
	var sumX, sumY, sumXY, sumXX float64
	for _, p := range sorted {
		x := p.Date.Sub(origin).Hours() / 24
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumXX += x * x
	}

	n := float64(len(sorted))
	denom := n*sumXX - sumX*sumX

	slope := 0.0
	if denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}

	direction := DirectionFlat
	switch {
	case slope > flatSlopeEpsilon:
		direction = DirectionUp
	case slope < -flatSlopeEpsilon:
		direction = DirectionDown
	}

	first, last := sorted[0], sorted[len(sorted)-1]
	percent := 0.0
	if first.Value != 0 {
		percent = (last.Value - first.Value) / math.Abs(first.Value) * 100
	}

	return &Result{
		Slope:         slope,
		Direction:     direction,
		First:         first,
		Last:          last,
		PercentChange: percent,
		Points:        len(sorted),
	}, nil
}
