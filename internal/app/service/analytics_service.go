package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sifan077/graby/internal/app/model"
	"github.com/sifan077/graby/internal/app/repository"
	"go.uber.org/zap"
)

const unknownCity = "Unknown"

// LocationBucket counts visitors at one rounded position.
type LocationBucket struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	City  string  `json:"city"`
	Count int     `json:"count"`
}

// DateSeries is a chart-ready per-day visitor count.
type DateSeries struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// Analytics is the aggregated view of a user's click logs.
type Analytics struct {
	VisitorsByLocation []LocationBucket `json:"visitorsByLocation"`
	VisitorsByDate     DateSeries       `json:"visitorsByDate"`
	// Skipped counts rows that could not be decoded.
	Skipped int `json:"-"`
}

// AnalyticsService folds click logs into location and date buckets.
type AnalyticsService struct {
	repo   repository.ClickLogRepository
	logger *zap.Logger
}

// NewAnalyticsService returns an aggregator over the given click log store.
func NewAnalyticsService(repo repository.ClickLogRepository, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{repo: repo, logger: logger}
}

type locationKey struct {
	lat, lng float64
	city     string
}

// dayKey orders by month then day; the year is deliberately ignored.
type dayKey struct {
	month time.Month
	day   int
}

// ForUser aggregates every click log of userID.
func (s *AnalyticsService) ForUser(ctx context.Context, userID string) (*Analytics, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	byLocation := make(map[locationKey]int)
	byDay := make(map[dayKey]int)
	skipped := 0

	err := s.repo.ForEachByUser(ctx, userID, func(log *model.ClickLog, err error) {
		if err != nil {
			skipped++
			s.logger.Warn("skipping malformed click log", zap.String("user_id", userID), zap.Error(err))
			return
		}
		if key, ok := bucketLocation(log.Location); ok {
			byLocation[key]++
		}
		if !log.Timestamp.IsZero() {
			ts := log.Timestamp.UTC()
			byDay[dayKey{month: ts.Month(), day: ts.Day()}]++
		}
	})
	if err != nil {
		return nil, fmt.Errorf("read click logs: %w", err)
	}

	return &Analytics{
		VisitorsByLocation: locationBuckets(byLocation),
		VisitorsByDate:     dateSeries(byDay),
		Skipped:            skipped,
	}, nil
}

func bucketLocation(loc model.Location) (locationKey, bool) {
	if loc.Lat == 0 || loc.Lng == 0 || math.IsNaN(loc.Lat) || math.IsNaN(loc.Lng) {
		return locationKey{}, false
	}
	city := loc.City
	if city == "" {
		city = unknownCity
	}
	return locationKey{lat: round4(loc.Lat), lng: round4(loc.Lng), city: city}, true
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func locationBuckets(counts map[locationKey]int) []LocationBucket {
	out := make([]LocationBucket, 0, len(counts))
	for key, n := range counts {
		out = append(out, LocationBucket{Lat: key.lat, Lng: key.lng, City: key.city, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.City != b.City {
			return a.City < b.City
		}
		if a.Lat != b.Lat {
			return a.Lat < b.Lat
		}
		return a.Lng < b.Lng
	})
	return out
}

func dateSeries(counts map[dayKey]int) DateSeries {
	days := make([]dayKey, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool {
		if days[i].month != days[j].month {
			return days[i].month < days[j].month
		}
		return days[i].day < days[j].day
	})

	series := DateSeries{Labels: make([]string, 0, len(days)), Data: make([]int, 0, len(days))}
	for _, d := range days {
		// A leap year keeps Feb 29 intact; only month and day are shown.
		label := time.Date(2000, d.month, d.day, 0, 0, 0, 0, time.UTC).Format("Jan 02")
		series.Labels = append(series.Labels, label)
		series.Data = append(series.Data, counts[d])
	}
	return series
}
