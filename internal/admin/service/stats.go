package service

import (
	"context"
	"sync"

	"commonspace/pkg/config"
	apperrors "commonspace/pkg/errors"
	"commonspace/pkg/model"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type UserCounter interface {
	Count(ctx context.Context, filter model.UserFilter) (int64, error)
}

type VenueCounter interface {
	Count(ctx context.Context, filter model.VenueFilter) (int64, error)
}

type BookingAggregator interface {
	CountByStatus(ctx context.Context) (map[model.BookingStatus]int64, error)
	PricesByStatus(ctx context.Context, status model.BookingStatus) ([]float64, error)
}

type Stats struct {
	TotalUsers       int64                         `json:"totalUsers"`
	TotalVenues      int64                         `json:"totalVenues"`
	ActiveVenues     int64                         `json:"activeVenues"`
	TotalBookings    int64                         `json:"totalBookings"`
	BookingsByStatus map[model.BookingStatus]int64 `json:"bookingsByStatus"`
	// CompletedRevenue is a decimal string so sums of prices stay exact.
	CompletedRevenue string `json:"completedRevenue"`
}

type StatsService interface {
	Stats(ctx context.Context) (*Stats, error)
}

type statsService struct {
	users    UserCounter
	venues   VenueCounter
	bookings BookingAggregator
	cfg      *config.Config
}

func NewStatsService(users UserCounter, venues VenueCounter, bookings BookingAggregator, cfg *config.Config) StatsService {
	return &statsService{users: users, venues: venues, bookings: bookings, cfg: cfg}
}

func (s *statsService) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.users.Count(gctx, model.UserFilter{})
		if err != nil {
			return apperrors.Internal("Failed to count users", err)
		}
		mu.Lock()
		stats.TotalUsers = n
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		n, err := s.venues.Count(gctx, model.VenueFilter{})
		if err != nil {
			return apperrors.Internal("Failed to count venues", err)
		}
		mu.Lock()
		stats.TotalVenues = n
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		n, err := s.venues.Count(gctx, model.VenueFilter{Status: model.VenueActive})
		if err != nil {
			return apperrors.Internal("Failed to count active venues", err)
		}
		mu.Lock()
		stats.ActiveVenues = n
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		byStatus, err := s.bookings.CountByStatus(gctx)
		if err != nil {
			return apperrors.Internal("Failed to count bookings", err)
		}
		counts := make(map[model.BookingStatus]int64, len(model.AllBookingStatuses))
		var total int64
		for _, status := range model.AllBookingStatuses {
			counts[status] = byStatus[status]
			total += byStatus[status]
		}
		mu.Lock()
		stats.BookingsByStatus = counts
		stats.TotalBookings = total
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		prices, err := s.bookings.PricesByStatus(gctx, model.StatusCompleted)
		if err != nil {
			return apperrors.Internal("Failed to sum revenue", err)
		}
		revenue := decimal.Zero
		for _, p := range prices {
			revenue = revenue.Add(decimal.NewFromFloat(p))
		}
		mu.Lock()
		stats.CompletedRevenue = revenue.StringFixed(2)
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to compute statistics", "error", err)
		return nil, err
	}
	return stats, nil
}
