package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// Numbers is the dashboard counter set for the current period.
type Numbers struct {
	ByPaymentMethod  map[string]int `json:"byPaymentMethod"`
	GiftsThisMonth   int            `json:"giftsThisMonth"`
	RegularThisMonth int            `json:"regularThisMonth"`
	SalesToday       int            `json:"salesToday"`
	SalesThisMonth   int            `json:"salesThisMonth"`
	SalesThisYear    int            `json:"salesThisYear"`
}

// NumbersRepository runs the counting queries behind the dashboard.
type NumbersRepository struct {
	pool *pgxpool.Pool
}

// NewNumbersRepository constructs a NumbersRepository.
func NewNumbersRepository(pool *pgxpool.Pool) *NumbersRepository {
	return &NumbersRepository{pool: pool}
}

// CountByPaymentMethodSince groups sale counts per payment method.
func (r *NumbersRepository) CountByPaymentMethodSince(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT payment_method, COUNT(*)
		FROM sales WHERE sold_at >= $1
		GROUP BY payment_method`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var method string
		var count int
		if err := rows.Scan(&method, &count); err != nil {
			return nil, err
		}
		out[method] = count
	}
	return out, rows.Err()
}

// CountByGiftSince returns (gift, non-gift) sale counts.
func (r *NumbersRepository) CountByGiftSince(ctx context.Context, since time.Time) (int, int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT gift, COUNT(*)
		FROM sales WHERE sold_at >= $1
		GROUP BY gift`, since)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()
	var gifts, regular int
	for rows.Next() {
		var gift bool
		var count int
		if err := rows.Scan(&gift, &count); err != nil {
			return 0, 0, err
		}
		if gift {
			gifts = count
		} else {
			regular = count
		}
	}
	return gifts, regular, rows.Err()
}

// CountSince counts sales recorded at or after the instant.
func (r *NumbersRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales WHERE sold_at >= $1`, since).Scan(&count)
	return count, err
}

// NumbersSource abstracts the counter queries for testing.
type NumbersSource interface {
	CountByPaymentMethodSince(ctx context.Context, since time.Time) (map[string]int, error)
	CountByGiftSince(ctx context.Context, since time.Time) (int, int, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// CollectNumbers gathers all dashboard counters, fanning the independent
// queries out concurrently.
func CollectNumbers(ctx context.Context, src NumbersSource, now time.Time) (*Numbers, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	startOfYear := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())

	numbers := &Numbers{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		byMethod, err := src.CountByPaymentMethodSince(gctx, startOfMonth)
		if err != nil {
			return err
		}
		numbers.ByPaymentMethod = byMethod
		return nil
	})
	g.Go(func() error {
		gifts, regular, err := src.CountByGiftSince(gctx, startOfMonth)
		if err != nil {
			return err
		}
		numbers.GiftsThisMonth = gifts
		numbers.RegularThisMonth = regular
		return nil
	})
	g.Go(func() error {
		count, err := src.CountSince(gctx, startOfDay)
		if err != nil {
			return err
		}
		numbers.SalesToday = count
		return nil
	})
	g.Go(func() error {
		count, err := src.CountSince(gctx, startOfMonth)
		if err != nil {
			return err
		}
		numbers.SalesThisMonth = count
		return nil
	})
	g.Go(func() error {
		count, err := src.CountSince(gctx, startOfYear)
		if err != nil {
			return err
		}
		numbers.SalesThisYear = count
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if numbers.ByPaymentMethod == nil {
		numbers.ByPaymentMethod = map[string]int{}
	}
	return numbers, nil
}
