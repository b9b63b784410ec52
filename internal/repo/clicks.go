package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/linkhive/linkhive/internal"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/rs/zerolog/log"
)

const recentClickLimit = 10

type clickRow struct {
	ID        int64          `db:"id"`
	LinkID    string         `db:"link_id"`
	ClickedAt Date           `db:"clicked_at"`
	IPAddress sql.NullString `db:"ip_address"`
	UserAgent sql.NullString `db:"user_agent"`
}

type ClicksRepo struct {
	db *sql.DB
}

func NewClicksRepo(db *sql.DB) *ClicksRepo {
	return &ClicksRepo{db: db}
}

// Create records a single click event.
func (r *ClicksRepo) Create(ctx context.Context, linkID, ipAddress, userAgent string) error {
	executor := goqu.New("sqlite", r.db)

	log.Debug().Str("link_id", linkID).Str("ip", ipAddress).Msg("recording click")

	now := Date(time.Now().UTC())
	query := executor.Insert("clicks").
		Cols("link_id", "clicked_at", "ip_address", "user_agent").
		Vals([]any{linkID, now, ipAddress, userAgent})

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		log.Error().Err(err).Str("link_id", linkID).Msg("failed to record click")
		return err
	}

	log.Debug().Str("link_id", linkID).Str("ip", ipAddress).Msg("click recorded successfully")
	return nil
}

// AnalyticsForLink computes the click windows relative to now: a live
// total, today by UTC date, trailing 7 and 30 days, and the most recent
// clicks newest first. The clicks table is the source of truth; the
// denormalized counter on the link converges to the same value.
func (r *ClicksRepo) AnalyticsForLink(ctx context.Context, linkID string, now time.Time) (*internal.Analytics, error) {
	now = now.UTC()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	total, err := r.countSince(ctx, linkID, time.Time{})
	if err != nil {
		return nil, err
	}
	today, err := r.countSince(ctx, linkID, startOfToday)
	if err != nil {
		return nil, err
	}
	week, err := r.countSince(ctx, linkID, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	month, err := r.countSince(ctx, linkID, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}
	recent, err := r.recentForLink(ctx, linkID)
	if err != nil {
		return nil, err
	}

	return &internal.Analytics{
		LinkID:          linkID,
		TotalClicks:     total,
		ClicksToday:     today,
		ClicksThisWeek:  week,
		ClicksThisMonth: month,
		RecentClicks:    recent,
	}, nil
}

func (r *ClicksRepo) countSince(ctx context.Context, linkID string, since time.Time) (int64, error) {
	executor := goqu.New("sqlite", r.db)

	where := goqu.Ex{"link_id": linkID}
	query := executor.From("clicks").Where(where).Select(goqu.COUNT("*"))
	if !since.IsZero() {
		// RFC3339 UTC strings compare chronologically
		query = query.Where(goqu.C("clicked_at").Gte(Date(since)))
	}

	var total int64
	found, err := query.Executor().ScanValContext(ctx, &total)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return total, nil
}

func (r *ClicksRepo) recentForLink(ctx context.Context, linkID string) ([]internal.Click, error) {
	executor := goqu.New("sqlite", r.db)

	query := executor.From("clicks").
		Where(goqu.Ex{"link_id": linkID}).
		Select("id", "link_id", "clicked_at", "ip_address", "user_agent").
		Order(goqu.C("clicked_at").Desc(), goqu.C("id").Desc()).
		Limit(recentClickLimit)

	var rows []clickRow
	if err := query.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, err
	}

	clicks := make([]internal.Click, len(rows))
	for i, row := range rows {
		clicks[i] = internal.Click{
			ID:        row.ID,
			LinkID:    row.LinkID,
			ClickedAt: row.ClickedAt.Time(),
			IPAddress: row.IPAddress.String,
			UserAgent: row.UserAgent.String,
		}
	}
	return clicks, nil
}
