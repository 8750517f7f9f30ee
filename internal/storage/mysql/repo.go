package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"hotelsat/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
func nullF64(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
func nullBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Bool
	return &b
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- hotels ----

func (r *Repo) CreateHotel(ctx context.Context, h domain.Hotel) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertHotelSQL,
		h.Name, valStr(h.Location), valStr(h.TallyFormURL), valStr(h.SheetID), valStr(h.SheetURL))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) UpdateHotel(ctx context.Context, h domain.Hotel) error {
	res, err := r.db.ExecContext(ctx, updateHotelSQL,
		h.Name, valStr(h.Location), valStr(h.TallyFormURL), valStr(h.SheetID), valStr(h.SheetURL), h.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// RowsAffected is 0 both for missing rows and no-op updates; verify.
		if _, gerr := r.GetHotel(ctx, h.ID); gerr != nil {
			return gerr
		}
	}
	return nil
}

func (r *Repo) DeleteHotel(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteHotelSQL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	return scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
}

func (r *Repo) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, listHotelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *Repo) FindHotelByFormRef(ctx context.Context, token string) (domain.Hotel, error) {
	return scanHotel(r.db.QueryRowContext(ctx, findHotelByFormRefSQL, token))
}

func (r *Repo) FirstHotel(ctx context.Context) (domain.Hotel, error) {
	return scanHotel(r.db.QueryRowContext(ctx, firstHotelSQL))
}

type rowScanner interface{ Scan(dest ...any) error }

func scanHotel(row rowScanner) (domain.Hotel, error) {
	var h domain.Hotel
	var location, formURL, sheetID, sheetURL sql.NullString
	var created, updated sql.NullTime
	err := row.Scan(&h.ID, &h.Name, &location, &formURL, &sheetID, &sheetURL, &created, &updated)
	if err == sql.ErrNoRows {
		return domain.Hotel{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Hotel{}, err
	}
	h.Location = nullStr(location)
	h.TallyFormURL = nullStr(formURL)
	h.SheetID = nullStr(sheetID)
	h.SheetURL = nullStr(sheetURL)
	if created.Valid {
		h.CreatedAt = created.Time
	}
	if updated.Valid {
		h.UpdatedAt = updated.Time
	}
	return h, nil
}

// ---- responses ----

// SaveResponse inserts one response. The unique index on
// tally_submission_id turns a redelivered event into ErrDuplicate, so
// concurrent retries cannot both create a record.
func (r *Repo) SaveResponse(ctx context.Context, resp domain.SatisfactionResponse) (int64, error) {
	var submitted any
	if !resp.SubmissionDate.IsZero() {
		submitted = resp.SubmissionDate.UTC()
	}
	res, err := r.db.ExecContext(ctx, insertResponseSQL,
		resp.HotelID,
		valStr(resp.ClientName),
		valStr(resp.ClientEmail),
		valF64(resp.OverallRating),
		valF64(resp.AccommodationRating),
		valF64(resp.ServiceRating),
		valF64(resp.CleanlinessRating),
		valF64(resp.FoodRating),
		valF64(resp.LocationRating),
		valF64(resp.ValueRating),
		valBool(resp.WouldRecommend),
		valStr(resp.Comments),
		submitted,
		valStr(resp.TallySubmissionID),
	)
	if err != nil {
		var me *driver.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return 0, domain.ErrDuplicate
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) FindResponseBySubmissionID(ctx context.Context, sid string) (domain.SatisfactionResponse, error) {
	return scanResponse(r.db.QueryRowContext(ctx, findResponseBySubmissionSQL, sid))
}

func (r *Repo) ListResponses(ctx context.Context, hotelID int64, since *time.Time) ([]domain.SatisfactionResponse, error) {
	var rows *sql.Rows
	var err error
	if since != nil {
		rows, err = r.db.QueryContext(ctx, listResponsesSinceSQL, hotelID, since.UTC())
	} else {
		rows, err = r.db.QueryContext(ctx, listResponsesSQL, hotelID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SatisfactionResponse
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

func (r *Repo) ListResponsesPage(ctx context.Context, hotelID int64, pg domain.PageQuery) (domain.ResponsesPage, error) {
	if pg.Page < 1 {
		pg.Page = 1
	}
	if pg.PerPage < 1 {
		pg.PerPage = 20
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countResponsesSQL, hotelID).Scan(&total); err != nil {
		return domain.ResponsesPage{}, err
	}

	rows, err := r.db.QueryContext(ctx, listResponsesPageSQL, hotelID, pg.PerPage, (pg.Page-1)*pg.PerPage)
	if err != nil {
		return domain.ResponsesPage{}, err
	}
	defer rows.Close()

	var items []domain.SatisfactionResponse
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return domain.ResponsesPage{}, err
		}
		items = append(items, resp)
	}
	if err := rows.Err(); err != nil {
		return domain.ResponsesPage{}, err
	}

	pages := (total + pg.PerPage - 1) / pg.PerPage
	return domain.ResponsesPage{Items: items, Total: total, Pages: pages, Page: pg.Page}, nil
}

func (r *Repo) ResponseCounts(ctx context.Context) ([]domain.HotelResponseCount, error) {
	rows, err := r.db.QueryContext(ctx, responseCountsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HotelResponseCount
	for rows.Next() {
		var c domain.HotelResponseCount
		if err := rows.Scan(&c.HotelID, &c.HotelName, &c.Responses); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanResponse(row rowScanner) (domain.SatisfactionResponse, error) {
	var resp domain.SatisfactionResponse
	var name, email, comments, sid sql.NullString
	var overall, accommodation, service, cleanliness, food, location, value sql.NullFloat64
	var recommend sql.NullBool
	var submitted sql.NullTime

	err := row.Scan(
		&resp.ID, &resp.HotelID, &name, &email,
		&overall, &accommodation, &service, &cleanliness,
		&food, &location, &value,
		&recommend, &comments, &submitted, &sid,
	)
	if err == sql.ErrNoRows {
		return domain.SatisfactionResponse{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.SatisfactionResponse{}, err
	}

	resp.ClientName = nullStr(name)
	resp.ClientEmail = nullStr(email)
	resp.OverallRating = nullF64(overall)
	resp.AccommodationRating = nullF64(accommodation)
	resp.ServiceRating = nullF64(service)
	resp.CleanlinessRating = nullF64(cleanliness)
	resp.FoodRating = nullF64(food)
	resp.LocationRating = nullF64(location)
	resp.ValueRating = nullF64(value)
	resp.WouldRecommend = nullBool(recommend)
	resp.Comments = nullStr(comments)
	if submitted.Valid {
		resp.SubmissionDate = submitted.Time
	}
	resp.TallySubmissionID = nullStr(sid)
	return resp, nil
}
