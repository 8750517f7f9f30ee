// The importer seeds the database from a JSON hotel catalog, optionally
// with historical responses per hotel. Hotels are imported concurrently,
// bounded by a weighted semaphore.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotelsat/internal/adapters/observability"
	"hotelsat/internal/domain"
	"hotelsat/internal/shared"
	mysqlrepo "hotelsat/internal/storage/mysql"
)

type catalogResponse struct {
	ClientName     *string  `json:"client_name"`
	ClientEmail    *string  `json:"client_email"`
	OverallRating  *float64 `json:"overall_rating"`
	WouldRecommend *bool    `json:"would_recommend"`
	Comments       *string  `json:"comments"`
	SubmissionDate string   `json:"submission_date"`
}

type catalogHotel struct {
	Name         string            `json:"name"`
	Location     *string           `json:"location"`
	TallyFormURL *string           `json:"tally_form_url"`
	SheetID      *string           `json:"sheet_id"`
	SheetURL     *string           `json:"sheet_url"`
	Responses    []catalogResponse `json:"responses"`
}

func main() {
	path := flag.String("catalog", "catalog.json", "path to the hotel catalog JSON file")
	flag.Parse()

	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatal().Err(err).Str("path", *path).Msg("cannot read catalog")
	}
	var catalog []catalogHotel
	if err := json.Unmarshal(raw, &catalog); err != nil {
		log.Fatal().Err(err).Msg("catalog is not valid JSON")
	}

	log.Info().
		Str("path", *path).
		Int("hotels", len(catalog)).
		Int("workers", cfg.ImportWorkers).
		Msg("importer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	sem := semaphore.NewWeighted(int64(cfg.ImportWorkers))
	var wg sync.WaitGroup

	for _, entry := range catalog {
		entry := entry

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(h catalogHotel) {
			defer wg.Done()
			defer sem.Release(int64(1))

			if err := importHotel(ctx, repo, h); err != nil {
				log.Warn().Str("hotel", h.Name).Err(err).Msg("import failed")
				return
			}
			log.Info().Str("hotel", h.Name).Msg("import ok")
		}(entry)
	}

	wg.Wait()
	log.Info().Msg("import completed")
}

func importHotel(ctx context.Context, repo *mysqlrepo.Repo, h catalogHotel) error {
	if h.Name == "" {
		return errors.New("hotel without a name")
	}
	id, err := repo.CreateHotel(ctx, domain.Hotel{
		Name:         h.Name,
		Location:     h.Location,
		TallyFormURL: h.TallyFormURL,
		SheetID:      h.SheetID,
		SheetURL:     h.SheetURL,
	})
	if err != nil {
		return err
	}

	for _, r := range h.Responses {
		resp := domain.SatisfactionResponse{
			HotelID:        id,
			ClientName:     r.ClientName,
			ClientEmail:    r.ClientEmail,
			OverallRating:  r.OverallRating,
			WouldRecommend: r.WouldRecommend,
			Comments:       r.Comments,
			SubmissionDate: time.Now(),
		}
		if r.SubmissionDate != "" {
			if t, err := time.Parse("2006-01-02 15:04:05", r.SubmissionDate); err == nil {
				resp.SubmissionDate = t
			} else if t, err := time.Parse("2006-01-02", r.SubmissionDate); err == nil {
				resp.SubmissionDate = t
			}
		}
		if _, err := repo.SaveResponse(ctx, resp); err != nil {
			return err
		}
	}
	return nil
}
