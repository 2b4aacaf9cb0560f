package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogFile is the JSON fixture accepted by ImportCatalog. Titles refer to
// their category and genres by slug.
type CatalogFile struct {
	Categories []CatalogEntry `json:"categories"`
	Genres     []CatalogEntry `json:"genres"`
	Titles     []CatalogTitle `json:"titles"`
}

type CatalogEntry struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type CatalogTitle struct {
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Genres      []string `json:"genre"`
}

type ImportSummary struct {
	Categories int
	Genres     int
	Titles     int
	Skipped    int
}

// ReadCatalog decodes a fixture and checks every entry against the same limits
// the API enforces. Slug references are resolved later, against the file and
// the stored rows.
func ReadCatalog(r io.Reader) (*CatalogFile, error) {
	var data CatalogFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	var errs []error
	for i, e := range data.Categories {
		errs = append(errs, checkEntry(fmt.Sprintf("category %d", i+1), e, models.MaxCategoryNameLength)...)
	}
	for i, e := range data.Genres {
		errs = append(errs, checkEntry(fmt.Sprintf("genre %d", i+1), e, models.MaxGenreNameLength)...)
	}
	now := time.Now()
	for i, t := range data.Titles {
		at := fmt.Sprintf("title %d", i+1)
		if t.Name == "" || t.Year == 0 {
			errs = append(errs, fmt.Errorf("%s: name and year are required", at))
			continue
		}
		if utf8.RuneCountInString(t.Name) > models.MaxTitleNameLength {
			errs = append(errs, fmt.Errorf("%s: name longer than %d characters", at, models.MaxTitleNameLength))
		}
		if !models.Released(t.Year, now) {
			errs = append(errs, fmt.Errorf("%s: year %d has not come yet", at, t.Year))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &data, nil
}

func checkEntry(at string, e CatalogEntry, maxName int) []error {
	if e.Name == "" || e.Slug == "" {
		return []error{fmt.Errorf("%s: name and slug are required", at)}
	}
	var errs []error
	if utf8.RuneCountInString(e.Name) > maxName {
		errs = append(errs, fmt.Errorf("%s: name longer than %d characters", at, maxName))
	}
	if len(e.Slug) > models.MaxSlugLength || !models.ValidSlug(e.Slug) {
		errs = append(errs, fmt.Errorf("%s: invalid slug %q", at, e.Slug))
	}
	return errs
}

// ImportCatalog upserts categories and genres by slug and inserts titles that are
// not yet stored under the same name and year, all in one transaction.
func ImportCatalog(ctx context.Context, db *gorm.DB, data *CatalogFile, logger *slog.Logger) (ImportSummary, error) {
	var sum ImportSummary
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := make(map[string]int64, len(data.Categories))
		for _, e := range data.Categories {
			c := models.Category{Name: e.Name, Slug: e.Slug}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}},
				DoUpdates: clause.AssignmentColumns([]string{"name"}),
			}).Create(&c).Error; err != nil {
				return fmt.Errorf("category %s: %w", e.Slug, err)
			}
			categories[c.Slug] = c.ID
			sum.Categories++
		}

		genres := make(map[string]int64, len(data.Genres))
		for _, e := range data.Genres {
			g := models.Genre{Name: e.Name, Slug: e.Slug}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}},
				DoUpdates: clause.AssignmentColumns([]string{"name"}),
			}).Create(&g).Error; err != nil {
				return fmt.Errorf("genre %s: %w", e.Slug, err)
			}
			genres[g.Slug] = g.ID
			sum.Genres++
		}

		for i, t := range data.Titles {
			var existing int64
			if err := tx.Model(&models.Title{}).
				Where("name = ? AND year = ?", t.Name, t.Year).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				sum.Skipped++
				logger.Debug("title already stored", slog.String("name", t.Name), slog.Int("year", t.Year))
				continue
			}

			title := models.Title{Name: t.Name, Year: t.Year, Description: t.Description}
			if t.Category != "" {
				id, err := lookupSlug(tx, &models.Category{}, categories, t.Category)
				if err != nil {
					return fmt.Errorf("title %d: %w", i+1, err)
				}
				title.CategoryID = &id
			}
			if err := tx.Omit(clause.Associations).Create(&title).Error; err != nil {
				return fmt.Errorf("title %s: %w", t.Name, err)
			}

			for _, slug := range t.Genres {
				id, err := lookupSlug(tx, &models.Genre{}, genres, slug)
				if err != nil {
					return fmt.Errorf("title %d: %w", i+1, err)
				}
				link := models.TitleGenre{TitleID: title.ID, GenreID: id}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
					return err
				}
			}
			sum.Titles++
		}
		return nil
	})
	if err != nil {
		return ImportSummary{}, err
	}

	logger.Info("Catalog imported",
		slog.Int("categories", sum.Categories),
		slog.Int("genres", sum.Genres),
		slog.Int("titles", sum.Titles),
		slog.Int("skipped", sum.Skipped),
	)
	return sum, nil
}

// lookupSlug resolves slug from the ids created in this run, falling back to the
// stored rows of model's table.
func lookupSlug(tx *gorm.DB, model any, known map[string]int64, slug string) (int64, error) {
	if id, ok := known[slug]; ok {
		return id, nil
	}
	var id int64
	err := tx.Model(model).Select("id").Where("slug = ?", slug).Scan(&id).Error
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("object with slug=%s does not exist", slug)
	}
	known[slug] = id
	return id, nil
}
