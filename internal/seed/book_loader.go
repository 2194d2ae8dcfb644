package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"shelfkeeper/m/domain"
)

// Catalog is the part of the catalog service the loader needs.
type Catalog interface {
	CountBooks(ctx context.Context) (int64, error)
	CreateBooks(ctx context.Context, items []domain.NewBook) ([]domain.Book, error)
}

// LoadBooksFile seeds the catalog from a CSV file. It does nothing when the
// catalog already holds books.
func LoadBooksFile(ctx context.Context, catalog Catalog, path string, log *logrus.Logger) (int, error) {
	count, err := catalog.CountBooks(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.WithField("books", count).Info("Catalog already seeded, skipping")
		return 0, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("unable to load book catalog %s: %w", path, err)
	}
	defer file.Close()

	n, err := LoadBooks(ctx, catalog, file, log)
	if err != nil {
		return 0, err
	}
	log.WithField("path", path).Infof("Seeded book catalog with %d rows", n)
	return n, nil
}

// LoadBooks reads a CSV with a header naming title and author columns (and
// optionally available) and creates the books in one batch. Rows without a
// title are skipped.
func LoadBooks(ctx context.Context, catalog Catalog, r io.Reader, log *logrus.Logger) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("unable to read book header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	titleCol, okTitle := cols["title"]
	authorCol, okAuthor := cols["author"]
	if !okTitle || !okAuthor {
		return 0, errors.New("book CSV header must contain title and author columns")
	}
	availCol, hasAvail := cols["available"]

	var items []domain.NewBook
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.WithError(err).Warnf("unable to read book row %d", line)
			continue
		}
		title := field(record, titleCol)
		if title == "" {
			continue
		}
		item := domain.NewBook{Title: title, Author: field(record, authorCol)}
		if hasAvail {
			if raw := field(record, availCol); raw != "" {
				avail, err := strconv.ParseBool(raw)
				if err != nil {
					return 0, fmt.Errorf("row %d: invalid available value %q", line, raw)
				}
				item.Available = &avail
			}
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return 0, nil
	}
	books, err := catalog.CreateBooks(ctx, items)
	if err != nil {
		return 0, err
	}
	return len(books), nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
