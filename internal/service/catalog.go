package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"shelfkeeper/m/domain"
	"shelfkeeper/m/internal/store"
)

const msgBookNotFound = "Book not found"

// CatalogService manages the book inventory.
type CatalogService struct {
	store *store.Store
	log   *logrus.Logger
}

func NewCatalogService(st *store.Store, log *logrus.Logger) *CatalogService {
	return &CatalogService{store: st, log: log}
}

func (s *CatalogService) ListBooks(ctx context.Context) ([]domain.Book, error) {
	return s.store.ListBooks(ctx)
}

func (s *CatalogService) CountBooks(ctx context.Context) (int64, error) {
	return s.store.CountBooks(ctx)
}

func (s *CatalogService) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &domain.NotFoundError{Message: msgBookNotFound}
	}
	return book, err
}

// CreateBooks validates every item first and inserts all of them in one
// transaction, so either every book is created or none is.
func (s *CatalogService) CreateBooks(ctx context.Context, items []domain.NewBook) ([]domain.Book, error) {
	if len(items) == 0 {
		return nil, &domain.ValidationError{Message: "Invalid data", Items: []domain.FieldErrors{}}
	}

	details := make([]domain.FieldErrors, len(items))
	invalid := false
	for i := range items {
		items[i].Title = strings.TrimSpace(items[i].Title)
		items[i].Author = strings.TrimSpace(items[i].Author)
		fields, err := checkStruct(items[i])
		if err != nil {
			return nil, err
		}
		if fields == nil {
			fields = domain.FieldErrors{}
		}
		if len(fields) > 0 {
			invalid = true
		}
		details[i] = fields
	}
	if invalid {
		return nil, &domain.ValidationError{Message: "Invalid data", Items: details}
	}

	books := make([]domain.Book, 0, len(items))
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		for _, item := range items {
			book := domain.Book{Title: item.Title, Author: item.Author, Available: true}
			if item.Available != nil {
				book.Available = *item.Available
			}
			if err := q.CreateBook(ctx, &book); err != nil {
				return err
			}
			books = append(books, book)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("count", len(books)).Info("Books added to catalog")
	return books, nil
}

// UpdateBook applies a partial update and returns the stored result.
func (s *CatalogService) UpdateBook(ctx context.Context, id int64, patch domain.BookPatch) (*domain.Book, error) {
	fields := domain.FieldErrors{}
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		patch.Title = &t
		if err := checkField(fields, "title", t, "required,max=255"); err != nil {
			return nil, err
		}
	}
	if patch.Author != nil {
		a := strings.TrimSpace(*patch.Author)
		patch.Author = &a
		if err := checkField(fields, "author", a, "required,max=255"); err != nil {
			return nil, err
		}
	}

	var updated *domain.Book
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		if _, err := q.GetBook(ctx, id); err != nil {
			return err
		}
		if len(fields) > 0 {
			return &domain.ValidationError{Message: "Invalid data", Fields: fields}
		}
		if err := q.UpdateBook(ctx, id, patch); err != nil {
			return err
		}
		book, err := q.GetBook(ctx, id)
		updated = book
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, &domain.NotFoundError{Message: msgBookNotFound}
	}
	if err != nil {
		return nil, err
	}

	s.log.WithField("book_id", id).Info("Book updated")
	return updated, nil
}

// DeleteBook removes a book and returns the deleted record. Borrow history
// referencing it is kept with the book reference cleared.
func (s *CatalogService) DeleteBook(ctx context.Context, id int64) (*domain.Book, error) {
	var deleted *domain.Book
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		book, err := q.GetBook(ctx, id)
		if err != nil {
			return err
		}
		deleted = book
		return q.DeleteBook(ctx, id)
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, &domain.NotFoundError{Message: msgBookNotFound}
	}
	if err != nil {
		return nil, err
	}

	s.log.WithField("book_id", id).Infof("Book deleted: %s", deleted.Title)
	return deleted, nil
}
