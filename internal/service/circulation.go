package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"shelfkeeper/m/domain"
	"shelfkeeper/m/internal/store"
)

const (
	msgAlreadyBorrowed = "You have already borrowed this book"
	msgNotAvailable    = "Book is not available for borrowing"
	msgNoActiveBorrow  = "No active borrow record found for this book"
)

// Receipt describes the outcome of a borrow or return.
type Receipt struct {
	Book   domain.Book
	Borrow domain.Borrow
}

// CirculationService lends books to users and takes them back. Each
// operation writes the borrow row and the book's availability in a single
// transaction.
type CirculationService struct {
	store *store.Store
	log   *logrus.Logger
	now   func() time.Time
}

func NewCirculationService(st *store.Store, log *logrus.Logger) *CirculationService {
	return &CirculationService{store: st, log: log, now: time.Now}
}

// Borrow lends bookID to userID.
//
// A user who already holds the book gets "already borrowed" even though the
// book is also unavailable; any other unavailable book is reported as not
// available, whether another user holds it or not.
func (s *CirculationService) Borrow(ctx context.Context, userID, bookID int64) (*Receipt, error) {
	var receipt Receipt
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		book, err := q.GetBook(ctx, bookID)
		if errors.Is(err, store.ErrNotFound) {
			return &domain.NotFoundError{Message: msgBookNotFound}
		}
		if err != nil {
			return err
		}

		if _, err := q.ActiveBorrow(ctx, userID, bookID); err == nil {
			return &domain.ConflictError{Message: msgAlreadyBorrowed}
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if !book.Available {
			return &domain.ConflictError{Message: msgNotAvailable}
		}
		reserved, err := q.ReserveBook(ctx, bookID)
		if err != nil {
			return err
		}
		if !reserved {
			return &domain.ConflictError{Message: msgNotAvailable}
		}

		id, err := q.CreateBorrow(ctx, userID, bookID, s.now().UTC())
		if errors.Is(err, store.ErrUniqueViolation) {
			return &domain.ConflictError{Message: msgAlreadyBorrowed}
		}
		if err != nil {
			return err
		}

		borrow, err := q.GetBorrow(ctx, id)
		if err != nil {
			return err
		}
		book.Available = false
		receipt = Receipt{Book: *book, Borrow: *borrow}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "book_id": bookID, "borrow_id": receipt.Borrow.ID}).Info("Book borrowed")
	return &receipt, nil
}

// Return closes the user's active borrow of bookID and makes the book
// available again.
func (s *CirculationService) Return(ctx context.Context, userID, bookID int64) (*Receipt, error) {
	var receipt Receipt
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		active, err := q.ActiveBorrow(ctx, userID, bookID)
		if errors.Is(err, store.ErrNotFound) {
			return &domain.ConflictError{Message: msgNoActiveBorrow}
		}
		if err != nil {
			return err
		}

		returnedAt := s.now().UTC()
		if returnedAt.Before(active.BorrowedAt) {
			returnedAt = active.BorrowedAt
		}
		if err := q.CloseBorrow(ctx, active.ID, returnedAt); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return &domain.ConflictError{Message: msgNoActiveBorrow}
			}
			return err
		}
		if err := q.ReleaseBook(ctx, bookID); err != nil {
			return err
		}

		book, err := q.GetBook(ctx, bookID)
		if err != nil {
			return err
		}
		borrow, err := q.GetBorrow(ctx, active.ID)
		if err != nil {
			return err
		}
		receipt = Receipt{Book: *book, Borrow: *borrow}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "book_id": bookID, "borrow_id": receipt.Borrow.ID}).Info("Book returned")
	return &receipt, nil
}

// History lists every borrow of the user, newest first.
func (s *CirculationService) History(ctx context.Context, userID int64) ([]domain.Borrow, error) {
	return s.store.ListBorrows(ctx, store.BorrowFilter{UserID: &userID})
}

// ActiveBorrows lists the borrows that have not been returned, across users.
func (s *CirculationService) ActiveBorrows(ctx context.Context) ([]domain.Borrow, error) {
	return s.store.ListBorrows(ctx, store.BorrowFilter{ActiveOnly: true})
}
