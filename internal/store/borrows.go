package store

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"shelfkeeper/m/domain"
)

// BorrowFilter narrows ListBorrows. Zero value lists every borrow.
type BorrowFilter struct {
	ID         *int64
	UserID     *int64
	BookID     *int64
	ActiveOnly bool
}

// CreateBorrow inserts an active borrow and returns its ID.
func (q *Queries) CreateBorrow(ctx context.Context, userID, bookID int64, borrowedAt time.Time) (int64, error) {
	var id int64
	query := q.rebind(`INSERT INTO borrows (user_id, book_id, borrowed_at) VALUES (?, ?, ?) RETURNING id`)
	if err := sqlx.GetContext(ctx, q.ext, &id, query, userID, bookID, borrowedAt); err != nil {
		return 0, fmt.Errorf("create borrow: %w", translate(err))
	}
	return id, nil
}

// CloseBorrow sets returned_at on an active borrow. ErrNotFound means the
// borrow was already returned.
func (q *Queries) CloseBorrow(ctx context.Context, id int64, returnedAt time.Time) error {
	res, err := q.ext.ExecContext(ctx,
		q.rebind(`UPDATE borrows SET returned_at = ? WHERE id = ? AND returned_at IS NULL`), returnedAt, id)
	if err != nil {
		return fmt.Errorf("close borrow: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) GetBorrow(ctx context.Context, id int64) (*domain.Borrow, error) {
	return q.oneBorrow(ctx, BorrowFilter{ID: &id})
}

// ActiveBorrow returns the unreturned borrow of bookID by userID.
func (q *Queries) ActiveBorrow(ctx context.Context, userID, bookID int64) (*domain.Borrow, error) {
	return q.oneBorrow(ctx, BorrowFilter{UserID: &userID, BookID: &bookID, ActiveOnly: true})
}

func (q *Queries) oneBorrow(ctx context.Context, f BorrowFilter) (*domain.Borrow, error) {
	borrows, err := q.ListBorrows(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(borrows) == 0 {
		return nil, ErrNotFound
	}
	return &borrows[0], nil
}

// ListBorrows returns borrows joined with the book title and username,
// newest first.
func (q *Queries) ListBorrows(ctx context.Context, f BorrowFilter) ([]domain.Borrow, error) {
	ds := q.dialect.
		From(goqu.T("borrows").As("b")).
		LeftJoin(goqu.T("books").As("bk"), goqu.On(goqu.I("bk.id").Eq(goqu.I("b.book_id")))).
		LeftJoin(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("b.user_id")))).
		Select(
			goqu.I("b.id"),
			goqu.I("b.user_id"),
			goqu.I("b.book_id"),
			goqu.I("bk.title").As("book_title"),
			goqu.I("u.username").As("username"),
			goqu.I("b.borrowed_at"),
			goqu.I("b.returned_at"),
		).
		Order(goqu.I("b.borrowed_at").Desc(), goqu.I("b.id").Desc())

	if f.ID != nil {
		ds = ds.Where(goqu.I("b.id").Eq(*f.ID))
	}
	if f.UserID != nil {
		ds = ds.Where(goqu.I("b.user_id").Eq(*f.UserID))
	}
	if f.BookID != nil {
		ds = ds.Where(goqu.I("b.book_id").Eq(*f.BookID))
	}
	if f.ActiveOnly {
		ds = ds.Where(goqu.I("b.returned_at").IsNull())
	}

	query, _, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build borrow query: %w", err)
	}

	borrows := []domain.Borrow{}
	if err := sqlx.SelectContext(ctx, q.ext, &borrows, query); err != nil {
		return nil, fmt.Errorf("list borrows: %w", err)
	}
	return borrows, nil
}
