package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"shelfkeeper/m/domain"
)

func (q *Queries) ListBooks(ctx context.Context) ([]domain.Book, error) {
	books := []domain.Book{}
	if err := sqlx.SelectContext(ctx, q.ext, &books, `SELECT id, title, author, available FROM books ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (q *Queries) CountBooks(ctx context.Context) (int64, error) {
	var n int64
	if err := sqlx.GetContext(ctx, q.ext, &n, `SELECT COUNT(*) FROM books`); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

func (q *Queries) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	var book domain.Book
	err := sqlx.GetContext(ctx, q.ext, &book, q.rebind(`SELECT id, title, author, available FROM books WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &book, nil
}

// CreateBook inserts the book and fills in its ID.
func (q *Queries) CreateBook(ctx context.Context, book *domain.Book) error {
	query := q.rebind(`INSERT INTO books (title, author, available) VALUES (?, ?, ?) RETURNING id`)
	if err := sqlx.GetContext(ctx, q.ext, &book.ID, query, book.Title, book.Author, book.Available); err != nil {
		return fmt.Errorf("create book: %w", translate(err))
	}
	return nil
}

// UpdateBook applies the non-nil fields of patch.
func (q *Queries) UpdateBook(ctx context.Context, id int64, patch domain.BookPatch) error {
	record := goqu.Record{}
	if patch.Title != nil {
		record["title"] = *patch.Title
	}
	if patch.Author != nil {
		record["author"] = *patch.Author
	}
	if patch.Available != nil {
		record["available"] = *patch.Available
	}
	if len(record) == 0 {
		return nil
	}

	query, _, err := q.dialect.Update("books").Set(record).Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return fmt.Errorf("build book update: %w", err)
	}
	res, err := q.ext.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) DeleteBook(ctx context.Context, id int64) error {
	res, err := q.ext.ExecContext(ctx, q.rebind(`DELETE FROM books WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return requireRow(res)
}

// ReserveBook flips available from true to false. It reports false when the
// book was already unavailable, which lets the caller's transaction lose a
// race cleanly.
func (q *Queries) ReserveBook(ctx context.Context, id int64) (bool, error) {
	res, err := q.ext.ExecContext(ctx,
		q.rebind(`UPDATE books SET available = ? WHERE id = ? AND available = ?`), false, id, true)
	if err != nil {
		return false, fmt.Errorf("mark book unavailable: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// ReleaseBook marks the book available unless another active borrow still
// references it.
func (q *Queries) ReleaseBook(ctx context.Context, id int64) error {
	_, err := q.ext.ExecContext(ctx, q.rebind(`UPDATE books SET available = ?
		WHERE id = ? AND NOT EXISTS (SELECT 1 FROM borrows WHERE book_id = ? AND returned_at IS NULL)`),
		true, id, id)
	if err != nil {
		return fmt.Errorf("mark book available: %w", err)
	}
	return nil
}
