package domain

import "time"

// Borrow links a user to a book for the period between BorrowedAt and
// ReturnedAt. UserID and BookID become nil when the referenced row is deleted.
type Borrow struct {
	ID         int64      `db:"id" json:"id"`
	UserID     *int64     `db:"user_id" json:"user"`
	BookID     *int64     `db:"book_id" json:"book"`
	BookTitle  *string    `db:"book_title" json:"book_title"`
	Username   *string    `db:"username" json:"username"`
	BorrowedAt time.Time  `db:"borrowed_at" json:"borrowed_at"`
	ReturnedAt *time.Time `db:"returned_at" json:"returned_at"`
}

func (b Borrow) Active() bool {
	return b.ReturnedAt == nil
}
