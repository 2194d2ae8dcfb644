package domain

type Book struct {
	ID        int64  `db:"id" json:"id"`
	Title     string `db:"title" json:"title"`
	Author    string `db:"author" json:"author"`
	Available bool   `db:"available" json:"available"`
}

// NewBook is one item of a catalog create request.
type NewBook struct {
	Title     string `json:"title" validate:"required,max=255"`
	Author    string `json:"author" validate:"required,max=255"`
	Available *bool  `json:"available"`
}

// BookPatch carries the fields of a partial update; nil means unchanged.
type BookPatch struct {
	Title     *string `json:"title"`
	Author    *string `json:"author"`
	Available *bool   `json:"available"`
}

func (p BookPatch) Empty() bool {
	return p.Title == nil && p.Author == nil && p.Available == nil
}
