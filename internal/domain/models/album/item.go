package album

import "time"

// Item is a stored photo. URL is the blob store locator.
type Item struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	FolderID  string    `json:"folder_id" db:"folder_id"`
	Title     string    `json:"title" db:"title"`
	URL       string    `json:"url" db:"url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ItemFilter selects an owner's items
type ItemFilter struct {
	OwnerID  string
	FolderID *string // nil = every folder
	Title    string  // case-insensitive substring, empty = no filter
	Limit    int     // 0 = unlimited
	Offset   int
}

// ItemPage is one window of an item listing
type ItemPage struct {
	Items     []Item `json:"items"`
	Total     int    `json:"total"`
	PageIndex int    `json:"page_index"`
	PageSize  int    `json:"page_size"`
}
