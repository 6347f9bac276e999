package directory

// Entry is one room as shown in the gallery.
type Entry struct {
	Id           string `json:"id" redis:"id"`
	Viewers      int    `json:"viewers" redis:"viewers"`
	Url          string `json:"url" redis:"url"`
	Source       string `json:"source" redis:"source"`
	Title        string `json:"title,omitempty" redis:"title"`
	AuthorName   string `json:"author_name,omitempty" redis:"author_name"`
	ThumbnailUrl string `json:"thumbnail_url,omitempty" redis:"thumbnail_url"`
}
