package store

// Article is a normalized, relevant feed entry as it is persisted in the cache file.
type Article struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Summary   string `json:"summary"`
	Published string `json:"published"` // YYYY-MM-DD
}

// Key identifies an article for deduplication.
func (a *Article) Key() ArticleKey {
	return ArticleKey{Title: a.Title, Link: a.Link}
}

type ArticleKey struct {
	Title string
	Link  string
}

// ArticleSet is the ordered, deduplicated result of one ingestion run.
type ArticleSet []Article
