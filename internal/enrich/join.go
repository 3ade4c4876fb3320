package enrich

// Post is the subset of a post used for enrichment.
type Post struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
}

// User is the subset of a user used for enrichment.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Comment carries only the post it belongs to. Comments without a postId are
// not counted.
type Comment struct {
	PostID *int `json:"postId"`
}

// EnrichedPost is one output row.
type EnrichedPost struct {
	PostID        int     `json:"post_id"`
	Title         string  `json:"title"`
	UserID        int     `json:"user_id"`
	UserName      *string `json:"user_name"`
	UserEmail     *string `json:"user_email"`
	CommentsCount int     `json:"comments_count"`
}

// Columns is the output column order.
var Columns = []string{"post_id", "title", "user_id", "user_name", "user_email", "comments_count"}

// Join attaches author and comment count to every post, in post order.
// A post whose author is unknown gets null name and email.
func Join(posts []Post, users []User, comments []Comment) []EnrichedPost {
	byID := make(map[int]User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	counts := make(map[int]int)
	for _, c := range comments {
		if c.PostID != nil {
			counts[*c.PostID]++
		}
	}

	out := make([]EnrichedPost, 0, len(posts))
	for _, p := range posts {
		row := EnrichedPost{
			PostID:        p.ID,
			Title:         p.Title,
			UserID:        p.UserID,
			CommentsCount: counts[p.ID],
		}
		if u, ok := byID[p.UserID]; ok {
			name, email := u.Name, u.Email
			row.UserName = &name
			row.UserEmail = &email
		}
		out = append(out, row)
	}
	return out
}
