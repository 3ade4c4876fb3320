package stubapi

import "fmt"

// Post, User and Comment mirror the public placeholder API shapes.
type Post struct {
	UserID int    `json:"userId"`
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Comment struct {
	PostID int    `json:"postId"`
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Body   string `json:"body"`
}

// Fixtures is the data served by the stub.
type Fixtures struct {
	Posts    []Post
	Users    []User
	Comments []Comment
}

// DefaultFixtures returns a small deterministic data set: three users, six
// posts (the last written by a user id with no record) and post i carrying
// i-1 comments.
func DefaultFixtures() Fixtures {
	users := []User{
		{ID: 1, Name: "Leanne Graham", Username: "Bret", Email: "Sincere@april.biz"},
		{ID: 2, Name: "Ervin Howell", Username: "Antonette", Email: "Shanna@melissa.tv"},
		{ID: 3, Name: "Clementine Bauch", Username: "Samantha", Email: "Nathan@yesenia.net"},
	}

	var posts []Post
	var comments []Comment
	commentID := 1
	for i := 1; i <= 6; i++ {
		userID := (i-1)%3 + 1
		if i == 6 {
			userID = 99
		}
		posts = append(posts, Post{
			UserID: userID,
			ID:     i,
			Title:  fmt.Sprintf("post %d", i),
			Body:   fmt.Sprintf("body of post %d", i),
		})
		for c := 0; c < i-1; c++ {
			comments = append(comments, Comment{
				PostID: i,
				ID:     commentID,
				Name:   fmt.Sprintf("comment %d", commentID),
				Email:  fmt.Sprintf("reader%d@example.com", commentID),
				Body:   "nice",
			})
			commentID++
		}
	}

	return Fixtures{Posts: posts, Users: users, Comments: comments}
}
