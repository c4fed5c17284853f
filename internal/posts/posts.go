// Package posts is a small blog-post model wired as an active record.
package posts

import (
	"github.com/saltyorg/litemapper/internal/database"
	"github.com/saltyorg/litemapper/internal/orm"
	"github.com/saltyorg/litemapper/internal/schema"
)

// Post is a titled piece of text.
type Post struct {
	orm.Identity
	Title string
	Text  string
}

// Posts is the registered Post kind.
var Posts = orm.Register(
	schema.New("Post",
		schema.Field{Name: "title", Type: schema.Text},
		schema.Field{Name: "text", Type: schema.Text},
	),
	func(_ []schema.Field, v orm.Values) (*Post, error) {
		p := &Post{}
		p.Title, _ = v.Text("title")
		p.Text, _ = v.Text("text")
		return p, nil
	},
)

// New returns an unsaved post.
func New(title, text string) *Post {
	return &Post{Title: title, Text: text}
}

func (p *Post) Values() orm.Values {
	return orm.Values{"title": p.Title, "text": p.Text}
}

// Show renders the post as a single line.
func (p *Post) Show() string {
	return p.Title + " " + p.Text
}

func (p *Post) String() string {
	return orm.Public(p).String()
}

// Save inserts the post into db.
func (p *Post) Save(db *database.DB) error {
	_, err := Posts.With(db).Save(p)
	return err
}

// Update writes the post's current fields to db.
func (p *Post) Update(db *database.DB) error {
	return Posts.With(db).Update(p)
}

// Delete removes the post's row from db.
func (p *Post) Delete(db *database.DB) error {
	return Posts.With(db).Delete(p)
}
