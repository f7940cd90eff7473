package models

import "encoding/json"

// Users embedded in posts, comments and upvotes are visible to anonymous
// readers, so they always serialize as PublicUser.

type postFields Post

type postJSON struct {
	*postFields
	Owner PublicUser `json:"owner"`
}

func newPostJSON(p *Post) postJSON {
	return postJSON{postFields: (*postFields)(p), Owner: p.Owner.Public()}
}

// MarshalJSON renders the owner as a PublicUser.
func (p Post) MarshalJSON() ([]byte, error) {
	return json.Marshal(newPostJSON(&p))
}

// MarshalJSON renders the post with its comments and upvotes.
func (d PostDetail) MarshalJSON() ([]byte, error) {
	if d.Post == nil {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		postJSON
		Comments []*Comment `json:"comments"`
		Upvotes  []*Upvote  `json:"upvotes"`
	}{newPostJSON(d.Post), d.Comments, d.Upvotes})
}

type commentFields Comment

// MarshalJSON renders the author as a PublicUser.
func (c Comment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		*commentFields
		Author PublicUser `json:"author"`
	}{(*commentFields)(&c), c.Author.Public()})
}

type upvoteFields Upvote

// MarshalJSON renders the voter as a PublicUser.
func (u Upvote) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		*upvoteFields
		User PublicUser `json:"user"`
	}{(*upvoteFields)(&u), u.User.Public()})
}
