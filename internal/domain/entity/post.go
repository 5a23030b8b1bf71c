package entity

// MediaType discriminates which decoder handles a post's media.
type MediaType string

const (
	MediaTypeImage MediaType = "IMAGE"
	MediaTypeVideo MediaType = "VIDEO"
)

// Post is the subset of a rep0st post needed to locate and decode its media.
// Image is the filename of the stored (possibly resized) media below the
// media root. Fullsize, when set, names a higher-resolution variant stored
// under the full/ subdirectory.
type Post struct {
	ID       int64
	Type     MediaType
	Image    string
	Fullsize string
}
