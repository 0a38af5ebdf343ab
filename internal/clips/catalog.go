// Package clips holds the concrete clip factories and the static catalog
// that binds each content tag to its file name and factory.
package clips

import "github.com/snapetech/clipgen/internal/content"

// Tags, dense from 0. Append only; every consumer indexes by these values.
const (
	EightRects content.Tag = iota
	Sliders
)

// Catalog returns the descriptor table for every clip, encoded with enc.
func Catalog(enc Encoder) (*content.Catalog, error) {
	return content.NewCatalog(
		content.Descriptor{Tag: EightRects, Name: "eight-rects", FileName: "gen-eight-rects.mp4", Factory: NewEightRects(enc)},
		content.Descriptor{Tag: Sliders, Name: "sliders", FileName: "gen-sliders.mp4", Factory: NewSliders(enc)},
	)
}
