package content

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag identifies one kind of generated artifact. Tags are dense: the catalog
// holds exactly one descriptor per tag in the range [0, Len()).
type Tag int

func (t Tag) String() string { return "tag" + strconv.Itoa(int(t)) }

// Descriptor binds a tag to its fixed file name and the factory that builds it.
type Descriptor struct {
	Tag      Tag
	Name     string // short name for CLI/UI, e.g. "eight-rects"
	FileName string // e.g. "gen-eight-rects.mp4"; never derived from content
	Factory  Factory
}

// Catalog is the static descriptor table. It is built once at startup and
// never modified.
type Catalog struct {
	descs []Descriptor
}

// NewCatalog validates descs and returns the table. Descriptors must be given
// in tag order starting at 0, with unique names and file names.
func NewCatalog(descs ...Descriptor) (*Catalog, error) {
	seenFile := make(map[string]struct{}, len(descs))
	seenName := make(map[string]struct{}, len(descs))
	out := make([]Descriptor, len(descs))
	for i, d := range descs {
		if d.Tag != Tag(i) {
			return nil, fmt.Errorf("catalog[%d]: tag %d out of order (tags must be dense from 0)", i, int(d.Tag))
		}
		if strings.TrimSpace(d.FileName) == "" {
			return nil, fmt.Errorf("catalog[%d]: file name required", i)
		}
		if _, ok := seenFile[d.FileName]; ok {
			return nil, fmt.Errorf("catalog[%d]: duplicate file name %q", i, d.FileName)
		}
		seenFile[d.FileName] = struct{}{}
		if d.Name == "" {
			d.Name = d.FileName
		}
		if _, ok := seenName[d.Name]; ok {
			return nil, fmt.Errorf("catalog[%d]: duplicate name %q", i, d.Name)
		}
		seenName[d.Name] = struct{}{}
		if d.Factory == nil {
			return nil, fmt.Errorf("catalog[%d]: factory required for %q", i, d.FileName)
		}
		out[i] = d
	}
	return &Catalog{descs: out}, nil
}

// Len returns the number of known tags.
func (c *Catalog) Len() int { return len(c.descs) }

// Tags returns every known tag in order.
func (c *Catalog) Tags() []Tag {
	tags := make([]Tag, len(c.descs))
	for i := range c.descs {
		tags[i] = Tag(i)
	}
	return tags
}

// Descriptors returns a copy of the table.
func (c *Catalog) Descriptors() []Descriptor {
	return append([]Descriptor(nil), c.descs...)
}

// Lookup returns the descriptor for tag or UnknownTagError for out-of-range values.
func (c *Catalog) Lookup(tag Tag) (Descriptor, error) {
	if tag < 0 || int(tag) >= len(c.descs) {
		return Descriptor{}, UnknownTagError{Tag: tag}
	}
	return c.descs[tag], nil
}

// ByFileName finds the descriptor whose file name is name.
func (c *Catalog) ByFileName(name string) (Descriptor, bool) {
	for _, d := range c.descs {
		if d.FileName == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Label returns a human-readable label for tag (its file name), falling back
// to the numeric form for unknown tags.
func (c *Catalog) Label(tag Tag) string {
	if d, err := c.Lookup(tag); err == nil {
		return d.FileName
	}
	return tag.String()
}

// ParseTag accepts a tag number, a short name or a file name.
func (c *Catalog) ParseTag(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if _, err := c.Lookup(Tag(n)); err != nil {
			return 0, err
		}
		return Tag(n), nil
	}
	for _, d := range c.descs {
		if strings.EqualFold(d.Name, s) || d.FileName == s {
			return d.Tag, nil
		}
	}
	return 0, fmt.Errorf("unknown artifact %q", s)
}
