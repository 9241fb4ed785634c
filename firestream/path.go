package firestream

import (
	"slices"
	"strings"
)

// Path locates a document or a collection in the backend tree. A path with an
// even number of components points at a document, an odd number at a
// collection (Firestore convention).
type Path struct {
	components []string
}

func NewPath(components ...string) *Path {
	path := &Path{}
	for _, component := range components {
		for _, part := range strings.Split(component, "/") {
			if part != "" {
				path.components = append(path.components, part)
			}
		}
	}
	return path
}

func (self *Path) Child(child string) *Path {
	return &Path{
		components: append(slices.Clone(self.components), child),
	}
}

func (self *Path) Children(children ...string) *Path {
	return &Path{
		components: append(slices.Clone(self.components), children...),
	}
}

func (self *Path) First() string {
	if len(self.components) == 0 {
		return ""
	}
	return self.components[0]
}

func (self *Path) Last() string {
	if len(self.components) == 0 {
		return ""
	}
	return self.components[len(self.components)-1]
}

func (self *Path) Size() int {
	return len(self.components)
}

func (self *Path) Components() []string {
	return slices.Clone(self.components)
}

func (self *Path) IsDocument() bool {
	return len(self.components)%2 == 0
}

// Parent returns the path with the last component removed.
func (self *Path) Parent() *Path {
	if len(self.components) == 0 {
		return NewPath()
	}
	return &Path{
		components: slices.Clone(self.components[:len(self.components)-1]),
	}
}

func (self *Path) String() string {
	return strings.Join(self.components, "/")
}
