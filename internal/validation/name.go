package validation

import (
	"github.com/gosimple/slug"
)

// SpaceForm is the name a space is created with. The slug is derived from
// it, so a name made only of symbols is refused.
type SpaceForm struct {
	Name string `form:"name" validate:"required,max=100"`
}

func (f SpaceForm) Validate() Errors {
	errs := Struct(f)
	if !errs.Has("name") && slug.Make(f.Name) == "" {
		errs.Add("name", "Use at least one letter or digit.")
	}
	return errs
}
