package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed ingredients.cue
var defaultSource []byte

// schema constrains ingredient tables. It is unified with every loaded table,
// so a typo in a dye name or a negative tempMax fails at load time with a
// position.
const schema = `
#Dye: "WHITE" | "ORANGE" | "MAGENTA" | "LIGHT_BLUE" | "YELLOW" | "LIME" |
	"PINK" | "GRAY" | "LIGHT_GRAY" | "CYAN" | "PURPLE" | "BLUE" | "BROWN" |
	"GREEN" | "RED" | "BLACK"

#Properties: {
	color?:       #Dye
	description?: string & !=""
	tempMax?:     number & >0
}

#Entry: {
	#Properties
	variants?: [=~"^[0-9]+$"]: #Properties
}

ingredients: [=~"^[A-Z][A-Z0-9_]*$"]: #Entry
`

// LoadError is a catalog load failure with an optional source position.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return Load("ingredients.cue", defaultSource)
})

// Default returns the built-in ingredient table. It is compiled once.
func Default() (*Catalog, error) {
	return defaultCatalog()
}

// LoadFile compiles a user-supplied ingredient table.
func LoadFile(path string) (*Catalog, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Load(path, src)
}

// Load compiles src as an ingredient table.
func Load(filename string, src []byte) (*Catalog, error) {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schema, cue.Filename("schema.cue"))
	if err := schemaVal.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	dataVal := ctx.CompileBytes(src, cue.Filename(filename))
	if err := dataVal.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := schemaVal.Unify(dataVal)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	ingredients := v.LookupPath(cue.ParsePath("ingredients"))
	if !ingredients.Exists() {
		return nil, &LoadError{
			Field:   "ingredients",
			Message: "ingredients is required",
			Pos:     dataVal.Pos(),
		}
	}

	iter, err := ingredients.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	c := &Catalog{entries: make(map[string]entry)}
	for iter.Next() {
		id := iter.Label()
		e, err := parseEntry(iter.Value())
		if err != nil {
			return nil, err
		}
		c.entries[id] = e
	}
	if len(c.entries) == 0 {
		return nil, &LoadError{
			Field:   "ingredients",
			Message: "at least one ingredient is required",
			Pos:     dataVal.Pos(),
		}
	}

	if errs := Validate(c); len(errs) > 0 {
		return nil, errs[0]
	}
	return c, nil
}

func parseEntry(v cue.Value) (entry, error) {
	base, err := parseProperties(v)
	if err != nil {
		return entry{}, err
	}
	e := entry{base: base}

	variantsVal := v.LookupPath(cue.ParsePath("variants"))
	if !variantsVal.Exists() {
		return e, nil
	}

	iter, err := variantsVal.Fields()
	if err != nil {
		return entry{}, formatCUEError(err)
	}
	e.variants = make(map[int]Properties)
	for iter.Next() {
		label := strings.Trim(iter.Label(), `"`)
		tag, err := strconv.Atoi(label)
		if err != nil {
			return entry{}, &LoadError{
				Field:   "variants",
				Message: fmt.Sprintf("variant tag %q is not an integer", label),
				Pos:     iter.Value().Pos(),
			}
		}
		p, err := parseProperties(iter.Value())
		if err != nil {
			return entry{}, err
		}
		e.variants[tag] = p
	}
	return e, nil
}

func parseProperties(v cue.Value) (Properties, error) {
	var p Properties

	if colorVal := v.LookupPath(cue.ParsePath("color")); colorVal.Exists() {
		s, err := colorVal.String()
		if err != nil {
			return p, formatCUEError(err)
		}
		p.Color = Dye(s)
	}

	if descVal := v.LookupPath(cue.ParsePath("description")); descVal.Exists() {
		s, err := descVal.String()
		if err != nil {
			return p, formatCUEError(err)
		}
		p.Description = s
	}

	if maxVal := v.LookupPath(cue.ParsePath("tempMax")); maxVal.Exists() {
		f, err := maxVal.Float64()
		if err != nil {
			return p, formatCUEError(err)
		}
		p.MaxTemperature = &f
	}

	return p, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &LoadError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
