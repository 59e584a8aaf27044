package manifest

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// schemaSource constrains the decoded manifest. Field names follow the
// json tags of Manifest, which is how CUE encodes Go structs.
const schemaSource = `
#Manifest: {
	program: {
		path:   string
		source: string
	}
	run: {
		noun:         int & >=0
		verb:         int & >=0
		"step-limit": int & >=0
	}
	calibrate: {
		target:           int & >=0
		workers:          int & >=1 & <=1024
		"abort-on-fault": bool
	}
	store: path: string
	log: verbosity: int & >=-4 & <=2
}
`

// Validate checks m against the manifest schema.
func Validate(m *Manifest) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("intcode.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Manifest"))

	val := ctx.Encode(m)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
