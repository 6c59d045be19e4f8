package config

import (
	"context"
	_ "embed"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/jmgilman/go/fspath/errors"
)

// Schema is the CUE schema every configuration must satisfy. The document
// definition is #File.
//
//go:embed schema.cue
var Schema string

// schema compiles Schema in cctx and returns the #File definition.
// A cue.Context is not safe for concurrent use, so every call gets its own.
func schema(cctx *cue.Context) (cue.Value, error) {
	v := cctx.CompileString(Schema, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, errors.Wrap(err, errors.CodeInternal, "embedded schema does not compile")
	}
	return v.LookupPath(cue.ParsePath("#File")), nil
}

// check validates a unified document and converts CUE errors.
func check(v cue.Value) error {
	if err := v.Validate(cue.Concrete(true), cue.Final(), cue.All()); err != nil {
		return errors.WithContext(
			errors.Wrap(err, errors.CodeInvalidConfig, "device configuration is invalid"),
			"details", cueerrors.Details(err, nil),
		)
	}
	return nil
}

// ParseCUE evaluates CUE source against Schema and decodes the result.
// Hidden fields and definitions may be used for reuse within the source.
func ParseCUE(ctx context.Context, data []byte, filename string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.FromFS(err, "configuration load canceled")
	}
	if filename == "" {
		filename = "<input>"
	}

	cctx := cuecontext.New()
	def, err := schema(cctx)
	if err != nil {
		return nil, err
	}
	v := cctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, errors.WithContext(
			errors.Wrap(err, errors.CodeInvalidConfig, "failed to compile CUE configuration"),
			"details", cueerrors.Details(err, nil),
		)
	}

	unified := def.Unify(v)
	if err := check(unified); err != nil {
		return nil, err
	}
	var f File
	if err := unified.Decode(&f); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to decode CUE configuration")
	}
	if err := f.checkSchemes(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks f against Schema and rejects duplicate schemes.
func (f *File) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.FromFS(err, "validation canceled")
	}

	cctx := cuecontext.New()
	def, err := schema(cctx)
	if err != nil {
		return err
	}
	doc := File{Devices: f.Devices}
	if doc.Devices == nil {
		doc.Devices = []DeviceSpec{}
	}
	data := cctx.Encode(doc)
	if err := data.Err(); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode device configuration")
	}
	if err := check(def.Unify(data)); err != nil {
		return err
	}
	return f.checkSchemes()
}

func (f *File) checkSchemes() error {
	seen := make(map[string]bool, len(f.Devices))
	for _, d := range f.Devices {
		if seen[d.Scheme] {
			return errors.WithContext(errors.New(errors.CodeInvalidConfig, "duplicate device scheme"), "scheme", d.Scheme)
		}
		seen[d.Scheme] = true
	}
	return nil
}
