package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/patchwork/internal/unit"
)

// Option configures world loading.
type Option func(*World)

// WithModsRoot sets the mods root used when the world does not declare
// mods_root itself.
func WithModsRoot(root string) Option {
	return func(w *World) {
		if root != "" {
			w.modsRoot = string(unit.CleanPath(root))
		}
	}
}

// Load loads a world from the CUE files in dir.
func Load(dir string, opts ...Option) (*World, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("world directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing world directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	if err := instances[0].Err; err != nil {
		return nil, fromCUE(ErrCodeLoadFailed, "", err)
	}

	value := ctx.BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return nil, fromCUE(ErrCodeBuildFailed, "", err)
	}
	return FromValue(value, opts...)
}

// LoadString loads a world from inline CUE source. filename is used in
// error positions.
func LoadString(src, filename string, opts ...Option) (*World, error) {
	value := cuecontext.New().CompileString(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fromCUE(ErrCodeBuildFailed, "", err)
	}
	return FromValue(value, opts...)
}

// FromValue decodes a world from a built CUE value. Decoding stops at the
// first structural error; semantic problems are reported by Validate.
func FromValue(v cue.Value, opts ...Option) (*World, error) {
	w := newWorld()
	for _, opt := range opts {
		opt(w)
	}
	seen := make(map[unit.Path]token.Pos)

	if mr := v.LookupPath(cue.ParsePath("mods_root")); mr.Exists() {
		s, err := mr.String()
		if err != nil {
			return nil, fromCUE(ErrCodeInvalidField, "mods_root", err)
		}
		w.modsRoot = string(unit.CleanPath(s))
	}

	if lo := v.LookupPath(cue.ParsePath("load_order")); lo.Exists() {
		iter, err := lo.List()
		if err != nil {
			return nil, fromCUE(ErrCodeInvalidField, "load_order", err)
		}
		for iter.Next() {
			id, err := iter.Value().String()
			if err != nil {
				return nil, fromCUE(ErrCodeInvalidField, "load_order", err)
			}
			w.order = append(w.order, unit.PackageID(id))
		}
	}

	if units := v.LookupPath(cue.ParsePath("units")); units.Exists() {
		iter, err := units.Fields()
		if err != nil {
			return nil, fromCUE(ErrCodeInvalidField, "units", err)
		}
		for iter.Next() {
			def, err := decodeDefinition(fieldName(iter), iter.Value(), seen)
			if err != nil {
				return nil, err
			}
			w.addUnit(def)
		}
	}

	if pkgs := v.LookupPath(cue.ParsePath("packages")); pkgs.Exists() {
		iter, err := pkgs.Fields()
		if err != nil {
			return nil, fromCUE(ErrCodeInvalidField, "packages", err)
		}
		for iter.Next() {
			pkg, err := decodePackage(w, unit.PackageID(fieldName(iter)), iter.Value(), seen)
			if err != nil {
				return nil, err
			}
			w.packages = append(w.packages, pkg)
		}
	}

	return w, nil
}

func decodePackage(w *World, id unit.PackageID, v cue.Value, seen map[unit.Path]token.Pos) (Package, error) {
	pkg := Package{ID: id}

	exts := v.LookupPath(cue.ParsePath("extensions"))
	if !exts.Exists() {
		return pkg, nil
	}
	iter, err := exts.Fields()
	if err != nil {
		return pkg, fromCUE(ErrCodeInvalidField, fmt.Sprintf("packages.%s.extensions", id), err)
	}
	for iter.Next() {
		def, err := decodeDefinition(fieldName(iter), iter.Value(), seen)
		if err != nil {
			return pkg, err
		}
		w.addExtension(Extension{Definition: def, Package: id})
		pkg.Extensions = append(pkg.Extensions, def.Path)
	}
	return pkg, nil
}

// decodeDefinition decodes {extends?: string, methods?: {[string]: string}}.
func decodeDefinition(label string, v cue.Value, seen map[unit.Path]token.Pos) (unit.Definition, error) {
	p := unit.CleanPath(label)
	if p == "" {
		return unit.Definition{}, &LoadError{Code: ErrCodeEmptyPath, Message: "empty storage path", Pos: v.Pos()}
	}
	if first, dup := seen[p]; dup {
		msg := fmt.Sprintf("path %s declared twice", p)
		if first.IsValid() {
			msg += fmt.Sprintf(" (first at %s:%d)", first.Filename(), first.Line())
		}
		return unit.Definition{}, &LoadError{Code: ErrCodeDuplicatePath, Field: string(p), Message: msg, Pos: v.Pos()}
	}
	seen[p] = v.Pos()

	def := unit.Definition{Path: p, Methods: map[string]string{}}

	if ext := v.LookupPath(cue.ParsePath("extends")); ext.Exists() {
		s, err := ext.String()
		if err != nil {
			return def, fromCUE(ErrCodeInvalidField, string(p)+".extends", err)
		}
		def.Base = unit.CleanPath(s)
	}

	if methods := v.LookupPath(cue.ParsePath("methods")); methods.Exists() {
		iter, err := methods.Fields()
		if err != nil {
			return def, fromCUE(ErrCodeInvalidField, string(p)+".methods", err)
		}
		for iter.Next() {
			body, err := iter.Value().String()
			if err != nil {
				return def, fromCUE(ErrCodeInvalidField, string(p)+".methods."+fieldName(iter), err)
			}
			def.Methods[fieldName(iter)] = body
		}
	}

	return def, nil
}

// fieldName returns a struct field's label without quotes.
func fieldName(iter *cue.Iterator) string {
	label := iter.Label()
	if s, err := strconv.Unquote(label); err == nil {
		return s
	}
	return label
}
