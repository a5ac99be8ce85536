package fsutil

import (
	"path/filepath"
	"slices"
	"strings"
)

// Resolve folds paths left to right into a single path. An absolute path
// replaces everything accumulated before it, ".." drops the last component
// (silently doing nothing once there is nothing left to drop), and "." and
// empty components are skipped. Forward and back slashes are both accepted.
//
//	Resolve("/src/asset", "img/logo.png")       // "/src/asset/img/logo.png"
//	Resolve("./src/asset", "img/logo.png")      // "src/asset/img/logo.png"
//	Resolve("/src/absolute", "/overwrite/path") // "/overwrite/path"
func Resolve(paths ...string) string {
	var root string
	var segs []string
	for _, p := range paths {
		r, parts := split(p)
		if r != "" {
			root = r
			segs = segs[:0]
		}
		segs = clean(segs, parts, false)
	}
	return join(root, segs)
}

// Normalize is Resolve for a single path.
func Normalize(p string) string {
	return Resolve(p)
}

// IsAbs reports whether p is rooted, in either slash convention.
func IsAbs(p string) bool {
	root, _ := split(p)
	return root != ""
}

// Dir returns the directory holding p.
func Dir(p string) string {
	return Resolve(p, "..")
}

// MergePaths appends addition onto base, merging the two where they share a
// component instead of blindly concatenating them. Leading ".." in addition
// first walk base upwards. The first remaining component of addition is then
// looked up in base; when found, base is cut right before its first
// occurrence. This lets
//
//	MergePaths("this/is/a/path", "this/is/also/a/path") // "this/is/also/a/path"
//
// instead of producing "this/is/a/path/this/is/also/a/path". An absolute
// addition is returned normalized without looking at base.
func MergePaths(base, addition string) string {
	aRoot, aParts := split(addition)
	if aRoot != "" {
		return Resolve(addition)
	}
	bRoot, bParts := split(base)
	bSegs := clean(nil, bParts, false)
	aSegs := clean(nil, aParts, true)

	for len(aSegs) > 0 && aSegs[0] == ".." {
		aSegs = aSegs[1:]
		if len(bSegs) > 0 {
			bSegs = bSegs[:len(bSegs)-1]
		}
	}

	if len(aSegs) > 0 {
		if i := slices.Index(bSegs, aSegs[0]); i >= 0 {
			bSegs = bSegs[:i]
		}
	}
	return join(bRoot, append(bSegs, aSegs...))
}

// split separates the root of p ("/" or a volume, "" when relative) from its
// raw components.
func split(p string) (string, []string) {
	p = strings.ReplaceAll(p, `\`, "/")
	root := ""
	if vol := filepath.VolumeName(p); vol != "" {
		root = vol + "/"
		p = p[len(vol):]
	} else if strings.HasPrefix(p, "/") {
		root = "/"
	}
	p = strings.Trim(p, "/")
	if p == "" {
		return root, nil
	}
	return root, strings.Split(p, "/")
}

// clean appends parts onto segs, applying "." and ".." as it goes. With
// keepUnderflow set, a ".." that has nothing to pop is kept.
func clean(segs []string, parts []string, keepUnderflow bool) []string {
	for _, part := range parts {
		switch part {
		case "", ".":
		case "..":
			if len(segs) > 0 && segs[len(segs)-1] != ".." {
				segs = segs[:len(segs)-1]
			} else if keepUnderflow {
				segs = append(segs, "..")
			}
		default:
			segs = append(segs, part)
		}
	}
	return segs
}

func join(root string, segs []string) string {
	p := root + strings.Join(segs, "/")
	if p == "" {
		return "."
	}
	return filepath.FromSlash(p)
}
