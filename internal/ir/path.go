package ir

import "strings"

// Nodes that have no key of their own get a selector appended to the
// parent's last path segment, so every path stays unique:
//
//	/samples[]        item of the array at /samples
//	/thing[*]         base include of the choose at /thing
//	/thing[solid]     variant "solid" of the choose at /thing

// ItemPath returns the path of the item of the array at path.
func ItemPath(path string) string { return path + "[]" }

// BasePath returns the path of the base include of the choose at path.
func BasePath(path string) string { return path + "[*]" }

// VariantPath returns the path of the variant tag of the choose at path.
func VariantPath(path, tag string) string { return path + "[" + tag + "]" }

// Segment strips selectors from one path segment: "thing[solid]" is "thing".
func Segment(s string) string {
	if i := strings.IndexByte(s, '['); i >= 0 {
		return s[:i]
	}
	return s
}
