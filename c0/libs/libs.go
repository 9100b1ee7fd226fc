// Package libs embeds the headers of the C0 standard libraries, which
// #use <name> refers to.
package libs

import (
	"embed"
	"path"
	"sort"
	"strings"
)

//go:embed *.h0
var headers embed.FS

// Ext is the extension of library header files.
const Ext = ".h0"

// Header returns the text of the header for library name.
func Header(name string) (string, bool) {
	if name == "" || strings.ContainsAny(name, "/\\.") {
		return "", false
	}
	b, err := headers.ReadFile(name + Ext)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Names lists the embedded libraries in sorted order.
func Names() []string {
	entries, err := headers.ReadDir(".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}
