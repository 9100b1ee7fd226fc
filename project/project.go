// Package project finds the files a C0 source file is compiled together
// with.
//
// A directory describes its compile line either in project.txt, one file
// per line, or in a README whose lines starting with "% cc0" are the
// commands used to build it. Files are listed in compile order: each file
// sees the declarations of the files before it.
package project

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhamidi/c0ls/c0/lang"
)

// ProjectFile is the name of the explicit project description.
const ProjectFile = "project.txt"

// readmes are searched, in order, when there is no project file.
var readmes = []string{"README.txt", "README.md", "README"}

// flagsWithArgument take the next word as their value.
var flagsWithArgument = map[string]bool{"-o": true, "-L": true, "-l": true, "-a": true}

// Project represents the compile line of one directory.
type Project struct {
	RootDir string
	// Source is the file the compile line was read from.
	Source string
	// Files are absolute paths in compile order.
	Files []string
}

// Load reads the project of the current directory.
func Load() (*Project, error) {
	return LoadFrom(".")
}

// LoadFrom reads the project of rootDir.
func LoadFrom(rootDir string) (*Project, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rootDir, err)
	}

	path := filepath.Join(root, ProjectFile)
	if lines, err := readLines(path); err == nil {
		p := &Project{RootDir: root, Source: path}
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			p.addWords(strings.Fields(line))
		}
		return p, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	for _, name := range readmes {
		path := filepath.Join(root, name)
		lines, err := readLines(path)
		if err != nil {
			continue
		}
		p := &Project{RootDir: root, Source: path}
		for _, line := range lines {
			words := strings.Fields(line)
			if len(words) < 2 || words[0] != "%" || words[1] != "cc0" {
				continue
			}
			p.addWords(words[2:])
		}
		if len(p.Files) > 0 {
			return p, nil
		}
	}

	return nil, fmt.Errorf("could not detect project: no %s or README with a %% cc0 line in %s", ProjectFile, root)
}

// addWords appends the source files among the words of a compile line,
// skipping flags and files already listed.
func (p *Project) addWords(words []string) {
	for i := 0; i < len(words); i++ {
		w := words[i]
		if strings.HasPrefix(w, "-") {
			if flagsWithArgument[w] {
				i++
			}
			continue
		}
		if _, ok := lang.FromPath(w); !ok {
			continue
		}
		path := w
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.RootDir, path)
		}
		path = filepath.Clean(path)
		if !p.Contains(path) {
			p.Files = append(p.Files, path)
		}
	}
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	return lines, s.Err()
}

// Contains reports whether path is part of the compile line.
func (p *Project) Contains(path string) bool {
	for _, f := range p.Files {
		if f == path {
			return true
		}
	}
	return false
}

// DependenciesOf returns the files compiled before path. A file that is
// not listed depends on every listed file.
func (p *Project) DependenciesOf(path string) []string {
	path = filepath.Clean(path)
	for i, f := range p.Files {
		if f == path {
			return append([]string(nil), p.Files[:i]...)
		}
	}
	return append([]string(nil), p.Files...)
}

// Find walks up from dir to the nearest directory with a project.
func Find(dir string) (*Project, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for {
		if p, err := LoadFrom(dir); err == nil {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("no project found above %s", dir)
		}
		dir = parent
	}
}
