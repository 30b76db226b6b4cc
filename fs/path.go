package fs

import (
	"path"
	"strings"
)

// Meta: yep, these *are not* interchangeable.
// It's expected that if you *can* accept an AbsolutePath,
//  then you should normalize to that ASAP;
// and if you can't, then clearly it's correct to use the RelPath,
//  through and through the whole way.

/*
	A relative path, always normalized.

	Archive entry names are turned into RelPath as soon as they are read,
	so that no code below the transmat layer ever handles a raw name string.
	The zero value is ".".
*/
type RelPath struct {
	path      string
	lastSplit int
}

func MustRelPath(p string) RelPath {
	p = path.Clean(p)
	if p[0] == '/' {
		panic("fs: relative path must not be rooted: " + p)
	}
	return newRelPath(p)
}

/*
	Parse a slash-separated name into a RelPath.

	Leading slashes are dropped (so "/a/b" and "a/b" are the same path),
	trailing slashes are ignored, and "." segments collapse.
	The boolean result is false if the path would depart the base dir
	(i.e. begins with "..") after cleaning.
*/
func ParseRelPath(p string) (RelPath, bool) {
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return RelPath{}, true
	}
	rp := newRelPath(path.Clean(p))
	return rp, !rp.GoesUp()
}

func newRelPath(p string) RelPath {
	if p == "." { // We can't stop people from using the zero value, so, use it.
		return RelPath{}
	}
	return RelPath{p, strings.LastIndexByte(p, '/')}
}

func (p RelPath) String() string {
	if p.path == "" {
		return "."
	} else if p.GoesUp() {
		return p.path
	} else {
		return "./" + p.path
	}
}

// Bare is the path without the "./" prefix that String adds.
// The zero value is the empty string.
func (p RelPath) Bare() string {
	return p.path
}

// GoesUp is true if the path begins with a ".." segment.
func (p RelPath) GoesUp() bool {
	return p.path == ".." || strings.HasPrefix(p.path, "../")
}

func (p RelPath) Dir() RelPath {
	if p.path == "" {
		return p
	}
	return newRelPath(path.Dir(p.path))
}

func (p RelPath) Last() string {
	if p.path == "" {
		return "."
	} else if p.lastSplit == -1 {
		return p.path
	} else {
		return p.path[p.lastSplit+1:]
	}
}

func (p RelPath) Join(p2 RelPath) RelPath {
	switch {
	case p2.path == "":
		return p
	case p.path == "":
		return p2
	default:
		return newRelPath(path.Clean(p.path + "/" + p2.path))
	}
}

/*
	Split returns every prefix of the path, starting with the zero path
	and ending with the path itself.
*/
func (p RelPath) Split() []RelPath {
	if p.path == "" {
		return []RelPath{{}}
	}
	segs := strings.Split(p.path, "/")
	result := make([]RelPath, 0, len(segs)+1)
	result = append(result, RelPath{})
	for i := range segs {
		result = append(result, newRelPath(strings.Join(segs[:i+1], "/")))
	}
	return result
}

// SplitParent is Split, minus the path itself.
func (p RelPath) SplitParent() []RelPath {
	split := p.Split()
	return split[:len(split)-1]
}

// IsAncestorOf is true if p2 is strictly below p.
func (p RelPath) IsAncestorOf(p2 RelPath) bool {
	if p.path == "" {
		return p2.path != "" && !p2.GoesUp()
	}
	return strings.HasPrefix(p2.path, p.path+"/")
}

/*
	An absolute path, always normalized.

	The zero value is "/".
*/
type AbsolutePath struct {
	path      string
	lastSplit int
}

func MustAbsolutePath(p string) AbsolutePath {
	p = path.Clean(p)
	if p[0] != '/' {
		panic("fs: absolute path must be rooted: " + p)
	}
	if p == "/" { // We can't stop people from using the zero value, so, use it.
		return AbsolutePath{}
	}
	return AbsolutePath{p, strings.LastIndexByte(p, '/')}
}
func (p AbsolutePath) String() string {
	if p.path == "" {
		return "/"
	}
	return p.path
}
func (p AbsolutePath) Dir() AbsolutePath {
	if p.path == "" {
		return p
	} else if p.lastSplit == 0 {
		return AbsolutePath{}
	} else {
		p2 := p.path[0:p.lastSplit]
		return AbsolutePath{p2, strings.LastIndexByte(p2, '/')}
	}
}
func (p AbsolutePath) Last() string {
	if p.path == "" {
		return "/"
	} else {
		return p.path[p.lastSplit+1:]
	}
}
func (p AbsolutePath) Join(p2 RelPath) AbsolutePath {
	switch {
	case p2.path == "":
		return p
	default:
		return MustAbsolutePath(p.path + "/" + p2.path)
	}
}
