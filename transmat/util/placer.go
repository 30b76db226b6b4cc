package util

import (
	"io"
	"sort"
	"time"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/ustar/api"
	"github.com/polydawn/ustar/caps"
	"github.com/polydawn/ustar/fs"
	"github.com/polydawn/ustar/fsOp"
	"github.com/polydawn/ustar/transmat/mixins/log"
)

/*
	Placer turns a sequence of entries into a filesystem tree.

	It is shared by the tar and zip paths: they each decode entries into
	fs.Metadata and hand them over here, one at a time, in archive order.
	Parent dirs the archive doesn't mention are conjured.  Dirs are created
	writable while extraction is going, and their recorded perms and mtimes
	are re-applied post-order by Finish (placing children bumps a dir's
	mtime, and a read-only dir can't be filled).

	A Placer also builds the manifest, with a digest for every file.
*/
type Placer struct {
	afs       fs.FS
	cfg       UnpackConfig
	mon       api.Monitor
	skipChown bool
	canMknod  bool
	buf       []byte

	dirs     map[fs.RelPath]*fs.Metadata // nil value for conjured dirs
	manifest api.Manifest
	total    int64
}

func NewPlacer(afs fs.FS, cfg UnpackConfig, mon api.Monitor) *Placer {
	p := &Placer{
		afs:       afs,
		cfg:       cfg,
		mon:       mon,
		skipChown: true,
		buf:       make([]byte, cfg.bufferSize()),
		dirs:      map[fs.RelPath]*fs.Metadata{},
	}
	fulcrum := caps.Scan()
	p.canMknod = fulcrum.CanMknod()
	if cfg.PreserveOwnership {
		if fulcrum.CanManageOwnership() {
			p.skipChown = false
		} else {
			log.OwnershipUnavailable(mon)
		}
	}
	return p
}

/*
	Place one entry.  Body is read to the end for files and ignored otherwise.

	Device nodes are skipped (with a warning) if we lack CAP_MKNOD, and any
	entry the filesystem can't hold at all (fifos in memory, say) is skipped
	the same way.

	Errors keep their category if it is one of api's; filesystem errors
	become api.ErrIO, except for symlink traversal which means the archive
	is hostile and becomes api.ErrArchiveCorrupt.  Details always name the
	entry.
*/
func (p *Placer) Place(fmeta fs.Metadata, body io.Reader) error {
	if err := p.place(fmeta, body); err != nil {
		return AddDetail(err, "entry", fmeta.Name.String())
	}
	return nil
}

func (p *Placer) place(fmeta fs.Metadata, body io.Reader) error {
	if fmeta.Name.GoesUp() {
		return Errorf(api.ErrArchiveCorrupt, "corrupt archive: %s leaves the base dir", fmeta.Name)
	}
	if fmeta.Name == (fs.RelPath{}) && fmeta.Type != fs.Type_Dir {
		return Errorf(api.ErrArchiveCorrupt, "corrupt archive: a %s may not replace the base dir", fmeta.Type)
	}

	// Infer parents, if necessary.  Archives are allowed to leave them out.
	for _, parent := range fmeta.Name.SplitParent() {
		if parent == (fs.RelPath{}) {
			continue
		}
		if _, exists := p.dirs[parent]; exists {
			continue
		}
		log.DirectoryInferred(p.mon, parent, fmeta.Name)
		if err := fsOp.MkdirAll(p.afs, parent, 0755); err != nil {
			return err
		}
		p.dirs[parent] = nil
	}

	info := api.EntryInfo{
		Name:     entryName(fmeta),
		Type:     entryType(fmeta.Type),
		Mode:     int64(fmeta.Perms),
		Size:     fmeta.Size,
		Mtime:    fmeta.Mtime.Unix(),
		Linkname: fmeta.Linkname,
	}
	placed := p.adjust(fmeta)

	switch fmeta.Type {
	case fs.Type_File:
		reader := NewHashingReader(body)
		if err := fsOp.PlaceFile(p.afs, placed, reader, p.buf, p.skipChown); err != nil {
			return err
		}
		info.Size = reader.N
		info.Digest = reader.Digest().String()
		p.total += reader.N
	case fs.Type_Dir:
		// Recorded perms and mtime come later, in Finish.
		placed.Perms |= 0700
		placed.Mtime = time.Time{}
		if err := fsOp.PlaceFile(p.afs, placed, nil, nil, p.skipChown); err != nil {
			return err
		}
		final := p.adjust(fmeta)
		p.dirs[fmeta.Name] = &final
	case fs.Type_Device, fs.Type_CharDevice:
		if !p.canMknod {
			p.Skip(fmeta, "making device nodes needs CAP_MKNOD")
			return nil
		}
		fallthrough
	case fs.Type_Symlink, fs.Type_Hardlink, fs.Type_NamedPipe:
		if err := fsOp.PlaceFile(p.afs, placed, nil, nil, p.skipChown); err != nil {
			if Category(err) == fs.ErrUnsupported {
				p.Skip(fmeta, err.Error())
				return nil
			}
			return err
		}
	default:
		return Errorf(api.ErrUsage, "cannot place a %s; use Skip", fmeta.Type)
	}

	p.manifest = append(p.manifest, info)
	log.EntryPlaced(p.mon, fmeta)
	log.Progress(p.mon, "extract", fmeta.Name.String(), p.total)
	return nil
}

// Skip records an entry in the manifest without placing it.
func (p *Placer) Skip(fmeta fs.Metadata, reason string) {
	log.EntrySkipped(p.mon, fmeta, reason)
	p.manifest = append(p.manifest, api.EntryInfo{
		Name:     entryName(fmeta),
		Type:     entryType(fmeta.Type),
		Mode:     int64(fmeta.Perms),
		Size:     fmeta.Size,
		Mtime:    fmeta.Mtime.Unix(),
		Linkname: fmeta.Linkname,
		Skipped:  true,
	})
}

/*
	Finish re-applies dir attributes, deepest first, and returns the manifest.

	Conjured dirs keep whatever the filesystem gave them.
*/
func (p *Placer) Finish() (api.Manifest, error) {
	names := make([]fs.RelPath, 0, len(p.dirs))
	for name, fmeta := range p.dirs {
		if fmeta != nil {
			names = append(names, name)
		}
	}
	// Reverse lexical order puts every path before its ancestors.
	sort.Slice(names, func(i, j int) bool {
		return names[i].Bare() > names[j].Bare()
	})
	for _, name := range names {
		fmeta := p.dirs[name]
		if err := p.afs.Chmod(name, fmeta.Perms); err != nil {
			return p.manifest, AddDetail(err, "entry", name.String())
		}
		if fmeta.Mtime.IsZero() {
			continue
		}
		if err := p.afs.SetTimesNano(name, fmeta.Mtime, fs.DefaultAtime); err != nil {
			return p.manifest, AddDetail(err, "entry", name.String())
		}
	}
	log.Finished(p.mon, "extract", len(p.manifest), p.total)
	return p.manifest, nil
}

// Apply the config's preserve flags to what the archive recorded.
func (p *Placer) adjust(fmeta fs.Metadata) fs.Metadata {
	if !p.cfg.PreservePerms {
		switch {
		case fmeta.Type == fs.Type_Dir, fmeta.Perms&0111 != 0:
			fmeta.Perms = 0755
		default:
			fmeta.Perms = 0644
		}
	}
	if !p.cfg.PreserveMtime {
		fmeta.Mtime = time.Time{}
	}
	return fmeta
}

func entryName(fmeta fs.Metadata) string {
	if fmeta.Name == (fs.RelPath{}) {
		return "."
	}
	if fmeta.Type == fs.Type_Dir {
		return fmeta.Name.Bare() + "/"
	}
	return fmeta.Name.Bare()
}

func entryType(t fs.Type) api.EntryType {
	switch t {
	case fs.Type_File:
		return api.EntryType_File
	case fs.Type_Dir:
		return api.EntryType_Dir
	case fs.Type_Symlink:
		return api.EntryType_Symlink
	case fs.Type_Hardlink:
		return api.EntryType_Hardlink
	case fs.Type_CharDevice:
		return api.EntryType_CharDevice
	case fs.Type_Device:
		return api.EntryType_Device
	case fs.Type_NamedPipe:
		return api.EntryType_NamedPipe
	default:
		return api.EntryType(t.String())
	}
}
