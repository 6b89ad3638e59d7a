package parser

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var ErrNoManifest = errors.New("imsmanifest.xml not found")

type Manifest struct {
	Resources []ManifestResource
}

type ManifestResource struct {
	Identifier string
	Href       string
	Type       string
	Files      []string
}

type imsManifest struct {
	XMLName   xml.Name      `xml:"manifest"`
	Resources []imsResource `xml:"resources>resource"`
}
type imsResource struct {
	Identifier string    `xml:"identifier,attr"`
	Href       string    `xml:"href,attr"`
	Type       string    `xml:"type,attr"`
	Files      []imsFile `xml:"file"`
}
type imsFile struct {
	Href string `xml:"href,attr"`
}

// Package is an opened content package: its manifest plus the item
// documents the manifest points at, in manifest order.
type Package struct {
	Manifest Manifest
	Items    []ParsedItem
}

// maxEntryBytes caps a single decompressed zip entry.
const maxEntryBytes = 8 << 20

// ReadPackage reads a QTI zip entirely in memory. Nothing is extracted to
// disk, so entry names are never joined onto a filesystem path.
func ReadPackage(r io.ReaderAt, size int64) (Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Package{}, fmt.Errorf("open zip: %w", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		files[path.Clean(f.Name)] = f
	}

	var mfFile *zip.File
	for _, name := range []string{"imsmanifest.xml", "manifest.xml"} {
		if f, ok := files[name]; ok {
			mfFile = f
			break
		}
	}
	if mfFile == nil {
		return Package{}, ErrNoManifest
	}
	b, err := readEntry(mfFile)
	if err != nil {
		return Package{}, err
	}
	mf, refs, err := parseManifest(b)
	if err != nil {
		return Package{}, err
	}

	pkg := Package{Manifest: mf}
	for _, ref := range refs {
		f, ok := files[path.Clean(ref)]
		if !ok {
			return Package{}, fmt.Errorf("item %s: missing from package", ref)
		}
		b, err := readEntry(f)
		if err != nil {
			return Package{}, err
		}
		it, err := ParseItem(b)
		if err != nil {
			return Package{}, fmt.Errorf("item %s: %w", ref, err)
		}
		pkg.Items = append(pkg.Items, it)
	}
	return pkg, nil
}

func parseManifest(b []byte) (Manifest, []string, error) {
	var mf imsManifest
	if err := xml.Unmarshal(b, &mf); err != nil {
		return Manifest{}, nil, fmt.Errorf("manifest: %w", err)
	}
	var out Manifest
	var items []string
	for _, r := range mf.Resources {
		res := ManifestResource{
			Identifier: r.Identifier,
			Href:       r.Href,
			Type:       r.Type,
		}
		for _, f := range r.Files {
			res.Files = append(res.Files, f.Href)
		}
		out.Resources = append(out.Resources, res)
		href := strings.ToLower(r.Href)
		if strings.HasSuffix(href, ".xml") && !strings.Contains(href, "manifest") {
			items = append(items, r.Href)
		}
	}
	return out, items, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxEntryBytes {
		return nil, fmt.Errorf("%s: entry too large", f.Name)
	}
	return b, nil
}
