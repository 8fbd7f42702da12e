package projectfs

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/GriffinCanCode/playground/internal/shared/paths"
	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

// Format names an archive encoding
type Format string

const (
	FormatZip   Format = "zip"
	FormatTarGz Format = "tar.gz"
	FormatTarZs Format = "tar.zst"
)

// ErrFormat is returned for unknown formats and undecodable uploads
var ErrFormat = errors.New("unsupported archive format")

// epoch is stamped on every entry so equal projects give equal archives
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// ParseFormat accepts a format name or a file name ending in one. The
// empty string means zip.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "", s == "zip", strings.HasSuffix(s, ".zip"):
		return FormatZip, nil
	case s == "tar.gz", s == "tgz", strings.HasSuffix(s, ".tar.gz"), strings.HasSuffix(s, ".tgz"):
		return FormatTarGz, nil
	case s == "tar.zst", s == "tzst", strings.HasSuffix(s, ".tar.zst"):
		return FormatTarZs, nil
	}
	return "", fmt.Errorf("%w: %q", ErrFormat, s)
}

// Extension returns the file name suffix for f
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type for f
func (f Format) ContentType() string {
	switch f {
	case FormatTarGz:
		return "application/gzip"
	case FormatTarZs:
		return "application/zstd"
	}
	return "application/zip"
}

// WriteArchive writes files to w. Placeholder files become directory
// entries.
func WriteArchive(w io.Writer, files []types.ProjectFile, format Format) error {
	switch format {
	case FormatZip, "":
		return writeZip(w, files)
	case FormatTarGz:
		gz, err := gzip.NewWriterLevel(w, gzip.BestCompression)
		if err != nil {
			return err
		}
		if err := writeTar(gz, files); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()
	case FormatTarZs:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return err
		}
		if err := writeTar(zw, files); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	}
	return fmt.Errorf("%w: %q", ErrFormat, format)
}

func writeZip(w io.Writer, files []types.ProjectFile) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, f := range files {
		if paths.IsPlaceholder(f.Path) {
			hdr := &zip.FileHeader{Name: paths.Dir(f.Path) + "/", Modified: epoch}
			hdr.SetMode(os.ModeDir | 0o755)
			if _, err := zw.CreateHeader(hdr); err != nil {
				return err
			}
			continue
		}
		hdr := &zip.FileHeader{Name: f.Path, Method: zip.Deflate, Modified: epoch}
		hdr.SetMode(0o644)
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(fw, f.Content); err != nil {
			return err
		}
	}
	return zw.Close()
}

func writeTar(w io.Writer, files []types.ProjectFile) error {
	tw := tar.NewWriter(w)
	for _, f := range files {
		if paths.IsPlaceholder(f.Path) {
			if err := tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeDir,
				Name:     paths.Dir(f.Path) + "/",
				Mode:     0o755,
				ModTime:  epoch,
				Format:   tar.FormatPAX,
			}); err != nil {
				return err
			}
			continue
		}
		if err := tw.WriteHeader(&tar.Header{
			Typeflag: tar.TypeReg,
			Name:     f.Path,
			Mode:     0o644,
			Size:     int64(len(f.Content)),
			ModTime:  epoch,
			Format:   tar.FormatPAX,
		}); err != nil {
			return err
		}
		if _, err := io.WriteString(tw, f.Content); err != nil {
			return err
		}
	}
	return tw.Close()
}

// ReadArchive decodes an uploaded archive into project files. Directory
// entries become placeholders; every file passes CheckContent.
func ReadArchive(data []byte, format Format) ([]types.ProjectFile, error) {
	if err := utils.ValidateSize(data, utils.MaxProjectSize); err != nil {
		return nil, err
	}

	var entries []entry
	var err error
	switch format {
	case FormatZip, "":
		entries, err = readZip(data)
	case FormatTarGz:
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(bytes.NewReader(data)); err == nil {
			entries, err = readTar(gz)
			gz.Close()
		}
	case FormatTarZs:
		var zr *zstd.Decoder
		if zr, err = zstd.NewReader(bytes.NewReader(data)); err == nil {
			entries, err = readTar(zr)
			zr.Close()
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s archive: %w", ErrFormat, format, err)
	}
	return toFiles(entries)
}

type entry struct {
	name string
	dir  bool
	data []byte
}

// readLimited reads at most one byte past the file limit so oversize
// entries are caught by CheckContent without reading them whole
func readLimited(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, utils.MaxFileSize+1))
}

func readZip(data []byte) ([]entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	zr.RegisterDecompressor(zip.Deflate, flate.NewReader)

	var out []entry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			out = append(out, entry{name: f.Name, dir: true})
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		b, err := readLimited(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, entry{name: f.Name, data: b})
	}
	return out, nil
}

func readTar(r io.Reader) ([]entry, error) {
	tr := tar.NewReader(r)
	var out []entry
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			out = append(out, entry{name: hdr.Name, dir: true})
		case tar.TypeReg:
			b, err := readLimited(tr)
			if err != nil {
				return nil, err
			}
			out = append(out, entry{name: hdr.Name, data: b})
		}
	}
}

// toFiles normalizes entry names and drops directories that already have
// files under them
func toFiles(entries []entry) ([]types.ProjectFile, error) {
	var files []types.ProjectFile
	seen := make(map[string]bool)
	total := 0

	for _, e := range entries {
		name, err := paths.Normalize(e.name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.name, err)
		}
		if e.dir {
			name = paths.PlaceholderFor(name)
		} else if err := CheckContent(name, e.data); err != nil {
			return nil, err
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		total += len(e.data)
		files = append(files, types.ProjectFile{Path: name, Content: string(e.data)})
	}
	if err := utils.ValidateProjectSize(len(files), total); err != nil {
		return nil, err
	}
	return pruneEmptyPlaceholders(files), nil
}

// pruneEmptyPlaceholders drops placeholders whose directory holds files
func pruneEmptyPlaceholders(files []types.ProjectFile) []types.ProjectFile {
	out := make([]types.ProjectFile, 0, len(files))
	for _, f := range files {
		if paths.IsPlaceholder(f.Path) && hasFileUnder(files, paths.Dir(f.Path)) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func hasFileUnder(files []types.ProjectFile, dir string) bool {
	for _, f := range files {
		if !paths.IsPlaceholder(f.Path) && paths.Under(f.Path, dir) {
			return true
		}
	}
	return false
}
