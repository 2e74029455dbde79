package contexthint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/nao1215/arcrack/internal/model"
)

const (
	// DefaultMaxSiblings bounds the number of neighbouring images read.
	DefaultMaxSiblings = 20

	// DefaultMaxImageSize is the largest image file read, in bytes.
	DefaultMaxImageSize = 20 << 20

	exifTimeLayout = "2006:01:02 15:04:05"
)

// imageExtensions are the formats that may carry EXIF data.
var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".tif": {}, ".tiff": {}, ".heic": {},
}

// Options configures Build.
type Options struct {
	// Keywords are user-supplied tokens, kept in order and first.
	Keywords []string

	// Hints are image files whose metadata is always read.
	Hints []string

	// ScanSiblings also reads images in the archive's directory.
	ScanSiblings bool

	// MaxSiblings and MaxImageSize bound the sibling scan. Zero selects the default.
	MaxSiblings  int
	MaxImageSize int64

	Logger *slog.Logger
}

// Metadata is what one image contributed.
type Metadata struct {
	Path    string
	Dates   []time.Time
	Authors []string
}

// Build returns the generation context for the archive at path.
//
// Size and modification time come from the file system; the modification
// time is the creation time. When the archive cannot be stat'ed, the
// earliest EXIF date stands in. Unreadable images are skipped.
func Build(ctx context.Context, path string, opts Options) (model.GenerationContext, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gc := model.NewGenerationContext(path)
	gc.Keywords = appendUnique(gc.Keywords, opts.Keywords...)

	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return gc, fmt.Errorf("%s is a directory", path)
		}
		gc.FileSize = info.Size()
		gc.Created = info.ModTime()
	} else {
		logger.Debug("failed to stat archive", "path", path, "error", err)
	}

	images := slices.Clone(opts.Hints)
	if opts.ScanSiblings && path != "" {
		siblings, err := siblingImages(filepath.Dir(path), orDefault(opts.MaxSiblings, DefaultMaxSiblings))
		if err != nil {
			logger.Debug("failed to list sibling images", "dir", filepath.Dir(path), "error", err)
		}
		images = append(images, siblings...)
	}

	maxSize := int64(orDefault(int(opts.MaxImageSize), DefaultMaxImageSize))
	seen := make(map[string]struct{}, len(images))
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return gc, err
		}
		if _, dup := seen[img]; dup {
			continue
		}
		seen[img] = struct{}{}

		md, err := ReadImage(img, maxSize)
		if err != nil {
			logger.Debug("skipping hint image", "path", img, "error", err)
			continue
		}
		for _, d := range md.Dates {
			gc.Dates = append(gc.Dates, d)
			gc.Keywords = appendUnique(gc.Keywords, strconv.Itoa(d.Year()))
		}
		gc.Keywords = appendUnique(gc.Keywords, md.Authors...)
	}

	slices.SortFunc(gc.Dates, func(a, b time.Time) int { return a.Compare(b) })
	gc.Dates = slices.CompactFunc(gc.Dates, func(a, b time.Time) bool { return a.Equal(b) })
	if !gc.HasCreated() && len(gc.Dates) > 0 {
		gc.Created = gc.Dates[0]
	}
	return gc, nil
}

// ErrNoExif is returned by ReadImage when the file holds no EXIF block.
var ErrNoExif = errors.New("no EXIF data")

// ReadImage extracts dates and author names from one image file.
func ReadImage(path string, maxSize int64) (Metadata, error) {
	md := Metadata{Path: path}

	f, err := os.Open(path) //nolint:gosec // path is a user-selected hint or a sibling of the archive
	if err != nil {
		return md, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return md, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > maxSize {
		return md, fmt.Errorf("image larger than %d bytes", maxSize)
	}
	return parseExif(md, data)
}

func parseExif(md Metadata, data []byte) (Metadata, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return md, ErrNoExif
	}
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return md, fmt.Errorf("failed to parse EXIF: %w", err)
	}

	for _, entry := range entries {
		switch entry.TagName {
		case "DateTimeOriginal", "DateTimeDigitized", "DateTime":
			if t, ok := parseExifTime(entry.Formatted); ok && !slices.ContainsFunc(md.Dates, t.Equal) {
				md.Dates = append(md.Dates, t)
			}
		case "Artist", "Author", "XPAuthor", "Copyright":
			if name := cleanAuthor(entry.Formatted); name != "" && !slices.Contains(md.Authors, name) {
				md.Authors = append(md.Authors, name)
			}
		}
	}
	return md, nil
}

// parseExifTime parses "YYYY:MM:DD HH:MM:SS". Zeroed placeholder dates
// are rejected.
func parseExifTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	if len(s) < len(exifTimeLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(exifTimeLayout, s[:len(exifTimeLayout)])
	if err != nil || t.Year() < 1900 {
		return time.Time{}, false
	}
	return t, true
}

// cleanAuthor trims copyright noise and rejects values without letters.
func cleanAuthor(s string) string {
	s = strings.TrimRight(s, "\x00")
	for _, prefix := range []string{"©", "(c)", "(C)", "Copyright", "copyright"} {
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), prefix))
	}
	if !strings.ContainsFunc(s, unicode.IsLetter) || !isPrintable(s) {
		return ""
	}
	return s
}

func isPrintable(s string) bool {
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

// siblingImages lists up to limit image files in dir, sorted by name.
func siblingImages(dir string, limit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if len(out) >= limit {
			break
		}
		if e.IsDir() {
			continue
		}
		if _, ok := imageExtensions[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
