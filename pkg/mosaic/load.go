package mosaic

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"
	"gopkg.in/yaml.v2"

	"github.com/abworrall/skymosaic/pkg/mgrid"
	"github.com/abworrall/skymosaic/pkg/mwcs"
)

// A Loader turns a path into a SourceTile. The scheduler calls it
// outside the frame lock, so loads overlap with ingestion.
type Loader interface {
	LoadImage(path string) (*SourceTile, error)
}

// FileLoader reads tiles from local files: TIFF/PNG/JPEG pixel data,
// with the sky pointing in a YAML sidecar next to the image
// (foo.tif -> foo.yaml). Not a FITS reader; our capture pipeline
// writes plain images plus sidecars.
type FileLoader struct{}

func (fl FileLoader)LoadImage(path string) (*SourceTile, error) {
	t := SourceTile{LoadFilename: path}

	hdr, err := loadSidecar(sidecarName(path))
	if err != nil {
		return nil, err
	}
	if err := hdr.Validate(); err != nil {
		return nil, fmt.Errorf("sidecar for '%s': %v", path, err)
	}
	t.WCS = mwcs.NewWCS(hdr)

	img, err := loadPixels(path)
	if err != nil {
		return nil, err
	}
	t.Data = toFloatGrid(img)

	// EXIF is optional gravy - some capture rigs stamp the exposure
	// time, and it is nice to report it
	if when, err := loadExifTime(path); err == nil {
		t.CapturedAt = when
	}

	return &t, nil
}

func sidecarName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".yaml"
}

func loadSidecar(filename string) (mwcs.Header, error) {
	hdr := mwcs.Header{}

	if contents,err := ioutil.ReadFile(filename); err != nil {
		return hdr, fmt.Errorf("sidecar read '%s': %v", filename, err)
	} else if err := yaml.Unmarshal(contents, &hdr); err != nil {
		return hdr, fmt.Errorf("sidecar parse '%s': %v", filename, err)
	}

	return hdr, nil
}

func loadPixels(filename string) (image.Image, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r img '%s': %v", filename, err)
	}
	defer reader.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff":
		img, err := tiff.Decode(reader)
		if err != nil {
			return nil, fmt.Errorf("tiff loading '%s': %v", filename, err)
		}
		return img, nil

	default:
		img, _, err := image.Decode(reader)
		if err != nil {
			return nil, fmt.Errorf("img loading '%s': %v", filename, err)
		}
		return img, nil
	}
}

func loadExifTime(filename string) (t time.Time, err error) {
	reader, err := os.Open(filename)
	if err != nil {
		return
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return
	}
	return ex.DateTime()
}

// toFloatGrid flattens the image into single-channel counts in
// [0, 0xFFFF], averaging the color channels.
func toFloatGrid(img image.Image) mgrid.FloatGrid {
	b := img.Bounds()
	fg := mgrid.NewFloatGrid(b.Dx(), b.Dy())

	for y:=b.Min.Y; y<b.Max.Y; y++ {
		for x:=b.Min.X; x<b.Max.X; x++ {
			r,g,bb,_ := img.At(x, y).RGBA()
			fg.Set(x-b.Min.X, y-b.Min.Y, float64(r+g+bb)/3.0)
		}
	}

	return fg
}
