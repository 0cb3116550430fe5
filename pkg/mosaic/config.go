package mosaic

import(
	"fmt"
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"
)

/* Example settings file ...

fov_deg: 0.5
match_bg: true
trim_px: 8
merge: false
num_workers: 4
annotate_images: true
drop_creates_new_mosaic: true

*/

// Settings is the per-batch snapshot of the mosaic options. The
// scheduler reads one of these at the start of a batch and never
// looks back at the source of truth mid-batch.
type Settings struct {
	AnnotateImages       bool    `yaml:"annotate_images"` // label each tile with its name
	FovDeg               float64 `yaml:"fov_deg"`         // angular size the mosaic frame covers
	MatchBg              bool    `yaml:"match_bg"`        // align tile background levels to the frame's reference
	TrimPx               int     `yaml:"trim_px"`         // pixels to crop from each tile edge
	Merge                bool    `yaml:"merge"`           // sum into the frame, instead of overwriting
	NumWorkers           int     `yaml:"num_workers"`
	DropCreatesNewMosaic bool    `yaml:"drop_creates_new_mosaic"`
}

func NewSettings() Settings {
	return Settings{
		FovDeg:               1.0,
		NumWorkers:           4,
		DropCreatesNewMosaic: true,
	}
}

func LoadSettings(filename string) (Settings, error) {
	s := NewSettings()

	if contents,err := ioutil.ReadFile(filename); err != nil {
		return s, fmt.Errorf("settings read '%s': %v", filename, err)
	} else if err := yaml.Unmarshal(contents, &s); err != nil {
		return s, fmt.Errorf("settings parse '%s': %v", filename, err)
	}

	return s, s.Validate()
}

// Validate catches the configuration errors that mean a batch must
// not even start.
func (s Settings)Validate() error {
	if s.FovDeg <= 0.0 {
		return fmt.Errorf("settings: fov_deg must be > 0, have %f", s.FovDeg)
	}
	if s.TrimPx < 0 {
		return fmt.Errorf("settings: trim_px must be >= 0, have %d", s.TrimPx)
	}
	if s.NumWorkers < 1 {
		return fmt.Errorf("settings: num_workers must be >= 1, have %d", s.NumWorkers)
	}
	return nil
}

func (s Settings)AsYaml() string {
	b, err := yaml.Marshal(s)
	if err != nil {
		log.Fatalf("Can't marshal settings yaml: %v\n", err)
	}
	return string(b)
}
