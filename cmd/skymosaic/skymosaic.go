package main

import(
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/abworrall/skymosaic/pkg/mosaic"
)

var(
	fConfigFilename string
	fOutputFilename string
	fHDRFilename string
	fFovDeg float64
	fTrimPx int
	fMatchBg bool
	fMerge bool
	fNumWorkers int
	fAnnotate bool
	fNewMosaic bool
)

func init() {
	flag.StringVar(&fConfigFilename, "c", "", "settings YAML file (flags override it)")
	flag.StringVar(&fOutputFilename, "o", "mosaic.png", "name of output image file")
	flag.StringVar(&fHDRFilename, "hdr", "", "also write the raw frame as Radiance HDR")
	flag.Float64Var(&fFovDeg, "fov", 1.0, "size of mosaic FOV (deg)")
	flag.IntVar(&fTrimPx, "trim", 0, "number of pixels to trim from each tile edge")
	flag.BoolVar(&fMatchBg, "matchbg", false, "try to match tile background levels")
	flag.BoolVar(&fMerge, "merge", false, "merge data (sum) instead of overlay")
	flag.IntVar(&fNumWorkers, "workers", 4, "number of concurrent ingest workers")
	flag.BoolVar(&fAnnotate, "annotate", false, "label tiles with their names")
	flag.BoolVar(&fNewMosaic, "new", false, "start a new mosaic even if one exists")
}

func main() {
	flag.Parse()
	log.Printf("Starting\n")

	cfg := mosaic.NewSettings()
	if fConfigFilename != "" {
		var err error
		if cfg, err = mosaic.LoadSettings(fConfigFilename); err != nil {
			log.Fatal(err)
		}
	}

	// Override the config file with the flags actually given
	given := []string{}
	flag.Visit(func(f *flag.Flag) { given = append(given, f.Name) })
	cfg = applyFlagOverrides(cfg, given)

	log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())

	canvas := mosaic.NewRenderCanvas()
	sess := mosaic.NewSession(canvas, mosaic.LogStatus{})
	sch := mosaic.NewScheduler(sess, mosaic.FileLoader{})

	// ^C maps to the Stop button: finish the tile in flight, abandon the rest
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := sch.Mosaic(ctx, flag.Args(), cfg, fNewMosaic); err != nil {
		log.Fatalf("Mosaic failed, err: %v\n", err)
	}

	if fm := sess.Frame(); fm != nil {
		log.Printf("frame %s\n", fm)
		log.Printf("frame data %s\n", fm.Data.Stats())

		if err := canvas.Render(fOutputFilename); err != nil {
			log.Fatalf("render failed, err: %v\n", err)
		}
		log.Printf("LDR output file written '%s'\n", fOutputFilename)

		if fHDRFilename != "" {
			if err := mosaic.WriteHDR(fm, fHDRFilename); err != nil {
				log.Fatalf("HDR write failed, err: %v\n", err)
			}
			log.Printf("HDR output file written '%s'\n", fHDRFilename)
		}
	}
}

// applyFlagOverrides overlays onto cfg just the flags the user gave,
// so a -c config file survives except where the command line says
// otherwise.
func applyFlagOverrides(cfg mosaic.Settings, given []string) mosaic.Settings {
	for _, name := range given {
		switch name {
		case "fov":      cfg.FovDeg = fFovDeg
		case "trim":     cfg.TrimPx = fTrimPx
		case "workers":  cfg.NumWorkers = fNumWorkers
		case "matchbg":  cfg.MatchBg = fMatchBg
		case "merge":    cfg.Merge = fMerge
		case "annotate": cfg.AnnotateImages = fAnnotate
		}
	}
	return cfg
}
