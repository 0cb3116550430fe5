package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abworrall/skymosaic/pkg/mosaic"
)

func TestApplyFlagOverrides(t *testing.T) {
	cfg := mosaic.NewSettings()
	cfg.FovDeg = 0.25
	cfg.NumWorkers = 2
	cfg.MatchBg = true

	fFovDeg = 1.0
	fNumWorkers = 8
	fMatchBg = false

	// No flags given: the config file values survive, flag defaults
	// don't clobber them
	out := applyFlagOverrides(cfg, []string{})
	assert.Equal(t, 0.25, out.FovDeg)
	assert.Equal(t, 2, out.NumWorkers)
	assert.True(t, out.MatchBg)

	// Only the flags actually given override
	out = applyFlagOverrides(cfg, []string{"workers", "matchbg"})
	assert.Equal(t, 0.25, out.FovDeg)
	assert.Equal(t, 8, out.NumWorkers)
	assert.False(t, out.MatchBg)
}
