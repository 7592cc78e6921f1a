// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package progress

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// BarConfig determines if and how a Channel's events render to a
// terminal, generalized from cmd/cie/progress.go's ProgressConfig (which
// drove exactly one progress bar) to drive the sixteen-step Channel here.
type BarConfig struct {
	Enabled bool
	Writer  io.Writer
	NoColor bool
}

// NewBarConfig builds a BarConfig the way the teacher's NewProgressConfig
// does: disabled when quiet is requested or stderr isn't a TTY.
func NewBarConfig(quiet, noColor bool) BarConfig {
	return BarConfig{
		Enabled: !quiet && isatty.IsTerminal(os.Stderr.Fd()),
		Writer:  os.Stderr,
		NoColor: noColor,
	}
}

func newBar(cfg BarConfig) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}
	return progressbar.NewOptions(100,
		progressbar.OptionSetDescription(string(Walk)),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Pipe drains ch until it closes, driving a terminal progress bar built
// from cfg. Step transitions update the bar's description; percentage
// events advance it. Returns once ch is closed (or cfg disables the bar,
// in which case it still drains the channel so publishers never block).
func Pipe(ch *Channel, cfg BarConfig) {
	bar := newBar(cfg)
	for ev := range ch.Events() {
		if bar == nil {
			continue
		}
		if ev.Percent < 0 {
			bar.Describe(string(ev.Step))
			continue
		}
		_ = bar.Set(ev.Percent)
	}
	if bar != nil {
		_ = bar.Finish()
	}
}
