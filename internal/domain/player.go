package domain

import (
	"math"

	"github.com/sharetube/cowatch/pkg/videosource"
)

const (
	ActionPlay  = "play"
	ActionPause = "pause"
	ActionSeek  = "seek"
)

type Player struct {
	MediaRef    string             `json:"url"`
	Source      videosource.Source `json:"source"`
	CurrentTime float64            `json:"time"`
	IsPlaying   bool               `json:"is_playing"`
}

func NewPlayer() *Player {
	return &Player{
		MediaRef:    "",
		Source:      videosource.YouTube,
		CurrentTime: 0,
		IsPlaying:   false,
	}
}

// SetVideo replaces the current video and starts it from the beginning.
func (p *Player) SetVideo(source videosource.Source, ref string) {
	p.MediaRef = ref
	p.Source = source
	p.CurrentTime = 0
	p.IsPlaying = true
}

// Sync applies an owner playback report and tells whether the other members need to hear about it.
// Play and pause always propagate; other actions only when they move the position by more than threshold.
func (p *Player) Sync(action string, time, threshold float64) (delta float64, propagate bool) {
	delta = math.Abs(time - p.CurrentTime)

	p.CurrentTime = time
	p.IsPlaying = action == ActionPlay

	propagate = delta > threshold || action == ActionPlay || action == ActionPause
	return delta, propagate
}
