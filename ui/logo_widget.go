package ui

import (
	"os"
	"path/filepath"
	"time"

	"autoexec/logo"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	logoAsset = "Assets/animated.gif"
	logoSize  = 80
)

// LogoWidget shows the animated header logo and reacts to taps
type LogoWidget struct {
	widget.BaseWidget
	image    *canvas.Image
	anim     *logo.Animation
	OnTapped func()
	stop     chan struct{}
}

// NewLogoWidget loads the logo asset, falling back to a theme icon when it is missing
func NewLogoWidget(onTapped func()) *LogoWidget {
	lw := &LogoWidget{
		OnTapped: onTapped,
		stop:     make(chan struct{}),
	}

	if anim, err := logo.LoadFile(resourcePath(logoAsset), logoSize); err == nil && anim.Len() > 0 {
		lw.anim = anim
		lw.image = canvas.NewImageFromImage(anim.Frames[0])
	} else {
		lw.image = canvas.NewImageFromResource(theme.ComputerIcon())
	}
	lw.image.FillMode = canvas.ImageFillContain
	lw.image.SetMinSize(fyne.NewSize(logoSize, logoSize))

	lw.ExtendBaseWidget(lw)
	return lw
}

// Start cycles through the frames until Stop is called
func (lw *LogoWidget) Start() {
	if lw.anim == nil || lw.anim.Len() < 2 {
		return
	}

	go func() {
		index := 0
		for {
			select {
			case <-lw.stop:
				return
			case <-time.After(lw.anim.Durations[index]):
			}
			index = (index + 1) % lw.anim.Len()
			frame := lw.anim.Frames[index]
			fyne.Do(func() {
				lw.image.Image = frame
				lw.image.Refresh()
			})
		}
	}()
}

// Stop ends the animation
func (lw *LogoWidget) Stop() {
	select {
	case <-lw.stop:
	default:
		close(lw.stop)
	}
}

// Tapped implements fyne.Tappable
func (lw *LogoWidget) Tapped(*fyne.PointEvent) {
	if lw.OnTapped != nil {
		lw.OnTapped()
	}
}

// CreateRenderer implements fyne.Widget
func (lw *LogoWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(lw.image)
}

// resourcePath finds an asset next to the executable, then in the working directory
func resourcePath(relative string) string {
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if abs, err := filepath.Abs(relative); err == nil {
		return abs
	}
	return relative
}
