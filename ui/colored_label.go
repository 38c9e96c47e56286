package ui

import (
	"image/color"

	"autoexec/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

var (
	activeColor   = color.NRGBA{R: 0x31, G: 0x8c, B: 0xe7, A: 0xff}
	orphanedColor = color.NRGBA{R: 0x80, G: 0x00, B: 0x80, A: 0xff}
)

// stateColor maps a script state to its text color
func stateColor(state models.ScriptState) color.Color {
	switch state {
	case models.StateActive:
		return activeColor
	case models.StateOrphaned:
		return orphanedColor
	default:
		return theme.Color(theme.ColorNameForeground)
	}
}

// ScriptLabel displays a script name colored by its state
type ScriptLabel struct {
	widget.BaseWidget
	text    string
	state   models.ScriptState
	textObj *canvas.Text
}

// NewScriptLabel creates a new script label
func NewScriptLabel(text string, state models.ScriptState) *ScriptLabel {
	sl := &ScriptLabel{
		text:  text,
		state: state,
	}
	sl.ExtendBaseWidget(sl)
	return sl
}

// CreateRenderer implements fyne.Widget
func (sl *ScriptLabel) CreateRenderer() fyne.WidgetRenderer {
	sl.textObj = canvas.NewText(sl.text, stateColor(sl.state))
	sl.textObj.Alignment = fyne.TextAlignLeading
	sl.textObj.TextStyle = fyne.TextStyle{Bold: sl.state == models.StateOrphaned}

	return &scriptLabelRenderer{
		label:     sl,
		container: container.NewPadded(sl.textObj),
		textObj:   sl.textObj,
	}
}

// SetState recolors the label
func (sl *ScriptLabel) SetState(state models.ScriptState) {
	sl.state = state
	sl.Refresh()
}

// scriptLabelRenderer implements fyne.WidgetRenderer
type scriptLabelRenderer struct {
	label     *ScriptLabel
	container *fyne.Container
	textObj   *canvas.Text
}

func (r *scriptLabelRenderer) MinSize() fyne.Size {
	return r.container.MinSize()
}

func (r *scriptLabelRenderer) Layout(size fyne.Size) {
	r.container.Resize(size)
}

func (r *scriptLabelRenderer) Refresh() {
	r.textObj.Text = r.label.text
	r.textObj.Color = stateColor(r.label.state)
	r.textObj.TextStyle = fyne.TextStyle{Bold: r.label.state == models.StateOrphaned}
	r.textObj.Refresh()
}

func (r *scriptLabelRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.container}
}

func (r *scriptLabelRenderer) Destroy() {}
