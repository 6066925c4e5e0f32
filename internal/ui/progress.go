package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// progressDialog reports a multi-file operation.
type progressDialog struct {
	parent fyne.Window
	d      *dialog.CustomDialog
	header *widget.Label
	text   *widget.Label
	bar    *widget.ProgressBar
}

func newProgress(parent fyne.Window) *progressDialog {
	return &progressDialog{parent: parent}
}

func (p *progressDialog) SetNew() {
	if p.d != nil {
		p.d.Hide()
	}
	p.header = widget.NewLabel("")
	p.header.TextStyle = fyne.TextStyle{Bold: true}
	p.text = widget.NewLabel("")
	p.bar = widget.NewProgressBar()
	p.d = dialog.NewCustomWithoutButtons("Please wait", container.NewVBox(p.header, p.bar, p.text), p.parent)
	p.d.Resize(fyne.NewSize(420, 160))
	p.d.Show()
}

func (p *progressDialog) SetHeader(s string) {
	if p.header != nil {
		p.header.SetText(s)
	}
}

func (p *progressDialog) SetFraction(f float64) {
	if p.bar != nil {
		p.bar.SetValue(f)
	}
}

func (p *progressDialog) SetText(s string) {
	if p.text != nil {
		p.text.SetText(s)
	}
}

func (p *progressDialog) Close() {
	if p.d != nil {
		p.d.Hide()
		p.d = nil
	}
}
