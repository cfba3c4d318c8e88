package weekview

import (
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/verte-zerg/stundenplan/internal/schedule"
)

const (
	imgPadding     = 16
	imgHeaderH     = 36
	imgTimeColW    = 110
	imgDayColW     = 130
	imgRowH        = 30
	imgCellPadding = 3
	imgCellRadius  = 5
	imgFontSize    = 13
)

var (
	imgBgColor      = color.RGBA{245, 246, 248, 255}
	imgTextColor    = color.RGBA{55, 65, 81, 255}
	imgMutedColor   = color.RGBA{110, 115, 120, 255}
	imgLineColor    = color.RGBA{220, 223, 228, 255}
	imgTodayColor   = color.RGBA{254, 249, 231, 255}
	imgCellColor    = color.RGBA{219, 234, 254, 255}
	imgActiveColor  = color.RGBA{250, 204, 21, 255}
	imgCellBorder   = color.RGBA{147, 197, 253, 255}
	imgActiveBorder = color.RGBA{202, 138, 4, 255}
)

var (
	parseFontOnce sync.Once
	parsedFont    *opentype.Font
)

// imageFace returns a face covering the German labels. A face is not safe for
// concurrent use, so every render gets its own.
func imageFace() font.Face {
	parseFontOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err == nil {
			parsedFont = f
		}
	})
	if parsedFont == nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(parsedFont, &opentype.FaceOptions{
		Size:    imgFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// ImageSize returns the pixel size RenderPNG uses for tt.
func ImageSize(tt schedule.Timetable) (width, height int) {
	width = 2*imgPadding + imgTimeColW + schedule.SchoolDays*imgDayColW
	height = 2*imgPadding + imgHeaderH + len(tt.Slots)*imgRowH
	return width, height
}

// ImageOptions controls RenderPNG.
type ImageOptions struct {
	// Today shades that day's column; -1 disables it.
	Today int
	// ActiveSlot outlines the running lesson in today's column; -1 disables it.
	ActiveSlot int
}

// RenderPNG draws the week grid and encodes it as PNG.
func RenderPNG(w io.Writer, tt schedule.Timetable, opts ImageOptions) error {
	width, height := ImageSize(tt)
	dc := gg.NewContext(width, height)
	dc.SetColor(imgBgColor)
	dc.Clear()
	face := imageFace()
	defer func() {
		// Best-effort release; basicfont faces close as a no-op.
		_ = face.Close()
	}()
	dc.SetFontFace(face)

	top := float64(imgPadding + imgHeaderH)
	left := float64(imgPadding + imgTimeColW)
	gridH := float64(len(tt.Slots) * imgRowH)

	if schedule.IsSchoolDay(opts.Today) {
		dc.SetColor(imgTodayColor)
		dc.DrawRectangle(left+float64(opts.Today*imgDayColW), float64(imgPadding), imgDayColW, imgHeaderH+gridH)
		dc.Fill()
	}

	dc.SetColor(imgTextColor)
	for day := 0; day < schedule.SchoolDays; day++ {
		x := left + float64(day*imgDayColW) + imgDayColW/2
		dc.DrawStringAnchored(DayName(day), x, float64(imgPadding)+imgHeaderH/2, 0.5, 0.5)
	}

	for i, slot := range tt.Slots {
		y := top + float64(i*imgRowH)

		dc.SetColor(imgLineColor)
		dc.SetLineWidth(1)
		dc.DrawLine(float64(imgPadding), y, left+float64(schedule.SchoolDays*imgDayColW), y)
		dc.Stroke()

		dc.SetColor(imgMutedColor)
		label := slot.Start.String() + "-" + slot.End.String()
		dc.DrawStringAnchored(label, float64(imgPadding)+4, y+imgRowH/2, 0, 0.5)

		for day := 0; day < schedule.SchoolDays; day++ {
			code := tt.Week.Code(day, i)
			if code == "" {
				continue
			}
			active := day == opts.Today && i == opts.ActiveSlot
			drawCell(dc, left+float64(day*imgDayColW), y, tt.Names.Label(code), active)
		}
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func drawCell(dc *gg.Context, x, y float64, label string, active bool) {
	fill, border := imgCellColor, imgCellBorder
	if active {
		fill, border = imgActiveColor, imgActiveBorder
	}
	cx := x + imgCellPadding
	cy := y + imgCellPadding
	cw := float64(imgDayColW - 2*imgCellPadding)
	ch := float64(imgRowH - 2*imgCellPadding)

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(cx, cy, cw, ch, imgCellRadius)
	dc.Fill()
	dc.SetColor(border)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(cx, cy, cw, ch, imgCellRadius)
	dc.Stroke()

	for len(label) > 1 {
		if tw, _ := dc.MeasureString(label); tw <= cw-8 {
			break
		}
		runes := []rune(label)
		label = string(runes[:len(runes)-1])
	}
	dc.SetColor(imgTextColor)
	dc.DrawStringAnchored(label, cx+cw/2, cy+ch/2, 0.5, 0.5)
}
