package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"

	"space-invasion/invasion"
)

// canvas is the part of tcell.Screen the renderer draws on
type canvas interface {
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
	Size() (int, int)
}

// hudRows are reserved under the field
const hudRows = 2

var (
	styleShip     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleMissile  = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleShot     = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleUFO      = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleHUD      = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleBanner   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	invaderStyles = [invasion.GridRows]tcell.Style{
		tcell.StyleDefault.Foreground(tcell.ColorFuchsia),
		tcell.StyleDefault.Foreground(tcell.ColorAqua),
		tcell.StyleDefault.Foreground(tcell.ColorAqua),
		tcell.StyleDefault.Foreground(tcell.ColorLime),
		tcell.StyleDefault.Foreground(tcell.ColorLime),
	}
	invaderGlyphs = [invasion.GridRows]rune{'W', 'X', 'X', 'M', 'M'}
)

// toCell maps a field position onto a cols x rows grid
func toCell(x, y float64, cols, rows int) (int, int) {
	cx := int(x * float64(cols) / invasion.FieldWidth)
	cy := int(y * float64(rows) / invasion.FieldHeight)
	return clampInt(cx, 0, cols-1), clampInt(cy, 0, rows-1)
}

// cellSpan returns the inclusive cell rectangle a drawable covers. Every
// drawable covers at least one cell.
func cellSpan(d invasion.Drawable, cols, rows int) (x0, y0, x1, y1 int) {
	x0, y0 = toCell(d.X, d.Y, cols, rows)
	x1, y1 = toCell(d.X+d.W-0.01, d.Y+d.H-0.01, cols, rows)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func glyph(d invasion.Drawable) (rune, tcell.Style) {
	switch d.Kind {
	case invasion.DrawShip:
		return '^', styleShip
	case invasion.DrawInvader:
		row := clampInt(int(d.Row), 0, invasion.GridRows-1)
		return invaderGlyphs[row], invaderStyles[row]
	case invasion.DrawShipMissile:
		return '|', styleMissile
	case invasion.DrawInvaderMissile:
		return '!', styleShot
	case invasion.DrawUFO:
		return '@', styleUFO
	}
	return '?', styleHUD
}

// HUD is the status line content
type HUD struct {
	Score  int
	Health int
	State  string // running, paused, game_over, or a match phase
	Tick   uint64
	Banner string
}

// drawFrame clears the canvas and draws the field plus the HUD
func drawFrame(c canvas, items []invasion.Drawable, hud HUD) {
	w, h := c.Size()
	rows := h - hudRows
	if w < 1 || rows < 1 {
		return
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}

	for _, d := range items {
		r, style := glyph(d)
		x0, y0, x1, y1 := cellSpan(d, w, rows)
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				c.SetContent(x, y, r, nil, style)
			}
		}
	}

	for x := 0; x < w; x++ {
		c.SetContent(x, rows, '-', nil, styleHUD)
	}
	drawText(c, 0, rows+1, styleHUD, hudLine(hud))
	if hud.Banner != "" {
		drawText(c, (w-len(hud.Banner))/2, rows/2, styleBanner, hud.Banner)
	}
}

// hudLine formats the status line
func hudLine(h HUD) string {
	return fmt.Sprintf("SCORE %s  SHIPS %d  %s  t=%s",
		humanize.Comma(int64(h.Score)), h.Health, h.State, humanize.Comma(int64(h.Tick)))
}

func drawText(c canvas, x, y int, style tcell.Style, s string) {
	if x < 0 {
		x = 0
	}
	for i, r := range []rune(s) {
		c.SetContent(x+i, y, r, nil, style)
	}
}
