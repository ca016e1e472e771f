package main

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"space-invasion/invasion"
)

// mockCanvas records the last rune written to each cell
type mockCanvas struct {
	w, h  int
	cells map[[2]int]rune
}

func newMockCanvas(w, h int) *mockCanvas {
	return &mockCanvas{w: w, h: h, cells: make(map[[2]int]rune)}
}

func (m *mockCanvas) SetContent(x, y int, mainc rune, combc []rune, style tcell.Style) {
	m.cells[[2]int{x, y}] = mainc
}

func (m *mockCanvas) Size() (int, int) { return m.w, m.h }

func (m *mockCanvas) row(y int) string {
	var b strings.Builder
	for x := 0; x < m.w; x++ {
		r, ok := m.cells[[2]int{x, y}]
		if !ok {
			r = ' '
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (m *mockCanvas) count(r rune) int {
	n := 0
	for _, c := range m.cells {
		if c == r {
			n++
		}
	}
	return n
}

func TestToCell(t *testing.T) {
	tests := []struct {
		x, y   float64
		cx, cy int
	}{
		{0, 0, 0, 0},
		{223.9, 255.9, 55, 31},
		{112, 128, 28, 16},
		{-5, 300, 0, 31},
	}
	for _, tt := range tests {
		cx, cy := toCell(tt.x, tt.y, 56, 32)
		if cx != tt.cx || cy != tt.cy {
			t.Errorf("toCell(%g, %g) = (%d, %d), want (%d, %d)", tt.x, tt.y, cx, cy, tt.cx, tt.cy)
		}
	}
}

func TestCellSpan(t *testing.T) {
	ship := invasion.Drawable{Kind: invasion.DrawShip, X: 105, Y: 208, W: 15, H: 8}
	x0, y0, x1, y1 := cellSpan(ship, 56, 32)
	if x0 != 26 || x1 != 29 || y0 != 26 || y1 != 26 {
		t.Errorf("ship span = (%d,%d)-(%d,%d)", x0, y0, x1, y1)
	}

	missile := invasion.Drawable{Kind: invasion.DrawShipMissile, X: 112, Y: 100, W: 1, H: 4}
	x0, y0, x1, y1 = cellSpan(missile, 56, 32)
	if x0 != x1 || y0 != y1 {
		t.Errorf("thin missile should cover one cell, got (%d,%d)-(%d,%d)", x0, y0, x1, y1)
	}
}

func TestDrawFrame(t *testing.T) {
	w := invasion.NewWorld(invasion.DefaultShipConfig(), invasion.Rules{Seed: 1}, nil)
	c := newMockCanvas(56, 32+hudRows)

	drawFrame(c, w.Drawables(), HUD{Score: 12340, Health: 3, State: "running", Banner: "PAUSED"})

	if c.count('^') == 0 {
		t.Error("ship not drawn")
	}
	if c.count('W') == 0 || c.count('M') == 0 {
		t.Error("invader rows not drawn")
	}
	hud := c.row(32 + 1)
	if !strings.Contains(hud, "SCORE 12,340") || !strings.Contains(hud, "SHIPS 3") {
		t.Errorf("unexpected hud %q", hud)
	}
	if !strings.Contains(c.row(16), "PAUSED") {
		t.Errorf("banner missing from %q", c.row(16))
	}
}

func TestDrawFrameTinyScreen(t *testing.T) {
	c := newMockCanvas(10, 1)
	drawFrame(c, nil, HUD{})
	if len(c.cells) != 0 {
		t.Error("nothing should be drawn without room for the field")
	}
}
