package modeler

import "github.com/hlop3z/erdlab/internal/model"

// gridPosition places the entity at index on a grid centred on the viewport.
// With three columns the middle column sits on the centre and the first row
// one cell above it.
func (e *Engine) gridPosition(index int) model.Position {
	perRow := e.cfg.EntitiesPerRow
	row := index / perRow
	col := index % perRow

	cx := e.cfg.ViewportWidth / 2
	cy := e.cfg.ViewportHeight / 2
	mid := float64(perRow-1) / 2

	return model.Position{
		X: cx + (float64(col)-mid)*e.cfg.GridSpacing,
		Y: cy + float64(row-1)*e.cfg.GridSpacing,
	}
}
