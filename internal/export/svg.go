// Package export renders run histories as standalone SVG charts.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrTooFewPoints = errors.New("export: a chart needs at least two points")

// Chart is a single line series drawn on a dark background.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int
	Stroke string
}

func DefaultChart(title string) Chart {
	return Chart{Title: title, Width: 800, Height: 400, Stroke: "#00a8cc"}
}

const margin = 50.0

type bounds struct{ min, max float64 }

func span(v []float64) bounds {
	b := bounds{v[0], v[0]}
	for _, x := range v {
		if x < b.min {
			b.min = x
		}
		if x > b.max {
			b.max = x
		}
	}
	r := b.max - b.min
	if r == 0 {
		r = 1
	}
	b.min -= r * 0.05
	b.max += r * 0.05
	return b
}

func (b bounds) scale(v, length float64) float64 {
	return (v - b.min) / (b.max - b.min) * length
}

// SeriesToSVG plots ys against xs. Extra points in the longer slice are
// ignored.
func (c Chart) SeriesToSVG(xs, ys []float64) (string, error) {
	n := min(len(xs), len(ys))
	if n < 2 {
		return "", ErrTooFewPoints
	}
	xs, ys = xs[:n], ys[:n]
	bx, by := span(xs), span(ys)

	plotW := float64(c.Width) - 2*margin
	plotH := float64(c.Height) - 2*margin

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, c.Width, c.Height, c.Width, c.Height))

	sb.WriteString(fmt.Sprintf(`<text x="%.0f" y="%.0f" fill="#e0f0ff" font-family="monospace" font-size="14">%s</text>
`, margin, margin/2, escape(c.Title)))
	sb.WriteString(fmt.Sprintf(`<g stroke="#335577" fill="none"><rect x="%.0f" y="%.0f" width="%.0f" height="%.0f"/></g>
`, margin, margin, plotW, plotH))

	sb.WriteString(fmt.Sprintf(`<g fill="#4488aa" font-family="monospace" font-size="11">
<text x="%.0f" y="%.0f">%.4g</text>
<text x="%.0f" y="%.0f" text-anchor="end">%.4g</text>
<text x="%.0f" y="%.0f">%.4g</text>
<text x="%.0f" y="%.0f">%.4g</text>
<text x="%.0f" y="%.0f" text-anchor="middle">%s</text>
<text x="4" y="%.0f">%s</text>
</g>
`,
		margin, margin+plotH+15, bx.min,
		margin+plotW, margin+plotH+15, bx.max,
		4.0, margin+plotH, by.min,
		4.0, margin+10, by.max,
		margin+plotW/2, margin+plotH+35, escape(c.XLabel),
		margin+plotH/2, escape(c.YLabel)))

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, c.Stroke))
	for i := range xs {
		x := margin + bx.scale(xs[i], plotW)
		y := margin + plotH - by.scale(ys[i], plotH)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String(), nil
}

// WriteSVG writes the chart of ys against xs to w.
func (c Chart) WriteSVG(w io.Writer, xs, ys []float64) error {
	svg, err := c.SeriesToSVG(xs, ys)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, svg)
	return err
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
