package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"latency.space/orrery/shared/celestial"
)

// SVG plot constants
const (
	svgWidth         = 600
	svgHeight        = 600
	plotMargin       = 40
	plotCenterX      = svgWidth / 2
	plotCenterY      = svgHeight / 2
	plotRadius       = (svgWidth / 2) - plotMargin
	titleFontSize    = 14
	labelFontSize    = 10
	foregroundColor  = "black"
	secondaryColor   = "dimgray"
	pathColor        = "steelblue"
	pathStrokeWidth  = "1.5"
	sunRadius        = 4.0
	bodyMarkerRadius = 4.0
	minPlotExtentAU  = 1.2
)

// plotScale maps AU to pixels so that every point fits inside plotRadius.
func plotScale(points []celestial.Vector3, marker celestial.Vector3) float64 {
	extent := minPlotExtentAU
	for _, p := range points {
		extent = max(extent, math.Abs(p.X), math.Abs(p.Y))
	}
	extent = max(extent, math.Abs(marker.X), math.Abs(marker.Y))
	return plotRadius / extent
}

// toPlot projects onto the ecliptic plane, +X right and +Y up.
func toPlot(v celestial.Vector3, scale float64) (x, y float64) {
	return plotCenterX + v.X*scale, plotCenterY - v.Y*scale
}

// renderPathSVG draws a top-down ecliptic view of an orbit path with the Sun at the
// centre, a 1 AU reference ring and the body's position at the path epoch.
func renderPathSVG(body celestial.CelestialBody, path celestial.OrbitPath, pos celestial.Vector3) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg" style="background-color:white;">`, svgWidth, svgHeight))
	sb.WriteString(`<rect width="100%" height="100%" fill="white"/>`)

	if len(path.Points) < 2 {
		sb.WriteString(fmt.Sprintf(`<text x="50" y="50" fill="%s">Not enough points for an orbit plot.</text></svg>`, foregroundColor))
		return sb.String()
	}

	scale := plotScale(path.Points, pos)

	// ecliptic axes
	sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="0.5"/>`, plotMargin, plotCenterY, svgWidth-plotMargin, plotCenterY, secondaryColor))
	sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="0.5"/>`, plotCenterX, plotMargin, plotCenterX, svgHeight-plotMargin, secondaryColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="%s" font-size="%d" text-anchor="start" dominant-baseline="middle">♈</text>`, svgWidth-plotMargin+4, plotCenterY, secondaryColor, labelFontSize))

	// 1 AU reference ring
	ring := scale
	if ring <= plotRadius {
		sb.WriteString(fmt.Sprintf(`<circle cx="%d" cy="%d" r="%f" stroke="%s" stroke-width="0.5" fill="none" stroke-dasharray="4,4"/>`, plotCenterX, plotCenterY, ring, secondaryColor))
		sb.WriteString(fmt.Sprintf(`<text x="%f" y="%f" fill="%s" font-size="%d" text-anchor="start">1 AU</text>`, float64(plotCenterX)+ring*math.Sqrt2/2+3, float64(plotCenterY)-ring*math.Sqrt2/2-3, secondaryColor, labelFontSize))
	}

	sb.WriteString(fmt.Sprintf(`<circle cx="%d" cy="%d" r="%f" fill="gold" stroke="orange" stroke-width="1"/>`, plotCenterX, plotCenterY, sunRadius))

	var pts strings.Builder
	for i, p := range path.Polyline() {
		x, y := toPlot(p, scale)
		if i > 0 {
			pts.WriteByte(' ')
		}
		pts.WriteString(fmt.Sprintf("%.2f,%.2f", x, y))
	}
	sb.WriteString(fmt.Sprintf(`<polyline points="%s" stroke="%s" stroke-width="%s" fill="none"/>`, pts.String(), pathColor, pathStrokeWidth))

	bx, by := toPlot(pos, scale)
	sb.WriteString(fmt.Sprintf(`<circle cx="%f" cy="%f" r="%f" fill="darkred" stroke="black" stroke-width="0.5"/>`, bx, by, bodyMarkerRadius))
	sb.WriteString(fmt.Sprintf(`<text x="%f" y="%f" fill="darkred" font-size="%d" text-anchor="middle" dominant-baseline="text-after-edge">%s</text>`, bx, by-bodyMarkerRadius-2, labelFontSize, escapeXML(body.Name)))

	title := fmt.Sprintf("%s, JD %.1f (%s)", body.Name, path.Epoch, celestial.JDToTime(path.Epoch).Format(time.DateOnly))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="%s" font-size="%d">%s</text>`, plotMargin/2, plotMargin/2, foregroundColor, titleFontSize, escapeXML(title)))

	sb.WriteString(`</svg>`)
	return sb.String()
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
