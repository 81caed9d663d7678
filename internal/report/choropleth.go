package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/dog-bite-report/internal/adapter/shapefile"
)

// Choropleth dimensions. Height is derived from the boundary aspect ratio so
// the city isn't stretched.
const choroplethWidth = 800.0

// WriteChoropleth renders one boundary layer shaded by incident count and
// returns the keys present in counts that had no matching boundary feature.
// Unmatched keys are skipped, not fatal: the caller decides whether the gap
// is worth reporting.
func WriteChoropleth(path, title string, set *shapefile.BoundarySet, counts map[string]int) ([]string, error) {
	svg, unmatched := choroplethSVG(title, set, counts)
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		return unmatched, fmt.Errorf("write choropleth: %w", err)
	}
	return unmatched, nil
}

func choroplethSVG(title string, set *shapefile.BoundarySet, counts map[string]int) (string, []string) {
	matched := make(map[string]bool, len(counts))
	maxCount := 0
	for key, c := range counts {
		if set.Has(key) {
			matched[key] = true
			if c > maxCount {
				maxCount = c
			}
		}
	}
	var unmatched []string
	for key := range counts {
		if !matched[key] {
			unmatched = append(unmatched, key)
		}
	}

	lonSpan := set.MaxLon - set.MinLon
	latSpan := set.MaxLat - set.MinLat
	if lonSpan == 0 || latSpan == 0 {
		lonSpan, latSpan = 1, 1
	}
	height := choroplethWidth * latSpan / lonSpan
	scaleX := choroplethWidth / lonSpan
	scaleY := height / latSpan

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		choroplethWidth, height+30, choroplethWidth, height+30)
	fmt.Fprintf(&b, `<text x="10" y="20" font-family="sans-serif" font-size="16">%s</text>`+"\n", title)

	for _, boundary := range set.Boundaries {
		count := counts[boundary.Key]
		var path strings.Builder
		for _, ring := range boundary.Rings {
			for i, pt := range ring {
				x := (pt[0] - set.MinLon) * scaleX
				// SVG y grows downward; latitude grows upward.
				y := (set.MaxLat-pt[1])*scaleY + 30
				if i == 0 {
					fmt.Fprintf(&path, "M%.2f %.2f", x, y)
				} else {
					fmt.Fprintf(&path, "L%.2f %.2f", x, y)
				}
			}
			path.WriteString("Z")
		}
		fmt.Fprintf(&b, `<path d="%s" fill="%s" stroke="#333" stroke-width="0.5"><title>%s: %d</title></path>`+"\n",
			path.String(), fillColor(count, maxCount), boundary.Key, count)
	}

	b.WriteString("</svg>\n")
	return b.String(), unmatched
}

// fillColor interpolates from near-white to deep red by count share.
func fillColor(count, maxCount int) string {
	if maxCount == 0 || count == 0 {
		return "#f7f7f7"
	}
	share := float64(count) / float64(maxCount)
	// #fee5d9 -> #a50f15
	r := int(254 + share*(165-254))
	g := int(229 + share*(15-229))
	bl := int(217 + share*(21-217))
	return fmt.Sprintf("#%02x%02x%02x", r, g, bl)
}
