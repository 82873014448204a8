// Package graphic lays a paper's components out on a fixed 1000x800 SVG
// canvas.
package graphic

import (
	"encoding/xml"
	"fmt"
	"strings"
	"unicode/utf8"

	"papercast/internal/components"
)

const (
	Width  = 1000
	Height = 800

	WrapWidth = 40

	itemStartY   = 80
	itemSpacing  = 40
	lineSpacing  = 20
	keywordStart = 120
	keywordStep  = 180
)

const defs = `  <defs>
    <filter id="shadow" x="-20%" y="-20%" width="140%" height="140%">
      <feGaussianBlur in="SourceAlpha" stdDeviation="4"/>
      <feOffset dx="3" dy="3"/>
      <feComponentTransfer>
        <feFuncA type="linear" slope="0.3"/>
      </feComponentTransfer>
      <feMerge>
        <feMergeNode/>
        <feMergeNode in="SourceGraphic"/>
      </feMerge>
    </filter>
    <linearGradient id="headerGrad" x1="0%" y1="0%" x2="100%" y2="0%">
      <stop offset="0%" style="stop-color:#2196F3;stop-opacity:1"/>
      <stop offset="100%" style="stop-color:#1976D2;stop-opacity:1"/>
    </linearGradient>
    <linearGradient id="methodGrad" x1="0%" y1="0%" x2="100%" y2="0%">
      <stop offset="0%" style="stop-color:#E3F2FD;stop-opacity:1"/>
      <stop offset="100%" style="stop-color:#BBDEFB;stop-opacity:1"/>
    </linearGradient>
    <linearGradient id="findingGrad" x1="0%" y1="0%" x2="100%" y2="0%">
      <stop offset="0%" style="stop-color:#E8F5E9;stop-opacity:1"/>
      <stop offset="100%" style="stop-color:#C8E6C9;stop-opacity:1"/>
    </linearGradient>
    <linearGradient id="applicationGrad" x1="0%" y1="0%" x2="100%" y2="0%">
      <stop offset="0%" style="stop-color:#FFF3E0;stop-opacity:1"/>
      <stop offset="100%" style="stop-color:#FFE0B2;stop-opacity:1"/>
    </linearGradient>
    <linearGradient id="lineGrad" x1="0%" y1="0%" x2="100%" y2="0%">
      <stop offset="0%" style="stop-color:#90CAF9;stop-opacity:0.6"/>
      <stop offset="100%" style="stop-color:#64B5F6;stop-opacity:0.6"/>
    </linearGradient>
  </defs>
`

type box struct {
	x, y          int
	width, height int
	gradient      string
	heading       string
	headingColor  string
	items         []string
	centered      bool
}

// Render draws the record. Long lists run past their box; nothing is clipped.
func Render(p components.Paper) string {
	centerX := Width / 2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		Width, Height, Width, Height)
	sb.WriteString(defs)

	fmt.Fprintf(&sb, `  <rect x="50" y="30" width="%d" height="80" rx="15" fill="url(#headerGrad)" filter="url(#shadow)"/>`+"\n", Width-100)
	fmt.Fprintf(&sb, `  <text x="%d" y="80" text-anchor="middle" fill="white" font-size="24px" font-weight="bold">%s</text>`+"\n",
		centerX, escape(p.Title))

	boxes := []box{
		{x: 100, y: 150, width: 300, height: 200, gradient: "methodGrad", heading: "Methods", headingColor: "#1565C0", items: p.Methods},
		{x: Width - 400, y: 150, width: 300, height: 200, gradient: "findingGrad", heading: "Findings", headingColor: "#2E7D32", items: p.Findings},
		{x: centerX - 200, y: 400, width: 400, height: 150, gradient: "applicationGrad", heading: "Applications", headingColor: "#E65100", items: p.Applications, centered: true},
	}
	for _, b := range boxes {
		writeBox(&sb, b)
	}

	fmt.Fprintf(&sb, `  <g transform="translate(50, %d)">`+"\n", Height-100)
	sb.WriteString(`    <text x="0" y="0" font-weight="bold" fill="#424242" font-size="18px">Keywords:</text>` + "\n")
	for i, kw := range p.Keywords {
		fmt.Fprintf(&sb, `    <text x="%d" y="0" fill="#616161" font-size="16px" font-style="italic">%s</text>`+"\n",
			keywordStart+i*keywordStep, escape(kw))
	}
	sb.WriteString("  </g>\n")

	fmt.Fprintf(&sb, `  <path d="M 400 250 Q %d 250, %d 250" stroke="url(#lineGrad)" stroke-width="3" fill="none"/>`+"\n",
		centerX, Width-400)
	fmt.Fprintf(&sb, `  <path d="M %d 350 L %d 400" stroke="url(#lineGrad)" stroke-width="3"/>`+"\n",
		centerX, centerX)
	sb.WriteString("</svg>\n")

	return sb.String()
}

func writeBox(sb *strings.Builder, b box) {
	fmt.Fprintf(sb, `  <g transform="translate(%d, %d)">`+"\n", b.x, b.y)
	fmt.Fprintf(sb, `    <rect x="0" y="0" width="%d" height="%d" rx="15" fill="url(#%s)" filter="url(#shadow)"/>`+"\n",
		b.width, b.height, b.gradient)
	fmt.Fprintf(sb, `    <text x="%d" y="40" text-anchor="middle" font-weight="bold" fill="%s" font-size="20px">%s</text>`+"\n",
		b.width/2, b.headingColor, b.heading)

	x, anchor := 20, "start"
	if b.centered {
		x, anchor = b.width/2, "middle"
	}
	for i, item := range b.items {
		y := itemStartY + i*itemSpacing
		for j, line := range Wrap(item, WrapWidth) {
			fmt.Fprintf(sb, `    <text x="%d" y="%d" text-anchor="%s" fill="#37474F" font-size="16px">%s</text>`+"\n",
				x, y+j*lineSpacing, anchor, escape(line))
		}
	}
	sb.WriteString("  </g>\n")
}

// Wrap breaks text into lines of at most width characters, splitting on
// whitespace and cutting words that are longer than a full line.
func Wrap(text string, width int) []string {
	if width <= 0 {
		width = WrapWidth
	}

	var lines []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			lines = append(lines, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > width {
			room := width - currentLen
			if currentLen > 0 {
				room--
			}
			if room <= 0 {
				flush()
				continue
			}
			head, tail := splitRunes(word, room)
			if currentLen > 0 {
				current.WriteByte(' ')
				currentLen++
			}
			current.WriteString(head)
			currentLen += room
			flush()
			word = tail
		}

		n := utf8.RuneCountInString(word)
		if currentLen > 0 && currentLen+1+n > width {
			flush()
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(word)
		currentLen += n
	}
	flush()

	return lines
}

func splitRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}

func escape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
