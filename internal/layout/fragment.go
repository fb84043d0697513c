package layout

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedGeometry means an inline style string did not carry the
// expected absolute-position box. Callers probing many fragments treat this
// as "not a positioned div" and move on, not as a fatal error.
var ErrMalformedGeometry = fmt.Errorf("malformed geometry")

// bboxRe matches the inline style emitted by the PDF-to-HTML converter:
// "position:absolute; ... left:Npx; top:Npx; width:Npx; height:Npx".
var bboxRe = regexp.MustCompile(`left:(\d+)px.*top:(\d+)px.*width:(\d+)px.*height:(\d+)`)

// BBox is the pixel rectangle of one positioned fragment.
type BBox struct {
	Left   int
	Top    int
	Width  int
	Height int
}

func (b BBox) Right() int  { return b.Left + b.Width }
func (b BBox) Bottom() int { return b.Top + b.Height }

// ParseBBox extracts a BBox from an inline style attribute.
func ParseBBox(style string) (BBox, error) {
	m := bboxRe.FindStringSubmatch(style)
	if m == nil {
		return BBox{}, fmt.Errorf("%w: %q", ErrMalformedGeometry, truncateStyle(style))
	}
	left, _ := strconv.Atoi(m[1])
	top, _ := strconv.Atoi(m[2])
	width, _ := strconv.Atoi(m[3])
	height, _ := strconv.Atoi(m[4])
	return BBox{Left: left, Top: top, Width: width, Height: height}, nil
}

// Fragment is one positioned text unit recovered from a bill page. The PDF
// conversion flattens all semantic structure, so the bounding box and the
// document-order index are the only structure extraction can rely on.
type Fragment struct {
	BBox
	Index  int
	Text   string
	Fields []Field
}

// ContainsText reports whether the fragment's raw text contains substr.
func (f Fragment) ContainsText(substr string) bool {
	return strings.Contains(f.Text, substr)
}

func truncateStyle(s string) string {
	if len(s) <= 64 {
		return s
	}
	return s[:64] + "..."
}
