package render

// OpKind names a recorded drawing operation
type OpKind string

const (
	OpReset    OpKind = "reset"
	OpClear    OpKind = "clear"
	OpFillRect OpKind = "fillRect"
	OpLine     OpKind = "line"
	OpCircle   OpKind = "circle"
	OpText     OpKind = "text"
)

// Op is one recorded drawing call
type Op struct {
	Kind   OpKind
	Coords []float64
	Color  Color
	Text   string
	Align  Align
}

// Recorder is a Surface that keeps a log of the calls made on it
type Recorder struct {
	Width      int
	Height     int
	PixelRatio float64
	Ops        []Op
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Reset(width, height int, pixelRatio float64) {
	r.Width, r.Height, r.PixelRatio = width, height, pixelRatio
	r.Ops = r.Ops[:0]
	r.Ops = append(r.Ops, Op{Kind: OpReset, Coords: []float64{float64(width), float64(height), pixelRatio}})
}

func (r *Recorder) Clear(bg Color) {
	r.Ops = append(r.Ops, Op{Kind: OpClear, Color: bg})
}

func (r *Recorder) FillRect(x, y, w, h float64, c Color) {
	r.Ops = append(r.Ops, Op{Kind: OpFillRect, Coords: []float64{x, y, w, h}, Color: c})
}

func (r *Recorder) Line(x1, y1, x2, y2 float64, c Color) {
	r.Ops = append(r.Ops, Op{Kind: OpLine, Coords: []float64{x1, y1, x2, y2}, Color: c})
}

func (r *Recorder) Circle(x, y, radius float64, c Color) {
	r.Ops = append(r.Ops, Op{Kind: OpCircle, Coords: []float64{x, y, radius}, Color: c})
}

func (r *Recorder) Text(x, y float64, s string, c Color, align Align) {
	r.Ops = append(r.Ops, Op{Kind: OpText, Coords: []float64{x, y}, Color: c, Text: s, Align: align})
}

// Count returns the number of recorded operations of kind
func (r *Recorder) Count(kind OpKind) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Filter returns the recorded operations of kind
func (r *Recorder) Filter(kind OpKind) []Op {
	var ops []Op
	for _, op := range r.Ops {
		if op.Kind == kind {
			ops = append(ops, op)
		}
	}
	return ops
}

// Texts returns the labels drawn, in order
func (r *Recorder) Texts() []string {
	var texts []string
	for _, op := range r.Ops {
		if op.Kind == OpText {
			texts = append(texts, op.Text)
		}
	}
	return texts
}
