package render

const (
	zoomStep = 1.5
	maxZoom  = 10
)

// ViewportState is the pan/zoom state of the line chart
type ViewportState struct {
	ZoomLevel float64
	PanX      float64
	PanY      float64
}

// DefaultViewport returns the unzoomed viewport
func DefaultViewport() ViewportState {
	return ViewportState{ZoomLevel: 1}
}

// ZoomIn multiplies the zoom level by 1.5, up to 10
func (v ViewportState) ZoomIn() ViewportState {
	v.ZoomLevel = min(v.zoom()*zoomStep, maxZoom)
	return v
}

// ZoomOut divides the zoom level by 1.5, down to 1
func (v ViewportState) ZoomOut() ViewportState {
	v.ZoomLevel = max(v.zoom()/zoomStep, 1)
	return v
}

// Reset returns the unzoomed, unpanned viewport
func (v ViewportState) Reset() ViewportState {
	return DefaultViewport()
}

func (v ViewportState) zoom() float64 {
	if v.ZoomLevel < 1 {
		return 1
	}
	return v.ZoomLevel
}
