// Package overlay draws recognition feedback onto preview frames.
package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/swipectl/internal/detector"
)

// Label placement and style.
var (
	LabelOrigin    = image.Point{X: 40, Y: 110}
	LabelFont      = gocv.FontHersheySimplex
	LabelScale     = 2.3
	LabelThickness = 6
	LabelColor     = color.RGBA{G: 255, A: 255}

	boneColor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	jointColor = color.RGBA{R: 255, A: 255}
	tipColor   = color.RGBA{G: 255, B: 255, A: 255}
)

// HandConnections lists the landmark pairs joined when drawing a hand.
var HandConnections = [][2]int{
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.ThumbMCP},
	{detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP}, {detector.IndexMCP, detector.IndexPIP},
	{detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.IndexMCP, detector.MiddleMCP}, {detector.MiddleMCP, detector.MiddlePIP},
	{detector.MiddlePIP, detector.MiddleDIP}, {detector.MiddleDIP, detector.MiddleTip},
	{detector.MiddleMCP, detector.RingMCP}, {detector.RingMCP, detector.RingPIP},
	{detector.RingPIP, detector.RingDIP}, {detector.RingDIP, detector.RingTip},
	{detector.RingMCP, detector.PinkyMCP}, {detector.Wrist, detector.PinkyMCP},
	{detector.PinkyMCP, detector.PinkyPIP}, {detector.PinkyPIP, detector.PinkyDIP},
	{detector.PinkyDIP, detector.PinkyTip},
}

// ToPixel maps a normalized landmark onto a width x height frame.
func ToPixel(p detector.Point3D, width, height int) image.Point {
	return image.Pt(int(p.X*float64(width)), int(p.Y*float64(height)))
}

// DrawHand draws the hand skeleton and highlights the index fingertip.
func DrawHand(frame *gocv.Mat, hand *detector.HandLandmarks) {
	if frame == nil || frame.Empty() || hand == nil {
		return
	}
	w, h := frame.Cols(), frame.Rows()

	for _, c := range HandConnections {
		gocv.Line(frame, ToPixel(hand.Points[c[0]], w, h), ToPixel(hand.Points[c[1]], w, h), boneColor, 2)
	}
	for _, p := range hand.Points {
		gocv.Circle(frame, ToPixel(p, w, h), 4, jointColor, -1)
	}
	gocv.Circle(frame, ToPixel(hand.Fingertip(), w, h), 10, tipColor, 3)
}

// DrawLabel writes a fired direction label in the top-left corner.
// An empty label draws nothing.
func DrawLabel(frame *gocv.Mat, label string) {
	if frame == nil || frame.Empty() || label == "" {
		return
	}
	gocv.PutText(frame, label, LabelOrigin, LabelFont, LabelScale, LabelColor, LabelThickness)
}
