package pointcloud

import (
	"image/color"
)

// Data describes data associated single point within a PointCloud.
type Data interface {
	// HasColor returns whether or not this point is colored.
	HasColor() bool

	// RGB255 returns, if colored, the RGB components of the color.
	RGB255() (uint8, uint8, uint8)

	// Color returns the native color of the point.
	Color() color.Color

	// SetColor sets the given color on the point.
	SetColor(c color.NRGBA) Data

	// HasValue returns whether or not this point has a classification value.
	HasValue() bool

	// Value returns the classification value, if it exists.
	Value() int

	// SetValue sets the classification value on the point.
	SetValue(v int) Data

	// HasIntensity returns whether or not this point has a return intensity.
	HasIntensity() bool

	// Intensity returns the return intensity, if it exists.
	Intensity() uint16

	// SetIntensity sets the return intensity on the point.
	SetIntensity(v uint16) Data
}

type basicData struct {
	hasColor bool
	c        color.NRGBA

	hasValue bool
	value    int

	hasIntensity bool
	intensity    uint16
}

// NewBasicData returns a point that is solely positionally based.
func NewBasicData() Data {
	return &basicData{}
}

// NewColoredData returns a point that has both position and color.
func NewColoredData(c color.NRGBA) Data {
	return &basicData{c: c, hasColor: true}
}

// NewValueData returns a point that has both position and a classification value.
func NewValueData(v int) Data {
	return &basicData{value: v, hasValue: true}
}

func (bd *basicData) SetColor(c color.NRGBA) Data {
	bd.c = c
	bd.hasColor = true
	return bd
}

func (bd *basicData) HasColor() bool {
	return bd.hasColor
}

func (bd *basicData) RGB255() (uint8, uint8, uint8) {
	return bd.c.R, bd.c.G, bd.c.B
}

func (bd *basicData) Color() color.Color {
	return &bd.c
}

func (bd *basicData) SetValue(v int) Data {
	bd.hasValue = true
	bd.value = v
	return bd
}

func (bd *basicData) HasValue() bool {
	return bd.hasValue
}

func (bd *basicData) Value() int {
	return bd.value
}

func (bd *basicData) SetIntensity(v uint16) Data {
	bd.hasIntensity = true
	bd.intensity = v
	return bd
}

func (bd *basicData) HasIntensity() bool {
	return bd.hasIntensity
}

func (bd *basicData) Intensity() uint16 {
	return bd.intensity
}
