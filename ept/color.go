package ept

// colorNormalizer writes 8 bit color from Red/Green/Blue fields that may be stored at
// either 8 or 16 bit depth. The depth is decided once for the whole node.
type colorNormalizer struct {
	rgb          [3]Extractor
	twoByteColor bool
}

func newColorNormalizer(l Layout) (*colorNormalizer, error) {
	ex, err := extractorsFor(l, DimRed, DimGreen, DimBlue)
	if err != nil {
		return nil, err
	}
	return &colorNormalizer{rgb: [3]Extractor{ex[0], ex[1], ex[2]}}, nil
}

// scan sets twoByteColor if any component of any point exceeds 255. It stops at the
// first such sample.
func (cn *colorNormalizer) scan(buf []byte, stride, numPoints int) bool {
	for i := 0; i < numPoints && !cn.twoByteColor; i++ {
		base := i * stride
		for _, e := range cn.rgb {
			if e.Read(buf, base) > 255 {
				cn.twoByteColor = true
				break
			}
		}
	}
	return cn.twoByteColor
}

// write stores the color of the record at base into dst[0:3]. dst[3] is left alone.
func (cn *colorNormalizer) write(dst []uint8, buf []byte, base int) {
	for c, e := range cn.rgb {
		v := e.Read(buf, base)
		if cn.twoByteColor {
			v /= 256
		}
		dst[c] = toUint8(v)
	}
}
