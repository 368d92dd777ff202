package bip

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"github.com/bluetuith-org/avrcp-controller/api/errorkinds"
)

// descriptorVersion is the image-descriptor document version.
const descriptorVersion = "1.0"

// ImageProperties is the decoded image-properties XML response of a
// GetImageProperties request.
type ImageProperties struct {
	XMLName xml.Name `xml:"image-properties"`

	Version string `xml:"version,attr"`
	Handle  string `xml:"handle,attr"`

	Native   []ImageFormat `xml:"native"`
	Variants []ImageFormat `xml:"variant"`
}

// ImageFormat is one offered image variant of an image-properties
// document.
type ImageFormat struct {
	Encoding       string `xml:"encoding,attr"`
	Pixel          string `xml:"pixel,attr"`
	Size           int64  `xml:"size,attr,omitempty"`
	Transformation string `xml:"transformation,attr,omitempty"`
}

// ParseImageProperties decodes an image-properties XML payload.
func ParseImageProperties(payload []byte) (*ImageProperties, error) {
	var props ImageProperties

	if err := xml.Unmarshal(payload, &props); err != nil {
		return nil, fault.Wrap(err, fmsg.With("cannot parse image-properties payload"))
	}

	return &props, nil
}

// formats returns the offered variants in listed-preference order,
// with the native format first.
func (p *ImageProperties) formats() []ImageFormat {
	formats := make([]ImageFormat, 0, len(p.Native)+len(p.Variants))
	formats = append(formats, p.Native...)
	formats = append(formats, p.Variants...)

	return formats
}

// ImageDescriptor is the image-descriptor XML document sent with a
// GetImage request.
type ImageDescriptor struct {
	XMLName xml.Name `xml:"image-descriptor"`

	Version string          `xml:"version,attr"`
	Image   DescriptorImage `xml:"image"`
}

// DescriptorImage is the single image element of an image-descriptor.
type DescriptorImage struct {
	Encoding       string `xml:"encoding,attr"`
	Pixel          string `xml:"pixel,attr"`
	MaxSize        int64  `xml:"maxsize,attr,omitempty"`
	Transformation string `xml:"transformation,attr,omitempty"`
}

// Encode serializes the descriptor to an UTF-8 XML document.
func (d *ImageDescriptor) Encode() ([]byte, error) {
	data, err := xml.Marshal(d)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("cannot encode image-descriptor"))
	}

	return append([]byte(xml.Header), data...), nil
}

// pixelSpec is a parsed pixel attribute: either fixed dimensions or an
// inclusive dimension range.
type pixelSpec struct {
	fixed  bool
	w, h   int
	w2, h2 int
}

// contains reports whether the spec covers the provided dimensions.
func (p pixelSpec) contains(w, h int) bool {
	if p.fixed {
		return w <= p.w && h <= p.h
	}

	return w >= p.w && w <= p.w2 && h >= p.h && h <= p.h2
}

// parsePixel parses a BIP pixel attribute. Fixed specs are "W*H";
// ranges are "W1*H1-W2*H2", where the low bound may use the "W1**"
// wildcard aspect form, deriving the low height from the high bound's
// aspect ratio, or the per-dimension "W1-W2*H1-H2" form with one
// "low-high" bound per side.
func parsePixel(s string) (pixelSpec, error) {
	if ws, hs, ok := strings.Cut(s, "*"); ok && !strings.Contains(hs, "*") &&
		strings.Contains(ws, "-") && strings.Contains(hs, "-") {
		w1, w2, err := parseBound(s, ws)
		if err != nil {
			return pixelSpec{}, err
		}

		h1, h2, err := parseBound(s, hs)
		if err != nil {
			return pixelSpec{}, err
		}

		return pixelSpec{w: w1, h: h1, w2: w2, h2: h2}, nil
	}

	if strings.Count(s, "-") > 1 {
		return pixelSpec{}, fault.Wrap(errorkinds.ErrMalformedPixel,
			fmsg.With(fmt.Sprintf("pixel %q: too many range separators", s)))
	}

	low, high, isRange := strings.Cut(s, "-")
	if !isRange {
		w, h, err := parseFixed(low)
		if err != nil {
			return pixelSpec{}, err
		}

		return pixelSpec{fixed: true, w: w, h: h}, nil
	}

	w2, h2, err := parseFixed(high)
	if err != nil {
		return pixelSpec{}, err
	}

	var w1, h1 int
	if strings.HasSuffix(low, "**") {
		w1, err = strconv.Atoi(strings.TrimSuffix(low, "**"))
		if err != nil || w2 == 0 {
			return pixelSpec{}, fault.Wrap(errorkinds.ErrMalformedPixel,
				fmsg.With(fmt.Sprintf("pixel %q: bad wildcard bound", s)))
		}

		// Wildcard aspect: scale the low height proportionally
		// to the high bound's aspect ratio.
		h1 = w1 * h2 / w2
	} else {
		w1, h1, err = parseFixed(low)
		if err != nil {
			return pixelSpec{}, err
		}
	}

	return pixelSpec{w: w1, h: h1, w2: w2, h2: h2}, nil
}

// parseBound parses one "low-high" side of a per-dimension range.
func parseBound(pixel, s string) (int, int, error) {
	ls, hs, _ := strings.Cut(s, "-")

	low, err := strconv.Atoi(ls)
	if err != nil {
		return 0, 0, fault.Wrap(errorkinds.ErrMalformedPixel,
			fmsg.With(fmt.Sprintf("pixel %q: bad range bound", pixel)))
	}

	high, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fault.Wrap(errorkinds.ErrMalformedPixel,
			fmsg.With(fmt.Sprintf("pixel %q: bad range bound", pixel)))
	}

	return low, high, nil
}

// parseFixed parses a fixed "W*H" pixel form.
func parseFixed(s string) (int, int, error) {
	if strings.Count(s, "*") != 1 {
		return 0, 0, fault.Wrap(errorkinds.ErrMalformedPixel,
			fmsg.With(fmt.Sprintf("pixel %q: not a fixed W*H form", s)))
	}

	ws, hs, _ := strings.Cut(s, "*")

	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fault.Wrap(errorkinds.ErrMalformedPixel,
			fmsg.With(fmt.Sprintf("pixel %q: bad width", s)))
	}

	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fault.Wrap(errorkinds.ErrMalformedPixel,
			fmsg.With(fmt.Sprintf("pixel %q: bad height", s)))
	}

	return w, h, nil
}

// ResolveDescriptor selects the best matching image variant for the
// requested encoding and fixed "W*H" pixel spec:
//
//  1. The first variant with a matching encoding whose fixed pixel
//     spec covers the requested dimensions.
//  2. The first variant with a matching encoding whose pixel range
//     contains the requested dimensions.
//  3. If no variant matches the encoding at all, the first listed
//     (native) variant, verbatim.
//
// A malformed pixel spec anywhere in the scanned variants is a
// resolution failure.
func ResolveDescriptor(encoding, pixel string, props *ImageProperties) (*ImageDescriptor, error) {
	formats := props.formats()
	if len(formats) == 0 {
		return nil, errorkinds.ErrDescriptorResolve
	}

	reqW, reqH, err := parseFixed(pixel)
	if err != nil {
		return nil, err
	}

	var encodingMatched bool

	resolved := func(format ImageFormat) *ImageDescriptor {
		return &ImageDescriptor{
			Version: descriptorVersion,
			Image: DescriptorImage{
				Encoding:       format.Encoding,
				Pixel:          pixel,
				MaxSize:        format.Size,
				Transformation: format.Transformation,
			},
		}
	}

	// Fixed-size pass.
	for _, format := range formats {
		spec, err := parsePixel(format.Pixel)
		if err != nil {
			return nil, err
		}

		if !strings.EqualFold(format.Encoding, encoding) {
			continue
		}
		encodingMatched = true

		if spec.fixed && spec.contains(reqW, reqH) {
			return resolved(format), nil
		}
	}

	// Range pass.
	for _, format := range formats {
		if !strings.EqualFold(format.Encoding, encoding) {
			continue
		}

		spec, err := parsePixel(format.Pixel)
		if err != nil {
			return nil, err
		}

		if !spec.fixed && spec.contains(reqW, reqH) {
			return resolved(format), nil
		}
	}

	if encodingMatched {
		return nil, errorkinds.ErrDescriptorResolve
	}

	// No encoding match at all: fall back to the native format.
	native := formats[0]

	return &ImageDescriptor{
		Version: descriptorVersion,
		Image: DescriptorImage{
			Encoding:       native.Encoding,
			Pixel:          native.Pixel,
			MaxSize:        native.Size,
			Transformation: native.Transformation,
		},
	}, nil
}
