package figure

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

var defaultThresholds = types.FigureFilterConfig{
	MinWidth:      100,
	MinHeight:     100,
	MinBrightness: 10,
	MaxBrightness: 245,
}

func uniform(w, h int, gray uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = gray
	}
	return img
}

// plot draws a dark diagonal on white, like a line chart
func plot(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 255, G: 255, B: 255, A: 255}
			if x*h/w == y || y%10 == 0 {
				c = color.RGBA{R: 20, G: 40, B: 160, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIsValidFigure(t *testing.T) {
	filter := NewFilter(defaultThresholds)

	tests := []struct {
		name  string
		img   image.Image
		valid bool
	}{
		{name: "plot", img: plot(300, 200), valid: true},
		{name: "minimum size", img: uniform(100, 100, 128), valid: true},
		{name: "too narrow", img: uniform(99, 400, 128)},
		{name: "too short", img: uniform(400, 99, 128)},
		{name: "black mask", img: uniform(300, 300, 5)},
		{name: "blank page", img: uniform(300, 300, 250)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := filter.IsValidFigure(tt.img)
			assert.Equal(t, tt.valid, ok, reason)
			if !tt.valid {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestMeanBrightness(t *testing.T) {
	assert.InDelta(t, 128, MeanBrightness(uniform(10, 10, 128)), 1e-9)
	assert.InDelta(t, 0, MeanBrightness(image.NewGray(image.Rect(0, 0, 0, 0))), 1e-9)
}

func TestExtract(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run-1")
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, plot(400, 300), nil))

	images := []types.RawImage{
		{Name: "p_1_logo.png", Data: encodePNG(t, uniform(40, 40, 128))},
		{Name: "p_2_Im1.png", Data: encodePNG(t, plot(640, 480))},
		{Name: "p_2_Im2.jpx", Data: []byte("jpeg2000 is not decodable")},
		{Name: "p_3_Im1.jpg", Data: jpg.Bytes()},
		{Name: "p_4_mask.png", Data: encodePNG(t, uniform(500, 500, 0))},
	}

	figures, err := NewExtractor(NewFilter(defaultThresholds), logger).Extract(images, dir)
	require.NoError(t, err)

	require.Len(t, figures, 2)
	assert.Equal(t, types.Figure{Index: 1, FileID: filepath.Join(dir, "figure_1.png"), Width: 640, Height: 480}, figures[0])
	assert.Equal(t, types.Figure{Index: 2, FileID: filepath.Join(dir, "figure_2.png"), Width: 400, Height: 300}, figures[1])

	for _, f := range figures {
		data, err := os.ReadFile(f.FileID)
		require.NoError(t, err)
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, f.Width, cfg.Width)
	}

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
			assert.Equal(t, "p_2_Im2.jpx", e.Data["image"])
		}
	}
	assert.Equal(t, 1, warnings)
}

func TestExtractNoImages(t *testing.T) {
	figures, err := NewExtractor(NewFilter(defaultThresholds), nil).Extract(nil, t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, figures)
}

func TestDecode(t *testing.T) {
	_, err := Decode([]byte("nope"))
	assert.ErrorIs(t, err, types.ErrImageDecode)
}
