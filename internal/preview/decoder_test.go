package preview

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/yildizm/ScanSight/internal/scan"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / (w - 1))
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func halves(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 255}
			if x >= w/2 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// pngHeader returns a grayscale PNG signature and IHDR chunk declaring w x h with no pixel data
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth; color type, compression, filter and interlace stay zero

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecoder_Decode(t *testing.T) {
	img := gradient(64, 32)

	tests := []struct {
		name       string
		data       []byte
		wantFormat string
	}{
		{"png", encodePNG(t, img), "png"},
		{"jpeg", encodeJPEG(t, img), "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Width = 16

			d, err := NewDecoder(config, nil)
			if err != nil {
				t.Fatalf("NewDecoder() error = %v", err)
			}

			p, err := d.Decode(context.Background(), &scan.SelectedFile{Name: "scan", Data: tt.data})
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if p.Format != tt.wantFormat || p.Width != 64 || p.Height != 32 {
				t.Errorf("preview = %+v", p)
			}
			if len(p.Art) != 4 {
				t.Fatalf("got %d art rows, want 4", len(p.Art))
			}
			for _, row := range p.Art {
				if len(row) != 16 {
					t.Errorf("row width = %d, want 16", len(row))
				}
			}
		})
	}
}

func TestDecoder_DarkToLight(t *testing.T) {
	d, err := NewDecoder(&Config{Enabled: true, Width: 10, CacheSize: 1}, nil)
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}

	p, err := d.Decode(context.Background(), &scan.SelectedFile{Name: "g.png", Data: encodePNG(t, halves(100, 20))})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	row := p.Art[0]
	if row[0] != ramp[0] {
		t.Errorf("leftmost glyph = %q, want %q", row[0], ramp[0])
	}
	if row[len(row)-1] != ramp[len(ramp)-1] {
		t.Errorf("rightmost glyph = %q, want %q", row[len(row)-1], ramp[len(ramp)-1])
	}
}

func TestDecoder_Invalid(t *testing.T) {
	d, _ := NewDecoder(nil, nil)

	tests := []struct {
		name string
		file *scan.SelectedFile
	}{
		{"nil", nil},
		{"empty", &scan.SelectedFile{Name: "e.png"}},
		{"truncated png", &scan.SelectedFile{Name: "t.png", Data: []byte("\x89PNG\r\n\x1a\n")}},
		{"text", &scan.SelectedFile{Name: "x.png", Data: []byte("not an image")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.Decode(context.Background(), tt.file); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func TestDecoder_CacheHit(t *testing.T) {
	d, _ := NewDecoder(nil, nil)
	data := encodePNG(t, gradient(8, 8))

	first, err := d.Decode(context.Background(), &scan.SelectedFile{Name: "a.png", Data: data})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	second, err := d.Decode(context.Background(), &scan.SelectedFile{Name: "b.png", Data: data})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if d.CacheLen() != 1 {
		t.Errorf("CacheLen() = %d, want 1", d.CacheLen())
	}
	if first.Name != "a.png" || second.Name != "b.png" {
		t.Errorf("names = %q, %q", first.Name, second.Name)
	}
}

func TestDecoder_Disabled(t *testing.T) {
	d, _ := NewDecoder(&Config{Enabled: false, Width: 10, CacheSize: 2}, nil)

	p, err := d.Decode(context.Background(), &scan.SelectedFile{Name: "a.png", Data: encodePNG(t, gradient(8, 8))})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(p.Art) != 0 {
		t.Error("art should be empty when disabled")
	}
}

func TestDecoder_CanceledContext(t *testing.T) {
	d, _ := NewDecoder(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Decode(ctx, &scan.SelectedFile{Name: "a.png", Data: encodePNG(t, gradient(8, 8))}); err == nil {
		t.Error("expected context error")
	}
}

func TestDecoder_PixelBudget(t *testing.T) {
	tests := []struct {
		name      string
		maxPixels int
		data      func(t *testing.T) []byte
		wantErr   string
	}{
		{
			name:      "within budget",
			maxPixels: 400,
			data:      func(t *testing.T) []byte { return encodePNG(t, gradient(20, 20)) },
		},
		{
			name:      "over configured budget",
			maxPixels: 399,
			data:      func(t *testing.T) []byte { return encodePNG(t, gradient(20, 20)) },
			wantErr:   "20x20, over the 399 pixel preview limit",
		},
		{
			name:      "huge header over default budget",
			maxPixels: 0,
			data:      func(t *testing.T) []byte { return pngHeader(12000, 12000) },
			wantErr:   "12000x12000",
		},
		{
			name:      "wide strip over default budget",
			maxPixels: 0,
			data:      func(t *testing.T) []byte { return pngHeader(1_000_000, 26) },
			wantErr:   "pixel preview limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDecoder(&Config{Enabled: true, Width: 10, CacheSize: 1, MaxPixels: tt.maxPixels}, nil)
			if err != nil {
				t.Fatalf("NewDecoder() error = %v", err)
			}

			p, err := d.Decode(context.Background(), &scan.SelectedFile{Name: "scan.png", Data: tt.data(t)})
			if tt.wantErr == "" {
				if err != nil || p == nil {
					t.Fatalf("Decode() = %v, %v; want a preview", p, err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected the image to be rejected")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (&Config{Width: 0, CacheSize: 1}).Validate(); err == nil {
		t.Error("expected error for zero width")
	}
	if err := (&Config{Width: 10, CacheSize: 0}).Validate(); err == nil {
		t.Error("expected error for zero cache size")
	}
	if err := (&Config{Width: 10, CacheSize: 1, MaxPixels: -1}).Validate(); err == nil {
		t.Error("expected error for negative max pixels")
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}
