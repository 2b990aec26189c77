package texquad

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// maxImageBytes bounds a single fetched image payload.
const maxImageBytes = 64 << 20

// Image is decoded pixel data ready for upload: 8-bit RGBA, alpha
// premultiplied, top row first.
type Image struct {
	RGBA          *image.RGBA
	Width, Height int
}

// Pix returns the raw pixel bytes.
func (img *Image) Pix() []byte {
	return img.RGBA.Pix
}

// NewImage converts src to an Image. Empty images are rejected.
func NewImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("image has zero size %dx%d", b.Dx(), b.Dy())
	}
	rgba, ok := src.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	}
	return &Image{RGBA: rgba, Width: b.Dx(), Height: b.Dy()}, nil
}

// DecodeImage sniffs and decodes an encoded image payload.
func DecodeImage(data []byte) (*Image, error) {
	if !filetype.IsImage(data) {
		kind, _ := filetype.Match(data)
		return nil, fmt.Errorf("payload is not an image (detected %s)", kind.Extension)
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	img, err := NewImage(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", format, err)
	}
	return img, nil
}

// Loader fetches image resources in the background.
type Loader struct {
	fsys    fs.FS
	client  *http.Client
	timeout time.Duration
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFS sets the filesystem non-URL refs are resolved against
// (typically the embedded asset bundle).
func WithFS(fsys fs.FS) LoaderOption {
	return func(l *Loader) { l.fsys = fsys }
}

// WithHTTPClient sets the client used for http(s) refs. The client's cookie
// jar is dropped so fetches stay anonymous. A nil client selects a default one.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) {
		if c == nil {
			c = &http.Client{}
		}
		anon := *c
		anon.Jar = nil
		l.client = &anon
	}
}

// WithLoadTimeout bounds how long a load may stay unresolved. Zero disables
// the bound.
func WithLoadTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) { l.timeout = d }
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{client: &http.Client{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Pending is a single-resolution image load.
type Pending struct {
	ref    string
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc
	mu     sync.Mutex
	timer  *time.Timer

	img *Image
	err error
}

// Load starts fetching ref on a background goroutine. ref is either an
// http(s) URL or a path inside the loader's filesystem. The returned Pending
// resolves exactly once; load failures resolve with *TextureLoadError and an
// expired timeout with *TextureLoadTimeout. There is no retry.
func (l *Loader) Load(ctx context.Context, ref string) *Pending {
	fetchCtx, cancel := context.WithCancel(ctx)
	p := &Pending{ref: ref, done: make(chan struct{}), cancel: cancel}

	if l.timeout > 0 {
		after := l.timeout
		p.mu.Lock()
		p.timer = time.AfterFunc(after, func() {
			p.resolve(nil, &TextureLoadTimeout{Ref: ref, After: after})
		})
		p.mu.Unlock()
	}

	go func() {
		img, err := l.fetch(fetchCtx, ref)
		if err != nil {
			p.resolve(nil, &TextureLoadError{Ref: ref, Err: err})
			return
		}
		p.resolve(img, nil)
	}()

	return p
}

func (p *Pending) resolve(img *Image, err error) {
	p.once.Do(func() {
		p.img, p.err = img, err
		p.cancel()
		p.mu.Lock()
		if p.timer != nil {
			p.timer.Stop()
		}
		p.mu.Unlock()
		close(p.done)
	})
}

// Ref returns the resource reference being loaded.
func (p *Pending) Ref() string { return p.ref }

// Done is closed once the load resolves.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait suspends until the load resolves or ctx ends. Ending ctx abandons the
// wait without resolving the load.
func (p *Pending) Wait(ctx context.Context) (*Image, error) {
	select {
	case <-p.done:
		return p.img, p.err
	case <-ctx.Done():
		return nil, &TextureLoadError{Ref: p.ref, Err: ctx.Err()}
	}
}

func (l *Loader) fetch(ctx context.Context, ref string) (*Image, error) {
	data, err := l.read(ctx, ref)
	if err != nil {
		return nil, err
	}
	return DecodeImage(data)
}

func (l *Loader) read(ctx context.Context, ref string) ([]byte, error) {
	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return l.get(ctx, u)
	}
	if l.fsys == nil {
		return nil, errors.New("no filesystem configured for asset refs")
	}
	name := path.Clean(strings.TrimPrefix(ref, "/"))
	return fs.ReadFile(l.fsys, name)
}

// get performs an anonymous fetch: URL user info is stripped and no
// credentials or cookies are sent.
func (l *Loader) get(ctx context.Context, u *url.URL) ([]byte, error) {
	anon := *u
	anon.User = nil

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, anon.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	return data, nil
}
