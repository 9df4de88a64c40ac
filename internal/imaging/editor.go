package imaging

import "sync"

// Editor keeps the pristine source image so every adjustment is computed
// from it rather than from the previous result. It is safe for concurrent
// use.
type Editor struct {
	mu       sync.RWMutex
	original *Raster
	current  *Raster
}

// Load replaces the source image and clears any previous result. The raster
// is copied.
func (e *Editor) Load(src *Raster) error {
	if src == nil {
		return ErrNoImageLoaded
	}
	orig := src.Clone()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.original = orig
	e.current = orig
	return nil
}

// Apply computes kind from the original image and makes it the current
// result.
func (e *Editor) Apply(kind Kind, amount float64) (*Raster, error) {
	e.mu.RLock()
	src := e.original
	e.mu.RUnlock()
	if src == nil {
		return nil, ErrNoImageLoaded
	}

	out, err := Apply(src, kind, amount)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// A Load that raced with us wins.
	if e.original == src {
		e.current = out
	}
	return out, nil
}

// Original returns the loaded image, or nil.
func (e *Editor) Original() *Raster {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.original
}

// Current returns the latest result, or the original if nothing has been
// applied since Load or Reset.
func (e *Editor) Current() *Raster {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Reset discards the current result.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = e.original
}
