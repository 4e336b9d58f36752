package engine

import (
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontsOnce sync.Once
	regular   *text.FontSource
	bold      *text.FontSource
	fontsErr  error

	faces sync.Map // faceKey -> text.Face
)

type faceKey struct {
	size float64
	bold bool
}

func loadFonts() error {
	fontsOnce.Do(func() {
		regular, fontsErr = text.NewFontSource(goregular.TTF)
		if fontsErr != nil {
			return
		}
		bold, fontsErr = text.NewFontSource(gobold.TTF)
	})
	return fontsErr
}

// face returns a cached face. loadFonts must have succeeded.
func face(size float64, isBold bool) text.Face {
	key := faceKey{size: size, bold: isBold}
	if f, ok := faces.Load(key); ok {
		return f.(text.Face)
	}
	src := regular
	if isBold {
		src = bold
	}
	f, _ := faces.LoadOrStore(key, src.Face(size))
	return f.(text.Face)
}
