package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopRenderHooks{}
	r.OnFormatStart(ctx, "weather", "png")
	r.OnFormatComplete(ctx, "weather", "png", time.Second, nil)
	r.OnSlotComplete(ctx, "q1", "weather", time.Second, errors.New("boom"))

	d := NoopDitherHooks{}
	d.OnDither(ctx, 800, 480, 2, time.Millisecond, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "config")
	c.OnCacheMiss(ctx, "props")
	c.OnCacheSet(ctx, "render", 1024)

	f := NoopFetchHooks{}
	f.OnFetchStart(ctx, "weather")
	f.OnFetchComplete(ctx, "weather", time.Second, nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Render().(NoopRenderHooks); !ok {
		t.Error("Render() should return NoopRenderHooks by default")
	}
	if _, ok := Dither().(NoopDitherHooks); !ok {
		t.Error("Dither() should return NoopDitherHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Fetch().(NoopFetchHooks); !ok {
		t.Error("Fetch() should return NoopFetchHooks by default")
	}

	customRender := &testRenderHooks{}
	SetRenderHooks(customRender)
	if Render() != customRender {
		t.Error("SetRenderHooks should set custom hooks")
	}

	customDither := &testDitherHooks{}
	SetDitherHooks(customDither)
	if Dither() != customDither {
		t.Error("SetDitherHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customFetch := &testFetchHooks{}
	SetFetchHooks(customFetch)
	if Fetch() != customFetch {
		t.Error("SetFetchHooks should set custom hooks")
	}

	Reset()
	if _, ok := Render().(NoopRenderHooks); !ok {
		t.Error("Reset() should restore NoopRenderHooks")
	}
	if _, ok := Fetch().(NoopFetchHooks); !ok {
		t.Error("Reset() should restore NoopFetchHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testRenderHooks{}
	SetRenderHooks(custom)
	SetRenderHooks(nil)

	if Render() != custom {
		t.Error("SetRenderHooks(nil) should be ignored")
	}

	Reset()
}

type testRenderHooks struct{ NoopRenderHooks }
type testDitherHooks struct{ NoopDitherHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testFetchHooks struct{ NoopFetchHooks }
