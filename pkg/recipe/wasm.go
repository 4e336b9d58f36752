package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// WasmSource runs a WebAssembly module as a data source.
//
// The module exports a memory, the globals input_ptr, input_cap,
// output_ptr and output_cap, and a function run(input_len) returning the
// output length. The host writes the JSON-encoded params at input_ptr and
// reads a JSON object of props from output_ptr. Each fetch instantiates a
// fresh module, and execution stops when ctx is done.
type WasmSource struct {
	Path string

	once     sync.Once
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	err      error
}

// NewWasmSource returns a source backed by the module at path. The module
// is compiled on first fetch.
func NewWasmSource(path string) *WasmSource {
	return &WasmSource{Path: path}
}

// NewWasmSourceFromBytes compiles module immediately.
func NewWasmSourceFromBytes(ctx context.Context, module []byte) (*WasmSource, error) {
	s := &WasmSource{Path: "<memory>"}
	s.compile(ctx, module)
	if s.err != nil {
		return nil, s.err
	}
	s.once.Do(func() {})
	return s, nil
}

func (s *WasmSource) compile(ctx context.Context, module []byte) {
	s.runtime = wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	s.compiled, s.err = s.runtime.CompileModule(ctx, module)
	if s.err != nil {
		s.err = fmt.Errorf("compile %s: %w", s.Path, s.err)
		_ = s.runtime.Close(ctx)
		s.runtime = nil
	}
}

// Fetch runs the module once.
func (s *WasmSource) Fetch(ctx context.Context, params Props) (Props, error) {
	s.once.Do(func() {
		module, err := os.ReadFile(s.Path)
		if err != nil {
			s.err = fmt.Errorf("read module: %w", err)
			return
		}
		s.compile(context.Background(), module)
	})
	if s.err != nil {
		return nil, s.err
	}

	input, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	mod, err := s.runtime.InstantiateModule(ctx, s.compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", s.Path, err)
	}
	defer mod.Close(context.Background())

	inputPtr, inputCap, err := globalPair(mod, "input_ptr", "input_cap")
	if err != nil {
		return nil, err
	}
	outputPtr, outputCap, err := globalPair(mod, "output_ptr", "output_cap")
	if err != nil {
		return nil, err
	}
	run := mod.ExportedFunction("run")
	if run == nil {
		return nil, fmt.Errorf("%s: module must export run", s.Path)
	}

	if uint64(len(input)) > inputCap {
		return nil, fmt.Errorf("%s: params too large (%d > %d bytes)", s.Path, len(input), inputCap)
	}
	if !mod.Memory().Write(inputPtr, input) {
		return nil, fmt.Errorf("%s: could not write input", s.Path)
	}

	res, err := run.Call(ctx, uint64(len(input)))
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", s.Path, err)
	}
	if len(res) == 0 || res[0] > outputCap {
		return nil, fmt.Errorf("%s: invalid output length", s.Path)
	}
	out, ok := mod.Memory().Read(outputPtr, uint32(res[0]))
	if !ok {
		return nil, fmt.Errorf("%s: output out of range", s.Path)
	}

	var props Props
	if err := json.Unmarshal(out, &props); err != nil {
		return nil, fmt.Errorf("decode output of %s: %w", s.Path, err)
	}
	return props, nil
}

// Close releases the compiled module and runtime.
func (s *WasmSource) Close(ctx context.Context) error {
	if s.runtime == nil {
		return nil
	}
	return s.runtime.Close(ctx)
}

func globalPair(mod api.Module, ptrName, capName string) (uint32, uint64, error) {
	ptr := mod.ExportedGlobal(ptrName)
	capacity := mod.ExportedGlobal(capName)
	if ptr == nil || capacity == nil {
		return 0, 0, fmt.Errorf("module must export %s and %s", ptrName, capName)
	}
	if mod.Memory() == nil {
		return 0, 0, fmt.Errorf("module must export memory")
	}
	return uint32(ptr.Get()), capacity.Get(), nil
}
