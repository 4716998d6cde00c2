package onnx

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ConfigKeySharedLibraryPath path to the onnxruntime shared library (onnxruntime.so / .dylib / .dll). If empty,
// the default name is looked up by the dynamic loader.
const ConfigKeySharedLibraryPath = "onnxSharedLibraryPath"

var (
	environmentMutex sync.Mutex
	environmentUsers int
)

// Environment a handle to the process-wide onnxruntime environment. Every model holds one and releases it when
// closed; the environment is destroyed together with the last model.
type Environment struct {
	once sync.Once
}

// AcquireEnvironment initializes the environment on first use. `sharedLibraryPath` only matters for the first call.
func AcquireEnvironment(sharedLibraryPath string) (*Environment, error) {
	environmentMutex.Lock()
	defer environmentMutex.Unlock()
	if environmentUsers == 0 {
		if sharedLibraryPath != "" {
			ort.SetSharedLibraryPath(sharedLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	environmentUsers++
	return &Environment{}, nil
}

// Release is idempotent.
func (e *Environment) Release() {
	e.once.Do(func() {
		environmentMutex.Lock()
		defer environmentMutex.Unlock()
		environmentUsers--
		if environmentUsers == 0 {
			_ = ort.DestroyEnvironment()
		}
	})
}
