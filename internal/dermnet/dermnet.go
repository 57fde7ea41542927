// Package dermnet wraps the DermNET TensorFlow Lite skin lesion classifier.
package dermnet

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	tflite "github.com/tphakala/go-tflite"
	"github.com/tphakala/go-tflite/delegates/xnnpack"

	"github.com/dermascan/dermascan-go/internal/conf"
	"github.com/dermascan/dermascan-go/internal/errors"
	"github.com/dermascan/dermascan-go/internal/imageproc"
)

// DefaultModelFileName is the model file looked up in the standard paths
// when no explicit model path is configured.
const DefaultModelFileName = "dermnet_ham10000_fp32.tflite"

// DermNET represents the lesion classifier with its interpreter and
// configuration. The model is loaded exactly once at process start and
// lives for the lifetime of the process.
type DermNET struct {
	Settings *conf.Settings

	interpreter *tflite.Interpreter
	classes     []Class
	mu          sync.Mutex
}

// New initializes a new DermNET instance with the given settings. The
// returned classifier is ready to serve predictions; any failure here is
// fatal for startup.
func New(settings *conf.Settings) (*DermNET, error) {
	dn := &DermNET{
		Settings: settings,
		classes:  ClassTable(),
	}

	if settings.DermNET.LabelPath != "" {
		classes, err := LoadClassTable(settings.DermNET.LabelPath)
		if err != nil {
			return nil, errors.Wrap(err).
				Context("operation", "load-class-table").
				Build()
		}
		dn.classes = classes
	}

	if err := dn.initializeModel(); err != nil {
		return nil, errors.Wrap(fmt.Errorf("DermNET: failed to initialize model: %w", err)).
			Component("dermnet").
			Category(errors.CategoryModelInit).
			Build()
	}

	if err := dn.validateModelAndClasses(); err != nil {
		return nil, err
	}

	return dn, nil
}

// initializeModel loads and initializes the TensorFlow Lite model.
func (dn *DermNET) initializeModel() error {
	start := time.Now()

	modelData, modelPath, err := dn.loadModel()
	if err != nil {
		return errors.Wrap(err).
			Category(errors.CategoryModelLoad).
			Timing("model-load", time.Since(start)).
			Build()
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return errors.Newf("cannot load TensorFlow Lite model from %s", modelPath).
			Component("dermnet").
			Category(errors.CategoryModelInit).
			Context("model_size_mb", len(modelData)/1024/1024).
			Context("use_xnnpack", dn.Settings.DermNET.UseXNNPACK).
			Build()
	}

	threads := dn.determineThreadCount(dn.Settings.DermNET.Threads)

	options := tflite.NewInterpreterOptions()

	log := getLogger()
	if dn.Settings.DermNET.UseXNNPACK {
		delegate := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads-1))}) //nolint:gosec // G115: thread count bounded by CPU count, safe conversion
		if delegate == nil {
			log.Warn("Failed to create XNNPACK delegate, falling back to default CPU")
			options.SetNumThread(threads)
		} else {
			options.AddDelegate(delegate)
			options.SetNumThread(1)
		}
	} else {
		options.SetNumThread(threads)
	}

	options.SetErrorReporter(func(msg string, userData any) {
		getLogger().Error("TFLite error", "message", msg)
	}, nil)

	dn.interpreter = tflite.NewInterpreter(model, options)
	if dn.interpreter == nil {
		return fmt.Errorf("cannot create interpreter")
	}
	if status := dn.interpreter.AllocateTensors(); status != tflite.OK {
		return fmt.Errorf("tensor allocation failed")
	}

	// The model data is no longer needed, TFLite keeps its own copy
	runtime.GC()

	log.Info("DermNET model initialized",
		"model", filepath.Base(modelPath),
		"threads", threads,
		"total_cpus", runtime.NumCPU(),
		"input_size", dn.Settings.DermNET.InputSize)

	return nil
}

// loadModel reads the model file from the configured path, falling back to
// the standard search paths.
func (dn *DermNET) loadModel() (data []byte, path string, err error) {
	if modelPath := dn.Settings.DermNET.ModelPath; modelPath != "" {
		modelPath = os.ExpandEnv(modelPath)
		if strings.HasPrefix(modelPath, "~/") {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, "", errors.New(err).
					Component("dermnet").
					Category(errors.CategoryFileIO).
					Context("path", modelPath).
					Build()
			}
			modelPath = filepath.Join(homeDir, modelPath[2:])
		}

		data, err := os.ReadFile(modelPath) //nolint:gosec // G304: modelPath is from application settings
		if err != nil {
			return nil, "", errors.New(err).
				Component("dermnet").
				Category(errors.CategoryFileIO).
				Context("path", modelPath).
				Build()
		}
		return data, modelPath, nil
	}

	return tryLoadModelFromStandardPaths(DefaultModelFileName)
}

// tryLoadModelFromStandardPaths searches the config directories and the
// working directory for the named model file.
func tryLoadModelFromStandardPaths(fileName string) (data []byte, path string, err error) {
	var searched []string

	configPaths, pathErr := conf.GetDefaultConfigPaths()
	if pathErr == nil {
		for _, dir := range configPaths {
			candidate := filepath.Join(dir, "model", fileName)
			searched = append(searched, candidate)
			if data, err := os.ReadFile(candidate); err == nil { //nolint:gosec // G304: fixed file name under config paths
				return data, candidate, nil
			}
		}
	}

	candidate := filepath.Join("model", fileName)
	searched = append(searched, candidate)
	if data, err := os.ReadFile(candidate); err == nil { //nolint:gosec // G304: fixed file name under working directory
		return data, candidate, nil
	}

	return nil, "", errors.Newf("model file %s not found in standard paths", fileName).
		Component("dermnet").
		Category(errors.CategoryModelLoad).
		Context("searched_paths", strings.Join(searched, ", ")).
		Build()
}

// determineThreadCount calculates the number of interpreter threads based
// on settings and system capacity.
func (dn *DermNET) determineThreadCount(configuredThreads int) int {
	systemCPUCount := runtime.NumCPU()
	if configuredThreads <= 0 || configuredThreads > systemCPUCount {
		return systemCPUCount
	}
	return configuredThreads
}

// validateModelAndClasses verifies that the model's output size matches the
// class table. A mismatch is a configuration defect and aborts startup.
func (dn *DermNET) validateModelAndClasses() error {
	outputTensor := dn.interpreter.GetOutputTensor(0)
	if outputTensor == nil {
		return errors.Newf("cannot get output tensor from model").
			Component("dermnet").
			Category(errors.CategoryValidation).
			Build()
	}

	modelOutputSize := outputTensor.Dim(outputTensor.NumDims() - 1)
	classCount := len(dn.classes)

	if classCount != modelOutputSize {
		return errors.New(errors.Join(errors.ErrClassTableMismatch,
			fmt.Errorf("model predicts %d classes but class table has %d entries", modelOutputSize, classCount))).
			Component("dermnet").
			Category(errors.CategoryValidation).
			Context("model_classes", modelOutputSize).
			Context("table_classes", classCount).
			Build()
	}

	return nil
}

// Classes returns the ordered class table loaded for this model.
func (dn *DermNET) Classes() []Class {
	out := make([]Class, len(dn.classes))
	copy(out, dn.classes)
	return out
}

// Predict performs inference on a normalized image tensor and returns the
// raw probability vector. The interpreter is not safe for concurrent
// invocation, a mutex serializes access so callers need no external locking.
func (dn *DermNET) Predict(tensor *imageproc.Tensor) ([]float32, error) {
	if dn == nil || dn.interpreter == nil {
		return nil, errors.New(errors.ErrModelNotLoaded).
			Component("dermnet").
			Category(errors.CategoryState).
			Build()
	}

	dn.mu.Lock()
	defer dn.mu.Unlock()

	inputTensor := dn.interpreter.GetInputTensor(0)
	if inputTensor == nil {
		return nil, errors.Newf("cannot get input tensor").
			Component("dermnet").
			Category(errors.CategoryInference).
			Build()
	}

	copy(inputTensor.Float32s(), tensor.Data)

	start := time.Now()
	if status := dn.interpreter.Invoke(); status != tflite.OK {
		return nil, errors.Newf("tensor invoke failed: %v", status).
			Component("dermnet").
			Category(errors.CategoryInference).
			Timing("invoke", time.Since(start)).
			Build()
	}

	outputTensor := dn.interpreter.GetOutputTensor(0)
	return extractPredictions(outputTensor), nil
}

// extractPredictions copies prediction results out of the output tensor.
func extractPredictions(tensor *tflite.Tensor) []float32 {
	predSize := tensor.Dim(tensor.NumDims() - 1)
	predictions := make([]float32, predSize)
	copy(predictions, tensor.Float32s())
	return predictions
}
