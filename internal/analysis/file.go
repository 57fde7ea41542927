package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dermascan/dermascan-go/internal/conf"
	"github.com/dermascan/dermascan-go/internal/errors"
)

// FileAnalysis conducts an analysis of a single lesion image and prints the
// result as JSON. The record is persisted like any API submission.
func FileAnalysis(ctx context.Context, settings *conf.Settings) error {
	if err := validateImageFile(settings.Input.Path); err != nil {
		return err
	}

	pipeline, store, err := Bootstrap(settings, nil, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			pipeline.logger().Error("failed to close datastore", "error", err)
		}
	}()

	data, err := os.ReadFile(settings.Input.Path)
	if err != nil {
		return errors.Wrap(err).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("path", settings.Input.Path).
			Build()
	}

	result, err := pipeline.Analyze(ctx, Request{
		ImageData:       data,
		ImageName:       filepath.Base(settings.Input.Path),
		PatientUsername: settings.Input.Username,
		BodyLocation:    settings.Input.Location,
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err).
			Component("analysis").
			Category(errors.CategoryGeneric).
			Build()
	}
	fmt.Println(string(out))

	return nil
}

// validateImageFile checks if the provided path is a readable, non-empty file.
func validateImageFile(filePath string) error {
	if filePath == "" {
		return errors.New(errors.ErrEmptyInput).
			Component("analysis").
			Category(errors.CategoryValidation).
			Context("flag", "input").
			Build()
	}

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return errors.Wrap(err).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("path", filePath).
			Build()
	}

	if fileInfo.IsDir() {
		return errors.Newf("path %s is a directory, not a file", filePath).
			Component("analysis").
			Category(errors.CategoryValidation).
			Build()
	}

	if fileInfo.Size() == 0 {
		return errors.Newf("file %s is empty", filepath.Base(filePath)).
			Component("analysis").
			Category(errors.CategoryValidation).
			Build()
	}

	return nil
}
