package dermnet

import (
	"bufio"
	"os"
	"strings"

	"github.com/dermascan/dermascan-go/internal/errors"
)

// Class is one entry of the fixed, ordered class table. The index of a
// class in the table corresponds to the index of its probability in the
// model output vector.
type Class struct {
	Code  string
	Label string
}

// classTable is the built-in class table for the default DermNET model,
// trained on the HAM10000 lesion taxonomy. Order matters and must match
// the model's output layer.
var classTable = []Class{
	{Code: "AKIEC", Label: "Actinic Keratosis / Intraepithelial Carcinoma"},
	{Code: "BCC", Label: "Basal Cell Carcinoma"},
	{Code: "BKL", Label: "Benign Keratosis"},
	{Code: "DF", Label: "Dermatofibroma"},
	{Code: "MEL", Label: "Melanoma"},
	{Code: "NV", Label: "Melanocytic Nevus"},
	{Code: "VASC", Label: "Vascular Lesion"},
}

// ClassTable returns a copy of the active class table.
func ClassTable() []Class {
	out := make([]Class, len(classTable))
	copy(out, classTable)
	return out
}

// ClassCodes returns the class codes in table order.
func ClassCodes() []string {
	codes := make([]string, len(classTable))
	for i, c := range classTable {
		codes[i] = c.Code
	}
	return codes
}

// parseClassLine splits a "CODE_Human Label" line into its parts.
func parseClassLine(line string) (code, label string, ok bool) {
	parts := strings.SplitN(line, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return strings.ToUpper(parts[0]), parts[1], true
}

// LoadClassTable reads an external class table file, one "CODE_Label" line
// per class, in model output order. Used when a custom model ships its own
// class list.
func LoadClassTable(path string) ([]Class, error) {
	file, err := os.Open(path) //nolint:gosec // G304: path comes from application settings
	if err != nil {
		return nil, errors.New(err).
			Component("dermnet").
			Category(errors.CategoryFileIO).
			Context("label_path", path).
			Build()
	}
	defer file.Close()

	var classes []Class
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		code, label, ok := parseClassLine(line)
		if !ok {
			return nil, errors.Newf("malformed class table line: %q", line).
				Component("dermnet").
				Category(errors.CategoryConfiguration).
				Context("label_path", path).
				Build()
		}
		classes = append(classes, Class{Code: code, Label: label})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(err).
			Component("dermnet").
			Category(errors.CategoryFileIO).
			Context("label_path", path).
			Build()
	}
	if len(classes) == 0 {
		return nil, errors.Newf("class table file %s contains no classes", path).
			Component("dermnet").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return classes, nil
}
