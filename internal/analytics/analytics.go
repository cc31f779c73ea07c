package analytics

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"

	"weavectl/internal/model"
)

// Load reads analytics.json. The file is owned by the desktop launcher; this
// package only reads it.
func Load(fs afero.Fs, path string) (model.Analytics, error) {
	var a model.Analytics
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return a, fmt.Errorf("read analytics: %w", err)
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("decode analytics %s: %w", path, err)
	}
	return a, nil
}
