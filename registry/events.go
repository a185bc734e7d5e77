package registry

import (
	"encoding/json"
	"fmt"
)

// Listener is a callback function that receives events during a run.
type Listener func(fmt.Stringer)

func jsonString(v interface{}) string {
	b, _ := json.Marshal(map[string]interface{}{
		fmt.Sprintf("%T", v): v,
	})
	return string(b)
}

// EventBundleScanned is emitted when a bundle contributed dependencies.
type EventBundleScanned struct {
	Bundle   string `json:"bundle,omitempty"`
	Packages int    `json:"packages,omitempty"`
}

func (e EventBundleScanned) String() string { return jsonString(e) }

// EventMetadataError is emitted when a bundle's metadata could not be read
// or parsed. The bundle is skipped; the run continues.
type EventMetadataError struct {
	Bundle string `json:"bundle,omitempty"`
	Err    string `json:"err,omitempty"`
}

func (e EventMetadataError) String() string { return jsonString(e) }
