// Package render drives a ComfyUI server to turn b-roll briefs into
// images: it injects each scene's prompt and seed into an API-format
// workflow, queues it, polls for completion, and downloads the result.
package render

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Workflow is a ComfyUI API-format workflow: node id to node, where
// each node carries "class_type" and "inputs".
type Workflow map[string]map[string]any

// LoadWorkflow reads an API-format workflow JSON file.
func LoadWorkflow(path string) (Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow: %w", err)
	}
	var w Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse workflow %s: %w", path, err)
	}
	return w, nil
}

// Clone deep-copies the workflow so per-scene mutations don't leak
// between renders.
func (w Workflow) Clone() Workflow {
	data, err := json.Marshal(w)
	if err != nil {
		return nil
	}
	var out Workflow
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

// SetPrompt writes text into the first positive CLIPTextEncode node.
// Nodes titled "negative" (in _meta) are left alone.
func (w Workflow) SetPrompt(text string) error {
	for _, node := range w {
		if node["class_type"] != "CLIPTextEncode" {
			continue
		}
		if isNegativeNode(node) {
			continue
		}
		inputs, ok := node["inputs"].(map[string]any)
		if !ok {
			continue
		}
		inputs["text"] = text
		return nil
	}
	return fmt.Errorf("workflow has no positive CLIPTextEncode node")
}

// SetSeed writes the sampler seed into every KSampler node.
func (w Workflow) SetSeed(seed int32) {
	for _, node := range w {
		class, _ := node["class_type"].(string)
		if !strings.HasPrefix(class, "KSampler") {
			continue
		}
		if inputs, ok := node["inputs"].(map[string]any); ok {
			inputs["seed"] = int64(seed)
		}
	}
}

func isNegativeNode(node map[string]any) bool {
	meta, ok := node["_meta"].(map[string]any)
	if !ok {
		return false
	}
	title, _ := meta["title"].(string)
	return strings.Contains(strings.ToLower(title), "negative")
}
