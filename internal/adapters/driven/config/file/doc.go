// Package file keeps user-editable state under the data directory:
// config.toml, holding the settings, and prompts/*.txt, the LLM templates.
// Both are plain files a reader may open in an editor.
package file
