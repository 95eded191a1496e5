// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the docqa config directory (~/.docqa).
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable prompt templates
//   - PromptWatcher: reloads prompt templates when their files change
package file
