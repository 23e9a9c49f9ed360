/*
Package ports defines the driven ports (interfaces) of the arvis engine.

These interfaces decouple the trigger/action-chain engine from the processes,
manifests, stores and desktop services it drives, so every collaborator can be
replaced by a fake in tests.

# Key Interfaces

  - ScriptRunner: runs a shell command string and returns a cancelable future.
  - ActionDispatcher: executes non-trigger actions and returns what is left to do.
  - ExtensionCatalog: resolves installed workflows and plugins by bundle id.
  - HistoryStore: persists the inputs that started an interaction.
  - Scheduler: delivers callbacks onto the engine's single goroutine.
*/
package ports
