/*
Package domain contains the core data model of the arvis launcher engine.

It defines the entities the trigger/action-chain engine works with and is kept free of I/O,
following the same hexagonal split as the rest of the module: adapters live under pkg/adapters and
talk to the engine only through the interfaces in pkg/ports.

# Key Entities

  - Trigger: a frame of the trigger stack (one interactive mode: keyword, script filter or hotkey).
  - Action: an immutable action descriptor loaded from an extension manifest.
  - Item: the tagged union of selectable rows (Command, PluginItem, ScriptFilterItem).
  - ScriptFilterResult: the normalized output of a script filter.
  - Extension: the installed workflow or plugin that owns commands, variables and scripts.
*/
package domain
