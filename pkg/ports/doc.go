/*
Package ports defines the interfaces between a canopy machine and the
outside world.

These interfaces decouple the machine from where its definition comes from,
where its events come from, and which transport drives it.

# Key Interfaces

  - DefinitionLoader: produces a StateDefinition (e.g., from a YAML file or memory).
  - EventSource: yields event names from an external inbox (e.g., a Redis list).
  - Machine: the surface that transport adapters (HTTP, MCP) drive.
*/
package ports
