/*
Package domain contains the core domain models of the canopy state machine processor.

It defines the declarative description of a hierarchical state machine, the reserved
words of the definition language, the error taxonomy and the lifecycle events emitted
while a machine runs. This package is kept pure and free of I/O, following the same
hexagonal split as the rest of the module.

# Key Entities

  - StateDefinition: A (possibly composite) state with children, entry/exit actions and transitions.
  - TransitionDefinition: An event-triggered edge with guard conditions, actions and a destination.
  - ActionDescriptor: A structured reference (name + arguments) to a user supplied function.
  - LifecycleHooks: Observability callbacks fired on entry, exit and transitions.
*/
package domain
